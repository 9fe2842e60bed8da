package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/inkpot/folio/internal/assistant"
	"github.com/inkpot/folio/internal/settings"
	"github.com/inkpot/folio/internal/tui"
)

func main() {
	backendURL := flag.String("backend", "", "reading-assistant backend URL (default $FOLIO_BACKEND_URL or http://localhost:8000)")
	noBackend := flag.Bool("no-backend", false, "disable the reading assistant entirely")
	configDir := flag.String("config-dir", settings.DefaultDir(), "directory for persisted reader settings")
	noAltScreen := flag.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	flag.Parse()

	store := settings.Open(*configDir)

	var backend assistant.Client
	if !*noBackend {
		backend = assistant.New(assistant.Config{BaseURL: *backendURL})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events <-chan struct{}
	if ch, err := store.Watch(ctx); err != nil {
		fmt.Println("settings watcher disabled:", err)
	} else {
		events = ch
	}

	opts := []tea.ProgramOption{}
	if !*noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Backend:        backend,
			Store:          store,
			SettingsEvents: events,
		}),
		opts...,
	)

	if _, err := program.Run(); err != nil {
		fmt.Println("program error:", err)
		os.Exit(1)
	}
}
