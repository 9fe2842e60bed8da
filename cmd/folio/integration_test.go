package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/inkpot/folio/internal/tuitest"
)

func TestFolioOpensPlainTextBook(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	tmp := t.TempDir()
	bookPath := filepath.Join(tmp, "fable.txt")
	content := "Chapter 1. The Fox\n\nA fox admired grapes it could not reach.\n\nChapter 2. The Moral\n\nIt left, declaring them sour.\n"
	if err := os.WriteFile(bookPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	binary := buildBinary(t, cmdDir)
	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "-no-alt-screen", "-no-backend", "-config-dir", filepath.Join(tmp, "config")},
		Dir:     cmdDir,
		Width:   100,
		Height:  32,
		Steps: []tuitest.Step{
			{Delay: time.Second},
			{Input: []byte(bookPath)},
			{Input: tuitest.KeyEnter},
			{Delay: time.Second},
			{Input: []byte("q")},
		},
		Timeout:        10 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}

	if !rec.AnyFrameContains("folio") {
		t.Fatalf("welcome screen never rendered")
	}
	if !rec.AnyFrameContains("fable") {
		frame, _ := rec.FinalFrame()
		t.Fatalf("book title never rendered; final frame:\n%s", frame.Plain)
	}
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	tmp := t.TempDir()
	name := "folio-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(tmp, name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}
