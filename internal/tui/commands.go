package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/inkpot/folio/internal/assistant"
	"github.com/inkpot/folio/internal/book"
)

type ingestResultMsg struct {
	doc book.Document
	err error
}

type summaryResultMsg struct {
	summary string
	err     error
}

type chapterSummariesMsg struct {
	items []assistant.ChapterSummary
	err   error
}

type analysisResultMsg struct {
	analysis string
	err      error
}

type chatResultMsg struct {
	reply string
	err   error
}

type settingsReloadedMsg struct{}

func ingestBookJob(ing *book.Ingester, path string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 60*time.Second)
		defer cancel()
		doc, err := ing.Open(ctx, path)
		return ingestResultMsg{doc: doc, err: err}, err
	}
}

func bookSummaryJob(client assistant.Client, title, author, fullText, language string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
		defer cancel()
		summary, err := client.SummarizeBook(ctx, title, author, fullText, language)
		return summaryResultMsg{summary: summary, err: err}, err
	}
}

func chapterSummariesJob(client assistant.Client, bookTitle string, chapters []assistant.Chapter, language string) jobRunner {
	toSend := append([]assistant.Chapter(nil), chapters...)
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 3*time.Minute)
		defer cancel()
		items, err := client.SummarizeChapters(ctx, bookTitle, toSend, language)
		return chapterSummariesMsg{items: items, err: err}, err
	}
}

func contentAnalysisJob(client assistant.Client, bookTitle, content, analysisType, language string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
		defer cancel()
		analysis, err := client.AnalyzeContent(ctx, bookTitle, content, analysisType, language)
		return analysisResultMsg{analysis: analysis, err: err}, err
	}
}

func chatJob(client assistant.Client, messages []assistant.Message, bookCtx assistant.BookContext, language string) jobRunner {
	toSend := append([]assistant.Message(nil), messages...)
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
		defer cancel()
		reply, err := client.Chat(ctx, toSend, &bookCtx, language)
		return chatResultMsg{reply: reply, err: err}, err
	}
}

// waitForSettingsChange blocks on the watcher channel and converts one signal
// into a message; the update loop re-arms it after each delivery.
func waitForSettingsChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return settingsReloadedMsg{}
	}
}

func expireNoticeCmd(serial int) tea.Cmd {
	return tea.Tick(noticeLifetime, func(time.Time) tea.Msg {
		return noticeExpiredMsg{serial: serial}
	})
}
