package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/inkpot/folio/internal/assistant"
	"github.com/inkpot/folio/internal/book"
	"github.com/inkpot/folio/internal/locale"
	"github.com/inkpot/folio/internal/session"
	"github.com/inkpot/folio/internal/settings"
)

type stubBackend struct {
	assistant.Client
}

func (stubBackend) SummarizeBook(ctx context.Context, title, author, fullText, language string) (string, error) {
	return "stub summary", nil
}

func (stubBackend) Chat(ctx context.Context, messages []assistant.Message, book *assistant.BookContext, language string) (string, error) {
	return "stub reply", nil
}

func newTestModel(t *testing.T, backend assistant.Client) *model {
	t.Helper()
	store := settings.Open(t.TempDir())
	m, ok := New(Config{Backend: backend, Store: store}).(*model)
	if !ok {
		t.Fatalf("New did not return *model")
	}
	return m
}

func loadChapters(t *testing.T, m *model) *book.Chapters {
	t.Helper()
	doc := &book.Chapters{
		BookTitle: "Fables",
		List: []book.Chapter{
			{ID: "c1", Title: "One", Text: "first chapter text"},
			{ID: "c2", Title: "Two", Text: "second chapter text"},
			{ID: "c3", Title: "Three", Text: "third chapter text"},
		},
	}
	if _, cmd := m.Update(ingestResultMsg{doc: doc}); cmd == nil {
		t.Fatalf("loading a book should schedule the notice expiry")
	}
	return doc
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestEnterOnWelcomeStartsIngestion(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, nil)
	m.pathInput.SetValue("/tmp/some-book.txt")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.stage != stageLoading {
		t.Fatalf("stage = %v, want loading", m.stage)
	}
	if cmd == nil {
		t.Fatalf("no ingest command returned")
	}
}

func TestEmptyPathDoesNotStartIngestion(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, nil)
	m.pathInput.SetValue("   ")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.stage != stageWelcome {
		t.Fatalf("blank path advanced stage to %v", m.stage)
	}
}

func TestIngestFailureReturnsToWelcomeWithLocalizedError(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, nil)
	m.stage = stageLoading
	m.Update(ingestResultMsg{err: &book.IngestError{Format: "FB2", Err: book.ErrPlannedFormat}})
	if m.stage != stageWelcome {
		t.Fatalf("stage = %v, want welcome", m.stage)
	}
	if !m.notice.isErr || !strings.Contains(m.notice.text, "FB2") {
		t.Fatalf("notice = %+v, want planned-format message naming FB2", m.notice)
	}
}

func TestIngestSuccessEntersReading(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, nil)
	loadChapters(t, m)
	if m.stage != stageReading || m.panel != panelContent {
		t.Fatalf("stage/panel = %v/%v", m.stage, m.panel)
	}
	if m.sess.Document() == nil {
		t.Fatalf("session has no document")
	}
	if !strings.Contains(m.notice.text, "Fables") {
		t.Fatalf("loaded notice = %q", m.notice.text)
	}
}

func TestArrowKeysAdvanceChapters(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, nil)
	loadChapters(t, m)
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.sess.Navigator().Position() != 1 {
		t.Fatalf("right arrow moved to %d", m.sess.Navigator().Position())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.sess.Navigator().Position() != 0 {
		t.Fatalf("left arrow at start moved to %d", m.sess.Navigator().Position())
	}
}

func TestSeekPanelJumpsByPercent(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, nil)
	loadChapters(t, m)
	m.Update(keyRune('%'))
	if m.panel != panelSeek {
		t.Fatalf("panel = %v, want seek", m.panel)
	}
	m.seekInput.SetValue("40")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.panel != panelContent {
		t.Fatalf("seek panel did not close")
	}
	if m.sess.Navigator().Position() != 1 {
		t.Fatalf("seek(40) over 3 chapters moved to %d, want 1", m.sess.Navigator().Position())
	}
}

func TestSettingsAdjustWritesThrough(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, nil)
	loadChapters(t, m)
	m.Update(keyRune('s'))
	if m.panel != panelSettings {
		t.Fatalf("panel = %v, want settings", m.panel)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := m.config.Store.Current().FontSize; got != 19 {
		t.Fatalf("font size after increment = %d, want 19", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if got := m.config.Store.Current().FontSize; got != 17 {
		t.Fatalf("font size after decrements = %d, want 17", got)
	}
}

func TestLanguageToggleAffectsMessages(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, nil)
	loadChapters(t, m)
	m.Update(keyRune('L'))
	if m.config.Store.Language() != locale.Chinese {
		t.Fatalf("language = %q, want zh", m.config.Store.Language())
	}
	if m.t(locale.MsgNoDocument) != locale.T(locale.Chinese, locale.MsgNoDocument) {
		t.Fatalf("messages did not switch language")
	}
}

func TestAssistantWithoutBackendIsRejected(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, nil)
	loadChapters(t, m)
	m.Update(keyRune('a'))
	m.Update(keyRune('1'))
	if !m.notice.isErr {
		t.Fatalf("summary without backend should raise an error notice, got %+v", m.notice)
	}
	if m.sess.InFlight(session.FeatureBookSummary) {
		t.Fatalf("no request should be in flight")
	}
}

func TestSummaryRequestIsGuardedPerFeature(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, stubBackend{})
	loadChapters(t, m)
	m.Update(keyRune('a'))

	if _, cmd := m.Update(keyRune('1')); cmd == nil {
		t.Fatalf("first summary request should start a job")
	}
	if !m.sess.InFlight(session.FeatureBookSummary) {
		t.Fatalf("summary not marked in flight")
	}

	m.Update(keyRune('1'))
	if m.notice.text != m.t(locale.MsgGenerationPending) {
		t.Fatalf("second request notice = %q, want pending rejection", m.notice.text)
	}

	// Result lands: guard released, cache filled.
	m.Update(summaryResultMsg{summary: "done"})
	if m.sess.InFlight(session.FeatureBookSummary) {
		t.Fatalf("guard not released after result")
	}
	if value, ok := m.sess.Cached(session.FeatureBookSummary); !ok || value.(string) != "done" {
		t.Fatalf("summary not cached: %v %v", value, ok)
	}
}

func TestCachedSummaryIsNotRefetched(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, stubBackend{})
	loadChapters(t, m)
	m.sess.StoreResult(session.FeatureBookSummary, "cached")
	m.Update(keyRune('a'))
	if _, cmd := m.Update(keyRune('1')); cmd != nil {
		t.Fatalf("cached summary should not start a new job")
	}
}

func TestChatAppendsUserMessageAndGuards(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, stubBackend{})
	loadChapters(t, m)
	m.Update(keyRune('c'))
	if m.panel != panelChat {
		t.Fatalf("panel = %v, want chat", m.panel)
	}

	m.chatInput.SetValue("what is the moral?")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	transcript := m.sess.Transcript()
	if len(transcript) != 1 || transcript[0].Role != assistant.RoleUser {
		t.Fatalf("transcript after send = %+v", transcript)
	}
	if !m.sess.InFlight(session.FeatureChat) {
		t.Fatalf("chat not marked in flight")
	}

	// A second send while pending is rejected without touching the transcript.
	m.chatInput.SetValue("another question")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.sess.Transcript()) != 1 {
		t.Fatalf("rejected send modified the transcript")
	}

	m.Update(chatResultMsg{reply: "the reply"})
	transcript = m.sess.Transcript()
	if len(transcript) != 2 || transcript[1].Role != assistant.RoleAssistant || transcript[1].Content != "the reply" {
		t.Fatalf("transcript after reply = %+v", transcript)
	}
}

func TestChatFailureKeepsUserMessage(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, stubBackend{})
	loadChapters(t, m)
	m.Update(keyRune('c'))
	m.chatInput.SetValue("hello")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(chatResultMsg{err: errors.New("backend down")})
	if len(m.sess.Transcript()) != 1 {
		t.Fatalf("failed send should keep the user message, transcript = %+v", m.sess.Transcript())
	}
	if !m.notice.isErr {
		t.Fatalf("failure should raise an error notice")
	}
}

func TestReplacingBookDropsAssistantState(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, stubBackend{})
	loadChapters(t, m)
	m.sess.StoreResult(session.FeatureBookSummary, "old summary")
	m.sess.AppendMessage(assistant.RoleUser, "old question")

	m.Update(ingestResultMsg{doc: &book.FlatText{BookTitle: "Other", Content: "plain text"}})
	if _, ok := m.sess.Cached(session.FeatureBookSummary); ok {
		t.Fatalf("cache survived book replacement")
	}
	if len(m.sess.Transcript()) != 0 {
		t.Fatalf("transcript survived book replacement")
	}
}

func TestNoticeExpiryIgnoresStaleSerial(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, nil)
	m.setNotice("first", false)
	stale := m.notice.serial
	m.setNotice("second", false)
	m.Update(noticeExpiredMsg{serial: stale})
	if m.notice.text != "second" {
		t.Fatalf("stale expiry dismissed the current notice")
	}
	m.Update(noticeExpiredMsg{serial: m.notice.serial})
	if m.notice.text != "" {
		t.Fatalf("matching expiry did not dismiss the notice")
	}
}

func TestTOCPanelActivatesEntries(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, nil)
	loadChapters(t, m)
	m.Update(keyRune('t'))
	if m.panel != panelTOC {
		t.Fatalf("panel = %v, want TOC", m.panel)
	}
	if len(m.tocEntries) != 3 {
		t.Fatalf("toc entries = %d, want one per chapter", len(m.tocEntries))
	}
	m.Update(keyRune('j'))
	m.Update(keyRune('j'))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.panel != panelContent {
		t.Fatalf("activation should close the panel")
	}
	if m.sess.Navigator().Position() != 2 {
		t.Fatalf("activation moved to %d, want 2", m.sess.Navigator().Position())
	}
}

func TestViewRendersWithoutDocumentInteraction(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, nil)
	if view := m.View(); !strings.Contains(view, "folio") {
		t.Fatalf("welcome view missing app name: %q", view)
	}
	loadChapters(t, m)
	if view := m.View(); !strings.Contains(view, "Fables") {
		t.Fatalf("reading view missing book title: %q", view)
	}
}
