// Package session owns the process-scoped reading state: the active document,
// its navigator, the chat transcript, cached assistant results, and the
// per-feature in-flight guard. Views receive the session by reference instead
// of reading ambient globals. All mutation happens on the single event loop,
// so there is no locking.
package session

import (
	"errors"

	"github.com/inkpot/folio/internal/assistant"
	"github.com/inkpot/folio/internal/book"
	"github.com/inkpot/folio/internal/nav"
)

// ErrNoDocument reports an operation that needs a loaded book. It is checked
// proactively before any assistant call rather than relying on a backend
// error.
var ErrNoDocument = errors.New("no document loaded")

// ErrBusy reports a second request for a feature whose previous request is
// still in flight. Policy: at most one in-flight request per feature; the
// newcomer is rejected, never raced.
var ErrBusy = errors.New("request already in flight")

// Feature keys the assistant result cache and the in-flight guard.
type Feature string

const (
	FeatureBookSummary      Feature = "book-summary"
	FeatureChapterSummaries Feature = "chapter-summaries"
	FeatureContentAnalysis  Feature = "content-analysis"
	FeatureChat             Feature = "chat"
)

// Session is the single mutable application state object.
type Session struct {
	doc        book.Document
	navigator  nav.Navigator
	transcript []assistant.Message
	cache      map[Feature]any
	inFlight   map[Feature]bool
}

// New returns an empty session with nothing loaded.
func New() *Session {
	return &Session{
		cache:    map[Feature]any{},
		inFlight: map[Feature]bool{},
	}
}

// Document returns the active document, or nil when nothing is loaded.
func (s *Session) Document() book.Document {
	return s.doc
}

// Navigator returns the controller for the active document, or nil.
func (s *Session) Navigator() nav.Navigator {
	return s.navigator
}

// ReplaceDocument installs doc as the single active document: the assistant
// cache and chat transcript are cleared unconditionally and the position
// resets to the first unit. The previous document is discarded, never merged.
func (s *Session) ReplaceDocument(doc book.Document) {
	s.doc = doc
	s.navigator = nav.For(doc)
	s.cache = map[Feature]any{}
	s.transcript = nil
}

// Require returns ErrNoDocument when nothing is loaded.
func (s *Session) Require() error {
	if s.doc == nil {
		return ErrNoDocument
	}
	return nil
}

// Begin claims the in-flight slot for feature. It fails with ErrNoDocument
// when nothing is loaded and ErrBusy when a request for the same feature is
// still pending.
func (s *Session) Begin(feature Feature) error {
	if err := s.Require(); err != nil {
		return err
	}
	if s.inFlight[feature] {
		return ErrBusy
	}
	s.inFlight[feature] = true
	return nil
}

// Finish releases the in-flight slot for feature.
func (s *Session) Finish(feature Feature) {
	delete(s.inFlight, feature)
}

// InFlight reports whether a request for feature is pending.
func (s *Session) InFlight(feature Feature) bool {
	return s.inFlight[feature]
}

// Cached returns the last computed result for feature on the current
// document.
func (s *Session) Cached(feature Feature) (any, bool) {
	value, ok := s.cache[feature]
	return value, ok
}

// StoreResult caches a computed result for feature. Results are only valid
// for the document they were computed from, so ReplaceDocument wipes them.
func (s *Session) StoreResult(feature Feature, value any) {
	s.cache[feature] = value
}

// Invalidate drops one cached result, used by explicit refresh.
func (s *Session) Invalidate(feature Feature) {
	delete(s.cache, feature)
}

// Transcript returns the chat history, oldest first.
func (s *Session) Transcript() []assistant.Message {
	return s.transcript
}

// AppendMessage adds one transcript entry.
func (s *Session) AppendMessage(role, content string) {
	s.transcript = append(s.transcript, assistant.Message{Role: role, Content: content})
}

// ClearTranscript drops the chat history. The transcript is session-local and
// never persisted.
func (s *Session) ClearTranscript() {
	s.transcript = nil
}

// CurrentChapterTitle names the chapter under the cursor for chat context;
// empty for non-chapter documents.
func (s *Session) CurrentChapterTitle() string {
	chapters, ok := s.doc.(*book.Chapters)
	if !ok || s.navigator == nil {
		return ""
	}
	index := s.navigator.Position()
	if index < 0 || index >= len(chapters.List) {
		return ""
	}
	return chapters.List[index].Title
}
