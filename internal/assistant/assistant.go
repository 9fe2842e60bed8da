// Package assistant is the client for the remote reading-assistant backend:
// EPUB parsing, book and chapter summaries, content analysis, and chat. The
// backend is stateless, so every call carries the full context it needs.
package assistant

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"
)

// The backend routes long prompts through a reasoning model; single calls
// regularly take tens of seconds, so the client timeout stays generous.
const defaultHTTPTimeout = 90 * time.Second

const defaultBaseURL = "http://localhost:8000"

// Config describes how to build a backend client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Message is one transcript entry exchanged with the chat endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcript roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// BookContext identifies the loaded book for a chat request.
type BookContext struct {
	Title          string `json:"title"`
	Author         string `json:"author"`
	CurrentChapter string `json:"current_chapter,omitempty"`
	Language       string `json:"language,omitempty"`
}

// Chapter is the per-chapter payload for summarization requests.
type Chapter struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ChapterSummary is one entry of a chapter-summaries response.
type ChapterSummary struct {
	Title   string `json:"chapter_title"`
	Summary string `json:"summary"`
}

// BookMetadata carries the descriptive fields of a parsed book.
type BookMetadata struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	Language  string `json:"language"`
	Publisher string `json:"publisher"`
}

// ParsedChapter is one spine document returned by the EPUB parsing endpoint.
// Content is cleaned HTML; Text is the extracted plain text.
type ParsedChapter struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Text    string `json:"text"`
}

// OutlineItem is one flattened TOC entry with its nesting depth.
type OutlineItem struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Level int    `json:"level"`
}

// ParsedBook is the full payload of a successful EPUB parse.
type ParsedBook struct {
	ID       string          `json:"id"`
	Metadata BookMetadata    `json:"metadata"`
	Chapters []ParsedChapter `json:"chapters"`
	TOC      []OutlineItem   `json:"toc"`
	FullText string          `json:"full_text"`
}

// Client exposes every backend operation the reader consumes.
type Client interface {
	Health(ctx context.Context) error
	ParseEPUB(ctx context.Context, filename string, data []byte) (*ParsedBook, error)
	SummarizeBook(ctx context.Context, title, author, fullText, language string) (string, error)
	SummarizeChapters(ctx context.Context, bookTitle string, chapters []Chapter, language string) ([]ChapterSummary, error)
	AnalyzeContent(ctx context.Context, bookTitle, content, analysisType, language string) (string, error)
	Chat(ctx context.Context, messages []Message, book *BookContext, language string) (string, error)
	AskQuestion(ctx context.Context, bookTitle, question string) (string, error)
	BaseURL() string
}

// New builds a backend client, consulting FOLIO_BACKEND_URL when the config
// leaves the base URL empty.
func New(cfg Config) Client {
	base := cfg.BaseURL
	if base == "" {
		if env := os.Getenv("FOLIO_BACKEND_URL"); env != "" {
			base = env
		} else {
			base = defaultBaseURL
		}
	}
	return &httpClient{
		base:   strings.TrimRight(base, "/"),
		client: pickHTTPClient(cfg.HTTPClient),
	}
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}
