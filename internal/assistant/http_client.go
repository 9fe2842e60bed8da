package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// envelope is the uniform {success, data|error} wrapper every endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// ErrBackend wraps any transport failure, timeout, or non-success envelope.
var ErrBackend = errors.New("assistant backend unavailable")

type httpClient struct {
	base   string
	client *http.Client
}

func (c *httpClient) BaseURL() string {
	return c.base
}

func (c *httpClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s", ErrBackend, resp.Status)
	}
	return nil
}

func (c *httpClient) ParseEPUB(ctx context.Context, filename string, data []byte) (*ParsedBook, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/upload-epub", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s (%s)", ErrBackend, resp.Status, upstreamDetail(body))
	}

	var book ParsedBook
	if err := json.Unmarshal(body, &book); err != nil {
		return nil, fmt.Errorf("%w: malformed parse response: %v", ErrBackend, err)
	}
	return &book, nil
}

func (c *httpClient) SummarizeBook(ctx context.Context, title, author, fullText, language string) (string, error) {
	payload := map[string]any{
		"title":     title,
		"author":    author,
		"full_text": fullText,
		"language":  language,
	}
	data, err := c.postJSON(ctx, "/api/book-summary", payload)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: malformed summary response: %v", ErrBackend, err)
	}
	return strings.TrimSpace(parsed.Summary), nil
}

func (c *httpClient) SummarizeChapters(ctx context.Context, bookTitle string, chapters []Chapter, language string) ([]ChapterSummary, error) {
	payload := map[string]any{
		"book_title": bookTitle,
		"chapters":   chapters,
		"language":   language,
	}
	data, err := c.postJSON(ctx, "/api/chapter-summaries", payload)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		ChapterSummaries []ChapterSummary `json:"chapter_summaries"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed summaries response: %v", ErrBackend, err)
	}
	return parsed.ChapterSummaries, nil
}

func (c *httpClient) AnalyzeContent(ctx context.Context, bookTitle, content, analysisType, language string) (string, error) {
	payload := map[string]any{
		"book_title":    bookTitle,
		"content":       content,
		"analysis_type": analysisType,
		"language":      language,
	}
	data, err := c.postJSON(ctx, "/api/content-analysis", payload)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Analysis string `json:"analysis"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: malformed analysis response: %v", ErrBackend, err)
	}
	return strings.TrimSpace(parsed.Analysis), nil
}

func (c *httpClient) Chat(ctx context.Context, messages []Message, book *BookContext, language string) (string, error) {
	payload := map[string]any{
		"messages": messages,
		"language": language,
	}
	if book != nil {
		payload["book_context"] = book
	}
	data, err := c.postJSON(ctx, "/api/chat", payload)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: malformed chat response: %v", ErrBackend, err)
	}
	return strings.TrimSpace(parsed.Response), nil
}

func (c *httpClient) AskQuestion(ctx context.Context, bookTitle, question string) (string, error) {
	params := url.Values{}
	params.Set("book_title", bookTitle)
	params.Set("question", question)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/ask-question?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	data, err := c.doEnvelope(req)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: malformed answer response: %v", ErrBackend, err)
	}
	return strings.TrimSpace(parsed.Answer), nil
}

func (c *httpClient) postJSON(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doEnvelope(req)
}

func (c *httpClient) doEnvelope(req *http.Request) (json.RawMessage, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s (%s)", ErrBackend, resp.Status, upstreamDetail(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope: %v", ErrBackend, err)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request failed"
		}
		return nil, fmt.Errorf("%w: %s", ErrBackend, msg)
	}
	return env.Data, nil
}

func upstreamDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Detail != "" {
			return parsed.Detail
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > 256 {
		detail = detail[:256]
	}
	return detail
}
