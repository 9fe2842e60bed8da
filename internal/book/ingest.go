package book

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/inkpot/folio/internal/assistant"
)

var supportedExtensions = map[string]bool{
	".txt": true, ".html": true, ".htm": true, ".pdf": true, ".epub": true,
}

// plannedExtensions are recognized but not yet implemented; they get a
// distinct "coming soon" rejection instead of a generic one.
var plannedExtensions = map[string]bool{
	".mobi": true, ".azw3": true, ".fb2": true, ".djvu": true, ".doc": true, ".docx": true,
}

// FormatLabel returns the display name for an extension ("fb2" -> "FB2").
func FormatLabel(ext string) string {
	return strings.ToUpper(strings.TrimPrefix(ext, "."))
}

// Classify validates the extension of name against the allow-list. It returns
// the normalized extension, or an ingest error before any parsing happens.
func Classify(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case supportedExtensions[ext]:
		return ext, nil
	case plannedExtensions[ext]:
		return "", ingestErr(FormatLabel(ext), ErrPlannedFormat, nil)
	default:
		return "", ingestErr(FormatLabel(ext), ErrUnsupportedFormat, nil)
	}
}

// Ingester turns raw files into documents. The assistant client handles EPUB
// parsing remotely; when it is nil the local fallback parser is used.
type Ingester struct {
	Backend assistant.Client
}

// Open reads and ingests the file at path.
func (ing *Ingester) Open(ctx context.Context, path string) (Document, error) {
	ext, err := Classify(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ingestErr(FormatLabel(ext), ErrCorrupt, err)
	}
	return ing.Ingest(ctx, filepath.Base(path), data)
}

// Ingest parses raw bytes according to the declared file name. On failure the
// caller's active document stays untouched; errors here are terminal for this
// ingestion only.
func (ing *Ingester) Ingest(ctx context.Context, name string, data []byte) (Document, error) {
	ext, err := Classify(name)
	if err != nil {
		return nil, err
	}
	switch ext {
	case ".txt":
		return ingestText(name, data), nil
	case ".html", ".htm":
		return ingestHTML(name, data), nil
	case ".pdf":
		return ingestPDF(name, data)
	case ".epub":
		return ing.ingestEPUB(ctx, name, data)
	}
	// Classify guarantees one of the cases above matched.
	return nil, ingestErr(FormatLabel(ext), ErrUnsupportedFormat, nil)
}

// titleFromFilename strips the extension to form a fallback title.
func titleFromFilename(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
