package book

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inkpot/folio/internal/assistant"
)

const containerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const contentOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" unique-identifier="uid" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Aesop Fables</dc:title>
    <dc:identifier id="uid">test-epub</dc:identifier>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`

const tocNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <docTitle><text>Aesop Fables</text></docTitle>
  <navMap>
    <navPoint id="n1" playOrder="1">
      <navLabel><text>The Fox and the Grapes</text></navLabel>
      <content src="ch1.xhtml"/>
    </navPoint>
    <navPoint id="n2" playOrder="2">
      <navLabel><text>The Tortoise and the Hare</text></navLabel>
      <content src="ch2.xhtml"/>
      <navPoint id="n3" playOrder="3">
        <navLabel><text>The Moral</text></navLabel>
        <content src="ch2.xhtml#moral"/>
      </navPoint>
    </navPoint>
  </navMap>
</ncx>`

func chapterXHTML(title, body string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>%s</title></head>
<body><h1>%s</h1><p>%s</p></body></html>`, title, title, body)
}

func writeTestEPUB(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := []struct {
		name string
		body string
	}{
		{"mimetype", "application/epub+zip"},
		{"META-INF/container.xml", containerXML},
		{"OEBPS/content.opf", contentOPF},
		{"OEBPS/toc.ncx", tocNCX},
		{"OEBPS/ch1.xhtml", chapterXHTML("The Fox and the Grapes", "A fox admired grapes it could not reach.")},
		{"OEBPS/ch2.xhtml", chapterXHTML("The Tortoise and the Hare", "Slow and steady wins the race.")},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			t.Fatalf("zip create %s: %v", f.name, err)
		}
		if _, err := w.Write([]byte(f.body)); err != nil {
			t.Fatalf("zip write %s: %v", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	path := filepath.Join(t.TempDir(), "fables.epub")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write epub: %v", err)
	}
	return path
}

func TestLocalEPUBParseExtractsChaptersAndOutline(t *testing.T) {
	t.Parallel()

	path := writeTestEPUB(t)
	ing := &Ingester{}
	doc, err := ing.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open epub: %v", err)
	}
	chapters, ok := doc.(*Chapters)
	if !ok {
		t.Fatalf("epub should produce Chapters, got %T", doc)
	}
	if chapters.Title() != "Aesop Fables" {
		t.Fatalf("title = %q, want NCX docTitle", chapters.Title())
	}
	if len(chapters.List) != 2 {
		t.Fatalf("chapter count = %d, want 2", len(chapters.List))
	}
	if chapters.List[0].Title != "The Fox and the Grapes" {
		t.Fatalf("chapter 1 title = %q", chapters.List[0].Title)
	}
	if !strings.Contains(chapters.List[1].Text, "Slow and steady") {
		t.Fatalf("chapter 2 text = %q", chapters.List[1].Text)
	}
	if len(chapters.Outline) != 2 {
		t.Fatalf("outline roots = %d, want 2", len(chapters.Outline))
	}
	if len(chapters.Outline[1].Children) != 1 || chapters.Outline[1].Children[0].Title != "The Moral" {
		t.Fatalf("nested outline lost: %+v", chapters.Outline[1])
	}
	if chapters.Outline[1].Children[0].Level != 1 {
		t.Fatalf("nested entry level = %d, want 1", chapters.Outline[1].Children[0].Level)
	}
}

func TestEPUBGarbageIsCorrupt(t *testing.T) {
	t.Parallel()

	ing := &Ingester{}
	_, err := ing.Ingest(context.Background(), "junk.epub", []byte("not a zip archive"))
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("garbage epub = %v, want ErrCorrupt", err)
	}
}

// fakeBackend satisfies assistant.Client for ingestion tests.
type fakeBackend struct {
	assistant.Client

	parsed   *assistant.ParsedBook
	parseErr error
}

func (f *fakeBackend) ParseEPUB(ctx context.Context, filename string, data []byte) (*assistant.ParsedBook, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.parsed, nil
}

func TestBackendEPUBParsePreferred(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		parsed: &assistant.ParsedBook{
			Metadata: assistant.BookMetadata{Title: "Remote Fables", Author: "Aesop"},
			Chapters: []assistant.ParsedChapter{
				{ID: "c1", Title: "One", Content: "<p>remote text</p>"},
			},
			TOC: []assistant.OutlineItem{{Title: "One", Href: "c1", Level: 0}},
		},
	}
	ing := &Ingester{Backend: backend}
	doc, err := ing.Ingest(context.Background(), "fables.epub", []byte("bytes"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	chapters := doc.(*Chapters)
	if chapters.Title() != "Remote Fables" || chapters.Author() != "Aesop" {
		t.Fatalf("metadata lost: %q / %q", chapters.Title(), chapters.Author())
	}
	if len(chapters.List) != 1 || chapters.List[0].Text != "remote text" {
		t.Fatalf("text should fall back to HTML extraction: %+v", chapters.List)
	}
	if len(chapters.Outline) != 1 || chapters.Outline[0].Target != "c1" {
		t.Fatalf("outline lost: %+v", chapters.Outline)
	}
}

func TestBackendEPUBFailureIsBackendUnavailable(t *testing.T) {
	t.Parallel()

	ing := &Ingester{Backend: &fakeBackend{parseErr: errors.New("connection refused")}}
	_, err := ing.Ingest(context.Background(), "fables.epub", []byte("bytes"))
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("backend failure = %v, want ErrBackendUnavailable", err)
	}
}
