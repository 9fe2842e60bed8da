package book

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"

	"github.com/inkpot/folio/internal/assistant"
)

// ingestEPUB prefers the backend's parsing endpoint, which returns cleaned
// per-chapter HTML plus an outline. Without a configured backend the local
// parser keeps the reader usable offline.
func (ing *Ingester) ingestEPUB(ctx context.Context, name string, data []byte) (*Chapters, error) {
	if ing.Backend == nil {
		return parseEPUBLocal(name, data)
	}
	parsed, err := ing.Backend.ParseEPUB(ctx, name, data)
	if err != nil {
		return nil, ingestErr("EPUB", ErrBackendUnavailable, err)
	}
	return chaptersFromParsedBook(parsed, name), nil
}

func chaptersFromParsedBook(parsed *assistant.ParsedBook, name string) *Chapters {
	doc := &Chapters{
		BookTitle:  parsed.Metadata.Title,
		BookAuthor: parsed.Metadata.Author,
	}
	if doc.BookTitle == "" {
		doc.BookTitle = titleFromFilename(name)
	}
	for _, chapter := range parsed.Chapters {
		text := chapter.Text
		if text == "" {
			text = ExtractHTMLText(chapter.Content)
		}
		doc.List = append(doc.List, Chapter{
			ID:          chapter.ID,
			Title:       chapter.Title,
			ContentHTML: chapter.Content,
			Text:        text,
		})
	}
	// The backend flattens its outline; Level alone carries the hierarchy.
	for _, item := range parsed.TOC {
		doc.Outline = append(doc.Outline, OutlineEntry{
			Title:  item.Title,
			Target: item.Href,
			Level:  item.Level,
		})
	}
	return doc
}

// parseEPUBLocal extracts spine documents and the NCX outline directly from
// the archive. The epub library wants a file path, so the bytes go through a
// temp file first.
func parseEPUBLocal(name string, data []byte) (*Chapters, error) {
	tmp, err := os.CreateTemp("", "folio-*.epub")
	if err != nil {
		return nil, ingestErr("EPUB", ErrCorrupt, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, ingestErr("EPUB", ErrCorrupt, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, ingestErr("EPUB", ErrCorrupt, err)
	}

	rc, err := epub.OpenReader(tmp.Name())
	if err != nil {
		return nil, ingestErr("EPUB", ErrCorrupt, err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, ingestErr("EPUB", ErrCorrupt, fmt.Errorf("no rootfiles in archive"))
	}
	rootfile := rc.Rootfiles[0]

	nav := readNCX(tmp.Name(), rootfile)

	doc := &Chapters{
		BookTitle:  nav.title,
		BookAuthor: "",
		Outline:    nav.entries,
	}
	if doc.BookTitle == "" {
		doc.BookTitle = titleFromFilename(name)
	}

	for i, ref := range rootfile.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			continue
		}
		text := ExtractHTMLText(string(raw))
		if strings.TrimSpace(text) == "" {
			continue
		}
		title := nav.titleFor(ref.Item.HREF)
		if title == "" {
			title = fmt.Sprintf("Chapter %d", len(doc.List)+1)
		}
		doc.List = append(doc.List, Chapter{
			ID:          spineID(ref.Item.HREF, i),
			Title:       title,
			ContentHTML: string(raw),
			Text:        text,
		})
	}
	if len(doc.List) == 0 {
		return nil, ingestErr("EPUB", ErrCorrupt, fmt.Errorf("no readable chapters"))
	}
	return doc, nil
}

func spineID(href string, index int) string {
	if href != "" {
		return href
	}
	return fmt.Sprintf("spine-%d", index)
}

// NCX structures for the legacy navigation document.
type ncxRoot struct {
	DocTitle ncxDocTitle `xml:"docTitle"`
	NavMap   ncxNavMap   `xml:"navMap"`
}

type ncxDocTitle struct {
	Text string `xml:"text"`
}

type ncxNavMap struct {
	NavPoints []ncxNavPoint `xml:"navPoint"`
}

type ncxNavPoint struct {
	Label    ncxNavLabel   `xml:"navLabel"`
	Content  ncxNavContent `xml:"content"`
	Children []ncxNavPoint `xml:"navPoint"`
}

type ncxNavLabel struct {
	Text string `xml:"text"`
}

type ncxNavContent struct {
	Src string `xml:"src,attr"`
}

type ncxResult struct {
	title   string
	entries []OutlineEntry
	byHref  map[string]string
}

func (n ncxResult) titleFor(href string) string {
	if href == "" {
		return ""
	}
	if title, ok := n.byHref[href]; ok {
		return title
	}
	if title, ok := n.byHref[path.Base(href)]; ok {
		return title
	}
	return ""
}

// readNCX locates and parses the NCX inside the archive. A missing or broken
// NCX just means no outline, never an ingestion failure.
func readNCX(filename string, rootfile *epub.Rootfile) ncxResult {
	result := ncxResult{byHref: map[string]string{}}

	data, err := findNCXData(filename, rootfile)
	if err != nil {
		return result
	}
	var parsed ncxRoot
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	result.title = strings.TrimSpace(parsed.DocTitle.Text)
	result.entries = flattenNavPoints(parsed.NavMap.NavPoints, 0, result.byHref)
	return result
}

func flattenNavPoints(points []ncxNavPoint, level int, byHref map[string]string) []OutlineEntry {
	var entries []OutlineEntry
	for _, point := range points {
		title := strings.TrimSpace(point.Label.Text)
		href := point.Content.Src
		recordHref(byHref, href, title)

		entry := OutlineEntry{Title: title, Target: href, Level: level}
		entry.Children = flattenNavPoints(point.Children, level+1, byHref)
		entries = append(entries, entry)
	}
	return entries
}

func recordHref(byHref map[string]string, href, title string) {
	if href == "" || title == "" {
		return
	}
	base := href
	if idx := strings.Index(base, "#"); idx != -1 {
		base = base[:idx]
	}
	for _, key := range []string{href, base, path.Base(base)} {
		if key == "" {
			continue
		}
		if _, exists := byHref[key]; !exists {
			byHref[key] = title
		}
	}
}

func findNCXData(filename string, rootfile *epub.Rootfile) ([]byte, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var ncxPath string
	for _, item := range rootfile.Manifest.Items {
		if item.MediaType == "application/x-dtbncx+xml" {
			ncxPath = item.HREF
			break
		}
	}
	if ncxPath == "" {
		for _, f := range zr.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".ncx") {
				ncxPath = f.Name
				break
			}
		}
	}
	if ncxPath == "" {
		return nil, fmt.Errorf("no NCX in archive")
	}

	for _, f := range zr.File {
		if f.Name == ncxPath || strings.HasSuffix(f.Name, "/"+ncxPath) || path.Base(f.Name) == path.Base(ncxPath) {
			r, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer r.Close()
			return io.ReadAll(r)
		}
	}
	return nil, fmt.Errorf("NCX %s not found in archive", ncxPath)
}
