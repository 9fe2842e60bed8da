package book

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ingestPDF builds a paged document over the parsed PDF. Page text stays
// lazy: it is extracted on demand by 1-based index.
func ingestPDF(name string, data []byte) (*Paged, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if isEncryptedErr(err) {
			return nil, ingestErr("PDF", ErrProtected, err)
		}
		return nil, ingestErr("PDF", ErrCorrupt, err)
	}

	doc := &Paged{
		BookTitle:  titleFromFilename(name),
		BookAuthor: "",
		PageCount:  reader.NumPage(),
		Outline:    pdfOutline(reader.Outline(), 0),
		pageText:   pdfPageText(reader),
	}
	if doc.PageCount < 1 {
		return nil, ingestErr("PDF", ErrCorrupt, fmt.Errorf("document has no pages"))
	}

	info := reader.Trailer().Key("Info")
	if title := pdfText(info.Key("Title")); title != "" {
		doc.BookTitle = title
	}
	doc.BookAuthor = pdfText(info.Key("Author"))
	return doc, nil
}

func pdfPageText(reader *pdf.Reader) func(int) (string, error) {
	return func(page int) (text string, err error) {
		// The content-stream parser panics on some malformed streams;
		// treat that as an empty page rather than killing the program.
		defer func() {
			if r := recover(); r != nil {
				text, err = "", fmt.Errorf("page %d unreadable: %v", page, r)
			}
		}()
		p := reader.Page(page)
		if p.V.IsNull() {
			return "", nil
		}
		text, err = p.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil
	}
}

func pdfOutline(outline pdf.Outline, level int) []OutlineEntry {
	var entries []OutlineEntry
	for _, child := range outline.Child {
		title := strings.TrimSpace(child.Title)
		entry := OutlineEntry{Title: title, Level: level}
		entry.Children = pdfOutline(child, level+1)
		if title == "" && len(entry.Children) == 0 {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func pdfText(v pdf.Value) string {
	if v.Kind() != pdf.String {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

func isEncryptedErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypted") || strings.Contains(msg, "password")
}
