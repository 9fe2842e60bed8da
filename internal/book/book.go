// Package book holds the normalized in-memory representation of the opened
// book, independent of its source file format, plus the ingestion adapters
// that produce it. Exactly one document is active at a time; replacing it is
// the session's job, not this package's.
package book

// Document is the tagged union over the three reading variants. Each variant
// is its own implementation so adding a format means adding one type, not
// editing switch statements at every call site.
type Document interface {
	Title() string
	Author() string

	// FullText returns the complete plain text, used as assistant context.
	FullText() string
}

// FlatText is an unstructured text document (TXT and HTML files). Its
// position unit is a scroll offset against the rendered extent.
type FlatText struct {
	BookTitle  string
	BookAuthor string
	Content    string
}

func (d *FlatText) Title() string    { return d.BookTitle }
func (d *FlatText) Author() string   { return d.BookAuthor }
func (d *FlatText) FullText() string { return d.Content }

// Paged is a page-addressable document (PDF). Page content is fetched on
// demand by 1-based index.
type Paged struct {
	BookTitle  string
	BookAuthor string
	PageCount  int
	Outline    []OutlineEntry

	pageText func(page int) (string, error)
}

func (d *Paged) Title() string  { return d.BookTitle }
func (d *Paged) Author() string { return d.BookAuthor }

// PageText returns the plain text of the 1-based page.
func (d *Paged) PageText(page int) (string, error) {
	if page < 1 || page > d.PageCount {
		return "", nil
	}
	if d.pageText == nil {
		return "", nil
	}
	return d.pageText(page)
}

// FullText concatenates every page. Pages that fail to extract are skipped;
// a partial text is still useful assistant context.
func (d *Paged) FullText() string {
	var out []byte
	for page := 1; page <= d.PageCount; page++ {
		text, err := d.PageText(page)
		if err != nil || text == "" {
			continue
		}
		out = append(out, text...)
		out = append(out, '\n', '\n')
	}
	return string(out)
}

// Chapter is one readable unit of a chapters document.
type Chapter struct {
	ID          string
	Title       string
	ContentHTML string
	Text        string
}

// Chapters is a chapter-addressable document (EPUB). Its position unit is the
// 0-based chapter index.
type Chapters struct {
	BookTitle  string
	BookAuthor string
	List       []Chapter
	Outline    []OutlineEntry
}

func (d *Chapters) Title() string  { return d.BookTitle }
func (d *Chapters) Author() string { return d.BookAuthor }

func (d *Chapters) FullText() string {
	var out []byte
	for _, chapter := range d.List {
		out = append(out, chapter.Text...)
		out = append(out, '\n', '\n')
	}
	return string(out)
}

// OutlineEntry is a navigable outline node. Target is format-dependent: a
// chapter href for chapters documents, unset for paged ones (the PDF library
// exposes outline titles only).
type OutlineEntry struct {
	Title    string
	Target   string
	Level    int
	Children []OutlineEntry
}
