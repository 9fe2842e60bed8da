// Package toc derives a navigable outline from whatever structure the active
// document exposes: an explicit outline tree, a chapter list, or heading
// heuristics over flat text. An empty result is a valid outcome; callers
// render a placeholder instead of failing.
package toc

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/inkpot/folio/internal/book"
	"github.com/inkpot/folio/internal/nav"
)

// Entry is one outline row. Activate jumps the navigator to the entry's
// target; it is nil for inert entries whose target could not be resolved.
type Entry struct {
	Title    string
	Level    int
	Activate func()
}

// Build derives the table of contents for doc, wiring each entry's Activate
// to navigator. Resolution is deterministic: the same document and entry
// always land on the same unit.
func Build(doc book.Document, navigator nav.Navigator) []Entry {
	switch d := doc.(type) {
	case *book.Chapters:
		if len(d.Outline) > 0 {
			return fromChapterOutline(d, navigator)
		}
		return fromChapterList(d, navigator)
	case *book.Paged:
		return fromPagedOutline(d.Outline, d.PageCount, navigator, 0)
	case *book.FlatText:
		return fromHeadingScan(d.Content, navigator)
	}
	return nil
}

// fromChapterOutline flattens the outline tree depth-first. Each entry
// resolves to the best-matching chapter: identifier-substring match on the
// target href first, exact title match second, inert third.
func fromChapterOutline(doc *book.Chapters, navigator nav.Navigator) []Entry {
	var entries []Entry
	var walk func(items []book.OutlineEntry, depth int)
	walk = func(items []book.OutlineEntry, depth int) {
		for _, item := range items {
			level := item.Level
			if level == 0 && depth > 0 {
				level = depth
			}
			entry := Entry{Title: item.Title, Level: level}
			if index, ok := resolveChapter(doc.List, item); ok {
				target := index
				entry.Activate = func() { navigator.JumpTo(target) }
			}
			entries = append(entries, entry)
			walk(item.Children, depth+1)
		}
	}
	walk(doc.Outline, 0)
	return entries
}

func resolveChapter(chapters []book.Chapter, item book.OutlineEntry) (int, bool) {
	needle := strings.TrimPrefix(item.Target, "#")
	if idx := strings.Index(needle, "#"); idx != -1 {
		needle = needle[:idx]
	}
	if needle != "" {
		for i, chapter := range chapters {
			if strings.Contains(chapter.ID, needle) {
				return i, true
			}
		}
	}
	for i, chapter := range chapters {
		if chapter.Title == item.Title {
			return i, true
		}
	}
	return 0, false
}

func fromChapterList(doc *book.Chapters, navigator nav.Navigator) []Entry {
	entries := make([]Entry, 0, len(doc.List))
	for i, chapter := range doc.List {
		target := i
		entries = append(entries, Entry{
			Title:    chapter.Title,
			Level:    0,
			Activate: func() { navigator.JumpTo(target) },
		})
	}
	return entries
}

// fromPagedOutline mirrors the source outline's hierarchy. The PDF library
// exposes outline titles without destinations, so resolution falls back to a
// page number embedded in the title; entries without one stay inert.
func fromPagedOutline(items []book.OutlineEntry, pageCount int, navigator nav.Navigator, level int) []Entry {
	var entries []Entry
	for _, item := range items {
		entry := Entry{Title: item.Title, Level: level}
		if page, ok := pageFromTitle(item.Title, pageCount); ok {
			target := page
			entry.Activate = func() { navigator.JumpTo(target) }
		}
		entries = append(entries, entry)
		entries = append(entries, fromPagedOutline(item.Children, pageCount, navigator, level+1)...)
	}
	return entries
}

var titleNumberPattern = regexp.MustCompile(`\d+`)

func pageFromTitle(title string, pageCount int) (int, bool) {
	match := titleNumberPattern.FindString(title)
	if match == "" {
		return 0, false
	}
	page, err := strconv.Atoi(match)
	if err != nil || page < 1 || page > pageCount {
		return 0, false
	}
	return page, true
}

// Heading candidates in unstructured text: chapter markers in English or
// Chinese, Roman numerals, leading numbered markers.
var (
	chapterPattern = regexp.MustCompile(`^(Chapter|CHAPTER|第.*章)`)
	markerPattern  = regexp.MustCompile(`^([IVXLC]+\.|\d+\.)`)
)

const maxHeadingLength = 100

// fromHeadingScan recovers best-effort structure from flat text. The scan is
// heuristic by design and must never be treated as authoritative.
func fromHeadingScan(content string, navigator nav.Navigator) []Entry {
	var entries []Entry
	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !isHeadingCandidate(trimmed) {
			continue
		}
		target := i
		entries = append(entries, Entry{
			Title:    trimmed,
			Level:    0,
			Activate: func() { navigator.JumpTo(target) },
		})
	}
	return entries
}

func isHeadingCandidate(line string) bool {
	if len(line) <= 3 || len(line) >= maxHeadingLength {
		return false
	}
	if chapterPattern.MatchString(line) || markerPattern.MatchString(line) {
		return true
	}
	// A short standalone capitalized line with no sentence ending reads like
	// a heading.
	runes := []rune(line)
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	switch runes[len(runes)-1] {
	case '.', ',', ';', ':', '!', '?':
		return false
	}
	return true
}
