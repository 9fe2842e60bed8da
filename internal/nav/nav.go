// Package nav maps positions inside a document to a 0-100 progress value and
// back. The Navigator contract is uniform across variants so navigation UI
// stays format-agnostic; behavior branches once, at construction.
package nav

import (
	"math"

	"github.com/inkpot/folio/internal/book"
)

// Navigator advances, retreats, and seeks within the active document.
// Navigation past either end is a silent no-op, never an error and never a
// wrap-around.
type Navigator interface {
	Next()
	Previous()

	// Seek jumps to the position corresponding to percent in [0,100].
	// Out-of-range values are clamped.
	Seek(percent int)

	// JumpTo moves directly to a position unit, clamped to bounds.
	JumpTo(unit int)

	// Position reports the current unit: 0-based chapter index, 1-based page,
	// or top line offset for flat text.
	Position() int

	// Units reports the total unit count (scrollable extent for flat text).
	Units() int

	// Progress derives the 0-100 reading progress from the position.
	Progress() int
}

// For builds the variant-appropriate navigator, positioned at the first unit.
func For(doc book.Document) Navigator {
	switch d := doc.(type) {
	case *book.Chapters:
		return &chapterNav{count: len(d.List)}
	case *book.Paged:
		return &pagedNav{page: 1, count: d.PageCount}
	default:
		return &FlatNav{}
	}
}

func clampPercent(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// chapterNav addresses a chapters document by 0-based index.
type chapterNav struct {
	index int
	count int
}

func (n *chapterNav) Next() {
	if n.index < n.count-1 {
		n.index++
	}
}

func (n *chapterNav) Previous() {
	if n.index > 0 {
		n.index--
	}
}

func (n *chapterNav) Seek(percent int) {
	if n.count == 0 {
		return
	}
	target := int(math.Floor(float64(clampPercent(percent)) / 100 * float64(n.count)))
	n.JumpTo(target)
}

func (n *chapterNav) JumpTo(unit int) {
	if n.count == 0 {
		return
	}
	if unit < 0 {
		unit = 0
	}
	if unit > n.count-1 {
		unit = n.count - 1
	}
	n.index = unit
}

func (n *chapterNav) Position() int { return n.index }
func (n *chapterNav) Units() int    { return n.count }

func (n *chapterNav) Progress() int {
	denom := n.count - 1
	if denom < 1 {
		denom = 1
	}
	return int(math.Round(float64(n.index) / float64(denom) * 100))
}

// pagedNav addresses a paged document by 1-based page number.
type pagedNav struct {
	page  int
	count int
}

func (n *pagedNav) Next() {
	if n.page < n.count {
		n.page++
	}
}

func (n *pagedNav) Previous() {
	if n.page > 1 {
		n.page--
	}
}

func (n *pagedNav) Seek(percent int) {
	if n.count == 0 {
		return
	}
	target := int(math.Ceil(float64(clampPercent(percent)) / 100 * float64(n.count)))
	if target < 1 {
		target = 1
	}
	n.JumpTo(target)
}

func (n *pagedNav) JumpTo(unit int) {
	if n.count == 0 {
		return
	}
	if unit < 1 {
		unit = 1
	}
	if unit > n.count {
		unit = n.count
	}
	n.page = unit
}

func (n *pagedNav) Position() int { return n.page }
func (n *pagedNav) Units() int    { return n.count }

func (n *pagedNav) Progress() int {
	if n.count == 0 {
		return 0
	}
	return int(math.Round(float64(n.page) / float64(n.count) * 100))
}

// FlatNav scrolls unstructured text by line offset. The extent depends on the
// rendered layout, so the view feeds it in via SetExtent; progress for this
// variant is advisory and may shift when display settings change.
type FlatNav struct {
	line     int
	lines    int
	viewport int
}

// SetExtent records the rendered line count and visible height, re-clamping
// the current offset against the new scrollable range.
func (n *FlatNav) SetExtent(lines, viewport int) {
	if lines < 0 {
		lines = 0
	}
	if viewport < 1 {
		viewport = 1
	}
	n.lines = lines
	n.viewport = viewport
	n.JumpTo(n.line)
}

// maxTop is the largest valid top-line offset.
func (n *FlatNav) maxTop() int {
	top := n.lines - n.viewport
	if top < 0 {
		return 0
	}
	return top
}

// step is most of a viewport, keeping a little overlap for continuity.
func (n *FlatNav) step() int {
	step := n.viewport * 8 / 10
	if step < 1 {
		step = 1
	}
	return step
}

func (n *FlatNav) Next() {
	n.JumpTo(n.line + n.step())
}

func (n *FlatNav) Previous() {
	n.JumpTo(n.line - n.step())
}

func (n *FlatNav) Seek(percent int) {
	n.JumpTo(int(math.Round(float64(clampPercent(percent)) / 100 * float64(n.maxTop()))))
}

func (n *FlatNav) JumpTo(unit int) {
	if unit < 0 {
		unit = 0
	}
	if top := n.maxTop(); unit > top {
		unit = top
	}
	n.line = unit
}

func (n *FlatNav) Position() int { return n.line }
func (n *FlatNav) Units() int    { return n.maxTop() }

func (n *FlatNav) Progress() int {
	top := n.maxTop()
	if top == 0 {
		// Everything fits in one viewport.
		return 100
	}
	return int(math.Round(float64(n.line) / float64(top) * 100))
}
