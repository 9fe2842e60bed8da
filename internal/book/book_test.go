package book

import (
	"errors"
	"testing"
)

func TestPagedPageTextBounds(t *testing.T) {
	t.Parallel()

	doc := &Paged{
		PageCount: 2,
		pageText: func(page int) (string, error) {
			if page == 2 {
				return "", errors.New("page 2 unreadable")
			}
			return "page one", nil
		},
	}
	for _, page := range []int{0, 3, -1} {
		if text, err := doc.PageText(page); err != nil || text != "" {
			t.Fatalf("out-of-range page %d = %q, %v", page, text, err)
		}
	}
	if text, _ := doc.PageText(1); text != "page one" {
		t.Fatalf("page 1 = %q", text)
	}
}

func TestPagedFullTextSkipsUnreadablePages(t *testing.T) {
	t.Parallel()

	doc := &Paged{
		PageCount: 3,
		pageText: func(page int) (string, error) {
			if page == 2 {
				return "", errors.New("boom")
			}
			return "p", nil
		},
	}
	if got := doc.FullText(); got != "p\n\np\n\n" {
		t.Fatalf("full text = %q", got)
	}
}

func TestChaptersFullTextConcatenates(t *testing.T) {
	t.Parallel()

	doc := &Chapters{List: []Chapter{{Text: "one"}, {Text: "two"}}}
	if got := doc.FullText(); got != "one\n\ntwo\n\n" {
		t.Fatalf("full text = %q", got)
	}
}
