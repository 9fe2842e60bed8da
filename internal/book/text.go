package book

import (
	"strings"

	"golang.org/x/net/html"
)

// ingestText wraps raw bytes decoded as UTF-8. It cannot fail: any byte
// sequence is acceptable flat text.
func ingestText(name string, data []byte) *FlatText {
	return &FlatText{
		BookTitle:  titleFromFilename(name),
		BookAuthor: "",
		Content:    string(data),
	}
}

// ingestHTML extracts the readable text from an HTML file. Parse errors are
// not possible here: the html package builds a best-effort tree for any input.
func ingestHTML(name string, data []byte) *FlatText {
	doc := &FlatText{
		BookTitle:  titleFromFilename(name),
		BookAuthor: "",
		Content:    ExtractHTMLText(string(data)),
	}
	if doc.Content == "" {
		doc.Content = string(data)
	}
	return doc
}

// ExtractHTMLText walks the parsed tree collecting text nodes, skipping
// script and style subtrees. Block-level elements become paragraph breaks so
// the flat-text view keeps its structure.
func ExtractHTMLText(source string) string {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return ""
	}

	var out strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				out.WriteString(t)
				out.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlockElement(n.Data) {
			out.WriteString("\n\n")
		}
	}
	walk(root)
	return strings.TrimSpace(collapseBlankLines(out.String()))
}

func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "br", "section", "article", "blockquote", "tr":
		return true
	}
	return false
}

func collapseBlankLines(text string) string {
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	// Trim the trailing space text-node emission leaves before breaks.
	text = strings.ReplaceAll(text, " \n", "\n")
	return text
}
