// Package wikilink provides single-pass extraction of [[wikilink]] syntax
// from markdown text. It recognizes [[Title]], [[Title#Heading]] and
// [[Title^blockId]] forms and carries byte offsets for snippet extraction.
package wikilink

import (
	"strings"
)

// Kind distinguishes the reference form of a link.
type Kind int

const (
	KindPlain Kind = iota
	KindHeading
	KindBlock
)

func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindBlock:
		return "block"
	default:
		return "plain"
	}
}

// Link is one wikilink occurrence in a source text.
type Link struct {
	Title   string `json:"title"`
	Heading string `json:"heading,omitempty"`
	BlockID string `json:"blockId,omitempty"`
	Kind    Kind   `json:"kind"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Raw     string `json:"raw"`
}

// Extract finds all well-formed wikilinks in text, in source order.
// A link is the shortest span between a "[[" and the next "]]"; nesting is
// not supported. When another "[[" opens inside a candidate span, the scan
// restarts at the inner opener instead of re-parsing around it, so the first
// well-formed span wins. Occurrences whose title trims to empty are dropped.
func Extract(text string) []Link {
	var links []Link
	n := len(text)
	i := 0

	for i < n-1 {
		open := strings.Index(text[i:], "[[")
		if open == -1 {
			break
		}
		start := i + open

		closing := strings.Index(text[start+2:], "]]")
		if closing == -1 {
			break
		}
		inner := text[start+2 : start+2+closing]

		// No nesting: restart at the innermost opener before the "]]".
		if j := strings.LastIndex(inner, "[["); j != -1 {
			i = start + 2 + j
			continue
		}

		end := start + 2 + closing + 2
		if l, ok := parseInner(inner, start, end, text[start:end]); ok {
			links = append(links, l)
		}
		i = end
	}

	return links
}

// parseInner splits captured link text into title and reference parts.
// Block references win over heading references; both split on the LAST
// marker so titles may themselves contain earlier markers.
func parseInner(inner string, start, end int, raw string) (Link, bool) {
	l := Link{Start: start, End: end, Raw: raw, Kind: KindPlain}

	if caret := strings.LastIndex(inner, "^"); caret != -1 {
		l.Kind = KindBlock
		l.BlockID = strings.TrimSpace(inner[caret+1:])
		l.Title = strings.TrimSpace(inner[:caret])
	} else if hash := strings.LastIndex(inner, "#"); hash != -1 {
		l.Kind = KindHeading
		l.Heading = strings.TrimSpace(inner[hash+1:])
		l.Title = strings.TrimSpace(inner[:hash])
	} else {
		l.Title = strings.TrimSpace(inner)
	}

	if l.Title == "" {
		return Link{}, false
	}
	return l, true
}

// NormalizeTitle reduces a title to its identity form: lower-cased, outer
// whitespace trimmed, internal whitespace runs collapsed to single spaces.
// Two titles name the same note iff their normalized forms are equal.
func NormalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
