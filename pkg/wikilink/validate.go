package wikilink

import (
	"fmt"
	"strings"
)

// IssueCode classifies a validation finding.
type IssueCode int

const (
	IssueEmptyText IssueCode = iota
	IssueNestedBrackets
	IssueMultipleHeading
	IssueMultipleBlock
	IssueMixedReference
)

func (c IssueCode) String() string {
	switch c {
	case IssueEmptyText:
		return "empty link text"
	case IssueNestedBrackets:
		return "nested brackets"
	case IssueMultipleHeading:
		return "multiple heading markers"
	case IssueMultipleBlock:
		return "multiple block markers"
	case IssueMixedReference:
		return "mixed heading and block markers"
	default:
		return "unknown"
	}
}

// Issue is one malformed link span found by Check. It carries the byte
// range of the offending span so callers can point at the source.
type Issue struct {
	Code  IssueCode `json:"code"`
	Start int       `json:"start"`
	End   int       `json:"end"`
	Span  string    `json:"span"`
}

func (i Issue) Error() string {
	return fmt.Sprintf("invalid wikilink at %d..%d: %s in %q", i.Start, i.End, i.Code, i.Span)
}

// Check validates every candidate link span in text and reports issues in
// source order. Extraction is permissive; Check is the strict layer that
// flags spans a well-formed document should not contain. A span can carry
// more than one issue.
func Check(text string) []Issue {
	var issues []Issue
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
		end := start + 2 + closing + 2

		// Same restart rule as Extract so both agree on spans, but the
		// swallowed outer opener is reported here.
		if j := strings.LastIndex(inner, "[["); j != -1 {
			issues = append(issues, Issue{
				Code:  IssueNestedBrackets,
				Start: start,
				End:   end,
				Span:  text[start:end],
			})
			i = start + 2 + j
			continue
		}

		issues = append(issues, checkInner(inner, start, end, text[start:end])...)
		i = end
	}

	return issues
}

func checkInner(inner string, start, end int, span string) []Issue {
	var issues []Issue
	add := func(code IssueCode) {
		issues = append(issues, Issue{Code: code, Start: start, End: end, Span: span})
	}

	hashes := strings.Count(inner, "#")
	carets := strings.Count(inner, "^")

	if hashes > 0 && carets > 0 {
		add(IssueMixedReference)
	}
	if hashes > 1 {
		add(IssueMultipleHeading)
	}
	if carets > 1 {
		add(IssueMultipleBlock)
	}

	// Title emptiness uses the same last-marker split as extraction.
	title := inner
	if caret := strings.LastIndex(inner, "^"); caret != -1 {
		title = inner[:caret]
	} else if hash := strings.LastIndex(inner, "#"); hash != -1 {
		title = inner[:hash]
	}
	if strings.TrimSpace(title) == "" {
		add(IssueEmptyText)
	}

	return issues
}
