package vault

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractTitle returns the text of the first level-1 heading, or "" when
// the document has none.
func extractTitle(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var title string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			heading := n.(*ast.Heading)
			if heading.Level == 1 {
				title = string(n.Text(source))
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return title
}
