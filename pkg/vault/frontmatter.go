package vault

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// frontmatter holds the keys the importer interprets itself. Everything
// else in the block becomes the note's metadata.
type frontmatter struct {
	Title  string `yaml:"title"`
	Folder string `yaml:"folder"`
}

// parseFrontmatter splits a markdown file into its YAML frontmatter and
// body. Files without a leading --- fence are all body. Leftover keys are
// re-encoded as a JSON metadata blob.
func parseFrontmatter(content []byte) (fm frontmatter, meta json.RawMessage, body string, err error) {
	fence := []byte("---")
	lines := bytes.Split(content, []byte("\n"))
	if len(lines) == 0 || !bytes.Equal(bytes.TrimSpace(lines[0]), fence) {
		return fm, nil, string(content), nil
	}

	end := 0
	for j := 1; j < len(lines); j++ {
		if bytes.Equal(bytes.TrimSpace(lines[j]), fence) {
			end = j
			break
		}
	}
	if end == 0 {
		// Unterminated fence: treat the whole file as body
		return fm, nil, string(content), nil
	}

	block := bytes.Join(lines[1:end], []byte("\n"))
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return fm, nil, "", fmt.Errorf("invalid frontmatter: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(block, &raw); err != nil {
		return fm, nil, "", fmt.Errorf("invalid frontmatter: %w", err)
	}
	delete(raw, "title")
	delete(raw, "folder")
	if len(raw) > 0 {
		data, err := json.Marshal(raw)
		if err != nil {
			return fm, nil, "", fmt.Errorf("failed to encode metadata: %w", err)
		}
		meta = data
	}

	body = string(bytes.Join(lines[end+1:], []byte("\n")))
	return fm, meta, body, nil
}
