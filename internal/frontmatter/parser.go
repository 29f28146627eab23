package frontmatter

import (
	"bytes"
	"encoding/json"
	"fmt"

	adrgfm "github.com/adrg/frontmatter"
	"go.yaml.in/yaml/v3"
)

// yamlFormat recognizes "---" delimited YAML front matter.
var yamlFormat = adrgfm.NewFormat("---", "---", yaml.Unmarshal)

// Document is a parsed block source file.
type Document struct {
	Meta *Meta
	Body []byte
	// Line is the 1-based line on which Body starts within the source.
	Line int
}

// ParseError reports front matter that failed to decode or validate.
type ParseError struct {
	Issues []ValidationIssue
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("front matter: %v", e.Err)
	}
	if len(e.Issues) == 1 {
		return fmt.Sprintf("front matter: %s", e.Issues[0])
	}
	return fmt.Sprintf("front matter: %d schema issues, first: %s", len(e.Issues), e.Issues[0])
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse splits data into front matter and body, validates the front matter
// against the schema and decodes it. A file without front matter yields an
// empty Meta and the whole input as Body.
func Parse(data []byte) (*Document, error) {
	var raw map[string]any
	body, err := adrgfm.Parse(bytes.NewReader(data), &raw, yamlFormat)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	doc := &Document{Meta: &Meta{}, Body: body, Line: 1}
	if raw == nil {
		return doc, nil
	}
	doc.Line = bytes.Count(data[:len(data)-len(body)], []byte("\n")) + 1

	result, err := Validate(raw)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if !result.Valid {
		return nil, &ParseError{Issues: result.Issues}
	}

	jsonData, err := json.Marshal(normalizeYAML(raw))
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("converting to JSON: %w", err)}
	}
	if err := json.Unmarshal(jsonData, doc.Meta); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("decoding: %w", err)}
	}
	return doc, nil
}

// StripFrontMatter returns the template body of a block source file without
// validating its front matter.
func StripFrontMatter(data []byte) ([]byte, error) {
	var raw map[string]any
	body, err := adrgfm.Parse(bytes.NewReader(data), &raw, yamlFormat)
	if err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}
	return body, nil
}
