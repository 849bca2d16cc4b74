package frontmatter

import (
	"bytes"
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
	"github.com/custodia-labs/notewatch/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.MetadataExtractor = (*Extractor)(nil)

var bom = []byte("\xef\xbb\xbf")

// Extractor reads YAML frontmatter.
type Extractor struct{}

// New creates a frontmatter extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the top-level frontmatter keys of content.
// The returned map is never nil.
func (e *Extractor) Extract(_ context.Context, doc domain.Document, content []byte) (fields domain.FieldMap) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(logger.KindExtraction, "%s: extractor panic: %v", doc.Path, r)
			fields = domain.FieldMap{}
		}
	}()

	block, found, err := split(content)
	if err != nil {
		logger.Error(logger.KindExtraction, "%s: %v", doc.Path, err)
		return domain.FieldMap{}
	}
	if !found {
		return domain.FieldMap{}
	}

	var raw any
	if err := yaml.Unmarshal(block, &raw); err != nil {
		logger.Error(logger.KindExtraction, "%s: malformed frontmatter: %v", doc.Path, err)
		return domain.FieldMap{}
	}

	switch m := normalise(raw).(type) {
	case nil:
		return domain.FieldMap{}
	case map[string]any:
		return domain.FieldMap(m)
	default:
		logger.Error(logger.KindExtraction, "%s: frontmatter is a %T, not a mapping", doc.Path, m)
		return domain.FieldMap{}
	}
}

// split returns the body of the frontmatter block, if one is present.
func split(content []byte) ([]byte, bool, error) {
	content = bytes.TrimPrefix(content, bom)

	first, rest, _ := cutLine(content)
	if !isDelimiter(first, false) {
		return nil, false, nil
	}

	var body bytes.Buffer
	for len(rest) > 0 {
		var line []byte
		var more bool
		line, rest, more = cutLine(rest)
		if isDelimiter(line, true) {
			return body.Bytes(), true, nil
		}
		body.Write(line)
		body.WriteByte('\n')
		if !more {
			break
		}
	}
	return nil, false, fmt.Errorf("unterminated frontmatter block")
}

// cutLine splits off the first line, dropping its terminator.
func cutLine(b []byte) (line, rest []byte, more bool) {
	line, rest, more = bytes.Cut(b, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), rest, more
}

func isDelimiter(line []byte, closing bool) bool {
	line = bytes.TrimRight(line, " \t")
	if string(line) == "---" {
		return true
	}
	return closing && string(line) == "..."
}

// normalise converts yaml maps with non-string keys into map[string]any
// so values hash the same regardless of how the decoder typed the keys.
func normalise(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalise(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalise(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalise(val)
		}
		return out
	default:
		return v
	}
}
