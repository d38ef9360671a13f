package types

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldPath addresses a text attribute of a Candidate with a dotted path,
// for example "name" or "place.description".
type FieldPath string

// Common rerank fields.
const (
	FieldName        FieldPath = "name"
	FieldDescription FieldPath = "description"
)

// Lookup resolves the path against the candidate. A dotted path is walked
// segment by segment and fails on the first missing segment. A single
// segment is looked up on the candidate first and then on its place.
// The second return value is false when nothing was found.
func (p FieldPath) Lookup(c *Candidate) (string, bool) {
	if c == nil || p == "" {
		return "", false
	}
	fields := c.Fields()

	path := string(p)
	if strings.Contains(path, ".") {
		var value any = fields
		for _, part := range strings.Split(path, ".") {
			m, ok := value.(map[string]any)
			if !ok {
				return "", false
			}
			if value, ok = m[part]; !ok {
				return "", false
			}
		}
		return stringify(value)
	}

	if value, ok := fields[path]; ok {
		return stringify(value)
	}
	if place, ok := fields["place"].(map[string]any); ok {
		if value, ok := place[path]; ok {
			return stringify(value)
		}
	}
	return "", false
}

// Text is Lookup with missing values mapped to the empty string.
func (p FieldPath) Text(c *Candidate) string {
	text, _ := p.Lookup(c)
	return text
}

func stringify(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case map[string]any:
		return "", false
	default:
		return fmt.Sprint(val), true
	}
}
