package types

import (
	"strings"
	"time"
)

type Contact struct {
	ID        string
	Tags      []string
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Contact) Clone() Contact {
	c.Tags = append([]string(nil), c.Tags...)
	fields := make(map[string]any, len(c.Fields))
	for key, value := range c.Fields {
		fields[key] = value
	}
	c.Fields = fields
	return c
}

func (c Contact) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (c Contact) HasTagPrefix(prefix string) []string {
	var out []string
	for _, t := range c.Tags {
		if strings.HasPrefix(t, prefix) {
			out = append(out, t)
		}
	}
	return out
}

// FieldTruthy reports whether a field is present and truthy. Upstream
// CRM exports carry booleans as bool, string, or 0/1 depending on the
// exporter, so all three spellings count.
func (c Contact) FieldTruthy(name string) bool {
	value, ok := c.Fields[name]
	if !ok {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true
		}
		return false
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return false
	}
}
