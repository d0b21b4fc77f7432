package template

import "sync"

// parseCache holds successfully parsed templates by raw text. Templates
// are immutable, so cached values are shared between callers.
var parseCache sync.Map

// ParseCached is like Parse but returns a shared *Template for templates
// that were parsed before. Failed parses are not cached.
func ParseCached(template string) (*Template, error) {
	if v, ok := parseCache.Load(template); ok {
		return v.(*Template), nil
	}

	t, err := Parse(template)
	if err != nil {
		return nil, err
	}

	actual, _ := parseCache.LoadOrStore(template, t)

	return actual.(*Template), nil
}
