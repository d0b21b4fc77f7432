package template

import "strings"

// Matcher matches request paths against a template. It is immutable and
// safe for concurrent use.
type Matcher struct {
	template *Template
	defaults *Values
}

// NewMatcher returns a matcher for t.
func NewMatcher(t *Template) *Matcher {
	return &Matcher{template: t, defaults: t.defaults}
}

// Template returns the template the matcher was built for.
func (m *Matcher) Template() *Template { return m.template }

// TryMatch matches path against the template and stores the captured
// parameter values in values. Template defaults fill in values that were
// not captured. values is left untouched when the path does not match.
func (m *Matcher) TryMatch(path string, values *Values) bool {
	captured := &Values{}
	if !m.match(path, captured) {
		return false
	}

	m.defaults.Range(func(key string, val any) bool {
		if !captured.Has(key) {
			captured.Set(key, val)
		}
		return true
	})

	captured.Range(func(key string, val any) bool {
		values.Set(key, val)
		return true
	})
	return true
}

func (m *Matcher) match(path string, values *Values) bool {
	request := splitPath(path)

	for i, segment := range m.template.segments {
		if segment.IsSimple() && segment.parts[0].IsCatchAll() {
			if i < len(request) {
				values.Set(segment.parts[0].name, strings.Join(request[i:], "/"))
			}
			return true
		}

		if i >= len(request) {
			if !m.canBeOmitted(segment) {
				return false
			}
			continue
		}

		if !m.matchSegment(segment, request[i], values) {
			return false
		}
	}

	return len(request) <= len(m.template.segments)
}

// splitPath splits a request path into segments. A single leading and a
// single trailing slash are ignored.
func splitPath(path string) []string {
	p := strings.TrimPrefix(path, "/")
	if p == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(p, "/"), "/")
}

func (m *Matcher) canBeOmitted(segment Segment) bool {
	if !segment.IsSimple() {
		return false
	}
	p := segment.parts[0]
	if !p.IsParameter() {
		return false
	}
	return p.IsOptional() || p.IsCatchAll() || m.defaults.Has(p.name)
}

func (m *Matcher) matchSegment(segment Segment, current string, values *Values) bool {
	if current == "" {
		return false
	}

	if segment.IsSimple() {
		p := segment.parts[0]
		if p.IsParameter() {
			values.Set(p.name, current)
			return true
		}
		return strings.EqualFold(p.content, current)
	}

	return matchComplexSegment(segment, current, values)
}

// matchComplexSegment matches a segment with several parts from right to
// left. When the segment ends with a separator and an optional parameter
// it is tried with and without them.
func matchComplexSegment(segment Segment, current string, values *Values) bool {
	parts := segment.parts
	last := len(parts) - 1

	if parts[last].IsOptional() && parts[last-1].IsSeparator() {
		if matchComplexSegmentCore(parts, current, values, last) {
			return true
		}
		if hasSuffixFold(current, parts[last-1].content) {
			return false
		}
		return matchComplexSegmentCore(parts, current, values, last-2)
	}

	return matchComplexSegmentCore(parts, current, values, last)
}

func matchComplexSegmentCore(parts []Part, current string, values *Values, lastUsed int) bool {
	lastIndex := len(current)

	var pending *Part
	var lastLiteral *Part

	out := &Values{}

	for i := lastUsed; i >= 0; i-- {
		newLastIndex := lastIndex
		part := parts[i]

		if part.IsParameter() {
			pending = &parts[i]
		} else {
			lastLiteral = &parts[i]

			start := lastIndex
			// A pending parameter needs at least one character.
			if pending != nil {
				start--
			}
			if start <= 0 {
				return false
			}

			idx := lastIndexFold(current[:start], part.content)
			if idx < 0 {
				return false
			}

			// The right-most literal must end exactly at the end of the segment.
			if i == len(parts)-1 && idx+len(part.content) != len(current) {
				return false
			}

			newLastIndex = idx
		}

		if pending != nil && ((lastLiteral != nil && !part.IsParameter()) || i == 0) {
			var valueStart, valueLen int
			switch {
			case lastLiteral == nil || (i == 0 && part.IsParameter()):
				valueStart, valueLen = 0, lastIndex
			default:
				valueStart = newLastIndex + len(lastLiteral.content)
				valueLen = lastIndex - valueStart
			}

			if valueLen <= 0 {
				return false
			}
			out.Set(pending.name, current[valueStart:valueStart+valueLen])

			pending = nil
			lastLiteral = nil
		}

		lastIndex = newLastIndex
	}

	// A leading literal must consume the start of the segment.
	if lastIndex == 0 || parts[0].IsParameter() {
		out.Range(func(key string, val any) bool {
			values.Set(key, val)
			return true
		})
		return true
	}

	return false
}

func lastIndexFold(s, substr string) int {
	for i := len(s) - len(substr); i >= 0; i-- {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
