package template

import (
	"strings"
)

// PartKind identifies what a Part holds.
type PartKind int

const (
	// PartLiteral is literal text that must appear verbatim.
	PartLiteral PartKind = iota
	// PartParameter is a named placeholder.
	PartParameter
	// PartSeparator is a literal that may be dropped together with the
	// optional parameter following it, as the "." in "{name}.{ext?}".
	PartSeparator
)

func (k PartKind) String() string {
	switch k {
	case PartLiteral:
		return "literal"
	case PartParameter:
		return "parameter"
	case PartSeparator:
		return "separator"
	default:
		return "unknown"
	}
}

// ParameterKind distinguishes standard, optional and catch-all parameters.
type ParameterKind int

const (
	// ParameterStandard must receive a value.
	ParameterStandard ParameterKind = iota
	// ParameterOptional may be omitted.
	ParameterOptional
	// ParameterCatchAll consumes the remainder of the path.
	ParameterCatchAll
)

// PolicyReference is a constraint or transformer attached to a parameter.
// Inline references carry only Content, e.g. "int" or "range(1,20)".
// References supplied out of line may carry an already resolved Constraint
// or Transformer instead.
type PolicyReference struct {
	Content     string
	Constraint  Constraint
	Transformer Transformer
}

// Part is one piece of a path segment. Parts are immutable and built
// through LiteralPart, SeparatorPart and ParameterPart.
type Part struct {
	kind          PartKind
	content       string
	name          string
	paramKind     ParameterKind
	def           any
	hasDefault    bool
	encodeSlashes bool
	policies      []PolicyReference
}

// LiteralPart returns a literal part. It panics on empty content.
func LiteralPart(content string) Part {
	if content == "" {
		panic("template: literal part requires content")
	}
	return Part{kind: PartLiteral, content: content}
}

// SeparatorPart returns a separator part. It panics on empty content.
func SeparatorPart(content string) Part {
	if content == "" {
		panic("template: separator part requires content")
	}
	return Part{kind: PartSeparator, content: content}
}

// ParameterPart returns a parameter part. A nil def means no default.
// It panics on an empty name.
func ParameterPart(name string, kind ParameterKind, def any, encodeSlashes bool, policies ...PolicyReference) Part {
	if name == "" {
		panic("template: parameter part requires a name")
	}
	return newParameter(name, kind, def, encodeSlashes, policies)
}

func newParameter(name string, kind ParameterKind, def any, encodeSlashes bool, policies []PolicyReference) Part {
	p := Part{
		kind:          PartParameter,
		name:          name,
		paramKind:     kind,
		def:           def,
		hasDefault:    def != nil,
		encodeSlashes: encodeSlashes,
	}
	if len(policies) > 0 {
		p.policies = append([]PolicyReference(nil), policies...)
	}
	return p
}

// Kind reports the part kind.
func (p Part) Kind() PartKind { return p.kind }

// IsLiteral reports whether p is a literal.
func (p Part) IsLiteral() bool { return p.kind == PartLiteral }

// IsParameter reports whether p is a parameter.
func (p Part) IsParameter() bool { return p.kind == PartParameter }

// IsSeparator reports whether p is a separator.
func (p Part) IsSeparator() bool { return p.kind == PartSeparator }

// Content returns the text of a literal or separator.
func (p Part) Content() string { return p.content }

// Name returns the parameter name.
func (p Part) Name() string { return p.name }

// ParameterKind returns the parameter kind.
func (p Part) ParameterKind() ParameterKind { return p.paramKind }

// IsOptional reports whether the parameter may be omitted.
func (p Part) IsOptional() bool { return p.kind == PartParameter && p.paramKind == ParameterOptional }

// IsCatchAll reports whether the parameter consumes the rest of the path.
func (p Part) IsCatchAll() bool { return p.kind == PartParameter && p.paramKind == ParameterCatchAll }

// Default returns the parameter default, or nil.
func (p Part) Default() any { return p.def }

// HasDefault reports whether the parameter carries a default.
func (p Part) HasDefault() bool { return p.hasDefault }

// EncodeSlashes reports whether '/' in a catch-all value is percent-encoded.
// It is false only for "**" parameters.
func (p Part) EncodeSlashes() bool { return p.encodeSlashes }

// Policies returns the parameter policies in declaration order.
// The slice must not be modified.
func (p Part) Policies() []PolicyReference { return p.policies }

func (p Part) withDefault(def any) Part {
	p.def = def
	p.hasDefault = def != nil
	return p
}

func (p Part) withPolicies(refs []PolicyReference) Part {
	merged := make([]PolicyReference, 0, len(p.policies)+len(refs))
	merged = append(merged, p.policies...)
	p.policies = append(merged, refs...)
	return p
}

// String returns the debugging form of the part, for example "{*path:int=5?}".
func (p Part) String() string {
	if p.kind != PartParameter {
		return p.content
	}

	var sb strings.Builder
	sb.WriteByte('{')
	if p.paramKind == ParameterCatchAll {
		sb.WriteByte('*')
		if !p.encodeSlashes {
			sb.WriteByte('*')
		}
	}
	sb.WriteString(p.name)
	for _, ref := range p.policies {
		sb.WriteByte(':')
		sb.WriteString(ref.Content)
	}
	if p.hasDefault {
		sb.WriteByte('=')
		s, _ := ToString(p.def)
		sb.WriteString(s)
	}
	if p.paramKind == ParameterOptional {
		sb.WriteByte('?')
	}
	sb.WriteByte('}')
	return sb.String()
}

func (p Part) equal(o Part) bool {
	if p.kind != o.kind || p.content != o.content || p.name != o.name ||
		p.paramKind != o.paramKind || p.encodeSlashes != o.encodeSlashes ||
		p.hasDefault != o.hasDefault || len(p.policies) != len(o.policies) {
		return false
	}
	if p.hasDefault && !RoutePartsEqual(p.def, o.def) {
		return false
	}
	for i := range p.policies {
		if p.policies[i].Content != o.policies[i].Content {
			return false
		}
	}
	return true
}

// Segment is the text between two '/' separators, split into parts.
type Segment struct {
	parts []Part
}

// NewSegment returns a segment holding parts.
func NewSegment(parts ...Part) Segment {
	return Segment{parts: append([]Part(nil), parts...)}
}

// Parts returns the parts of the segment. The slice must not be modified.
func (s Segment) Parts() []Part { return s.parts }

// IsSimple reports whether the segment has exactly one part.
func (s Segment) IsSimple() bool { return len(s.parts) == 1 }

// String returns the concatenated debugging form of the parts.
func (s Segment) String() string {
	return partsString(s.parts)
}

func partsString(parts []Part) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.String())
	}
	return sb.String()
}

// Template is a parsed route template. It is immutable and safe for
// concurrent use.
type Template struct {
	raw            string
	segments       []Segment
	parameters     []Part
	defaults       *Values
	policies       map[string][]PolicyReference
	policyNames    []string
	requiredValues *Values
}

// RawText returns the template text as written, including a leading "/" or "~/".
func (t *Template) RawText() string { return t.raw }

// String returns the raw template text.
func (t *Template) String() string { return t.raw }

// Segments returns the parsed segments. The slice must not be modified.
func (t *Template) Segments() []Segment { return t.segments }

// Parameters returns every parameter in template order. The slice must not
// be modified.
func (t *Template) Parameters() []Part { return t.parameters }

// Parameter looks up a parameter by case-insensitive name.
func (t *Template) Parameter(name string) (Part, bool) {
	for _, p := range t.parameters {
		if strings.EqualFold(p.name, name) {
			return p, true
		}
	}
	return Part{}, false
}

// Defaults returns the default values, inline and out of line.
func (t *Template) Defaults() *Values { return t.defaults }

// RequiredValues returns the values that must be present for the template
// to generate a link.
func (t *Template) RequiredValues() *Values { return t.requiredValues }

// Policies returns the policies for a parameter or other route value key.
func (t *Template) Policies(name string) []PolicyReference {
	return t.policies[strings.ToLower(name)]
}

// PolicyNames returns the keys that carry policies, in declaration order.
func (t *Template) PolicyNames() []string { return t.policyNames }

// Equal reports whether two templates have the same structure.
func (t *Template) Equal(o *Template) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.segments) != len(o.segments) {
		return false
	}
	for i := range t.segments {
		a, b := t.segments[i].parts, o.segments[i].parts
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if !a[j].equal(b[j]) {
				return false
			}
		}
	}
	return t.defaults.Equal(o.defaults) && t.requiredValues.Equal(o.requiredValues)
}
