package template

import (
	"fmt"
	"strings"
)

const (
	msgMismatchedParameter        = "There is an incomplete parameter in the route template. Check that each '{' character has a matching '}' character."
	msgUnescapedBrace             = "In a route parameter, '{' and '}' must be escaped with '{{' and '}}'."
	msgOptionalMustBeLast         = "An optional parameter must be at the end of the segment. In the segment '%s', optional parameter '%s' is followed by '%s'."
	msgOptionalPrecededByInvalid  = "In the segment '%s', the optional parameter '%s' is preceded by an invalid segment '%s'. Only a period (.) can precede an optional parameter."
	msgRepeatedParameter          = "The route parameter name '%s' appears more than one time in the route template."
	msgCatchAllInMultiSection     = "A path segment that contains more than one section, such as a literal section or a parameter, cannot contain a catch-all parameter."
	msgCatchAllMustBeLast         = "A catch-all parameter can only appear as the last segment of the route template."
	msgInvalidParameterName       = "The route parameter name '%s' is invalid. Route parameter names must be non-empty and cannot contain these characters: '{', '}', '/'. The '?' character marks a parameter as optional, and can occur only at the end of the parameter. The '*' character marks a parameter as catch-all, and can occur only at the start of the parameter."
	msgConsecutiveSeparators      = "The route template separator character '/' cannot appear consecutively. It must be separated by either a parameter or a literal value."
	msgConsecutiveParameters      = "A path segment cannot contain two consecutive parameters. They must be separated by a '/' or by a literal string."
	msgInvalidTilde               = "The route template cannot start with a '~' character unless followed by a '/'."
	msgInvalidLiteral             = "The literal section '%s' is invalid. Literal sections cannot contain the '?' character."
	msgCatchAllCannotBeOptional   = "A catch-all parameter cannot be marked optional."
	msgOptionalCannotHaveDefault  = "An optional parameter cannot have default value."
	invalidParameterNameCharacter = "/{}?*"
)

// Parse parses a route template such as "blog/{year:int}/{slug?}".
// Syntax errors are returned as *ParseError.
func Parse(template string) (*Template, error) {
	trimmed, err := trimPrefix(template)
	if err != nil {
		return nil, err
	}

	p := &parser{
		text:  trimmed,
		index: -1,
		mark:  -1,
		names: make(map[string]struct{}),
	}

	var segments []Segment
	for p.moveNext() {
		start := p.index

		if p.current() == '/' {
			return nil, newParseError(template, msgConsecutiveSeparators)
		}

		segment, ok := p.parseSegment()
		if !ok {
			return nil, newParseError(template, p.err)
		}
		segments = append(segments, segment)

		if p.index <= start {
			panic("template: parser made no progress")
		}
	}

	if !p.allValid(segments) {
		return nil, newParseError(template, p.err)
	}

	return newTemplate(template, segments), nil
}

// MustParse is like Parse but panics on error.
func MustParse(template string) *Template {
	t, err := Parse(template)
	if err != nil {
		panic(err)
	}
	return t
}

func trimPrefix(template string) (string, error) {
	switch {
	case strings.HasPrefix(template, "~/"):
		return template[2:], nil
	case strings.HasPrefix(template, "/"):
		return template[1:], nil
	case strings.HasPrefix(template, "~"):
		return "", newParseError(template, msgInvalidTilde)
	}
	return template, nil
}

func newTemplate(raw string, segments []Segment) *Template {
	t := &Template{
		raw:            raw,
		segments:       segments,
		defaults:       &Values{},
		requiredValues: &Values{},
		policies:       make(map[string][]PolicyReference),
	}

	for _, segment := range segments {
		for _, part := range segment.parts {
			if !part.IsParameter() {
				continue
			}
			t.parameters = append(t.parameters, part)
			if part.hasDefault {
				t.defaults.Set(part.name, part.def)
			}
			if len(part.policies) > 0 {
				t.addPolicies(part.name, part.policies)
			}
		}
	}

	return t
}

func (t *Template) addPolicies(name string, refs []PolicyReference) {
	key := strings.ToLower(name)
	if _, ok := t.policies[key]; !ok {
		t.policyNames = append(t.policyNames, name)
	}
	t.policies[key] = append(t.policies[key], refs...)
}

// parser walks the template one byte at a time. index points at the
// current byte; mark records where the current capture began.
type parser struct {
	text  string
	index int
	mark  int
	err   string
	names map[string]struct{}
}

func (p *parser) moveNext() bool {
	if p.index < len(p.text) {
		p.index++
	}
	return p.index < len(p.text)
}

func (p *parser) back() {
	p.index--
}

func (p *parser) current() byte {
	if p.index >= 0 && p.index < len(p.text) {
		return p.text[p.index]
	}
	return 0
}

func (p *parser) atEnd() bool {
	return p.index >= len(p.text)
}

func (p *parser) capture() string {
	if p.mark < 0 {
		return ""
	}
	s := p.text[p.mark:p.index]
	p.mark = -1
	return s
}

func (p *parser) parseSegment() (Segment, bool) {
	var parts []Part

	for {
		start := p.index

		var ok bool
		if p.current() == '{' {
			if !p.moveNext() {
				p.err = msgMismatchedParameter
				return Segment{}, false
			}
			escaped := p.current() == '{'
			p.back()
			if escaped {
				parts, ok = p.parseLiteral(parts)
			} else {
				parts, ok = p.parseParameter(parts)
			}
		} else {
			parts, ok = p.parseLiteral(parts)
		}
		if !ok {
			return Segment{}, false
		}

		if p.current() == '/' || p.atEnd() {
			break
		}

		if p.index <= start {
			panic("template: parser made no progress")
		}
	}

	if !p.segmentValid(parts) {
		return Segment{}, false
	}
	return Segment{parts: parts}, true
}

func (p *parser) parseParameter(parts []Part) ([]Part, bool) {
	p.mark = p.index
	p.moveNext()

scan:
	for {
		switch p.current() {
		case '{':
			if !p.moveNext() {
				p.err = msgMismatchedParameter
				return parts, false
			}
			if p.current() != '{' {
				p.err = msgUnescapedBrace
				return parts, false
			}
		case '}':
			if !p.moveNext() {
				break scan
			}
			if p.current() != '}' {
				break scan
			}
		}

		if !p.moveNext() {
			p.err = msgMismatchedParameter
			return parts, false
		}
	}

	text := p.capture()
	if text == "{}" {
		p.err = fmt.Sprintf(msgInvalidParameterName, "")
		return parts, false
	}

	inside := text[1 : len(text)-1]
	decoded := strings.ReplaceAll(strings.ReplaceAll(inside, "}}", "}"), "{{", "{")

	param := parseParameterBody(decoded)

	if strings.HasPrefix(decoded, "*") && strings.HasSuffix(decoded, "?") {
		p.err = msgCatchAllCannotBeOptional
		return parts, false
	}

	if param.IsOptional() && param.hasDefault {
		p.err = msgOptionalCannotHaveDefault
		return parts, false
	}

	if !p.validParameterName(param.name) {
		return parts, false
	}

	return append(parts, param), true
}

func (p *parser) parseLiteral(parts []Part) ([]Part, bool) {
	p.mark = p.index

scan:
	for {
		switch p.current() {
		case '/':
			break scan
		case '{':
			if !p.moveNext() {
				p.err = msgMismatchedParameter
				return parts, false
			}
			if p.current() != '{' {
				p.back()
				break scan
			}
		case '}':
			if !p.moveNext() {
				p.err = msgMismatchedParameter
				return parts, false
			}
			if p.current() != '}' {
				p.err = msgMismatchedParameter
				return parts, false
			}
		}

		if !p.moveNext() {
			break
		}
	}

	encoded := p.capture()
	decoded := strings.ReplaceAll(strings.ReplaceAll(encoded, "}}", "}"), "{{", "{")

	if strings.IndexByte(decoded, '?') >= 0 {
		p.err = fmt.Sprintf(msgInvalidLiteral, decoded)
		return parts, false
	}

	return append(parts, Part{kind: PartLiteral, content: decoded}), true
}

func (p *parser) allValid(segments []Segment) bool {
	for i, segment := range segments {
		for j, part := range segment.parts {
			if part.IsCatchAll() && (i != len(segments)-1 || j != len(segment.parts)-1) {
				p.err = msgCatchAllMustBeLast
				return false
			}
		}
	}
	return true
}

func (p *parser) segmentValid(parts []Part) bool {
	if len(parts) > 1 {
		for _, part := range parts {
			if part.IsCatchAll() {
				p.err = msgCatchAllInMultiSection
				return false
			}
		}
	}

	for i, part := range parts {
		if !part.IsOptional() || len(parts) == 1 {
			continue
		}

		if i != len(parts)-1 {
			p.err = fmt.Sprintf(msgOptionalMustBeLast, partsString(parts), part.name, parts[i+1].String())
			return false
		}

		prev := parts[i-1]
		if prev.IsParameter() || (prev.IsLiteral() && prev.content != ".") {
			p.err = fmt.Sprintf(msgOptionalPrecededByInvalid, partsString(parts), part.name, prev.String())
			return false
		}
		parts[i-1] = Part{kind: PartSeparator, content: prev.content}
	}

	lastWasParameter := false
	for _, part := range parts {
		if part.IsParameter() && lastWasParameter {
			p.err = msgConsecutiveParameters
			return false
		}
		lastWasParameter = part.IsParameter()
	}

	return true
}

func (p *parser) validParameterName(name string) bool {
	if name == "" || strings.ContainsAny(name, invalidParameterNameCharacter) {
		p.err = fmt.Sprintf(msgInvalidParameterName, name)
		return false
	}

	key := strings.ToLower(name)
	if _, ok := p.names[key]; ok {
		p.err = fmt.Sprintf(msgRepeatedParameter, name)
		return false
	}
	p.names[key] = struct{}{}

	return true
}
