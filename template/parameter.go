package template

import "strings"

type constraintState int

const (
	stateStart constraintState = iota
	stateParsingName
	stateInsideParenthesis
	stateEnd
)

// parseParameterBody parses the decoded text between '{' and '}'.
// The name may itself start with ':' or '='; name validation is left to
// the caller.
func parseParameterBody(body string) Part {
	if body == "" {
		return Part{kind: PartParameter, encodeSlashes: true}
	}

	start := 0
	end := len(body) - 1
	encodeSlashes := true
	kind := ParameterStandard

	if strings.HasPrefix(body, "**") {
		encodeSlashes = false
		kind = ParameterCatchAll
		start += 2
	} else if body[0] == '*' {
		kind = ParameterCatchAll
		start++
	}

	if body[end] == '?' {
		kind = ParameterOptional
		end--
	}

	i := start
	name := ""
	for i <= end {
		c := body[i]
		if (c == ':' || c == '=') && i != start {
			name = body[start:i]
			i--
			break
		} else if i == end {
			name = body[start : i+1]
		}
		i++
	}

	policies, i := parseConstraints(body, i, end)

	p := Part{
		kind:          PartParameter,
		name:          name,
		paramKind:     kind,
		encodeSlashes: encodeSlashes,
		policies:      policies,
	}
	if i <= end && body[i] == '=' {
		p.def = body[i+1 : end+1]
		p.hasDefault = true
	}

	return p
}

// parseConstraints reads ":name(args)" references starting at i. A ')'
// closes the argument list only when followed by ':', '=' or the end of the
// body, so arguments may contain parentheses, ':' and '='.
func parseConstraints(text string, i, end int) ([]PolicyReference, int) {
	var refs []PolicyReference
	add := func(content string) {
		refs = append(refs, PolicyReference{Content: content})
	}

	state := stateStart
	start := i

	for state != stateEnd {
		c, ok := byte(0), i <= end
		if ok {
			c = text[i]
		}

		switch state {
		case stateStart:
			switch {
			case !ok:
				state = stateEnd
			case c == ':':
				state = stateParsingName
				start = i + 1
			case c == '(':
				state = stateInsideParenthesis
			case c == '=':
				state = stateEnd
				i--
			}

		case stateInsideParenthesis:
			switch {
			case !ok:
				state = stateEnd
				add(text[start:i])
			case c == ')':
				next, hasNext := byte(0), i+1 <= end
				if hasNext {
					next = text[i+1]
				}
				switch {
				case !hasNext:
					state = stateEnd
					add(text[start : i+1])
				case next == ':':
					state = stateStart
					add(text[start : i+1])
					start = i + 1
				case next == '=':
					state = stateEnd
					add(text[start : i+1])
				}
			case c == ':' || c == '=':
				closing := strings.IndexByte(text[i+1:], ')')
				if closing == -1 {
					add(text[start:i])
					if c == ':' {
						state = stateParsingName
						start = i + 1
					} else {
						state = stateEnd
						i--
					}
				} else {
					i += closing
				}
			}

		case stateParsingName:
			switch {
			case !ok:
				state = stateEnd
				if i > start {
					add(text[start:i])
				}
			case c == ':':
				if i > start {
					add(text[start:i])
				}
				start = i + 1
			case c == '(':
				state = stateInsideParenthesis
			case c == '=':
				state = stateEnd
				if i > start {
					add(text[start:i])
				}
				i--
			}
		}

		i++
	}

	return refs, i
}
