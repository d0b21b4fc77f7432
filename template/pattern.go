package template

import (
	"fmt"
	"strings"
)

const (
	msgDefaultInlineAndExplicit = "The route parameter '%s' has both an inline default value and an explicit default value specified. A route parameter cannot contain an inline default value when a default value is specified explicitly. Consider removing one of them."
	msgRequiredValueNotFound    = "No corresponding parameter or default value could be found for the required value '%s=%v'. A non-null required value must correspond to a route parameter or the route pattern must have a matching default value."
	msgUnsupportedPolicy        = "The constraint entry '%s' - '%v' must have a string value or be of a type which implements Constraint or Transformer."
)

// Options carries the out-of-line parts of a route definition.
type Options struct {
	// Defaults supplies default values. Keys that are not parameters
	// become filters for link generation.
	Defaults *Values
	// Constraints maps a key to a regular expression string, a
	// Constraint, a Transformer, a PolicyReference or a slice of those.
	Constraints *Values
	// RequiredValues lists values that must be present to generate a link.
	RequiredValues *Values
}

// New parses template and merges the out-of-line defaults, constraints and
// required values into it.
func New(template string, defaults, constraints, requiredValues *Values) (*Template, error) {
	return NewWithOptions(template, Options{
		Defaults:       defaults,
		Constraints:    constraints,
		RequiredValues: requiredValues,
	})
}

// NewWithOptions is New with the out-of-line parts passed as Options.
func NewWithOptions(template string, opts Options) (*Template, error) {
	parsed, err := Parse(template)
	if err != nil {
		return nil, err
	}
	return parsed.with(opts)
}

func (t *Template) with(opts Options) (*Template, error) {
	defaults := opts.Defaults.Clone()

	outOfLine := make(map[string][]PolicyReference)
	var outOfLineNames []string
	var policyErr error
	opts.Constraints.Range(func(key string, val any) bool {
		refs, err := policyReferences(key, val)
		if err != nil {
			policyErr = err
			return false
		}
		lower := strings.ToLower(key)
		if _, ok := outOfLine[lower]; !ok {
			outOfLineNames = append(outOfLineNames, key)
		}
		outOfLine[lower] = append(outOfLine[lower], refs...)
		return true
	})
	if policyErr != nil {
		return nil, newRouteError(t.raw, policyErr.Error())
	}

	out := &Template{
		raw:            t.raw,
		segments:       make([]Segment, len(t.segments)),
		defaults:       defaults,
		requiredValues: opts.RequiredValues.Clone(),
		policies:       make(map[string][]PolicyReference),
	}

	for i, segment := range t.segments {
		parts := make([]Part, len(segment.parts))
		for j, part := range segment.parts {
			if part.IsParameter() {
				updated, err := mergeParameter(t.raw, part, defaults, outOfLine[strings.ToLower(part.name)])
				if err != nil {
					return nil, err
				}
				part = updated
				out.parameters = append(out.parameters, part)
				if len(part.policies) > 0 {
					out.addPolicies(part.name, part.policies)
				}
			}
			parts[j] = part
		}
		out.segments[i] = Segment{parts: parts}
	}

	for _, name := range outOfLineNames {
		if _, ok := out.Parameter(name); ok {
			continue
		}
		out.addPolicies(name, outOfLine[strings.ToLower(name)])
	}

	var reqErr error
	out.requiredValues.Range(func(key string, val any) bool {
		if ValuesEqual("", val) {
			return true
		}
		if _, ok := out.Parameter(key); ok {
			return true
		}
		if def, ok := defaults.Lookup(key); ok && ValuesEqual(val, def) {
			return true
		}
		reqErr = newRouteError(t.raw, fmt.Sprintf(msgRequiredValueNotFound, key, val))
		return false
	})
	if reqErr != nil {
		return nil, reqErr
	}

	return out, nil
}

func mergeParameter(raw string, part Part, defaults *Values, refs []PolicyReference) (Part, error) {
	if part.hasDefault {
		if def, ok := defaults.Lookup(part.name); ok {
			if !RoutePartsEqual(def, part.def) {
				return Part{}, newRouteError(raw, fmt.Sprintf(msgDefaultInlineAndExplicit, part.name))
			}
		} else {
			defaults.Set(part.name, part.def)
		}
	}

	def, ok := defaults.Lookup(part.name)
	if part.IsOptional() && ok && def != nil {
		return Part{}, newRouteError(raw, msgOptionalCannotHaveDefault)
	}
	if ok {
		part = part.withDefault(def)
	}

	if len(refs) > 0 {
		part = part.withPolicies(refs)
	}

	return part, nil
}

// policyReferences converts an out-of-line constraint entry. Strings are
// regular expressions matched against the whole value.
func policyReferences(key string, val any) ([]PolicyReference, error) {
	switch v := val.(type) {
	case string:
		c, err := newRegexConstraint("^(" + v + ")$")
		if err != nil {
			return nil, fmt.Errorf("template: constraint %q: %w", key, err)
		}
		return []PolicyReference{{Content: v, Constraint: c}}, nil
	case PolicyReference:
		return []PolicyReference{v}, nil
	case Constraint:
		return []PolicyReference{{Constraint: v}}, nil
	case Transformer:
		return []PolicyReference{{Transformer: v}}, nil
	case func(string) string:
		return []PolicyReference{{Transformer: TransformerFunc(v)}}, nil
	case []any:
		var refs []PolicyReference
		for _, item := range v {
			r, err := policyReferences(key, item)
			if err != nil {
				return nil, err
			}
			refs = append(refs, r...)
		}
		return refs, nil
	case []string:
		refs := make([]PolicyReference, 0, len(v))
		for _, item := range v {
			r, err := policyReferences(key, item)
			if err != nil {
				return nil, err
			}
			refs = append(refs, r...)
		}
		return refs, nil
	}
	return nil, fmt.Errorf(msgUnsupportedPolicy, key, val)
}
