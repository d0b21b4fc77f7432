package template

import (
	"regexp"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Transformer rewrites a parameter value when a link is generated.
type Transformer interface {
	TransformOutbound(value string) string
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(string) string

// TransformOutbound calls f(value).
func (f TransformerFunc) TransformOutbound(value string) string {
	return f(value)
}

var slugBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// Slugify turns "MyValue" into "my-value".
func Slugify(value string) string {
	if value == "" {
		return value
	}
	return toLower(slugBoundary.ReplaceAllString(value, "$1-$2"))
}

// toLower lower-cases s without locale specific rules. A Caser keeps state,
// so a new one is built per call.
func toLower(s string) string {
	return cases.Lower(language.Und).String(s)
}

var builtinTransformers = map[string]Transformer{
	"slugify": TransformerFunc(Slugify),
}
