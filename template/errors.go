package template

import "errors"

var (
	// ErrInvalidTemplate is wrapped by every *ParseError.
	ErrInvalidTemplate = errors.New("template: invalid route template")

	// ErrInvalidRoute reports defaults, constraints or required values that
	// cannot be combined with the parsed template.
	ErrInvalidRoute = errors.New("template: invalid route")

	// ErrTooManySegments is returned by the precedence calculators when a
	// template has more segments than a decimal precedence can represent.
	ErrTooManySegments = errors.New("Route exceeds the maximum number of allowed segments of 28 and is unable to be processed.") //nolint:staticcheck

	// ErrUnknownPolicy is returned when a constraint reference names neither
	// a registered constraint nor a transformer.
	ErrUnknownPolicy = errors.New("template: unknown parameter policy")
)

// ParseError describes a syntax error in a route template.
type ParseError struct {
	Template string
	Message  string
}

func (e *ParseError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match ErrInvalidTemplate.
func (e *ParseError) Unwrap() error {
	return ErrInvalidTemplate
}

// RouteError describes a template whose defaults, constraints or required
// values are inconsistent with its parameters.
type RouteError struct {
	Template string
	Message  string
}

func (e *RouteError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match ErrInvalidRoute.
func (e *RouteError) Unwrap() error {
	return ErrInvalidRoute
}

func newParseError(template, message string) error {
	return &ParseError{Template: template, Message: message}
}

func newRouteError(template, message string) error {
	return &RouteError{Template: template, Message: message}
}
