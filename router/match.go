package router

import (
	"errors"

	"github.com/vitalvas/routing/template"
)

// RouteMatch stores information about a matched route.
type RouteMatch struct {
	// Route is the matched route, if any.
	Route *Route

	// Values contains the captured parameters and the route defaults.
	Values *template.Values

	// MatchErr is set to ErrNotFound when no route matches the path.
	MatchErr error
}

// WalkFunc is the type of the function called for each route visited by Walk.
type WalkFunc func(route *Route, router *Router) error

// ErrNotFound is returned when no route match is found.
var ErrNotFound = errors.New("no matching route was found")

// ErrNoLink is returned when no route can generate a link for the given
// values.
var ErrNoLink = errors.New("no route could generate a link for the given values")

// ErrUnknownRoute is returned when building a URL for a name that is not
// registered.
var ErrUnknownRoute = errors.New("no route registered with this name")

// SkipRoute is used as a return value from WalkFunc to continue with the
// next route without stopping the walk.
var SkipRoute = errors.New("skip this route") //nolint:revive,staticcheck
