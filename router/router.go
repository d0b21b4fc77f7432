package router

import (
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vitalvas/routing/template"
)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for debug records about rejected
// matches and links. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics registers the routing_matches_total and routing_links_total
// counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Router) {
		r.registerer = reg
	}
}

// WithPolicyResolver sets the resolver for inline constraint and
// transformer references. The default is template.DefaultResolver.
func WithPolicyResolver(resolver *template.PolicyResolver) Option {
	return func(r *Router) {
		if resolver != nil {
			r.resolver = resolver
		}
	}
}

// WithLowercaseURLs lower-cases generated paths.
func WithLowercaseURLs() Option {
	return func(r *Router) {
		r.binderOpts = append(r.binderOpts, template.WithLowercaseURLs())
	}
}

// WithLowercaseQueryStrings lower-cases generated query strings. It only
// takes effect together with WithLowercaseURLs.
func WithLowercaseQueryStrings() Option {
	return func(r *Router) {
		r.binderOpts = append(r.binderOpts, template.WithLowercaseQueryStrings())
	}
}

// WithAppendTrailingSlash appends "/" to generated paths.
func WithAppendTrailingSlash() Option {
	return func(r *Router) {
		r.binderOpts = append(r.binderOpts, template.WithAppendTrailingSlash())
	}
}

// Router holds a table of route templates. It matches request paths to
// routes and generates links from route values.
//
//	r := router.NewRouter()
//	r.Map("{controller=Home}/{action=Index}/{id?}").Name("default")
//	link, err := r.URL("default", "controller", "Store", "action", "Buy")
//
// Routes may be registered while the router is in use; the ordered route
// lists are rebuilt on the next Match or Link.
type Router struct {
	mu          sync.RWMutex
	routes      []*Route
	namedRoutes map[string]*Route

	// Sorted snapshots, nil when a route changed since the last sort.
	inbound  []entry
	outbound []entry

	logger     *slog.Logger
	registerer prometheus.Registerer
	metrics    *metrics
	resolver   *template.PolicyResolver
	binderOpts []template.BinderOption
}

// entry pairs a route with the compiled state it had when the list was
// sorted.
type entry struct {
	route    *Route
	compiled *compiledRoute
}

// NewRouter returns a new router instance.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		namedRoutes: make(map[string]*Route),
		logger:      slog.New(slog.DiscardHandler),
		resolver:    template.DefaultResolver,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.registerer != nil {
		m, err := newMetrics(r.registerer)
		if err != nil {
			r.logger.Warn("router metrics disabled", "error", err)
		} else {
			r.metrics = m
		}
	}

	return r
}

// NewRoute creates an empty route for configuration.
func (r *Router) NewRoute() *Route {
	route := &Route{router: r}

	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.mu.Unlock()

	return route
}

// Map registers a new route for the template text.
func (r *Router) Map(tpl string) *Route {
	return r.NewRoute().Template(tpl)
}

// Name registers a new route with the given name.
func (r *Router) Name(name string) *Route {
	return r.NewRoute().Name(name)
}

// Get returns a route registered with the given name.
func (r *Router) Get(name string) *Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namedRoutes[name]
}

// Match matches path against the routes in inbound order and stores the
// first route whose template and constraints accept it.
func (r *Router) Match(path string, match *RouteMatch) bool {
	for _, e := range r.inboundRoutes() {
		values := &template.Values{}
		if !e.compiled.matcher.TryMatch(path, values) {
			continue
		}

		if key, ok := e.compiled.constraints.Match(values); !ok {
			r.logger.Debug("route constraint rejected value",
				"template", e.compiled.template.RawText(),
				"key", key,
				"path", path)
			continue
		}

		match.Route = e.route
		match.Values = values
		match.MatchErr = nil
		r.metrics.match(resultMatched)
		return true
	}

	match.MatchErr = ErrNotFound
	r.metrics.match(resultNotFound)
	return false
}

// Link generates a link from the routes in outbound order. ambient holds
// the values of the current request and may be nil.
func (r *Router) Link(ambient, explicit *template.Values) (string, error) {
	for _, e := range r.outboundRoutes() {
		if link, ok := e.compiled.binder.Bind(ambient, explicit); ok {
			r.metrics.link(resultOK)
			return link, nil
		}
		r.logger.Debug("route did not produce a link",
			"template", e.compiled.template.RawText(),
			"values", explicit.String())
	}

	r.metrics.link(resultNoLink)
	return "", ErrNoLink
}

// URL builds a URL for the named route from key/value pairs.
func (r *Router) URL(name string, pairs ...any) (*url.URL, error) {
	route := r.Get(name)
	if route == nil {
		return nil, fmt.Errorf("router: %w: %q", ErrUnknownRoute, name)
	}
	return route.URL(pairs...)
}

// URI generates an absolute URI from the routes in outbound order.
// The host may carry a port and is converted to its ASCII form.
func (r *Router) URI(scheme, host string, ambient, explicit *template.Values) (*url.URL, error) {
	h, err := asciiHost(host)
	if err != nil {
		return nil, err
	}

	link, err := r.Link(ambient, explicit)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("router: generated link %q: %w", link, err)
	}
	u.Scheme = scheme
	u.Host = h
	return u, nil
}

// Walk calls walkFn for each route in registration order. Walking stops at
// the first error other than SkipRoute.
func (r *Router) Walk(walkFn WalkFunc) error {
	r.mu.RLock()
	routes := append([]*Route(nil), r.routes...)
	r.mu.RUnlock()

	for _, route := range routes {
		err := walkFn(route, r)
		if err == SkipRoute {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// invalidate drops the sorted route lists. The caller holds r.mu.
func (r *Router) invalidate() {
	r.inbound = nil
	r.outbound = nil
}

func (r *Router) inboundRoutes() []entry {
	r.mu.RLock()
	routes := r.inbound
	r.mu.RUnlock()
	if routes != nil {
		return routes
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inbound == nil {
		r.inbound = r.sorted(func(a, b *compiledRoute) int {
			return a.inbound.Cmp(b.inbound)
		})
	}
	return r.inbound
}

func (r *Router) outboundRoutes() []entry {
	r.mu.RLock()
	routes := r.outbound
	r.mu.RUnlock()
	if routes != nil {
		return routes
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outbound == nil {
		r.outbound = r.sorted(func(a, b *compiledRoute) int {
			return b.outbound.Cmp(a.outbound)
		})
	}
	return r.outbound
}

// sorted returns the usable routes ordered by Order, then by the given
// precedence comparison, then by template text. The caller holds r.mu.
func (r *Router) sorted(precedence func(a, b *compiledRoute) int) []entry {
	entries := make([]entry, 0, len(r.routes))
	for _, route := range r.routes {
		if route.err != nil || route.compiled == nil {
			continue
		}
		entries = append(entries, entry{route: route, compiled: route.compiled})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.route.order != b.route.order {
			return a.route.order < b.route.order
		}
		if c := precedence(a.compiled, b.compiled); c != 0 {
			return c < 0
		}
		return strings.ToLower(a.compiled.template.RawText()) < strings.ToLower(b.compiled.template.RawText())
	})

	return entries
}
