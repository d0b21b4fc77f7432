package router

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/vitalvas/routing/template"
)

// Route stores a template with its defaults, constraints and required
// values. Configuration errors are kept on the route and reported by
// GetError; a route with an error never matches and never builds links.
type Route struct {
	router *Router

	tpl          string
	hasTemplate  bool
	name         string
	order        int
	defaults     *template.Values
	constraints  *template.Values
	required     *template.Values
	transformers map[string]template.Transformer

	compiled *compiledRoute
	err      error
}

// compiledRoute is the immutable state derived from a route configuration.
type compiledRoute struct {
	template    *template.Template
	matcher     *template.Matcher
	binder      *template.Binder
	constraints *template.ConstraintSet
	inbound     decimal.Decimal
	outbound    decimal.Decimal
}

// Template sets the route template text.
func (r *Route) Template(tpl string) *Route {
	return r.update(func() error {
		r.tpl = tpl
		r.hasTemplate = true
		return nil
	})
}

// Name sets the name for the route, used to build URLs.
// Returns an error if the route already has a name or the name is taken.
func (r *Route) Name(name string) *Route {
	return r.update(func() error {
		if r.name != "" {
			return fmt.Errorf("router: route already has name %q, can't set %q", r.name, name)
		}
		if other, ok := r.router.namedRoutes[name]; ok && other != r {
			return fmt.Errorf("router: route name %q is already in use", name)
		}
		r.name = name
		r.router.namedRoutes[name] = r
		return nil
	})
}

// Defaults adds default values from key/value pairs.
func (r *Route) Defaults(pairs ...any) *Route {
	return r.update(func() error {
		v, err := valuesFromPairs(pairs...)
		if err != nil {
			return err
		}
		r.defaults = mergeValues(r.defaults, v)
		return nil
	})
}

// Constraints adds constraints from key/value pairs. A value is a regular
// expression string, a template.Constraint, a template.Transformer or a
// slice of those.
func (r *Route) Constraints(pairs ...any) *Route {
	return r.update(func() error {
		v, err := valuesFromPairs(pairs...)
		if err != nil {
			return err
		}
		r.constraints = mergeValues(r.constraints, v)
		return nil
	})
}

// RequiredValues adds values that must be present to generate a link.
func (r *Route) RequiredValues(pairs ...any) *Route {
	return r.update(func() error {
		v, err := valuesFromPairs(pairs...)
		if err != nil {
			return err
		}
		r.required = mergeValues(r.required, v)
		return nil
	})
}

// Transformer rewrites the value of param when a link is generated.
func (r *Route) Transformer(param string, t template.Transformer) *Route {
	return r.update(func() error {
		if r.transformers == nil {
			r.transformers = make(map[string]template.Transformer)
		}
		r.transformers[param] = t
		return nil
	})
}

// Order sets the route order. Routes with a lower order are tried first,
// before precedence is considered.
func (r *Route) Order(order int) *Route {
	return r.update(func() error {
		r.order = order
		return nil
	})
}

// update applies fn under the router lock and recompiles the route.
// Once an error is recorded further changes are ignored.
func (r *Route) update(fn func() error) *Route {
	r.router.mu.Lock()
	defer r.router.mu.Unlock()

	if r.err != nil {
		return r
	}
	if err := fn(); err != nil {
		r.err = err
		return r
	}

	r.err = r.compile()
	r.router.invalidate()
	return r
}

// compile rebuilds the matcher, binder and precedence of the route.
// The caller holds the router lock.
func (r *Route) compile() error {
	if !r.hasTemplate {
		return nil
	}

	tpl, err := template.New(r.tpl, r.defaults, r.constraints, r.required)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	inbound, err := template.ComputeInbound(tpl)
	if err != nil {
		return fmt.Errorf("router: %q: %w", r.tpl, err)
	}
	outbound, err := template.ComputeOutbound(tpl)
	if err != nil {
		return fmt.Errorf("router: %q: %w", r.tpl, err)
	}

	constraints, err := template.ResolveConstraints(tpl, r.router.resolver)
	if err != nil {
		return fmt.Errorf("router: %q: %w", r.tpl, err)
	}

	opts := make([]template.BinderOption, 0, len(r.router.binderOpts)+2)
	opts = append(opts, r.router.binderOpts...)
	opts = append(opts, template.WithPolicyResolver(r.router.resolver))
	if len(r.transformers) > 0 {
		opts = append(opts, template.WithTransformers(r.transformers))
	}

	r.compiled = &compiledRoute{
		template:    tpl,
		matcher:     template.NewMatcher(tpl),
		binder:      template.NewBinder(tpl, opts...),
		constraints: constraints,
		inbound:     inbound,
		outbound:    outbound,
	}
	return nil
}

func (r *Route) state() (*compiledRoute, error) {
	r.router.mu.RLock()
	defer r.router.mu.RUnlock()
	return r.compiled, r.err
}

// URL builds a URL for the route from key/value pairs. Values that are not
// consumed by the template are added to the query string.
func (r *Route) URL(pairs ...any) (*url.URL, error) {
	c, err := r.state()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.New("router: route doesn't have a template")
	}

	values, err := valuesFromPairs(pairs...)
	if err != nil {
		return nil, err
	}

	link, ok := c.binder.Bind(nil, values)
	if !ok {
		return nil, fmt.Errorf("router: %q: %w", c.template.RawText(), ErrNoLink)
	}
	return url.Parse(link)
}

// --- Inspection ---

// GetName returns the name for the route, if any.
func (r *Route) GetName() string {
	r.router.mu.RLock()
	defer r.router.mu.RUnlock()
	return r.name
}

// GetOrder returns the route order.
func (r *Route) GetOrder() int {
	r.router.mu.RLock()
	defer r.router.mu.RUnlock()
	return r.order
}

// GetTemplate returns the parsed template of the route.
func (r *Route) GetTemplate() (*template.Template, error) {
	c, err := r.state()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.New("router: route doesn't have a template")
	}
	return c.template, nil
}

// GetVarNames returns the parameter names of the route template.
func (r *Route) GetVarNames() ([]string, error) {
	t, err := r.GetTemplate()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(t.Parameters()))
	for _, p := range t.Parameters() {
		names = append(names, p.Name())
	}
	return names, nil
}

// GetPrecedence returns the inbound and outbound precedence of the route.
func (r *Route) GetPrecedence() (inbound, outbound decimal.Decimal, err error) {
	c, err := r.state()
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if c == nil {
		return decimal.Zero, decimal.Zero, errors.New("router: route doesn't have a template")
	}
	return c.inbound, c.outbound, nil
}

// GetError returns any error that was set on the route.
func (r *Route) GetError() error {
	r.router.mu.RLock()
	defer r.router.mu.RUnlock()
	return r.err
}
