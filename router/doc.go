// Package router keeps a table of route templates and uses it in both
// directions: matching request paths to routes and generating links from
// route values.
//
// # Registering routes
//
// Routes are registered with Map and configured with chained calls:
//
//	r := router.NewRouter()
//	r.Map("blog/{year:int}/{slug}").Name("post")
//	r.Map("{controller=Home}/{action=Index}/{id?}").
//		Name("default").
//		Constraints("id", `\d+`)
//
// Configuration errors, such as an invalid template, are stored on the route
// and returned by GetError. Such a route is skipped by Match and Link.
//
// # Matching
//
// Match tries routes ordered by Order and then by inbound precedence, so
// "blog/archive" is tried before "blog/{slug}" regardless of registration
// order:
//
//	var m router.RouteMatch
//	if r.Match("/blog/2024/hello", &m) {
//		year := m.Values.Get("year") // "2024"
//	}
//
// # Link generation
//
// Link tries routes ordered by Order and then by outbound precedence and
// returns the first link a route can produce. Ambient values are the
// values of the current request:
//
//	link, err := r.Link(m.Values, template.NewValues("slug", "other"))
//
// Named routes build URLs directly:
//
//	u, err := r.URL("post", "year", 2024, "slug", "hello")
//
// URI returns an absolute URI; internationalized host names are converted
// to their ASCII form.
//
// # Observability
//
// WithLogger enables debug records for rejected constraints and routes that
// cannot produce a link. WithMetrics registers the Prometheus counters
// routing_matches_total and routing_links_total, labelled by result.
package router
