// Package template parses route templates, ranks them by precedence and
// binds route values back into URLs.
//
// # Templates
//
// A template is a sequence of segments separated by '/'. Each segment holds
// literal text and parameters enclosed in curly braces:
//
//	blog/{year:int}/{month:range(1,12)}/{slug}
//	files/{*path}
//	{controller=Home}/{action=Index}/{id?}
//	{name}.{ext?}
//
// A parameter may be marked catch-all with a leading '*' ("**" keeps '/'
// unencoded when generating links), optional with a trailing '?', carry any
// number of ":constraint" references and an "=default". Literal braces are
// written as "{{" and "}}". A template may start with "/" or "~/".
//
//	t, err := template.Parse("blog/{year:int}/{slug?}")
//
// Parse reports syntax errors as *ParseError, which unwraps to
// ErrInvalidTemplate. New additionally merges out-of-line defaults,
// constraints and required values:
//
//	t, err := template.New("{controller}/{action}/{id?}",
//		template.NewValues("action", "Index"),
//		template.NewValues("id", `\d+`),
//		nil)
//
// # Precedence
//
// ComputeInbound and ComputeOutbound return a decimal per template, one
// digit per segment. Lower inbound values match first; higher outbound
// values generate links first. Templates with more than 28 segments are
// rejected with ErrTooManySegments.
//
// # Constraints and transformers
//
// Constraint references are resolved by a PolicyResolver. Built-in
// constraints:
//
//	int, long, bool, double, float, decimal, datetime, guid, alpha, required
//	min(n), max(n), range(a,b), length(n), length(a,b), minlength(n), maxlength(n)
//	regex(pattern)
//	slug, alphanum, date, hex, domain
//
// "uuid" is an alias of "guid".
//
// The built-in transformer "slugify" rewrites "MyValue" as "my-value" when a
// link is generated.
//
// # Binding
//
// A Binder generates links. GetValues combines ambient values (those of
// the current request), explicit values and defaults; BindValues writes the
// path and appends unused values as a query string:
//
//	b := template.NewBinder(template.MustParse("{controller}/{action}/{id?}"))
//	result := b.GetValues(
//		template.NewValues("controller", "home", "action", "index"),
//		template.NewValues("action", "list", "page", 2))
//	link, ok := b.BindValues(result.AcceptedValues) // "/home/list?page=2", true
//
// # Matching
//
// A Matcher extracts route values from a request path:
//
//	values := &template.Values{}
//	ok := template.NewMatcher(t).TryMatch("/blog/2024/hello", values)
package template
