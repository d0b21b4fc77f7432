/*
Package config loads route tables from YAML or TOML files.

A route file lists route templates with their names, orders, defaults,
constraints and required values:

	defaults:
	  area: Public
	options:
	  lowercase_urls: true
	routes:
	  - name: blog
	    template: "blog/{year}/{slug}"
	    order: -1
	    constraints:
	      year: '\d{4}'
	  - name: default
	    template: "{controller=Home}/{action=Index}/{id?}"

Load picks the decoder from the file extension, rejects unknown keys and
validates the result. File.Build registers every route on a new
router.Router:

	file, err := config.Load("routes.yaml")
	if err != nil {
		return err
	}
	r, err := file.Build(router.WithLogger(logger))

Shared defaults apply to every route unless the route sets the same key or
the template declares an inline default for it.
*/
package config
