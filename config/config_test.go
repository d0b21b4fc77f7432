package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/routing/router"
	"github.com/vitalvas/routing/template"
)

const testYAML = `
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
    defaults:
      area: Site
`

const testTOML = `
[defaults]
area = "Public"

[options]
lowercase_urls = true

[[routes]]
name = "blog"
template = "blog/{year}/{slug}"
order = -1

[routes.constraints]
year = '\d{4}'

[[routes]]
name = "default"
template = "{controller=Home}/{action=Index}/{id?}"

[routes.defaults]
area = "Site"
`

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{"yaml", FormatYAML, testYAML},
		{"toml", FormatTOML, testTOML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := Decode(strings.NewReader(tt.input), tt.format)
			require.NoError(t, err)

			assert.Equal(t, map[string]any{"area": "Public"}, file.Defaults)
			assert.True(t, file.Options.LowercaseURLs)
			assert.False(t, file.Options.AppendTrailingSlash)

			require.Len(t, file.Routes, 2)

			blog := file.Routes[0]
			assert.Equal(t, "blog", blog.Name)
			assert.Equal(t, "blog/{year}/{slug}", blog.Template)
			assert.Equal(t, -1, blog.Order)
			assert.Equal(t, map[string]any{"year": `\d{4}`}, blog.Constraints)
			assert.Nil(t, blog.Defaults)

			def := file.Routes[1]
			assert.Equal(t, "default", def.Name)
			assert.Equal(t, 0, def.Order)
			assert.Equal(t, map[string]any{"area": "Site"}, def.Defaults)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
		target error
	}{
		{
			name:   "unknown format",
			format: Format("json"),
			input:  `{}`,
			target: ErrUnknownFormat,
		},
		{
			name:   "toml unknown key",
			format: FormatTOML,
			input:  "[[routes]]\ntemplate = \"a\"\nbogus = 1\n",
			target: ErrUndecodedKeys,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input), tt.format)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	t.Run("yaml unknown key", func(t *testing.T) {
		_, err := Decode(strings.NewReader("routes:\n  - template: a\n    bogus: 1\n"), FormatYAML)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bogus")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Decode(strings.NewReader("routes: [\n"), FormatYAML)
		assert.Error(t, err)
	})

	t.Run("malformed toml", func(t *testing.T) {
		_, err := Decode(strings.NewReader("[[routes]\n"), FormatTOML)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
		tag   string
	}{
		{
			name:  "empty file",
			input: "",
			field: "routes",
			tag:   "required",
		},
		{
			name:  "empty route list",
			input: "routes: []\n",
			field: "routes",
			tag:   "min",
		},
		{
			name:  "missing template",
			input: "routes:\n  - name: home\n",
			field: "template",
			tag:   "required",
		},
		{
			name:  "invalid template",
			input: "routes:\n  - template: \"{a}/{a}\"\n",
			field: "template",
			tag:   "route_template",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input), FormatYAML)
			require.Error(t, err)

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.NotEmpty(t, verrs)
			assert.Equal(t, tt.field, verrs[0].Field())
			assert.Equal(t, tt.tag, verrs[0].Tag())
		})
	}

	t.Run("valid file", func(t *testing.T) {
		file := &File{Routes: []RouteSpec{{Template: "{controller}/{action}"}}}
		assert.NoError(t, file.Validate())
	})

	t.Run("unknown constraint passes validation", func(t *testing.T) {
		file := &File{Routes: []RouteSpec{{Template: "{id:nope}"}}}
		assert.NoError(t, file.Validate())
	})
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected Format
	}{
		{"routes.yaml", FormatYAML},
		{"routes.yml", FormatYAML},
		{"/etc/app/ROUTES.YML", FormatYAML},
		{"routes.toml", FormatTOML},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, err := FormatFromPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}

	for _, path := range []string{"routes.json", "routes", ""} {
		t.Run("unknown "+path, func(t *testing.T) {
			_, err := FormatFromPath(path)
			assert.ErrorIs(t, err, ErrUnknownFormat)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"routes.yaml", testYAML},
		{"routes.toml", testTOML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			file, err := Load(path)
			require.NoError(t, err)
			assert.Len(t, file.Routes, 2)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "routes.ini"))
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})

	t.Run("error names file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
	})
}

func TestRouteDefaults(t *testing.T) {
	file := &File{
		Defaults: map[string]any{
			"area":       "Public",
			"controller": "Store",
			"page":       1,
			"skipped":    nil,
		},
		Routes: []RouteSpec{
			{Template: "{controller=Home}/{action}", Defaults: map[string]any{"Area": "Site"}},
			{Template: "{controller}/{action}"},
			{Template: "{controller}/{action}", Defaults: map[string]any{"page": 2}},
		},
	}

	tests := []struct {
		name     string
		index    int
		expected map[string]any
	}{
		{
			name:     "route and inline defaults win",
			index:    0,
			expected: map[string]any{"Area": "Site", "page": 1},
		},
		{
			name:     "shared defaults only",
			index:    1,
			expected: map[string]any{"area": "Public", "controller": "Store", "page": 1},
		},
		{
			name:     "route value wins",
			index:    2,
			expected: map[string]any{"area": "Public", "controller": "Store", "page": 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := file.RouteDefaults(tt.index)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("route map untouched", func(t *testing.T) {
		_, err := file.RouteDefaults(2)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"page": 2}, file.Routes[2].Defaults)
	})
}

func TestBuild(t *testing.T) {
	file, err := Decode(strings.NewReader(testYAML), FormatYAML)
	require.NoError(t, err)

	r, err := file.Build()
	require.NoError(t, err)

	t.Run("named routes", func(t *testing.T) {
		require.NotNil(t, r.Get("blog"))
		require.NotNil(t, r.Get("default"))
		assert.Equal(t, -1, r.Get("blog").GetOrder())
	})

	t.Run("match", func(t *testing.T) {
		var match router.RouteMatch
		require.True(t, r.Match("/blog/2024/hello", &match))
		assert.Same(t, r.Get("blog"), match.Route)
		assert.Equal(t, "2024", match.Values.Get("year"))
		assert.Equal(t, "Public", match.Values.Get("area"))
	})

	t.Run("constraint falls through", func(t *testing.T) {
		var match router.RouteMatch
		require.True(t, r.Match("/blog/24/hello", &match))
		assert.Same(t, r.Get("default"), match.Route)
		assert.Equal(t, "Site", match.Values.Get("area"))
	})

	t.Run("url", func(t *testing.T) {
		u, err := r.URL("blog", "year", 2024, "slug", "hello")
		require.NoError(t, err)
		assert.Equal(t, "/blog/2024/hello", u.String())

		u, err = r.URL("default", "controller", "Store", "action", "Buy")
		require.NoError(t, err)
		assert.Equal(t, "/store/buy", u.String())
	})

	t.Run("caller options", func(t *testing.T) {
		r, err := file.Build(router.WithAppendTrailingSlash())
		require.NoError(t, err)

		u, err := r.URL("default", "controller", "Store", "action", "Buy")
		require.NoError(t, err)
		assert.Equal(t, "/store/buy/", u.String())
	})
}

func TestBuildRequiredValues(t *testing.T) {
	input := `
routes:
  - name: admin
    template: "admin/{controller}/{action=Index}"
    required_values:
      controller: "*"
`
	file, err := Decode(strings.NewReader(input), FormatYAML)
	require.NoError(t, err)

	r, err := file.Build()
	require.NoError(t, err)

	u, err := r.URL("admin", "controller", "Users")
	require.NoError(t, err)
	assert.Equal(t, "/admin/Users", u.String())

	_, err = r.URL("admin")
	assert.ErrorIs(t, err, router.ErrNoLink)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		routes []RouteSpec
		target error
	}{
		{
			name:   "unknown inline constraint",
			routes: []RouteSpec{{Template: "{id:nope}"}},
			target: template.ErrUnknownPolicy,
		},
		{
			name: "conflicting default",
			routes: []RouteSpec{{
				Template: "{controller=Home}",
				Defaults: map[string]any{"controller": "Store"},
			}},
			target: template.ErrInvalidRoute,
		},
		{
			name: "required value without parameter",
			routes: []RouteSpec{{
				Template:       "{controller}",
				RequiredValues: map[string]any{"area": "Admin"},
			}},
			target: template.ErrInvalidRoute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := &File{Routes: tt.routes}
			_, err := file.Build()
			assert.ErrorIs(t, err, tt.target)
		})
	}

	t.Run("invalid constraint regex", func(t *testing.T) {
		file := &File{Routes: []RouteSpec{{
			Template:    "{id}",
			Constraints: map[string]any{"id": "("},
		}}}
		_, err := file.Build()
		assert.Error(t, err)
	})

	t.Run("duplicate name", func(t *testing.T) {
		file := &File{Routes: []RouteSpec{
			{Name: "home", Template: "a"},
			{Name: "home", Template: "b"},
		}}
		_, err := file.Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `route 1 "b"`)
		assert.Contains(t, err.Error(), "already in use")
	})
}

func TestPairs(t *testing.T) {
	assert.Equal(t, []any{"a", 1, "b", 2}, pairs(map[string]any{"b": 2, "a": 1}))
	assert.Empty(t, pairs(nil))
}

func TestRequiredValues(t *testing.T) {
	got := requiredValues(map[string]any{"area": "Admin", "controller": "*"})
	assert.Equal(t, "Admin", got["area"])
	assert.Equal(t, template.RequiredValueAny, got["controller"])
}

// --- Benchmarks ---

func BenchmarkDecodeYAML(b *testing.B) {
	for b.Loop() {
		_, _ = Decode(strings.NewReader(testYAML), FormatYAML)
	}
}

func BenchmarkBuild(b *testing.B) {
	file, err := Decode(strings.NewReader(testYAML), FormatYAML)
	require.NoError(b, err)

	for b.Loop() {
		_, _ = file.Build()
	}
}
