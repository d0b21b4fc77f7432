package config

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/vitalvas/routing/router"
	"github.com/vitalvas/routing/template"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a route file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var (
	// ErrUnknownFormat is returned when a route file has an unsupported
	// extension or format.
	ErrUnknownFormat = errors.New("unknown route file format")
	// ErrUndecodedKeys is returned when a TOML route file has keys that do
	// not map to any field.
	ErrUndecodedKeys = errors.New("undecoded keys")
)

// File is a decoded route file.
type File struct {
	// Defaults are shared by every route. Route defaults win.
	Defaults map[string]any `yaml:"defaults" toml:"defaults"`
	Options  Options        `yaml:"options" toml:"options"`
	Routes   []RouteSpec    `yaml:"routes" toml:"routes" validate:"required,min=1,dive"`
}

// Options maps to the link generation options of a router.
type Options struct {
	LowercaseURLs         bool `yaml:"lowercase_urls" toml:"lowercase_urls"`
	LowercaseQueryStrings bool `yaml:"lowercase_query_strings" toml:"lowercase_query_strings"`
	AppendTrailingSlash   bool `yaml:"append_trailing_slash" toml:"append_trailing_slash"`
}

// RouteSpec describes one route. Constraint values are regular
// expressions or lists of them. A required value of "*" accepts any
// non-empty value.
type RouteSpec struct {
	Name           string         `yaml:"name" toml:"name"`
	Template       string         `yaml:"template" toml:"template" validate:"required,route_template"`
	Order          int            `yaml:"order" toml:"order"`
	Defaults       map[string]any `yaml:"defaults" toml:"defaults"`
	Constraints    map[string]any `yaml:"constraints" toml:"constraints"`
	RequiredValues map[string]any `yaml:"required_values" toml:"required_values"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("yaml")
			if idx := strings.Index(name, ","); idx != -1 {
				name = name[:idx]
			}
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})

		// The tag is constant and the function is valid, so this cannot fail.
		_ = validate.RegisterValidation("route_template", func(fl validator.FieldLevel) bool {
			_, err := template.ParseCached(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// FormatFromPath returns the format for the file extension of path.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("config: %w: %q", ErrUnknownFormat, path)
}

// Load reads, decodes and validates the route file at path.
func Load(path string) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	file, err := decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return file, nil
}

// Decode decodes and validates a route file. Unknown keys are rejected.
func Decode(r io.Reader, format Format) (*File, error) {
	file, err := decode(r, format)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return file, nil
}

func decode(r io.Reader, format Format) (*File, error) {
	file := &File{}

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}

	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(file)
		if err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("%w: %s", ErrUndecodedKeys, strings.Join(keys, ", "))
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err := getValidator().Struct(file); err != nil {
		return nil, err
	}
	return file, nil
}

// Validate checks the file for missing routes and invalid templates.
func (f *File) Validate() error {
	if err := getValidator().Struct(f); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// RouteDefaults returns the defaults of the route at index i merged with
// the shared defaults. Route defaults win, and shared defaults are skipped
// for parameters that declare an inline default. Shared null values are
// ignored.
func (f *File) RouteDefaults(i int) (map[string]any, error) {
	rs := f.Routes[i]

	merged := maps.Clone(rs.Defaults)
	if err := mergo.Map(&merged, f.sharedDefaults(rs)); err != nil {
		return nil, fmt.Errorf("config: route %d defaults: %w", i, err)
	}
	return merged, nil
}

// sharedDefaults returns the shared defaults that apply to rs. Keys are
// compared case-insensitively.
func (f *File) sharedDefaults(rs RouteSpec) map[string]any {
	if len(f.Defaults) == 0 {
		return nil
	}

	tpl, _ := template.ParseCached(rs.Template)

	shared := make(map[string]any, len(f.Defaults))
	for key, val := range f.Defaults {
		if hasKeyFold(rs.Defaults, key) {
			continue
		}
		if tpl != nil {
			if p, ok := tpl.Parameter(key); ok && p.HasDefault() {
				continue
			}
		}
		shared[key] = val
	}
	return shared
}

func hasKeyFold(m map[string]any, key string) bool {
	for k := range m {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// RouterOptions returns the router options set in the file.
func (f *File) RouterOptions() []router.Option {
	var opts []router.Option
	if f.Options.LowercaseURLs {
		opts = append(opts, router.WithLowercaseURLs())
	}
	if f.Options.LowercaseQueryStrings {
		opts = append(opts, router.WithLowercaseQueryStrings())
	}
	if f.Options.AppendTrailingSlash {
		opts = append(opts, router.WithAppendTrailingSlash())
	}
	return opts
}

// Build creates a router holding every route of the file. The file options
// are applied before opts. The first route error is returned.
func (f *File) Build(opts ...router.Option) (*router.Router, error) {
	r := router.NewRouter(append(f.RouterOptions(), opts...)...)

	for i, rs := range f.Routes {
		defaults, err := f.RouteDefaults(i)
		if err != nil {
			return nil, err
		}

		route := r.Map(rs.Template).Order(rs.Order)
		if rs.Name != "" {
			route.Name(rs.Name)
		}
		route.Defaults(pairs(defaults)...).
			Constraints(pairs(rs.Constraints)...).
			RequiredValues(pairs(requiredValues(rs.RequiredValues))...)

		if err := route.GetError(); err != nil {
			return nil, fmt.Errorf("config: route %d %q: %w", i, rs.Template, err)
		}
	}

	return r, nil
}

// requiredValues replaces "*" with template.RequiredValueAny.
func requiredValues(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok && s == "*" {
			v = template.RequiredValueAny
		}
		out[k] = v
	}
	return out
}

// pairs flattens m into key/value pairs sorted by key.
func pairs(m map[string]any) []any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(m)*2)
	for _, k := range keys {
		out = append(out, k, m[k])
	}
	return out
}
