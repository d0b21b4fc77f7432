package template

import (
	"reflect"
	"sort"
	"strings"
)

// RequiredValueAny as a required value accepts any non-empty value for
// its key.
var RequiredValueAny any = requiredValueAny{}

type requiredValueAny struct{}

func (requiredValueAny) String() string { return "*" }

func isRequiredValueAny(v any) bool {
	_, ok := v.(requiredValueAny)
	return ok
}

// cleared marks a value that was supplied explicitly as nil or "".
// It compares equal to "" in routePartsEqual.
type clearedValue struct{}

var cleared any = clearedValue{}

func routePartsEqual(a, b any) bool {
	if a == cleared {
		a = ""
	}
	if b == cleared {
		b = ""
	}
	return RoutePartsEqual(a, b)
}

// ValuesResult is the outcome of GetValues.
type ValuesResult struct {
	// AcceptedValues are the values used to build the link. Values that
	// are not consumed by a parameter end up in the query string.
	AcceptedValues *Values
	// CombinedValues are the accepted values plus ambient values that are
	// not parameters. Constraints are checked against this set.
	CombinedValues *Values
}

type slot struct {
	key   string
	value any
	set   bool
}

type namedTransformer struct {
	name        string
	transformer Transformer
}

// BinderOption configures a Binder.
type BinderOption func(*Binder)

// WithTransformers applies the given transformers to parameter values
// before binding.
func WithTransformers(transformers map[string]Transformer) BinderOption {
	return func(b *Binder) {
		names := make([]string, 0, len(transformers))
		for name := range transformers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.transformers = append(b.transformers, namedTransformer{name: name, transformer: transformers[name]})
		}
	}
}

// WithPolicyResolver sets the resolver used for inline transformer and
// constraint references such as "slugify". The default is DefaultResolver.
func WithPolicyResolver(r *PolicyResolver) BinderOption {
	return func(b *Binder) {
		b.resolver = r
	}
}

// WithLowercaseURLs lower-cases the generated path.
func WithLowercaseURLs() BinderOption {
	return func(b *Binder) {
		b.lowercaseURLs = true
	}
}

// WithLowercaseQueryStrings lower-cases the query string. It only takes
// effect together with WithLowercaseURLs.
func WithLowercaseQueryStrings() BinderOption {
	return func(b *Binder) {
		b.lowercaseQuery = true
	}
}

// WithAppendTrailingSlash appends "/" to generated paths that lack one.
func WithAppendTrailingSlash() BinderOption {
	return func(b *Binder) {
		b.appendTrailingSlash = true
	}
}

// Binder generates links from a template. It is immutable and safe for
// concurrent use.
type Binder struct {
	template     *Template
	defaults     *Values
	slots        []slot
	filters      []slot
	requiredKeys []string
	transformers []namedTransformer
	constraints  *ConstraintSet
	resolver     *PolicyResolver

	lowercaseURLs       bool
	lowercaseQuery      bool
	appendTrailingSlash bool
}

// NewBinder returns a binder for t.
func NewBinder(t *Template, opts ...BinderOption) *Binder {
	b := &Binder{
		template: t,
		defaults: t.defaults,
		resolver: DefaultResolver,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.resolver == nil {
		b.resolver = DefaultResolver
	}

	for _, p := range t.parameters {
		b.slots = append(b.slots, slot{key: p.name})
	}
	t.defaults.Range(func(key string, val any) bool {
		if _, ok := t.Parameter(key); !ok {
			b.filters = append(b.filters, slot{key: key, value: val, set: true})
			b.slots = append(b.slots, slot{key: key})
		}
		return true
	})

	b.requiredKeys = t.requiredValues.Keys()

	for _, p := range t.parameters {
		for _, ref := range t.Policies(p.name) {
			if tr, ok := b.resolver.Transformer(ref); ok {
				b.transformers = append(b.transformers, namedTransformer{name: p.name, transformer: tr})
			}
		}
	}

	b.constraints, _ = resolveConstraints(t, b.resolver, true)

	return b
}

// Template returns the template the binder was built for.
func (b *Binder) Template() *Template { return b.template }

// GetValues decides which values a link would use. ambient holds the
// values of the current request and may be nil; explicit holds the values
// supplied by the caller. It returns nil when the template cannot produce
// a link for these values.
func (b *Binder) GetValues(ambient, explicit *Values) *ValuesResult {
	slots := make([]slot, len(b.slots))
	copy(slots, b.slots)

	processed := 0
	for i := range slots {
		val, ok := explicit.Lookup(slots[i].key)
		if !ok {
			continue
		}
		if !IsRoutePartNonEmpty(val) {
			val = cleared
		}
		slots[i].value = val
		slots[i].set = true
		processed++
	}

	required := b.template.requiredValues
	copyAmbient := ambient != nil
	if copyAmbient {
		for _, key := range b.requiredKeys {
			if _, ok := b.template.Parameter(key); ok {
				continue
			}

			explicitVal, hasExplicit := explicit.Lookup(key)
			ambientVal := ambient.Get(key)
			requiredVal := required.Get(key)

			if !RoutePartsEqual(ambientVal, requiredVal) && !isRequiredValueAny(requiredVal) {
				copyAmbient = false
				break
			}
			if hasExplicit && !RoutePartsEqual(explicitVal, ambientVal) {
				copyAmbient = false
				break
			}
		}
	}

	for i, p := range b.template.parameters {
		key := slots[i].key
		val := slots[i].value
		hasExplicit := slots[i].set

		var ambientVal any
		hasAmbient := false

		if copyAmbient {
			ambientVal, hasAmbient = ambient.Lookup(key)
			if hasExplicit && hasAmbient && !routePartsEqual(ambientVal, val) {
				copyAmbient = false
			}
			if !hasExplicit && !hasAmbient && !b.defaults.Has(p.name) {
				copyAmbient = false
			}
		}

		if requiredVal, ok := required.Lookup(key); !copyAmbient && !hasExplicit && ok {
			ambientVal, hasAmbient = ambient.Lookup(key)
			if hasAmbient && (RoutePartsEqual(requiredVal, ambientVal) || isRequiredValueAny(requiredVal)) {
				slots[i] = slot{key: key, value: ambientVal, set: true}
				hasExplicit = true
				val = ambientVal
			}
		}

		switch {
		case hasExplicit && val != cleared:
		case copyAmbient && hasAmbient:
			slots[i] = slot{key: key, value: ambientVal, set: true}
		case p.IsOptional() || p.IsCatchAll():
			slots[i] = slot{}
		default:
			def, ok := b.defaults.Lookup(p.name)
			if !ok {
				return nil
			}
			slots[i] = slot{key: key, value: def, set: true}
		}
	}

	offset := len(b.template.parameters)
	for i, f := range b.filters {
		s := slots[offset+i]
		if s.set {
			if !routePartsEqual(s.value, f.value) {
				return nil
			}
			if s.value == cleared {
				slots[offset+i].value = explicit.Get(s.key)
			}
			continue
		}
		slots[offset+i] = slot{}
	}

	accepted := &Values{}
	for _, s := range slots {
		if s.set {
			accepted.Set(s.key, s.value)
		}
	}

	if processed < explicit.Len() {
		explicit.Range(func(key string, val any) bool {
			if !b.defaults.Has(key) && !accepted.Has(key) {
				accepted.Set(key, val)
			}
			return true
		})
	}

	combined := accepted.Clone()
	ambient.Range(func(key string, val any) bool {
		if _, isParameter := b.template.Parameter(key); isParameter {
			return true
		}
		if IsRoutePartNonEmpty(val) && !accepted.Has(key) {
			combined.Set(key, val)
		}
		return true
	})

	return &ValuesResult{AcceptedValues: accepted, CombinedValues: combined}
}

// TryProcessConstraints checks combined values against the constraints of
// the template and returns the name of the first value that fails.
// References that cannot be resolved are ignored.
func (b *Binder) TryProcessConstraints(combined *Values) (string, bool) {
	return b.constraints.Match(combined)
}

// BindValues builds a link from accepted values. It reports false when the
// values cannot fill the template.
func (b *Binder) BindValues(accepted *Values) (string, bool) {
	values := accepted.Clone()

	for _, t := range b.transformers {
		val, ok := values.Lookup(t.name)
		if !ok || val == nil {
			continue
		}
		s, _ := ToString(val)
		values.Set(t.name, t.transformer.TransformOutbound(s))
	}

	ub := newURLBuilder()

	for _, segment := range b.template.segments {
		for j, part := range segment.parts {
			switch part.kind {
			case PartLiteral, PartSeparator:
				if !ub.accept(part.content, true) {
					return "", false
				}

			case PartParameter:
				val, _ := values.Lookup(part.name)
				values.Delete(part.name)

				sameAsDefault := false
				if def, ok := b.defaults.Lookup(part.name); ok && RoutePartsEqual(val, def) {
					sameAsDefault = true
				}

				str, _ := ToString(val)
				if sameAsDefault {
					if !ub.bufferDefault(str) {
						return "", false
					}
					continue
				}

				if !ub.accept(str, part.encodeSlashes) {
					if j != 0 && part.IsOptional() && segment.parts[j-1].IsSeparator() {
						ub.remove()
						continue
					}
					return "", false
				}
			}
		}

		ub.endSegment()
	}

	b.writeQuery(ub, values)

	path := ub.pathString()
	query := ub.query.String()

	if b.lowercaseURLs {
		path = toLower(path)
		if b.lowercaseQuery {
			query = toLower(query)
		}
	}
	if b.appendTrailingSlash && !strings.HasSuffix(path, "/") {
		path += "/"
	}

	return path + query, true
}

// Bind runs GetValues and BindValues and checks constraints on the
// combined values.
func (b *Binder) Bind(ambient, explicit *Values) (string, bool) {
	result := b.GetValues(ambient, explicit)
	if result == nil {
		return "", false
	}
	if _, ok := b.TryProcessConstraints(result.CombinedValues); !ok {
		return "", false
	}
	return b.BindValues(result.AcceptedValues)
}

// writeQuery appends the values not consumed by the path. Keys are sorted
// case-insensitively, slices expand to repeated keys and empty values are
// skipped.
func (b *Binder) writeQuery(ub *urlBuilder, values *Values) {
	keys := make([]string, 0, values.Len())
	values.Range(func(key string, _ any) bool {
		if !b.defaults.Has(key) {
			keys = append(keys, key)
		}
		return true
	})
	sort.SliceStable(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})

	for _, key := range keys {
		val := values.Get(key)
		if items, ok := expandSlice(val); ok {
			for _, item := range items {
				addQueryValue(ub, key, item)
			}
			continue
		}
		addQueryValue(ub, key, val)
	}
}

func addQueryValue(ub *urlBuilder, key string, val any) {
	s, _ := ToString(val)
	if s == "" {
		return
	}
	ub.addQuery(key, s)
}

func expandSlice(val any) ([]any, bool) {
	if val == nil {
		return nil, false
	}
	if _, ok := val.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
