package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Constraint validates the string form of a route value.
// *regexp.Regexp satisfies this interface.
type Constraint interface {
	MatchString(string) bool
}

// ConstraintFunc adapts a function to Constraint.
type ConstraintFunc func(string) bool

// MatchString calls f(s).
func (f ConstraintFunc) MatchString(s string) bool {
	return f(s)
}

// ConstraintFactory builds a constraint from the comma separated arguments
// of a reference such as "range(1,20)". args is nil when the reference has
// no parentheses.
type ConstraintFactory func(args []string) (Constraint, error)

// lengthMatcher wraps a regexp with an additional maximum length constraint.
type lengthMatcher struct {
	re     *regexp.Regexp
	maxLen int
}

func (m *lengthMatcher) MatchString(s string) bool {
	return len(s) <= m.maxLen && m.re.MatchString(s)
}

func (m *lengthMatcher) String() string {
	return m.re.String()
}

// patternMacros maps constraint names to pre-compiled patterns that match
// the whole value.
var patternMacros = func() map[string]Constraint {
	raw := map[string]string{
		"alpha":    `(?i)[a-z]*`,
		"slug":     `[a-zA-Z0-9]+(?:-[a-zA-Z0-9]+)*`,
		"alphanum": `[a-zA-Z0-9]+`,
		"date":     `[0-9]{4}-[0-9]{2}-[0-9]{2}`,
		"hex":      `[0-9a-fA-F]+`,
		// RFC 1035/1123: labels 1-63 chars, total up to 253 chars.
		"domain": `(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?`,
	}

	maxLengths := map[string]int{
		"domain": 253,
	}

	m := make(map[string]Constraint, len(raw))
	for name, pattern := range raw {
		re := regexp.MustCompile(fmt.Sprintf("^(?:%s)$", pattern))
		if maxLen, ok := maxLengths[name]; ok {
			m[name] = &lengthMatcher{re: re, maxLen: maxLen}
		} else {
			m[name] = re
		}
	}

	return m
}()

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	time.RFC1123,
}

func parseDateTime(s string) bool {
	for _, layout := range dateTimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// simple returns a factory for a constraint that takes no arguments.
func simple(name string, c Constraint) ConstraintFactory {
	return func(args []string) (Constraint, error) {
		if args != nil {
			return nil, fmt.Errorf("template: constraint %q takes no arguments", name)
		}
		return c, nil
	}
}

func intArgs(name string, args []string, counts ...int) ([]int64, error) {
	valid := false
	for _, n := range counts {
		if len(args) == n {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("template: constraint %q: unexpected argument count %d", name, len(args))
	}

	out := make([]int64, len(args))
	for i, a := range args {
		n, err := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("template: constraint %q: %w", name, err)
		}
		out[i] = n
	}
	return out, nil
}

func parseInt64(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func newRegexConstraint(pattern string) (Constraint, error) {
	return compileRegexp("(?i)" + pattern)
}

// guidConstraint accepts every form uuid.Parse accepts. "uuid" is an alias
// of "guid".
var guidConstraint = ConstraintFunc(func(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
})

var builtinConstraints = map[string]ConstraintFactory{
	"int": simple("int", ConstraintFunc(func(s string) bool {
		_, err := strconv.ParseInt(s, 10, 32)
		return err == nil
	})),
	"long": simple("long", ConstraintFunc(func(s string) bool {
		_, ok := parseInt64(s)
		return ok
	})),
	"bool": simple("bool", ConstraintFunc(func(s string) bool {
		return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
	})),
	"double": simple("double", ConstraintFunc(func(s string) bool {
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	})),
	"float": simple("float", ConstraintFunc(func(s string) bool {
		_, err := strconv.ParseFloat(s, 32)
		return err == nil
	})),
	"decimal": simple("decimal", ConstraintFunc(func(s string) bool {
		_, err := decimal.NewFromString(s)
		return err == nil
	})),
	"datetime": simple("datetime", ConstraintFunc(parseDateTime)),
	"guid": simple("guid", guidConstraint),
	"uuid": simple("uuid", guidConstraint),
	"regex": func(args []string) (Constraint, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("template: constraint \"regex\" takes one argument")
		}
		c, err := newRegexConstraint(args[0])
		if err != nil {
			return nil, fmt.Errorf("template: constraint \"regex\": %w", err)
		}
		return c, nil
	},
	"required": simple("required", ConstraintFunc(func(s string) bool {
		return s != ""
	})),
	"min": func(args []string) (Constraint, error) {
		n, err := intArgs("min", args, 1)
		if err != nil {
			return nil, err
		}
		return ConstraintFunc(func(s string) bool {
			v, ok := parseInt64(s)
			return ok && v >= n[0]
		}), nil
	},
	"max": func(args []string) (Constraint, error) {
		n, err := intArgs("max", args, 1)
		if err != nil {
			return nil, err
		}
		return ConstraintFunc(func(s string) bool {
			v, ok := parseInt64(s)
			return ok && v <= n[0]
		}), nil
	},
	"range": func(args []string) (Constraint, error) {
		n, err := intArgs("range", args, 2)
		if err != nil {
			return nil, err
		}
		if n[0] > n[1] {
			return nil, fmt.Errorf("template: constraint \"range\": min %d is greater than max %d", n[0], n[1])
		}
		return ConstraintFunc(func(s string) bool {
			v, ok := parseInt64(s)
			return ok && v >= n[0] && v <= n[1]
		}), nil
	},
	"length": func(args []string) (Constraint, error) {
		n, err := intArgs("length", args, 1, 2)
		if err != nil {
			return nil, err
		}
		lo, hi := n[0], n[0]
		if len(n) == 2 {
			hi = n[1]
		}
		if lo < 0 || lo > hi {
			return nil, fmt.Errorf("template: constraint \"length\": invalid bounds %d..%d", lo, hi)
		}
		return ConstraintFunc(func(s string) bool {
			l := int64(utf8.RuneCountInString(s))
			return l >= lo && l <= hi
		}), nil
	},
	"minlength": func(args []string) (Constraint, error) {
		n, err := intArgs("minlength", args, 1)
		if err != nil {
			return nil, err
		}
		return ConstraintFunc(func(s string) bool {
			return int64(utf8.RuneCountInString(s)) >= n[0]
		}), nil
	},
	"maxlength": func(args []string) (Constraint, error) {
		n, err := intArgs("maxlength", args, 1)
		if err != nil {
			return nil, err
		}
		return ConstraintFunc(func(s string) bool {
			return int64(utf8.RuneCountInString(s)) <= n[0]
		}), nil
	},
}

// PolicyResolver maps inline references such as "int" or "range(1,20)" to
// constraints and transformers. It is safe for concurrent use.
type PolicyResolver struct {
	mu           sync.RWMutex
	constraints  map[string]ConstraintFactory
	transformers map[string]Transformer
}

// DefaultResolver holds the built-in constraints and transformers.
var DefaultResolver = NewPolicyResolver()

// NewPolicyResolver returns a resolver preloaded with the built-ins.
func NewPolicyResolver() *PolicyResolver {
	r := &PolicyResolver{
		constraints:  make(map[string]ConstraintFactory, len(builtinConstraints)+len(patternMacros)),
		transformers: make(map[string]Transformer, len(builtinTransformers)),
	}
	for name, f := range builtinConstraints {
		r.constraints[name] = f
	}
	for name, c := range patternMacros {
		r.constraints[name] = simple(name, c)
	}
	for name, t := range builtinTransformers {
		r.transformers[name] = t
	}
	return r
}

// AddConstraint registers a constraint factory under a case-insensitive name.
func (r *PolicyResolver) AddConstraint(name string, f ConstraintFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constraints[strings.ToLower(name)] = f
}

// AddTransformer registers a transformer under a case-insensitive name.
func (r *PolicyResolver) AddTransformer(name string, t Transformer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transformers[strings.ToLower(name)] = t
}

// Constraint resolves ref to a constraint. It returns nil and no error
// when ref names a transformer.
func (r *PolicyResolver) Constraint(ref PolicyReference) (Constraint, error) {
	if ref.Constraint != nil {
		return ref.Constraint, nil
	}
	if ref.Transformer != nil {
		return nil, nil
	}

	name, args := splitPolicy(ref.Content)

	r.mu.RLock()
	factory, ok := r.constraints[name]
	_, isTransformer := r.transformers[name]
	r.mu.RUnlock()

	if !ok {
		if isTransformer {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, ref.Content)
	}

	return factory(args)
}

// Transformer resolves ref to a transformer.
func (r *PolicyResolver) Transformer(ref PolicyReference) (Transformer, bool) {
	if ref.Transformer != nil {
		return ref.Transformer, true
	}
	if ref.Content == "" {
		return nil, false
	}

	name, _ := splitPolicy(ref.Content)

	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transformers[name]
	return t, ok
}

// splitPolicy splits "name(a,b)" into a lower-cased name and its
// arguments. For regex the whole argument text is returned as one element.
func splitPolicy(content string) (string, []string) {
	open := strings.IndexByte(content, '(')
	if open < 0 || !strings.HasSuffix(content, ")") {
		return strings.ToLower(content), nil
	}

	name := strings.ToLower(content[:open])
	inner := content[open+1 : len(content)-1]
	if name == "regex" {
		return name, []string{inner}
	}
	return name, strings.Split(inner, ",")
}

// ConstraintSet holds the resolved constraints of a template keyed by
// route value name.
type ConstraintSet struct {
	entries []constraintEntry
}

type constraintEntry struct {
	key         string
	optional    bool
	constraints []Constraint
}

// ResolveConstraints resolves every policy of t that is a constraint.
// A nil resolver means DefaultResolver.
func ResolveConstraints(t *Template, r *PolicyResolver) (*ConstraintSet, error) {
	return resolveConstraints(t, r, false)
}

func resolveConstraints(t *Template, r *PolicyResolver, lenient bool) (*ConstraintSet, error) {
	if r == nil {
		r = DefaultResolver
	}

	set := &ConstraintSet{}
	for _, name := range t.PolicyNames() {
		entry := constraintEntry{key: name}
		if p, ok := t.Parameter(name); ok {
			entry.optional = p.IsOptional()
		}
		for _, ref := range t.Policies(name) {
			c, err := r.Constraint(ref)
			if err != nil {
				if lenient {
					continue
				}
				return nil, err
			}
			if c != nil {
				entry.constraints = append(entry.constraints, c)
			}
		}
		if len(entry.constraints) > 0 {
			set.entries = append(set.entries, entry)
		}
	}
	return set, nil
}

// Len returns the number of constrained keys.
func (s *ConstraintSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Match checks values against every constraint and returns the first key
// whose value is rejected. Optional parameters without a value pass.
func (s *ConstraintSet) Match(values *Values) (string, bool) {
	if s == nil {
		return "", true
	}
	for _, entry := range s.entries {
		val := values.Get(entry.key)
		if entry.optional && !IsRoutePartNonEmpty(val) {
			continue
		}
		str, _ := ToString(val)
		for _, c := range entry.constraints {
			if !c.MatchString(str) {
				return entry.key, false
			}
		}
	}
	return "", true
}

// regexpCache caches compiled regular expressions by pattern string.
// The number of unique patterns is bounded by the number of registered
// routes, so the cache grows to a fixed size and stays there.
var regexpCache sync.Map

// compileRegexp returns a cached *regexp.Regexp for the given pattern,
// compiling and caching it on first use.
func compileRegexp(pattern string) (*regexp.Regexp, error) {
	if v, ok := regexpCache.Load(pattern); ok {
		return v.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	actual, _ := regexpCache.LoadOrStore(pattern, re)

	return actual.(*regexp.Regexp), nil
}
