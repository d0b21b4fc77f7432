package template

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Values is an ordered set of route values with case-insensitive keys.
// A nil *Values reads as empty. The zero value is ready to use.
type Values struct {
	keys []string
	vals []any
}

// NewValues builds Values from alternating key/value pairs. It panics on an
// odd number of arguments or a non-string key.
func NewValues(pairs ...any) *Values {
	if len(pairs)%2 == 1 {
		panic("template: NewValues: odd argument count")
	}
	v := &Values{
		keys: make([]string, 0, len(pairs)/2),
		vals: make([]any, 0, len(pairs)/2),
	}
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("template: NewValues: key %v is not a string", pairs[i]))
		}
		v.Set(key, pairs[i+1])
	}
	return v
}

// ValuesFromMap builds Values from a map. Keys are added in sorted order.
func ValuesFromMap(m map[string]any) *Values {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	v := &Values{
		keys: make([]string, 0, len(keys)),
		vals: make([]any, 0, len(keys)),
	}
	for _, k := range keys {
		v.Set(k, m[k])
	}
	return v
}

func (v *Values) index(key string) int {
	if v == nil {
		return -1
	}
	for i, k := range v.keys {
		if strings.EqualFold(k, key) {
			return i
		}
	}
	return -1
}

// Get returns the value for key, or nil.
func (v *Values) Get(key string) any {
	val, _ := v.Lookup(key)
	return val
}

// Lookup returns the value for key and whether the key is present.
func (v *Values) Lookup(key string) (any, bool) {
	i := v.index(key)
	if i < 0 {
		return nil, false
	}
	return v.vals[i], true
}

// Has reports whether key is present, even with a nil value.
func (v *Values) Has(key string) bool {
	return v.index(key) >= 0
}

// Set stores val under key. An existing key keeps its original spelling.
func (v *Values) Set(key string, val any) {
	if i := v.index(key); i >= 0 {
		v.vals[i] = val
		return
	}
	v.keys = append(v.keys, key)
	v.vals = append(v.vals, val)
}

// Delete removes key and reports whether it was present.
func (v *Values) Delete(key string) bool {
	i := v.index(key)
	if i < 0 {
		return false
	}
	v.keys = append(v.keys[:i], v.keys[i+1:]...)
	v.vals = append(v.vals[:i], v.vals[i+1:]...)
	return true
}

// Len returns the number of keys.
func (v *Values) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// Keys returns the keys in insertion order.
func (v *Values) Keys() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.keys...)
}

// Range calls fn for each entry in insertion order until fn returns false.
func (v *Values) Range(fn func(key string, val any) bool) {
	if v == nil {
		return
	}
	for i := range v.keys {
		if !fn(v.keys[i], v.vals[i]) {
			return
		}
	}
}

// Clone returns an independent copy. Cloning nil yields an empty set.
func (v *Values) Clone() *Values {
	if v == nil {
		return &Values{}
	}
	return &Values{
		keys: append([]string(nil), v.keys...),
		vals: append([]any(nil), v.vals...),
	}
}

// Map returns the values as a plain map.
func (v *Values) Map() map[string]any {
	m := make(map[string]any, v.Len())
	v.Range(func(key string, val any) bool {
		m[key] = val
		return true
	})
	return m
}

// Equal reports whether both sets hold the same keys with equal values.
func (v *Values) Equal(o *Values) bool {
	if v.Len() != o.Len() {
		return false
	}
	equal := true
	v.Range(func(key string, val any) bool {
		other, ok := o.Lookup(key)
		if !ok || !RoutePartsEqual(val, other) {
			equal = false
		}
		return equal
	})
	return equal
}

func (v *Values) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	v.Range(func(key string, val any) bool {
		if sb.Len() > 1 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", key, val)
		return true
	})
	sb.WriteByte('}')
	return sb.String()
}

// RoutePartsEqual compares two route values the way the binder does:
// nil and "" are equal, strings compare case-insensitively and other values
// compare by equality.
func RoutePartsEqual(a, b any) bool {
	sa, aIsString := a.(string)
	sb, bIsString := b.(string)

	switch {
	case aIsString && bIsString:
		return strings.EqualFold(sa, sb)
	case a == nil && b == nil:
		return true
	case a == nil:
		return bIsString && sb == ""
	case b == nil:
		return aIsString && sa == ""
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == tb && ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// IsRoutePartNonEmpty reports whether v carries a value: a non-empty
// string or any other non-nil value.
func IsRoutePartNonEmpty(v any) bool {
	if s, ok := v.(string); ok {
		return s != ""
	}
	return v != nil
}

// ValuesEqual compares the string forms of two values case-insensitively.
// nil and "" are equal.
func ValuesEqual(a, b any) bool {
	sa, _ := ToString(a)
	sb, _ := ToString(b)
	return strings.EqualFold(sa, sb)
}

// ToString converts a route value to the text written into a URL.
// It reports false for nil.
func ToString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v), true
	}
	return s, true
}
