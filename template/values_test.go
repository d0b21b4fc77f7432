package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValues(t *testing.T) {
	t.Run("pairs", func(t *testing.T) {
		v := NewValues("controller", "Home", "id", 5)

		assert.Equal(t, 2, v.Len())
		assert.Equal(t, []string{"controller", "id"}, v.Keys())
		assert.Equal(t, "Home", v.Get("controller"))
		assert.Equal(t, 5, v.Get("id"))
	})

	t.Run("odd argument count", func(t *testing.T) {
		assert.Panics(t, func() { NewValues("a") })
	})

	t.Run("non-string key", func(t *testing.T) {
		assert.Panics(t, func() { NewValues(1, "a") })
	})
}

func TestValuesCaseInsensitive(t *testing.T) {
	v := NewValues("Controller", "Home")

	val, ok := v.Lookup("controller")
	require.True(t, ok)
	assert.Equal(t, "Home", val)
	assert.True(t, v.Has("CONTROLLER"))

	v.Set("CONTROLLER", "Store")
	assert.Equal(t, []string{"Controller"}, v.Keys())
	assert.Equal(t, "Store", v.Get("controller"))

	assert.True(t, v.Delete("controller"))
	assert.False(t, v.Delete("controller"))
	assert.Equal(t, 0, v.Len())
}

func TestValuesNil(t *testing.T) {
	var v *Values

	assert.Equal(t, 0, v.Len())
	assert.Nil(t, v.Get("a"))
	assert.False(t, v.Has("a"))
	assert.Nil(t, v.Keys())
	assert.Empty(t, v.Map())
	assert.Equal(t, "{}", v.String())

	clone := v.Clone()
	require.NotNil(t, clone)
	clone.Set("a", 1)
	assert.Equal(t, 1, clone.Len())
}

func TestValuesHasNilValue(t *testing.T) {
	v := NewValues("a", nil)

	assert.True(t, v.Has("a"))
	val, ok := v.Lookup("a")
	assert.True(t, ok)
	assert.Nil(t, val)
}

func TestValuesClone(t *testing.T) {
	v := NewValues("a", 1)
	clone := v.Clone()
	clone.Set("b", 2)
	clone.Set("a", 3)

	assert.Equal(t, 1, v.Len())
	assert.Equal(t, 1, v.Get("a"))
	assert.Equal(t, 3, clone.Get("a"))
}

func TestValuesFromMap(t *testing.T) {
	v := ValuesFromMap(map[string]any{"b": 2, "a": 1, "c": 3})

	assert.Equal(t, []string{"a", "b", "c"}, v.Keys())
	assert.Equal(t, map[string]any{"a": 1, "b": 2, "c": 3}, v.Map())
}

func TestValuesRangeStops(t *testing.T) {
	v := NewValues("a", 1, "b", 2, "c", 3)

	var seen []string
	v.Range(func(key string, _ any) bool {
		seen = append(seen, key)
		return key != "b"
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestValuesEqualMethod(t *testing.T) {
	tests := []struct {
		name     string
		a        *Values
		b        *Values
		expected bool
	}{
		{"both empty", nil, &Values{}, true},
		{"same", NewValues("a", "x"), NewValues("A", "X"), true},
		{"order ignored", NewValues("a", 1, "b", 2), NewValues("b", 2, "a", 1), true},
		{"nil and empty string", NewValues("a", nil), NewValues("a", ""), true},
		{"different value", NewValues("a", "x"), NewValues("a", "y"), false},
		{"different keys", NewValues("a", 1), NewValues("b", 1), false},
		{"different length", NewValues("a", 1), NewValues("a", 1, "b", 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Equal(tt.b))
		})
	}
}

func TestValuesString(t *testing.T) {
	assert.Equal(t, "{a=1, b=x}", NewValues("a", 1, "b", "x").String())
}

func TestRoutePartsEqual(t *testing.T) {
	tests := []struct {
		name     string
		a        any
		b        any
		expected bool
	}{
		{"same string", "value", "value", true},
		{"different case", "value", "VALUE", true},
		{"different string", "value", "other", false},
		{"int", 12, 12, true},
		{"int differs", 12, 13, false},
		{"int and string", 12, "12", false},
		{"both nil", nil, nil, true},
		{"nil and empty", nil, "", true},
		{"empty and nil", "", nil, true},
		{"nil and value", nil, "a", false},
		{"nil and int", nil, 0, false},
		{"slices", []string{"a"}, []string{"a"}, true},
		{"bool", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RoutePartsEqual(tt.a, tt.b))
		})
	}
}

func TestIsRoutePartNonEmpty(t *testing.T) {
	assert.False(t, IsRoutePartNonEmpty(nil))
	assert.False(t, IsRoutePartNonEmpty(""))
	assert.True(t, IsRoutePartNonEmpty("a"))
	assert.True(t, IsRoutePartNonEmpty(0))
	assert.True(t, IsRoutePartNonEmpty(false))
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		a        any
		b        any
		expected bool
	}{
		{"int and string", 12, "12", true},
		{"case", "Home", "home", true},
		{"nil and empty", nil, "", true},
		{"different", "a", "b", false},
		{"bool", true, "True", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValuesEqual(tt.a, tt.b))
		})
	}
}

type stringer struct{}

func (stringer) String() string { return "custom" }

func TestToString(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
		ok       bool
	}{
		{"nil", nil, "", false},
		{"string", "abc", "abc", true},
		{"int", 42, "42", true},
		{"int64", int64(-7), "-7", true},
		{"float", 1.5, "1.5", true},
		{"bool", true, "true", true},
		{"stringer", stringer{}, "custom", true},
		{"struct", struct{ A int }{1}, "{1}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := ToString(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, s)
		})
	}
}

// --- Benchmarks ---

func BenchmarkValuesLookup(b *testing.B) {
	v := NewValues("area", "", "controller", "Home", "action", "Index", "id", 5)

	for b.Loop() {
		v.Lookup("ID")
	}
}
