package router

import (
	"fmt"
	"net"
	"strings"

	"github.com/vitalvas/routing/template"
	"golang.org/x/net/idna"
)

// checkPairs returns an error if the list of key/value pairs has odd length.
func checkPairs(pairs ...any) (int, error) {
	if len(pairs)%2 != 0 {
		return 0, fmt.Errorf("router: number of parameters must be multiple of 2, got %v", pairs)
	}
	return len(pairs) / 2, nil
}

// valuesFromPairs converts variadic key/value parameters to route values.
func valuesFromPairs(pairs ...any) (*template.Values, error) {
	if _, err := checkPairs(pairs...); err != nil {
		return nil, err
	}
	v := &template.Values{}
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("router: key %v is not a string", pairs[i])
		}
		v.Set(key, pairs[i+1])
	}
	return v, nil
}

// mergeValues returns dst with every entry of src set on it, allocating dst
// when it is nil. Entries of src win.
func mergeValues(dst, src *template.Values) *template.Values {
	if dst == nil {
		dst = &template.Values{}
	}
	src.Range(func(key string, val any) bool {
		dst.Set(key, val)
		return true
	})
	return dst
}

// asciiHost converts an internationalized host name to its ASCII form per
// RFC 5891. A port and IP literals are kept unchanged.
func asciiHost(host string) (string, error) {
	if host == "" {
		return "", nil
	}

	name, port, err := net.SplitHostPort(host)
	if err != nil {
		name, port = host, ""
	}

	if strings.HasPrefix(name, "[") || net.ParseIP(name) != nil {
		return host, nil
	}

	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", fmt.Errorf("router: invalid host %q: %w", host, err)
	}
	if port != "" {
		return net.JoinHostPort(ascii, port), nil
	}
	return ascii, nil
}
