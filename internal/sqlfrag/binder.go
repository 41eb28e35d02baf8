// Package sqlfrag builds SQL fragments whose user-supplied values are always
// bound as named parameters (":name") and never interpolated into the text.
package sqlfrag

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Binder allocates parameter names for one statement.
//
// A requested name is used as-is when it is free. Binding the same name again
// with an equal value reuses it; binding it with a different value allocates
// name_2, name_3, ... so two roles never share a placeholder.
type Binder struct {
	params map[string]any
}

// NewBinder creates an empty binder
func NewBinder() *Binder {
	return &Binder{params: make(map[string]any)}
}

// NewBinderFrom seeds a binder with parameters already bound by a caller, so
// names allocated later cannot clash with them.
func NewBinderFrom(params map[string]any) *Binder {
	b := NewBinder()
	for k, v := range params {
		b.params[k] = v
	}
	return b
}

// Bind registers value under name (or a collision-free variant) and returns
// the placeholder to splice into SQL.
func (b *Binder) Bind(name string, value any) string {
	base := sanitizeName(name)
	candidate := base
	for i := 2; ; i++ {
		existing, taken := b.params[candidate]
		if !taken {
			b.params[candidate] = value
			return ":" + candidate
		}
		if reflect.DeepEqual(existing, value) {
			return ":" + candidate
		}
		candidate = base + "_" + strconv.Itoa(i)
	}
}

// Params returns a copy of every bound parameter.
func (b *Binder) Params() map[string]any {
	out := make(map[string]any, len(b.params))
	for k, v := range b.params {
		out[k] = v
	}
	return out
}

func sanitizeName(name string) string {
	name = unsafeNameChars.ReplaceAllString(strings.ToLower(name), "_")
	if name == "" {
		return "p"
	}
	if name[0] >= '0' && name[0] <= '9' {
		return "p" + name
	}
	return name
}
