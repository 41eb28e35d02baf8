package sqlfrag

import "strings"

type part struct {
	text  string
	arg   bool
	name  string
	value any
}

// Expr is an SQL fragment template. Literal text and parameter slots are kept
// apart until Render, which lets a fragment be built once and bound into any
// number of statements.
type Expr struct {
	parts []part
}

// Raw starts an expression with literal SQL text.
func Raw(text string) Expr {
	return Expr{}.Raw(text)
}

// Arg starts an expression with a single parameter slot.
func Arg(name string, value any) Expr {
	return Expr{}.Arg(name, value)
}

// Raw appends literal SQL text. Only server-controlled text (identifiers that
// were validated, keywords) belongs here.
func (e Expr) Raw(text string) Expr {
	if text == "" {
		return e
	}
	parts := make([]part, len(e.parts), len(e.parts)+1)
	copy(parts, e.parts)
	return Expr{parts: append(parts, part{text: text})}
}

// Arg appends a parameter slot that is resolved to a placeholder on Render.
func (e Expr) Arg(name string, value any) Expr {
	parts := make([]part, len(e.parts), len(e.parts)+1)
	copy(parts, e.parts)
	return Expr{parts: append(parts, part{arg: true, name: name, value: value})}
}

// Append concatenates o after e.
func (e Expr) Append(o Expr) Expr {
	parts := make([]part, 0, len(e.parts)+len(o.parts))
	parts = append(parts, e.parts...)
	return Expr{parts: append(parts, o.parts...)}
}

// Wrap surrounds e with parentheses.
func (e Expr) Wrap() Expr {
	return Raw("(").Append(e).Raw(")")
}

// IsZero reports whether the expression is empty.
func (e Expr) IsZero() bool {
	return len(e.parts) == 0
}

// Render resolves parameter slots through b and returns the SQL text.
func (e Expr) Render(b *Binder) string {
	var sb strings.Builder
	for _, p := range e.parts {
		if p.arg {
			sb.WriteString(b.Bind(p.name, p.value))
			continue
		}
		sb.WriteString(p.text)
	}
	return sb.String()
}

// Build renders e with a fresh binder.
func (e Expr) Build() (string, map[string]any) {
	b := NewBinder()
	sql := e.Render(b)
	return sql, b.Params()
}

// Join concatenates the non-empty expressions with sep.
func Join(exprs []Expr, sep string) Expr {
	var out Expr
	first := true
	for _, e := range exprs {
		if e.IsZero() {
			continue
		}
		if !first {
			out = out.Raw(sep)
		}
		out = out.Append(e)
		first = false
	}
	return out
}

// And conjoins the non-empty expressions. It returns the zero Expr when
// nothing is left, never a tautology.
func And(exprs ...Expr) Expr {
	return Join(exprs, " AND ")
}

// Cast binds value and casts the placeholder to sqlType, which lets the store
// type parameters that appear without a typed operand nearby.
func Cast(name string, value any, sqlType string) Expr {
	return Raw("CAST(").Arg(name, value).Raw(" AS " + sqlType + ")")
}
