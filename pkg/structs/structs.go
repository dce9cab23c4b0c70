// Package structs small helpers for working with values and slices.
package structs

// Ref returns a pointer to v.
func Ref[T any](v T) *T {
	return &v
}

// Val dereferences p, returning the zero value for a nil pointer.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// If returns a when cond is true, otherwise b.
func If[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}

// Map applies f to every element of in.
func Map[T, M any](in []T, f func(T) M) []M {
	out := make([]M, len(in))
	for i := range in {
		out[i] = f(in[i])
	}
	return out
}
