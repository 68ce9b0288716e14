// Package soft holds the best-effort result type used by the repository
// analyzers. A degraded result still carries a usable (usually empty) value,
// plus a diagnostic naming what went wrong, so callers can warn and continue.
package soft

// Result is a value that may have been produced in degraded form.
type Result[T any] struct {
	Value      T
	Diagnostic string
}

// OK wraps a fully produced value.
func OK[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Degraded wraps a fallback value together with the reason it is a fallback.
func Degraded[T any](v T, diagnostic string) Result[T] {
	return Result[T]{Value: v, Diagnostic: diagnostic}
}

// Degraded reports whether the value is a fallback.
func (r Result[T]) Degraded() bool {
	return r.Diagnostic != ""
}
