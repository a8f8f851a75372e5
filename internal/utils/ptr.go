package utils

func Ptr[T any](v T) *T {
	return &v
}

// OrZero dereferences v, treating nil as the zero value. Used for optional JSON fields.
func OrZero[T comparable](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}
