package lo

// Cond is a conditional statement that returns the trueValue if the condition is true and the falseValue otherwise.
func Cond[T any](condition bool, trueValue, falseValue T) T {
	if condition {
		return trueValue
	}

	return falseValue
}

// First returns the first element of the slice or an optionally provided default value if the collection is empty (if
// no default value is provided, the zero value of the collection's element type is returned).
func First[T any](slice []T, optDefaultValue ...T) (firstElement T) {
	if len(slice) == 0 {
		if len(optDefaultValue) == 0 {
			return
		}

		return optDefaultValue[0]
	}

	return slice[0]
}

// Map iterates over elements of collection, applies the mapper function to each element
// and returns an array of modified TargetType elements.
func Map[SourceType any, TargetType any](source []SourceType, mapper func(SourceType) TargetType) (target []TargetType) {
	target = make([]TargetType, len(source))
	for i, value := range source {
		target[i] = mapper(value)
	}

	return target
}

// Min returns the minimum of the given values.
func Min(values ...int) (minimum int) {
	for i, value := range values {
		if i == 0 || value < minimum {
			minimum = value
		}
	}

	return minimum
}
