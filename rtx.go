package simnet

//
// Minimal panic-on-error helpers for tests, examples, and the CLI, where
// returning an error is not convenient. Library code always returns errors.
//

// Must0 panics if err is not nil.
func Must0(err error) {
	if err != nil {
		panic(err.Error())
	}
}

// Must1 panics if err is not nil, otherwise returns value.
func Must1[Type any](value Type, err error) Type {
	Must0(err)
	return value
}

// Must2 panics if err is not nil, otherwise returns (a, b).
func Must2[A, B any](a A, b B, err error) (A, B) {
	Must0(err)
	return a, b
}
