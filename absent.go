package jsonconf

import "errors"

// AbsentType is the type of the Absent sentinel.
type AbsentType struct{ _ byte }

// Absent denotes "no value provided" for an optional field. It is distinct
// from a JSON null and is compared by identity.
var Absent = &AbsentType{}

// IsPresent reports whether v is anything other than Absent.
func IsPresent(v any) bool {
	if a, ok := v.(*AbsentType); ok {
		return a != Absent
	}
	return true
}

// IsAbsent is the negation of IsPresent.
func IsAbsent(v any) bool { return !IsPresent(v) }

func (*AbsentType) String() string { return "Absent" }

// MarshalJSON always fails: Absent never appears in an emitted JSON tree.
func (*AbsentType) MarshalJSON() ([]byte, error) {
	return nil, errors.New("jsonconf: Absent cannot be marshalled")
}
