package cqrs

import "reflect"

// MessageName returns the display name of a message value: the type name with pointers dereferenced.
// Unnamed types fall back to their type string.
func MessageName(v any) string {
	if v == nil {
		return "<nil>"
	}

	return TypeName(reflect.TypeOf(v))
}

// TypeName is MessageName for an already obtained reflect.Type.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	name := t.Name()
	if name == "" { // unnamed (e.g., struct literal)
		name = t.String()
	}

	return name
}
