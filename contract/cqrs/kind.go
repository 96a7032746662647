package cqrs

// Kind identifies the capability a binding serves.
type Kind string

const (
	KindCommand           Kind = "command"
	KindCommandWithResult Kind = "command-with-result"
	KindQuery             Kind = "query"
)

func (k Kind) String() string { return string(k) }

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindCommand, KindCommandWithResult, KindQuery:
		return true
	default:
		return false
	}
}
