package cqrs

// Command is a marker interface for commands (intent to change state) that produce no result.
// A command should have a single handler.
type Command interface{}

// CommandWithResult is a command whose handler produces a value of type R.
// Satisfy it by embedding Returns[R] in the command struct.
type CommandWithResult[R any] interface {
	commandResult(R)
}

// Query is a read request whose handler produces a value of type R.
// Satisfy it by embedding Answers[R] in the query struct. Queries must not change state;
// the dispatcher does not enforce this.
type Query[R any] interface {
	queryResult(R)
}

// Returns marks the embedding struct as a CommandWithResult[R].
//
//	type CreateUser struct {
//		cqrs.Returns[int]
//		Name string
//	}
type Returns[R any] struct{}

func (Returns[R]) commandResult(R) {}

// Answers marks the embedding struct as a Query[R].
//
//	type GetUserName struct {
//		cqrs.Answers[string]
//		ID int
//	}
type Answers[R any] struct{}

func (Answers[R]) queryResult(R) {}
