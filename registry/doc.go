/*
Package registry builds the immutable index from (kind, message type) to an invokable binding.

Handlers are registered explicitly. Each Registration captures a closure that is already typed
for its message and result, so a lookup by the runtime type of a message returns something the
dispatcher can call directly:

	reg, err := registry.Build(
		registry.Command[CreateUser](registry.Transient(NewCreateUserHandler)),
		registry.Query[GetUserName, string](registry.Transient(NewGetUserNameHandler)),
		registry.CommandMethod(registry.Transient(NewAccounts), (*Accounts).Open),
		registry.CommandMethod(registry.Transient(NewAccounts), (*Accounts).Close),
	)

Build rejects duplicate (kind, message type) pairs instead of letting the last one win.
*/
package registry
