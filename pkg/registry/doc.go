// Package registry holds the closed set of operations a toolhost process exposes
// and dispatches named invocations to them.
//
// # Operations
//
// Every operation is described by a Descriptor keyed by (Kind, Name):
//
//   - KindTool: a callable operation with a declared argument schema
//   - KindPrompt: a template producing text from string arguments
//   - KindResource: a read-only data item, named by its URI
//
// # Lifecycle
//
// The registry is populated once at startup and then sealed:
//
//	reg := registry.New()
//	if err := reg.Register(registry.NewTool("echo", "Echo back the provided text.", echo)); err != nil {
//	    return err
//	}
//	reg.Seal()
//
// After Seal the registry is read-only and Dispatch may be called from any number of
// goroutines.
//
// # Errors
//
// Dispatch fails with *UnknownOperationError when nothing matches (kind, name),
// *InvalidArgumentError when arguments do not match the declared schema, and
// *HandlerError when the handler itself fails. HandlerError keeps the original error
// in its chain and carries a stable code taken from it. Envelope turns any of these
// into the {code, message} pair sent back to the caller.
package registry
