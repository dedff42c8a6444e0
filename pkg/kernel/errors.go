package kernel

import "errors"

var (
	// ErrUnknownProvider is returned when no connector factory is registered
	// for the requested provider.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrUnsupportedType is returned for unknown kernel types and for
	// providers that cannot serve the requested type.
	ErrUnsupportedType = errors.New("unsupported kernel type")
	// ErrNoConnector is returned when a kernel has no connector able to
	// serve a capability.
	ErrNoConnector = errors.New("no connector")
	// ErrConnectorMismatch is returned when a connector does not implement
	// the interface its type requires.
	ErrConnectorMismatch = errors.New("connector does not implement type")
	// ErrFunctionRounds is returned by Kernel.Chat when the model keeps
	// calling functions past MaxFunctionRounds.
	ErrFunctionRounds = errors.New("too many function call rounds")
)
