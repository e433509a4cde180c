package shaderbuild

import "errors"

var (
	// ErrSessionCreate is returned by New when the toolchain cannot create
	// a global session or a session for the requested target.
	ErrSessionCreate = errors.New("shaderbuild: cannot create compilation session")

	// ErrConsumed is returned when a value whose ownership was already
	// transferred (to a ComponentList or to Compose/Link/LinkModule) is
	// used again.
	ErrConsumed = errors.New("shaderbuild: value already consumed")

	// ErrAlreadyLinked is returned by Link for a component that is already
	// linked.
	ErrAlreadyLinked = errors.New("shaderbuild: component already linked")

	// ErrInvalidModule is returned when a module that failed to load is
	// passed on in the pipeline.
	ErrInvalidModule = errors.New("shaderbuild: invalid module")

	// ErrInvalidEntryPoint is returned when an entry point that was not
	// found is passed on in the pipeline.
	ErrInvalidEntryPoint = errors.New("shaderbuild: invalid entry point")

	// ErrInvalidComponent is returned for components whose compose or
	// link step failed.
	ErrInvalidComponent = errors.New("shaderbuild: invalid component")

	// ErrLayoutUnavailable is returned by Reflect when the toolchain cannot
	// produce a layout.
	ErrLayoutUnavailable = errors.New("shaderbuild: program layout unavailable")

	// ErrUnalignedCode is returned by ByteCode.Words when the payload
	// length is not a multiple of 4.
	ErrUnalignedCode = errors.New("shaderbuild: code length is not a multiple of 4")
)
