package runtime

import "errors"

// Error kinds surfaced by the runtime boundary. Callers branch with errors.Is;
// every wrapped error keeps its underlying cause in the chain.
var (
	ErrConnection = errors.New("runtime connection failed")
	ErrSelection  = errors.New("no suitable backend")
	ErrExecution  = errors.New("remote job execution failed")
	ErrLookup     = errors.New("job lookup failed")
)
