package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Pipeline errors
	ErrSchema  = fmt.Errorf("schema error")
	ErrFetch   = fmt.Errorf("fetch failed")
	ErrPersist = fmt.Errorf("persist failed")

	// Service errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("not found")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
