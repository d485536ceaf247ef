package v1

import "context"

// ReadyChecker is implemented by stores to indicate readiness.
type ReadyChecker interface {
    Ready(ctx context.Context) error
}
