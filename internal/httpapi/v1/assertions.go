package v1

import (
    "github.com/tinoosan/tms/internal/storage/memory"
    "github.com/tinoosan/tms/internal/storage/postgres"
)

// Compile-time assertions for the stores against the readiness probe.
var (
    _ ReadyChecker = (*memory.Store)(nil)
    _ ReadyChecker = (*postgres.Store)(nil)
)
