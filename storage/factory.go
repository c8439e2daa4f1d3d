package storage

import "fmt"

// Backend names accepted by NewStore.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// NewStore constructs an uninitialized store for the named backend.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		if sqlitePath == "" {
			return nil, fmt.Errorf("sqlite backend requires a path")
		}
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}
