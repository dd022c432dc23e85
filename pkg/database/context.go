package database

import "context"

type contextKey string

// ScopeKey is the context key for the scoped database connection.
const ScopeKey contextKey = "dbScope"

// GetScope retrieves the scoped database connection from context.
// Returns nil and false if not present.
func GetScope(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(*Scope)
	return scope, ok
}

// SetScope stores the scoped database connection in context.
func SetScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}

// WithScope acquires a connection, stores it in the context, and returns the
// context plus a release function. The release function must always be
// called.
func WithScope(ctx context.Context, db *DB) (context.Context, func(), error) {
	scope, err := db.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	return SetScope(ctx, scope), func() { scope.Close() }, nil
}
