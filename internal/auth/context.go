package auth

import (
	"context"
)

// Anonymous owns the sessions of unauthenticated requests.
const Anonymous = "anonymous"

type ctxKey int

const ownerCtxKey ctxKey = iota + 1

// ContextWithOwner returns a new context carrying the owner of the request.
//
//nolint:ireturn // returning context.Context is intentional: it's the standard context type
func ContextWithOwner(baseCtx context.Context, owner string) context.Context {
	return context.WithValue(baseCtx, ownerCtxKey, owner)
}

// OwnerFromContext returns the owner stored in ctx, or Anonymous when none is set.
func OwnerFromContext(ctx context.Context) string {
	owner, ok := ctx.Value(ownerCtxKey).(string)
	if !ok || owner == "" {
		return Anonymous
	}
	return owner
}
