package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxPrincipalID ctxKey = iota
	ctxRole
)

func WithIdentity(ctx context.Context, principalID int64, role string) context.Context {
	ctx = context.WithValue(ctx, ctxPrincipalID, principalID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return ctx
}

func PrincipalID(ctx context.Context) (int64, error) {
	if id, ok := ctx.Value(ctxPrincipalID).(int64); ok && id > 0 {
		return id, nil
	}
	return 0, errors.New("principal_id not in context")
}

func Role(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxRole).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role not in context")
}
