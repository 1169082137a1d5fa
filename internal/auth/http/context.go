// Package http provides the HTTP surface of operator authentication: bearer
// token middleware, per-tenant authorization and the token endpoints.
package http

import (
	"context"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
)

type operatorKey struct{}

type tokenHashKey struct{}

// WithOperator stores the authenticated operator in the context.
func WithOperator(ctx context.Context, operator *authDomain.Operator) context.Context {
	return context.WithValue(ctx, operatorKey{}, operator)
}

// GetOperator returns the authenticated operator, if any.
func GetOperator(ctx context.Context) (*authDomain.Operator, bool) {
	operator, ok := ctx.Value(operatorKey{}).(*authDomain.Operator)
	return operator, ok && operator != nil
}

func withTokenHash(ctx context.Context, tokenHash string) context.Context {
	return context.WithValue(ctx, tokenHashKey{}, tokenHash)
}

func getTokenHash(ctx context.Context) (string, bool) {
	tokenHash, ok := ctx.Value(tokenHashKey{}).(string)
	return tokenHash, ok && tokenHash != ""
}
