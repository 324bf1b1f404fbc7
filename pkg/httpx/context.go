package httpx

import "context"

type ctxKey string

const (
	CtxKeyAccountID ctxKey = "account_id"
	CtxKeyRole      ctxKey = "role"
	CtxKeyClaims    ctxKey = "claims" // if you want full jwtx.Claims
)

// ActorFromCtx returns the authenticated account ID, or false if the request
// was not authenticated.
func ActorFromCtx(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(CtxKeyAccountID).(int64)
	return v, ok
}

// RoleFromCtx returns the authenticated account's role, or false if absent.
func RoleFromCtx(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyRole).(string)
	return v, ok
}
