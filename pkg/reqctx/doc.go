// Package reqctx carries request-scoped values through context.Context.
//
// HTTP middleware stores the request metadata on every request and the
// caller identity when the upstream gateway asserted one:
//
//	ctx = reqctx.WithRequestMeta(ctx, &reqctx.RequestMeta{RequestID: rid})
//	ctx = reqctx.WithUserID(ctx, 42)
//
// Services and the logging handler read them back:
//
//	rid := reqctx.RequestIDFromContext(ctx)
//	if id, ok := reqctx.UserIDFromContext(ctx); ok { ... }
//
// All keys are unexported so no other package can collide with them.
package reqctx
