package middleware

import (
	"github.com/valyala/fasthttp"

	httpctx "adpulse/internal/http/ctx"
)

// RequirePage denies the request unless the session user's role grants
// the named dashboard page. Denial is a 403 result, never a fault; run
// after SessionAuth.
func RequirePage(page string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			grants, ok := httpctx.GrantsFromCtx(ctx)
			if !ok || !grants.Allows(page) {
				ctx.SetStatusCode(fasthttp.StatusForbidden)
				ctx.SetBodyString("you do not have access to " + page)
				return
			}
			next(ctx)
		}
	}
}
