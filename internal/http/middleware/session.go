package middleware

import (
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "adpulse/internal/db"
	httpctx "adpulse/internal/http/ctx"
)

// SessionAuth loads the session user and their resolved grants onto the
// request context, redirecting anonymous requests to the login form.
func SessionAuth(gdb *gorm.DB) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			cookie := ctx.Request.Header.Cookie("session_user")
			if len(cookie) == 0 {
				ctx.Redirect("/login", fasthttp.StatusSeeOther)
				return
			}
			username := string(cookie)

			var user dbpkg.User
			if err := gdb.Where("username = ?", username).First(&user).Error; err != nil {
				ctx.Redirect("/login", fasthttp.StatusSeeOther)
				return
			}

			grants, err := dbpkg.UserGrants(gdb, &user)
			if err != nil {
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				ctx.SetBodyString("database error")
				return
			}

			httpctx.SetUser(ctx, &user)
			httpctx.SetGrants(ctx, grants)
			next(ctx)
		}
	}
}
