package ctx

import (
	"github.com/valyala/fasthttp"

	"adpulse/internal/auth"
	dbpkg "adpulse/internal/db"
)

const (
	UserKey   = "user"
	GrantsKey = "grants"
)

func SetUser(ctx *fasthttp.RequestCtx, user *dbpkg.User) {
	ctx.SetUserValue(UserKey, user)
}

func UserFromCtx(ctx *fasthttp.RequestCtx) (*dbpkg.User, bool) {
	v := ctx.UserValue(UserKey)
	if v == nil {
		return nil, false
	}
	u, ok := v.(*dbpkg.User)
	return u, ok && u != nil
}

// SetGrants stores the resolved capability set; a nil grants value is
// stored as well, meaning "resolved, no access".
func SetGrants(ctx *fasthttp.RequestCtx, grants *auth.Grants) {
	ctx.SetUserValue(GrantsKey, grants)
}

func GrantsFromCtx(ctx *fasthttp.RequestCtx) (*auth.Grants, bool) {
	v := ctx.UserValue(GrantsKey)
	if v == nil {
		return nil, false
	}
	g, ok := v.(*auth.Grants)
	return g, ok
}
