package handlers

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	dbpkg "adpulse/internal/db"
	httpctx "adpulse/internal/http/ctx"
)

// MustUser returns the current user from context, or sends 401 and
// returns (nil, false).
func MustUser(ctx *fasthttp.RequestCtx) (*dbpkg.User, bool) {
	user, ok := httpctx.UserFromCtx(ctx)
	if !ok {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		ctx.SetBodyString("unauthorized")
		return nil, false
	}
	return user, true
}

func jsonResponse(ctx *fasthttp.RequestCtx, data any) {
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(data)
	ctx.SetBody(body)
}

func errResponse(ctx *fasthttp.RequestCtx, code int, msg string) {
	ctx.SetStatusCode(code)
	ctx.SetBodyString(msg)
}

// parseDateRange reads from/to (YYYY-MM-DD) from the query, defaulting
// to the trailing 30 days.
func parseDateRange(ctx *fasthttp.RequestCtx) (from, to time.Time) {
	now := time.Now().UTC()
	to = now
	from = now.AddDate(0, 0, -30)
	if s := string(ctx.QueryArgs().Peek("from")); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			from = t
		}
	}
	if s := string(ctx.QueryArgs().Peek("to")); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			to = t
		}
	}
	return from, to
}

// csvParam splits a comma-separated query parameter into a slice,
// dropping empty entries.
func csvParam(ctx *fasthttp.RequestCtx, name string) []string {
	raw := string(ctx.QueryArgs().Peek(name))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RequestLogger returns fasthttp middleware that logs method, path,
// status, duration.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		log.Printf("%s %s -> %d (%s) ip=%s", ctx.Method(), ctx.Path(), ctx.Response.StatusCode(), time.Since(start), ctx.RemoteAddr())
	}
}
