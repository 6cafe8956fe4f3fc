package handlers

import (
	"bytes"

	"github.com/valyala/fasthttp"

	"adpulse/internal/auth"
	httpctx "adpulse/internal/http/ctx"
	ui "adpulse/web"
)

// LayoutData drives layout.html: the nav is built from the pages the
// session user's role actually grants, so users never see links they
// would be denied on.
type LayoutData struct {
	Title        string
	Breadcrumb   string
	ActivePage   string
	PageTemplate string
	Username     string
	RoleName     string
	NavPages     []string
}

// pageTemplates maps a dashboard page name to its template block.
var pageTemplates = map[string]string{
	auth.PageDashboard:    "dashboard",
	auth.PageSegmentation: "segmentation",
	auth.PageBenchmarking: "benchmarking",
	auth.PageCreative:     "creative",
	auth.PageBudgetPacing: "pacing",
	auth.PagePersona:      "persona",
	auth.PageABTesting:    "abtesting",
	auth.PageExport:       "export",
	auth.PageUpload:       "upload",
	auth.PageAdmin:        "admin",
}

func getLayoutData(ctx *fasthttp.RequestCtx, page string) LayoutData {
	data := LayoutData{
		Title:        page,
		Breadcrumb:   page,
		ActivePage:   page,
		PageTemplate: pageTemplates[page],
	}
	if user, ok := httpctx.UserFromCtx(ctx); ok {
		data.Username = user.Username
	}
	if grants, ok := httpctx.GrantsFromCtx(ctx); ok && grants != nil {
		data.RoleName = grants.RoleName
		for _, p := range auth.AllPages() {
			if grants.Allows(p) {
				data.NavPages = append(data.NavPages, p)
			}
		}
	}
	return data
}

func renderLayout(ctx *fasthttp.RequestCtx, data LayoutData) {
	var buf bytes.Buffer
	if err := ui.Templates().ExecuteTemplate(&buf, "layout", data); err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString("render error")
		return
	}
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBody(buf.Bytes())
}

// Page renders the named dashboard page and counts the view. Access is
// enforced by the RequirePage middleware wrapped around it.
func Page(page string) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		RecordPageView(page)
		renderLayout(ctx, getLayoutData(ctx, page))
	}
}

// Home redirects to the first page the user may view, or the login
// form when the role grants nothing.
func Home() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		grants, _ := httpctx.GrantsFromCtx(ctx)
		for _, p := range auth.AllPages() {
			if grants.Allows(p) {
				ctx.Redirect("/pages/"+p, fasthttp.StatusSeeOther)
				return
			}
		}
		ctx.SetStatusCode(fasthttp.StatusForbidden)
		ctx.SetBodyString("your account has no pages assigned; contact an administrator")
	}
}
