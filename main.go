package main

import (
	"log"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"

	"adpulse/internal/auth"
	"adpulse/internal/config"
	"adpulse/internal/db"
	"adpulse/internal/http/handlers"
	appmw "adpulse/internal/http/middleware"
	ui "adpulse/web"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	gdb, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	verifier := auth.BcryptVerifier{}
	if err := db.EnsureBootstrapAdmin(gdb, cfg, verifier); err != nil {
		log.Fatalf("failed to ensure bootstrap admin: %v", err)
	}

	if cfg.SeedSampleData {
		if err := db.SeedSampleData(gdb); err != nil {
			log.Fatalf("failed to seed sample data: %v", err)
		}
	}

	handlers.InitPrometheusMetrics()

	db.StartAnomalyWorker(gdb, handlers.RecordAlertsRaised)
	db.StartAlertCleanupWorker(gdb, cfg.AlertRetentionDays)

	r := router.New()

	session := appmw.SessionAuth(gdb)

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	r.ServeFS("/static/{filepath:*}", ui.StaticFS())

	r.GET("/login", handlers.LoginForm())
	r.POST("/login", handlers.LoginSubmit(gdb, verifier))
	r.GET("/logout", handlers.Logout())
	r.POST("/settings/password", session(handlers.ChangePasswordSelf(gdb, verifier)))

	r.GET("/", session(handlers.Home()))
	for _, page := range auth.AllPages() {
		p := page
		r.GET("/pages/"+p, session(appmw.RequirePage(p)(handlers.Page(p))))
	}

	// Read APIs follow the page grant that exposes them in the UI.
	r.GET("/api/campaigns", session(appmw.RequirePage(auth.PageDashboard)(handlers.CampaignList(gdb))))
	r.GET("/api/campaigns/metrics", session(appmw.RequirePage(auth.PageDashboard)(handlers.CampaignMetrics(gdb, cfg))))
	r.GET("/api/segments", session(appmw.RequirePage(auth.PageSegmentation)(handlers.SegmentMetrics(gdb))))
	r.GET("/api/countries", session(appmw.RequirePage(auth.PageBenchmarking)(handlers.CountryMetrics(gdb, cfg))))
	r.GET("/api/creatives", session(appmw.RequirePage(auth.PageCreative)(handlers.CreativeMetrics(gdb))))
	r.GET("/api/customers/segments", session(appmw.RequirePage(auth.PagePersona)(handlers.CustomerSegments(gdb))))

	r.GET("/api/pacing/{id}", session(appmw.RequirePage(auth.PageBudgetPacing)(handlers.BudgetPacing(gdb, cfg))))
	r.POST("/api/budgets", session(appmw.RequirePage(auth.PageBudgetPacing)(handlers.CreateBudget(gdb))))

	r.GET("/api/abtests", session(appmw.RequirePage(auth.PageABTesting)(handlers.ABTestList(gdb))))
	r.GET("/api/abtests/{id}/result", session(appmw.RequirePage(auth.PageABTesting)(handlers.ABTestResult(gdb, cfg))))
	r.GET("/api/samplesize", session(appmw.RequirePage(auth.PageABTesting)(handlers.ABSampleSize(cfg))))

	r.POST("/api/recommendations/generate", session(appmw.RequirePage(auth.PageCreative)(handlers.GenerateRecommendations(gdb, cfg))))
	r.GET("/api/recommendations", session(appmw.RequirePage(auth.PageCreative)(handlers.RecommendationList(gdb))))
	r.POST("/api/recommendations/{id}/status", session(appmw.RequirePage(auth.PageCreative)(handlers.UpdateRecommendationStatus(gdb))))

	r.GET("/api/alerts", session(appmw.RequirePage(auth.PageDashboard)(handlers.AlertList(gdb))))
	r.POST("/api/alerts/{id}/status", session(appmw.RequirePage(auth.PageDashboard)(handlers.UpdateAlertStatus(gdb))))

	r.POST("/api/ingest", session(appmw.RequirePage(auth.PageUpload)(handlers.IngestPerformance(gdb))))
	r.GET("/api/export/campaigns", session(appmw.RequirePage(auth.PageExport)(handlers.ExportCampaignMetrics(gdb))))
	r.GET("/api/export/performance", session(appmw.RequirePage(auth.PageExport)(handlers.ExportDailyPerformance(gdb))))

	r.GET("/api/users", session(appmw.RequirePage(auth.PageAdmin)(handlers.UserList(gdb))))
	r.POST("/api/users", session(appmw.RequirePage(auth.PageAdmin)(handlers.CreateUser(gdb, verifier))))
	r.POST("/api/users/{id}/role", session(appmw.RequirePage(auth.PageAdmin)(handlers.AssignUserRole(gdb))))
	r.POST("/api/users/{id}/reset-password", session(appmw.RequirePage(auth.PageAdmin)(handlers.ResetUserPassword(gdb, verifier))))
	r.POST("/api/users/{id}/delete", session(appmw.RequirePage(auth.PageAdmin)(handlers.DeleteUser(gdb))))
	r.GET("/api/roles", session(appmw.RequirePage(auth.PageAdmin)(handlers.RoleList(gdb))))
	r.POST("/api/roles", session(appmw.RequirePage(auth.PageAdmin)(handlers.CreateRole(gdb))))
	r.POST("/api/roles/{id}/pages", session(appmw.RequirePage(auth.PageAdmin)(handlers.UpdateRolePages(gdb))))
	r.POST("/api/roles/{id}/delete", session(appmw.RequirePage(auth.PageAdmin)(handlers.DeleteRole(gdb))))

	r.GET("/metrics", handlers.PrometheusExposition())

	handler := handlers.RequestLogger(r.Handler)

	log.Printf("adpulse listening on %s", cfg.ListenAddr)
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
