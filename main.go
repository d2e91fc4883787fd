package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"presensi-backend/docs"
	"presensi-backend/internal/attendance"
	"presensi-backend/internal/platform/auth"
	"presensi-backend/internal/platform/config"
	"presensi-backend/internal/platform/db"
	"presensi-backend/internal/platform/middleware"
	"presensi-backend/internal/platform/telemetry"
	"presensi-backend/internal/report"
	"presensi-backend/internal/roster"
	"presensi-backend/internal/sheets"
)

const serviceName = "presensi-backend"

func main() {
	cfg, err := config.LoadConfig(config.DefaultPath)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	schedule, err := attendance.NewSchedule(cfg.Schedule)
	if err != nil {
		log.Fatalf("[ERROR] schedule: %v", err)
	}

	shutdownTracing := telemetry.Setup(serviceName, cfg.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Device locks and the submission journal.
	var store attendance.Store
	if cfg.DB.Enabled() {
		conn, err := db.Connect(cfg.DB)
		if err != nil {
			log.Fatalf("[ERROR] connect DB: %v", err)
		}
		defer conn.Close()
		if err := db.InitSchema(ctx, conn); err != nil {
			log.Fatalf("[ERROR] init schema: %v", err)
		}
		log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)
		store = attendance.NewSQLStore(conn)
	} else {
		log.Println("[WARN] no database configured, device locks are kept in memory")
		store = attendance.NewMemoryStore()
	}

	hc := telemetry.HTTPClient(&http.Client{Timeout: cfg.SheetTimeout()})
	var rosterOpts []roster.SourceOption
	if mode == "dev" {
		rosterOpts = append(rosterOpts, roster.WithDemoRoster())
	}
	rosterSrc := roster.NewSource(hc, cfg.Sheet.RosterCSVURL, cfg.Sheet.ProxyURL, cfg.RosterTTL(), rosterOpts...)
	sheet := sheets.NewClient(hc, cfg.Sheet.WebAppURL)

	refresher := attendance.NewRefresher(attendance.SheetLogs{Client: sheet})
	go refresher.Run(ctx, cfg.RefreshInterval())

	svc := attendance.NewService(attendance.Deps{
		Roster:    rosterSrc,
		Logs:      refresher,
		Submitter: sheet,
		Store:     store,
		Gate:      attendance.NewGate(schedule, loc),
		Fence: attendance.Geofence{
			Center:       attendance.Coordinate{Lat: cfg.School.Latitude, Lng: cfg.School.Longitude},
			RadiusMeters: cfg.School.RadiusMeters,
		},
		Freshness: 2 * cfg.RefreshInterval(),
	})
	secret := []byte(cfg.Auth.JWTSecret)
	authSvc := auth.NewService(auth.NewStore(rosterSrc), secret, cfg.TokenTTL())

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logging())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", attendance.DeviceIDHeader, middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowCredentials: true,
		}))
		docs.SwaggerInfo.Version = cfg.Version
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		r.GET("/debug/vars", gin.WrapH(expvar.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// /api/v1
	api := r.Group("/api/v1")
	auth.RegisterRoutes(api, authSvc)

	staff := api.Group("", auth.RequireAuth(secret))
	admin := api.Group("", auth.RequireAuth(secret), auth.RequireRole("admin"))
	attendance.RegisterRoutes(staff, admin, svc)
	report.RegisterRoutes(admin, svc, cfg.School.Name)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           telemetry.Handler(r, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if cfg.Certificate.Cert != "" && cfg.Certificate.Key != "" {
			certFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Cert)
			keyFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Key)
			log.Printf("[INFO] listening on https://0.0.0.0%s", cfg.Addr)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Printf("[INFO] listening on http://0.0.0.0%s", cfg.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Println("[INFO] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] server shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("[WARN] tracer shutdown: %v", err)
	}
}
