package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/Shabex007/epcet-smartlibrary/internal/analytics"
	"github.com/Shabex007/epcet-smartlibrary/internal/catalog"
	"github.com/Shabex007/epcet-smartlibrary/internal/lending"
	"github.com/Shabex007/epcet-smartlibrary/internal/patron"
	"github.com/Shabex007/epcet-smartlibrary/internal/platform/db"
)

func main() {
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		fmt.Println("Usage: go run main.go [dev|release]")
		return
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS is only needed while the frontend runs on its own dev server.
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000", "http://localhost:8501"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/api/health", func(c *gin.Context) {
		dbStatus := "connected"
		status := http.StatusOK
		if err := conn.PingContext(c.Request.Context()); err != nil {
			dbStatus = "disconnected"
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status":   "ok",
			"database": dbStatus,
			"version":  cfg.Version,
		})
	})

	policy := lending.Policy{
		FineRatePerDay:     cfg.Lending.FineRatePerDay,
		DefaultLoanDays:    cfg.Lending.DefaultLoanDays,
		DefaultRenewalDays: cfg.Lending.DefaultRenewalDays,
		MaxRenewals:        cfg.Lending.MaxRenewals,
	}
	lendSvc := lending.NewService(conn, policy)

	api := r.Group("/api")
	catalog.RegisterRoutes(api, catalog.NewService(conn))
	patron.RegisterRoutes(api, patron.NewService(conn))
	lending.RegisterRoutes(api, lendSvc)
	analytics.RegisterRoutes(api, analytics.NewService(conn))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweeper := lending.NewSweeper(lendSvc, time.Duration(cfg.Lending.SweepIntervalMinutes)*time.Minute)
	go sweeper.Run(sweepCtx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Printf("[INFO] listening on http://0.0.0.0:%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
