package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"cssl-judging/internal/admin"
	"cssl-judging/internal/config"
	"cssl-judging/internal/judge"
	"cssl-judging/internal/logging"
	"cssl-judging/internal/pkg"
	"cssl-judging/internal/report"
	"cssl-judging/internal/repository"
	"cssl-judging/internal/service"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		logging.Log.Fatalf("Failed to load config: %v", err)
	}
	logging.BootstrapLogger(conf.LogLevel)
	gin.SetMode(conf.Server.Mode)

	db, err := gorm.Open(postgres.Open(conf.Database.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		logging.Log.Fatalf("Failed to connect to database: %v", err)
	}

	repo := repository.NewRepository(db)
	if err := repo.Migrate(); err != nil {
		logging.Log.Fatalf("Failed to migrate database: %v", err)
	}

	files, err := pkg.NewFileStore(conf.Uploads.Dir)
	if err != nil {
		logging.Log.Fatalf("Failed to prepare uploads: %v", err)
	}

	gateway := repository.NewGateway(repo)
	metrics := pkg.NewMetrics()
	mailService := service.NewSMTPMailer(conf.SMTP.Host, conf.SMTP.Port, conf.SMTP.User, conf.SMTP.Pass)

	judgeService := service.NewJudgeService(repo, mailService)
	scoringService := service.NewScoringService(repo, gateway, metrics)
	reportService := service.NewReportService(gateway, metrics)

	adminHandler := admin.NewAdminHandler(repo, judgeService, files, admin.Options{
		AdminUser: conf.Auth.AdminUser,
		AdminPass: conf.Auth.AdminPass,
		JWTSecret: conf.Auth.JWTSecret,
		TokenTTL:  conf.Auth.TokenTTL,
	})
	reportHandler := report.NewReportHandler(repo, reportService)
	judgeHandler := judge.NewJudgeHandler(judgeService, scoringService, conf.Auth.JWTSecret, conf.Auth.TokenTTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Telegram.Token != "" {
		bot, err := judge.NewTelegramBot(conf.Telegram.Token, judgeService, scoringService, reportService)
		if err != nil {
			logging.Log.Fatalf("Failed to create telegram bot: %v", err)
		}
		go func() {
			logging.Log.Info("Bot is starting...")
			if err := bot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Log.Errorf("Bot stopped with error: %v", err)
			}
		}()
	} else {
		logging.Log.Warn("telegram.token not set, judge bot disabled")
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.Default())

	router.GET("/healthz", healthHandler(repo))
	router.GET("/metrics", metrics.Handler())

	public := router.Group("/api/v1")
	{
		public.POST("/admin/login", adminHandler.AdminLogin)
		public.POST("/judge/login", judgeHandler.Login)
	}

	adminRoutes := router.Group("/api/v1/admin")
	adminRoutes.Use(pkg.AuthMiddleware(conf.Auth.JWTSecret, "", pkg.RoleAdmin))
	adminHandler.RegisterRoutes(adminRoutes)
	reportHandler.RegisterRoutes(adminRoutes)

	judgeRoutes := router.Group("/api/v1/judge")
	judgeRoutes.Use(pkg.AuthMiddleware(conf.Auth.JWTSecret, judge.ChangePasswordPath, pkg.RoleJudge))
	judgeHandler.RegisterRoutes(judgeRoutes)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", conf.Server.Port),
		Handler: router,
	}
	go func() {
		logging.Log.Infof("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logging.Log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Log.Errorf("Server shutdown: %v", err)
	}
}

// healthHandler reports 503 while the database cannot be reached.
func healthHandler(repo *repository.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := repo.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
