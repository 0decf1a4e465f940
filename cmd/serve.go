package cmd

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/givebridge/ms-go-donations/app/controller"
	"github.com/givebridge/ms-go-donations/app/gateway"
	"github.com/givebridge/ms-go-donations/app/repository"
	"github.com/givebridge/ms-go-donations/app/service"
	"github.com/givebridge/ms-go-donations/app/types"
	"github.com/givebridge/ms-go-donations/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server for the donations service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, services, cleanup := mustCreateServices()
	defer cleanup()

	donationController := controller.NewDonationController(services.donations)
	subscriptionController := controller.NewSubscriptionController(services.subscriptions)

	e := setupHTTPServer(donationController, subscriptionController, cfg.App.APIKey)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	donationController *controller.DonationController,
	subscriptionController *controller.SubscriptionController,
	apiKey string,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.GET("/health", donationController.Health)

	// The vendor dashboard posts settlement events to the listener endpoint;
	// it cannot send the service API key, so webhooks sit outside the
	// authenticated group. The legacy host integration posts to the root path
	// with a give-listener query parameter.
	e.POST("/webhooks/:listener", donationController.HandleWebhook)
	e.POST("/", donationController.HandleWebhook)

	api := e.Group("", requireRequestID(), requireAPIKey(apiKey))

	donations := api.Group("/donations")
	donations.POST("", donationController.CreateDonation)
	donations.GET("", donationController.ListDonations)
	donations.GET("/:id", donationController.GetDonation)
	donations.GET("/:id/notes", donationController.ListDonationNotes)
	donations.POST("/:id/refund", donationController.RefundDonation)

	subscriptions := api.Group("/subscriptions")
	subscriptions.POST("", subscriptionController.CreateSubscription)
	subscriptions.GET("/:id", subscriptionController.GetSubscription)
	subscriptions.POST("/:id/cancel", subscriptionController.CancelSubscription)

	return e
}

func requireRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			requestID := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				return ctx.JSON(http.StatusBadRequest, &types.ErrorResponse{Error: "x-request-id header is required"})
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(ctx)
		}
	}
}

func requireAPIKey(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if apiKey == "" {
				return next(ctx)
			}
			provided := strings.TrimSpace(ctx.Request().Header.Get("X-Api-Key"))
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				return ctx.JSON(http.StatusUnauthorized, &types.ErrorResponse{Error: "invalid api key"})
			}
			return next(ctx)
		}
	}
}

type appServices struct {
	donations     *service.DonationService
	subscriptions *service.SubscriptionService
}

func mustCreateServices() (*config.Config, *appServices, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	donationRepo := repository.NewDonationRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	eventRepo := repository.NewDonationEventRepository(db)
	noteRepo := repository.NewDonationNoteRepository(db)
	webhookRepo := repository.NewWebhookDeliveryRepository(db)

	environment, err := gateway.ParseEnvironment(cfg.EasyMerchant.Mode)
	if err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Invalid gateway mode")
	}

	gatewayClient := gateway.NewClient(gateway.ClientConfig{
		APIKey:      cfg.EasyMerchant.APIKey,
		APISecret:   cfg.EasyMerchant.APISecret,
		Environment: environment,
		HTTPTimeout: cfg.EasyMerchant.HTTPTimeout,
	})
	gw := gateway.NewEasyMerchant(gatewayClient)

	donationService := service.NewDonationService(donationRepo, noteRepo, eventRepo, webhookRepo, gw, cfg.Donations)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, donationRepo, noteRepo, eventRepo, gw)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, &appServices{donations: donationService, subscriptions: subscriptionService}, cleanup
}
