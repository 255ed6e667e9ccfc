package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	app "imaginify/src/app"
	cfg "imaginify/src/configuration"
	"imaginify/src/logging"
	db "imaginify/src/repository"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const shutdownTimeout = 10 * time.Second

// Dependencies are the collaborators the router dispatches to.
type Dependencies struct {
	AuthConfig   *oauth2.Config
	Verifier     app.IdentityVerifier
	Users        *app.UserService
	Images       *app.ImageService
	Transactions *app.TransactionService
	Assets       app.AssetStorage
	Folder       string
}

func NewRouter(config *cfg.Properties, deps Dependencies, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(logging.GinLogger(logger), logging.GinRecovery(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     config.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Cache-Control", "User-Agent", "Referrer", "Host"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if config.Server.Pprof {
		pprof.Register(router)
	}

	auth := NewAuthHandler(config, deps.AuthConfig, deps.Verifier, deps.Users, logger)
	users := NewUserHandler(deps.Users, deps.Images, deps.Transactions)
	images := NewImageHandler(deps.Images)
	credits := NewCreditHandler(deps.Users, deps.Transactions)
	media := NewMediaHandler(deps.Assets, deps.Folder, logger)

	// Register Routes
	router.GET("/health", auth.GetHealth)
	router.GET("/login", auth.Login)
	router.GET("/signin", auth.Signin)
	router.GET("/callback", auth.Callback)
	router.GET("/logout", auth.Logout)
	router.POST("/webhooks/payment", credits.PaymentWebhook)

	api := router.Group("/api")
	api.GET("/plans", credits.GetPlans)
	api.GET("/transformations", credits.GetTransformations)
	api.GET("/images", images.GetAllImages)
	api.GET("/images/:id", images.GetImage)

	private := api.Group("", RequireUser(deps.Verifier, deps.Users, config.Auth.IDTokenCookieName, logger))
	private.GET("/users/me", users.GetProfile)
	private.PUT("/users/me", users.UpdateProfile)
	private.GET("/users/me/images", users.GetOwnImages)
	private.GET("/users/me/transactions", users.GetOwnTransactions)
	private.GET("/media", media.ListMedia)
	private.POST("/media", media.PostMedia)
	private.POST("/transformations/:type", credits.ApplyTransformation)
	private.POST("/images", images.AddImage)
	private.PUT("/images/:id", images.UpdateImage)
	private.DELETE("/images/:id", images.DeleteImage)
	private.POST("/checkout", credits.Checkout)

	router.NoRoute(func(c *gin.Context) { c.JSON(http.StatusNotFound, gin.H{}) })
	return router
}

// RunServer wires the production collaborators and serves until SIGINT or
// SIGTERM.
func RunServer(config *cfg.Properties, logger *zap.Logger) error {
	if config.Server.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providerCtx, cancel := context.WithTimeout(ctx, config.Auth.ReadTimeout)
	provider, err := oidc.NewProvider(providerCtx, config.Auth.Host)
	cancel()
	if err != nil {
		return fmt.Errorf("can not create oidc provider: %w", err)
	}
	logger.Info("oidc provider ready", zap.String("auth", provider.Endpoint().AuthURL))
	authConfig := &oauth2.Config{
		ClientID:     config.Auth.ID,
		ClientSecret: config.Auth.Secret,
		RedirectURL:  config.Auth.Redirect,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	clientS3, err := app.NewMinioS3Client(
		config.S3.Host,
		config.S3.AccessKey,
		config.S3.SecretKey,
		config.S3.Bucket,
		config.S3.UseSSL)
	if err != nil {
		return err
	}

	database, err := db.NewDataBase(config, logger)
	if err != nil {
		return err
	}
	if err := database.Connect(ctx); err != nil {
		// the store reconnects on first use
		logger.Warn("database not respond", zap.Error(err))
	}
	defer func() {
		if err := database.Close(context.Background()); err != nil {
			logger.Warn("can not close database", zap.Error(err))
		}
	}()

	plans, err := cfg.LoadPlans()
	if err != nil {
		return err
	}
	cdn, err := app.NewCDN(config.CDN)
	if err != nil {
		return err
	}
	gateway := app.NewStripeGateway(config.Payment.SecretKey, config.Payment.WebhookSecret)

	users := app.NewUserService(database, cdn, config.Credits.Fee, config.Credits.DefaultBalance, logger)
	router := NewRouter(config, Dependencies{
		AuthConfig:   authConfig,
		Verifier:     app.NewOIDCVerifier(provider, config.Auth.ID),
		Users:        users,
		Images:       app.NewImageService(database, cdn, cdn, clientS3, app.NewPageCache(config.CDN.CacheSize, config.CDN.CacheTTL), config.Credits.PageSize, logger),
		Transactions: app.NewTransactionService(database, gateway, plans, config.Payment.Currency, config.Server.PublicURL, logger),
		Assets:       clientS3,
		Folder:       config.CDN.Folder,
	}, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: config.Server.ReadTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
