package serverApp

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	database "go-checkout/internal/pkg/db"
	"go-checkout/internal/pkg/middleware"
	midtransPkg "go-checkout/internal/pkg/midtrans"
	"go-checkout/internal/pkg/rabbitmq"
	"go-checkout/internal/pkg/redis"
	s3aws "go-checkout/internal/pkg/storage/s3"
	"go-checkout/internal/repository"
	accountRepo "go-checkout/internal/repository/account"
	cardRepo "go-checkout/internal/repository/card"
	catalogRepo "go-checkout/internal/repository/catalog"
	orderRepo "go-checkout/internal/repository/order"

	flowHandler "go-checkout/internal/handler/flow"
	orderHandler "go-checkout/internal/handler/order"
	paymentHandler "go-checkout/internal/handler/payment"
	authService "go-checkout/internal/service/auth"
	broadcastService "go-checkout/internal/service/broadcast"
	flowService "go-checkout/internal/service/flow"
	matchService "go-checkout/internal/service/match"
	paymentService "go-checkout/internal/service/payment"
	pricingService "go-checkout/internal/service/pricing"

	"go-checkout/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Setup initializes the HTTP server with middleware and routes
func Setup(
	engine *gin.Engine,
	ctx context.Context,
	wg *sync.WaitGroup,
	db *database.Database,
	redisClient redis.IRedis,
	rb *rabbitmq.ConnectionManager,
	publisher *rabbitmq.Publisher,
	s3 s3aws.Is3,
	mt *midtransPkg.MidtransClient,
	hub broadcastService.IHub,
	baseURL string,
	defaultCountryCode string,
	flowCallTimeout time.Duration,
) {
	InitMiddleware(engine)

	// Set swagger host dynamically from APP_BASE_URL
	if parsed, err := url.Parse(baseURL); err == nil {
		docs.SwaggerInfo.Host = parsed.Host
		if strings.HasPrefix(baseURL, "https") {
			docs.SwaggerInfo.Schemes = []string{"https"}
		} else {
			docs.SwaggerInfo.Schemes = []string{"http"}
		}
	}

	// Swagger UI
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	engine.GET("/health", func(c *gin.Context) {
		rabbitmqHealth := "unhealthy"
		redisHealth := "unhealthy"
		databaseHealth := "unhealthy"
		rbCon := rb.GetConnection()

		if db != nil && !db.IsCloseConnection() {
			databaseHealth = "healthy"
		}

		if rbCon != nil && !rbCon.IsClosed() {
			rabbitmqHealth = "healthy"
		}
		if redisClient != nil && redisClient.Close() == nil {
			redisHealth = "healthy"
		}
		c.JSON(200, gin.H{
			"status": 200,
			"service": gin.H{
				"rabbitmq": gin.H{
					"status": rabbitmqHealth,
				},
				"redis": gin.H{
					"status": redisHealth,
				},
				"database": gin.H{
					"status": databaseHealth,
				},
			},
		})
	})

	e := engine.Group(BasePath())
	InitRoutes(e, ctx, db, redisClient, publisher, s3, mt, hub, defaultCountryCode, flowCallTimeout)
}

// BasePath returns the base API path
func BasePath() string {
	return "/api"
}

// InitMiddleware initializes global middleware
func InitMiddleware(e *gin.Engine) {
	e.Use(middleware.CorsMiddleware())
	e.Use(middleware.RequestInit())
	e.Use(middleware.ResponseInit())
}

func InitRoutes(
	e *gin.RouterGroup,
	ctx context.Context,
	db *database.Database,
	redisClient redis.IRedis,
	publisher *rabbitmq.Publisher,
	s3 s3aws.Is3,
	mt *midtransPkg.MidtransClient,
	hub broadcastService.IHub,
	defaultCountryCode string,
	flowCallTimeout time.Duration,
) {

	// setup repo
	rp := repository.IRepository{
		Account: accountRepo.NewRepo(db),
		Card:    cardRepo.NewRepo(db),
		Catalog: catalogRepo.NewRepo(db),
		Order:   orderRepo.NewRepo(db),
	}

	// === Coordinators ===
	PricingService := pricingService.NewService()
	MatchService := matchService.NewService(ctx, rp, defaultCountryCode)
	AuthService := authService.NewService(redisClient, publisher)
	PaymentService := paymentService.NewService(ctx, rp, mt, s3, publisher)

	// === Checkout flow ===
	FlowStore := flowService.NewRedisStore(redisClient)
	FlowService := flowService.NewService(ctx, FlowStore, rp, MatchService, AuthService, PaymentService, PricingService,
		flowService.WithCallTimeout(flowCallTimeout))
	FlowHandler := flowHandler.NewHandler(ctx, FlowService)
	FlowHandler.NewRoutes(e)

	// === Payments ===
	PaymentHandler := paymentHandler.NewHandler(ctx, PaymentService, mt)
	PaymentHandler.NewRoutes(e)

	// === Orders ===
	OrderHandler := orderHandler.NewHandler(ctx, hub, rp.Order, s3)
	OrderHandler.NewRoutes(e)
}
