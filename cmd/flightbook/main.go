package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"flightbook/cfg"
	"flightbook/internal/autocomplete"
	"flightbook/internal/booking"
	"flightbook/internal/payment"
	"flightbook/internal/search"
	"flightbook/internal/session"
	"flightbook/pkg/amadeus"
	"flightbook/pkg/cache"
	"flightbook/pkg/events"
	"flightbook/pkg/idgen"
	"flightbook/pkg/logger"
	"flightbook/pkg/paypal"
	"flightbook/pkg/telemetry"

	_ "flightbook/cmd/flightbook/docs" // swagger docs

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const snowflakeNodeID = 1

// @title           Flight Booking API
// @version         1.0
// @description     Flight search, booking and payment service.
// @BasePath        /
// @schemes         http
func main() {
	// ============
	// config
	// ============
	config, errCfg := cfg.Load()
	if errCfg != nil {
		log.Fatal(errCfg)
	}

	// ============
	// logger
	// ============
	zlogger := logger.NewZeroLog(config.AppEnv)

	// ============
	// telemetry
	// ============
	if config.Observability.Enabled {
		shutdown, err := telemetry.Init(context.Background(), &config.Observability)
		if err != nil {
			zlogger.Fatal("failed to init telemetry", logger.Field{Key: "err", Value: err})
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				zlogger.Error("telemetry shutdown failed", logger.Field{Key: "err", Value: err})
			}
		}()
	}

	// ============
	// Cache
	// ============
	redisAddr := config.RedisConfig.Host + ":" + config.RedisConfig.Port
	redis := cache.NewRedisCache(redisAddr, config.RedisConfig.Password)

	// ============
	// External Service
	// ============
	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}
	tokens := amadeus.NewTokenCache(
		config.AmadeusConfig.AuthURL,
		config.AmadeusConfig.ClientID,
		config.AmadeusConfig.ClientSecret,
		zlogger,
	)
	amadeusClient := amadeus.NewClient(httpClient, config.AmadeusConfig.BaseURL, tokens, zlogger)
	paypalClient := paypal.NewClient(
		httpClient,
		config.PayPalConfig.BaseURL,
		config.PayPalConfig.ClientID,
		config.PayPalConfig.ClientSecret,
		zlogger,
	)

	// ============
	// Events
	// ============
	var producer *events.Producer
	if len(config.KafkaConfig.Brokers) > 0 {
		producer = events.NewProducer(config.KafkaConfig.Brokers, config.KafkaConfig.BookingTopic)
		defer producer.Close()
	}

	// ============
	// Internal Service
	// ============
	refs, err := idgen.NewSnowflakeGenerator(snowflakeNodeID)
	if err != nil {
		zlogger.Fatal("failed to init reference generator", logger.Field{Key: "err", Value: err})
	}

	store := booking.NewStore(redis)

	searchSvc := search.NewService(amadeusClient, store, config.PaymentConfig.DisplayCurrency, config.SearchMaxResults, zlogger)
	searchHandler := search.NewHandler(searchSvc)

	suggestController := autocomplete.NewController(cityLookup(amadeusClient), zlogger)
	defer suggestController.Close()
	suggestHandler := autocomplete.NewHandler(suggestController)

	bookingSvc := booking.NewService(store, refs, bookingPublisher(producer), zlogger)
	bookingHandler := booking.NewHandler(bookingSvc)

	paymentSvc := payment.NewService(paypalClient, store, paymentPublisher(producer), config.PayPalConfig, config.PaymentConfig, zlogger)
	paymentHandler := payment.NewHandler(paymentSvc)

	sessionTTL := time.Duration(config.SessionTTLMinutes) * time.Minute
	sessionSvc := session.NewService(redis, sessionTTL, zlogger)
	sessionHandler := session.NewHandler(sessionSvc)

	// ============
	// HTTP
	// ============
	r := gin.Default()
	if config.Observability.Enabled {
		r.Use(otelgin.Middleware(config.Observability.ServiceName))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	sessionHandler.RegisterPublicRoutes(r)

	protected := r.Group("/", session.RequireSession(sessionSvc))
	sessionHandler.RegisterProtectedRoutes(protected)
	suggestHandler.RegisterRoutes(protected)
	searchHandler.RegisterRoutes(protected)
	bookingHandler.RegisterRoutes(protected)
	paymentHandler.RegisterRoutes(protected)

	initSwagger(r)

	addr := fmt.Sprintf(":%s", config.AppPort)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// cityLookup adapts the locations API to the autocomplete controller.
func cityLookup(client *amadeus.Client) autocomplete.LookupFunc {
	return func(ctx context.Context, keyword string) ([]autocomplete.Suggestion, error) {
		locations, err := client.Locations(ctx, keyword)
		if err != nil {
			return nil, err
		}

		suggestions := make([]autocomplete.Suggestion, 0, len(locations))
		for _, loc := range locations {
			city := loc.Address.CityName
			if city == "" {
				city = loc.Name
			}
			suggestions = append(suggestions, autocomplete.Suggestion{
				ID:       loc.ID,
				CityName: city,
				IataCode: loc.IataCode,
			})
		}
		return suggestions, nil
	}
}

// A nil *events.Producer must become a nil interface so publishing stays
// disabled when Kafka is not configured.
func bookingPublisher(p *events.Producer) booking.Publisher {
	if p == nil {
		return nil
	}
	return p
}

func paymentPublisher(p *events.Producer) payment.Publisher {
	if p == nil {
		return nil
	}
	return p
}

func initSwagger(r *gin.Engine) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		html := `<!DOCTYPE html>
<html>
<head>
    <title>API Documentation</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
    <script id="api-reference" data-url="/swagger/doc.json"></script>
    <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`
		c.String(200, html)
	})
}
