package cfg

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

type AmadeusConfig struct {
	BaseURL      string
	AuthURL      string
	ClientID     string
	ClientSecret string
}

type PayPalConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	ReturnURL    string
	CancelURL    string
}

type PaymentConfig struct {
	DisplayCurrency    string
	SettlementCurrency string
	// Display units per one settlement unit, e.g. 75 INR per USD.
	ConversionRate float64
}

type KafkaConfig struct {
	Brokers      []string
	BookingTopic string
}

type ObservabilityConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
	Environment  string
}

type Config struct {
	AppEnv            string
	AppPort           string
	RedisConfig       RedisConfig
	AmadeusConfig     AmadeusConfig
	PayPalConfig      PayPalConfig
	PaymentConfig     PaymentConfig
	KafkaConfig       KafkaConfig
	Observability     ObservabilityConfig
	SearchMaxResults  int
	SessionTTLMinutes int
}

func Load() (*Config, error) {
	var errs []error

	err := godotenv.Load()
	if err != nil {
		return nil, errors.New("failed load cfg: " + err.Error())
	}

	appEnv := mustEnv("APP_ENV", &errs)
	appPort := mustEnv("APP_PORT", &errs)
	redisHost := mustEnv("REDIS_HOST", &errs)
	redisPort := mustEnv("REDIS_PORT", &errs)
	redisPassword := mustEnv("REDIS_PASSWORD", &errs)

	amadeusBaseUrl := mustEnv("AMADEUS_BASE_URL", &errs)
	amadeusAuthUrl := mustEnv("AMADEUS_AUTH_URL", &errs)
	amadeusClientID := mustEnv("AMADEUS_CLIENT_ID", &errs)
	amadeusClientSecret := mustEnv("AMADEUS_CLIENT_SECRET", &errs)

	paypalBaseUrl := mustEnv("PAYPAL_BASE_URL", &errs)
	paypalClientID := mustEnv("PAYPAL_CLIENT_ID", &errs)
	paypalClientSecret := mustEnv("PAYPAL_CLIENT_SECRET", &errs)
	paymentReturnUrl := mustEnv("PAYMENT_RETURN_URL", &errs)
	paymentCancelUrl := mustEnv("PAYMENT_CANCEL_URL", &errs)

	displayCurrency := mustEnv("DISPLAY_CURRENCY", &errs)
	settlementCurrency := mustEnv("SETTLEMENT_CURRENCY", &errs)
	conversionRate := mustFloatEnv("PAYMENT_CONVERSION_RATE", &errs)

	searchMaxResults := mustIntEnv("SEARCH_MAX_RESULTS", &errs)
	sessionTTLMinutes := mustIntEnv("SESSION_TTL_MINUTES", &errs)

	// Kafka and OTLP are optional; leaving them unset disables the feature.
	kafkaBrokers := splitList(os.Getenv("KAFKA_BROKERS"))
	kafkaBookingTopic := os.Getenv("KAFKA_BOOKING_TOPIC")
	otlpEndpoint := os.Getenv("OTEL_OTLP_ENDPOINT")
	otelServiceName := os.Getenv("OTEL_SERVICE_NAME")
	if otelServiceName == "" {
		otelServiceName = "flightbook"
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Config{
		AppEnv:  appEnv,
		AppPort: appPort,
		RedisConfig: RedisConfig{
			Host:     redisHost,
			Port:     redisPort,
			Password: redisPassword,
		},
		AmadeusConfig: AmadeusConfig{
			BaseURL:      amadeusBaseUrl,
			AuthURL:      amadeusAuthUrl,
			ClientID:     amadeusClientID,
			ClientSecret: amadeusClientSecret,
		},
		PayPalConfig: PayPalConfig{
			BaseURL:      paypalBaseUrl,
			ClientID:     paypalClientID,
			ClientSecret: paypalClientSecret,
			ReturnURL:    paymentReturnUrl,
			CancelURL:    paymentCancelUrl,
		},
		PaymentConfig: PaymentConfig{
			DisplayCurrency:    displayCurrency,
			SettlementCurrency: settlementCurrency,
			ConversionRate:     conversionRate,
		},
		KafkaConfig: KafkaConfig{
			Brokers:      kafkaBrokers,
			BookingTopic: kafkaBookingTopic,
		},
		Observability: ObservabilityConfig{
			Enabled:      otlpEndpoint != "",
			OTLPEndpoint: otlpEndpoint,
			ServiceName:  otelServiceName,
			Environment:  appEnv,
		},
		SearchMaxResults:  searchMaxResults,
		SessionTTLMinutes: sessionTTLMinutes,
	}, nil
}

func mustEnv(key string, errs *[]error) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errs = append(*errs, errors.New("missing env: "+key))
	}
	return value
}

func mustIntEnv(key string, errs *[]error) int {
	value := mustEnv(key, errs)
	parsed, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, errors.New("conversion failed env: "+key))
	}
	return parsed
}

func mustFloatEnv(key string, errs *[]error) float64 {
	value := mustEnv(key, errs)
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, errors.New("conversion failed env: "+key))
	}
	return parsed
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
