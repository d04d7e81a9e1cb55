package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	LogLevel      string

	Messaging Messaging
	Survey    Survey
	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig

	BatchConcurrency int
}

// Messaging selects and configures the outbound provider.
type Messaging struct {
	Provider         string
	Mode             string
	WebhookSecret    string
	VerifyToken      string
	CountryCode      string
	Message          string
	TemplateName     string
	TemplateLanguage string
	Timeout          time.Duration

	CloudAPIToken         string
	CloudAPIPhoneNumberID string
	CloudAPIBaseURL       string
	CloudAPIVersion       string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	TwilioBaseURL    string
}

// Survey holds the public survey URLs. BaseURL is the tracked link sent to
// citizens; PageURL is where the tracker redirects.
type Survey struct {
	BaseURL string
	PageURL string
}

// PostgresConfig is empty when the in-memory store should be used.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is empty when the in-process lock should be used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig is empty when events stay in memory.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RateLimitConfig sets per-minute budgets for public and operator routes.
type RateLimitConfig struct {
	Disabled          bool
	PublicPerMinute   int
	OperatorPerMinute int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []string
	duration := func(key string, def time.Duration) time.Duration {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", key, raw))
			return def
		}
		return d
	}
	integer := func(key string, def int) int {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid positive integer %q", key, raw))
			return def
		}
		return n
	}

	cfg := Server{
		Addr:          getEnv("OUTREACH_ADDR", ":8080"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     getEnv("JWT_ISSUER", "outreach"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "outreach-operators"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Messaging: Messaging{
			Provider:              getEnv("MESSAGING_PROVIDER", "cloudapi"),
			Mode:                  getEnv("MESSAGING_MODE", "simulated"),
			WebhookSecret:         os.Getenv("WEBHOOK_SECRET"),
			VerifyToken:           os.Getenv("WEBHOOK_VERIFY_TOKEN"),
			CountryCode:           getEnv("PHONE_COUNTRY_CODE", "55"),
			Message:               os.Getenv("OUTREACH_MESSAGE"),
			TemplateName:          os.Getenv("MESSAGING_TEMPLATE_NAME"),
			TemplateLanguage:      getEnv("MESSAGING_TEMPLATE_LANGUAGE", "pt_BR"),
			Timeout:               duration("MESSAGING_TIMEOUT", 10*time.Second),
			CloudAPIToken:         os.Getenv("CLOUDAPI_TOKEN"),
			CloudAPIPhoneNumberID: os.Getenv("CLOUDAPI_PHONE_NUMBER_ID"),
			CloudAPIBaseURL:       os.Getenv("CLOUDAPI_BASE_URL"),
			CloudAPIVersion:       os.Getenv("CLOUDAPI_API_VERSION"),
			TwilioAccountSID:      os.Getenv("TWILIO_ACCOUNT_SID"),
			TwilioAuthToken:       os.Getenv("TWILIO_AUTH_TOKEN"),
			TwilioFrom:            os.Getenv("TWILIO_FROM"),
			TwilioBaseURL:         os.Getenv("TWILIO_BASE_URL"),
		},
		Survey: Survey{
			BaseURL: getEnv("SURVEY_BASE_URL", "http://localhost:8080/r"),
			PageURL: strings.TrimRight(getEnv("SURVEY_PAGE_URL", "/surveys"), "/"),
		},
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    integer("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "outreach.engagement"),
		},
		RateLimit: RateLimitConfig{
			Disabled:          os.Getenv("DISABLE_RATE_LIMITING") == "true",
			PublicPerMinute:   integer("RATE_LIMIT_PUBLIC_PER_MINUTE", 30),
			OperatorPerMinute: integer("RATE_LIMIT_OPERATOR_PER_MINUTE", 300),
		},
		BatchConcurrency: integer("BATCH_CONCURRENCY", 4),
	}

	if len(errs) > 0 {
		return Server{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
