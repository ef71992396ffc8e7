package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Drivers de armazenamento suportados.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config armazena todas as configurações do GoSupply.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string
	Location    *time.Location

	// Armazenamento
	StorageDriver string
	DatabaseURL   string
	DBTimeout     time.Duration

	// Cache (Redis)
	RedisAddr string
	CacheTTL  time.Duration

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Alertas e widget
	DefaultNotifyDays     int
	NotifyPollInterval    time.Duration
	WidgetTopN            int
	WidgetRefreshInterval time.Duration

	// Eventos
	KafkaBrokers []string
	KafkaTopic   string

	// HTTP
	CORSAllowedOrigins []string
}

// LoadConfig lê as configurações das variáveis de ambiente (via Viper).
// O .env já foi carregado pelo godotenv no main.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE inválido (%q): %w", v.GetString("TIMEZONE"), err)
	}

	cfg := &Config{
		// 1. Geral
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Location:    loc,

		// 2. Armazenamento
		StorageDriver: strings.ToLower(v.GetString("STORAGE_DRIVER")),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		DBTimeout:     time.Duration(v.GetInt("DB_TIMEOUT_SEC")) * time.Second,

		// 3. Cache
		RedisAddr: v.GetString("REDIS_ADDR"),
		CacheTTL:  time.Duration(v.GetInt("CACHE_TTL_MIN")) * time.Minute,

		// 4. Segurança
		JWTSecretKey: v.GetString("JWT_SECRET_KEY"),
		TokenExpiry:  time.Duration(v.GetInt("JWT_EXPIRY_MIN")) * time.Minute,

		// 5. Rate Limiting
		RateLimitMaxRequests: v.GetInt("RATE_LIMIT_MAX_REQUESTS"),
		RateLimitPeriod:      time.Duration(v.GetInt("RATE_LIMIT_PERIOD_MIN")) * time.Minute,

		// 6. Alertas e widget
		DefaultNotifyDays:     v.GetInt("DEFAULT_NOTIFY_DAYS"),
		NotifyPollInterval:    time.Duration(v.GetInt("NOTIFY_POLL_INTERVAL_SEC")) * time.Second,
		WidgetTopN:            v.GetInt("WIDGET_TOP_N"),
		WidgetRefreshInterval: time.Duration(v.GetInt("WIDGET_REFRESH_INTERVAL_SEC")) * time.Second,

		// 7. Eventos
		KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),

		// 8. HTTP
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("DB_TIMEOUT_SEC", 5)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("CACHE_TTL_MIN", 5)
	v.SetDefault("JWT_EXPIRY_MIN", 60)
	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_PERIOD_MIN", 1)
	v.SetDefault("DEFAULT_NOTIFY_DAYS", 14)
	v.SetDefault("NOTIFY_POLL_INTERVAL_SEC", 60)
	v.SetDefault("WIDGET_TOP_N", 3)
	v.SetDefault("WIDGET_REFRESH_INTERVAL_SEC", 300)
	v.SetDefault("KAFKA_TOPIC", "supply-events")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

// Validate rejeita combinações que impediriam o serviço de iniciar.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL é obrigatório para STORAGE_DRIVER=%s", StoragePostgres)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER desconhecido: %q", c.StorageDriver)
	}
	if c.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY deve ser definido")
	}
	if c.DefaultNotifyDays < 1 || c.DefaultNotifyDays > 30 {
		return fmt.Errorf("DEFAULT_NOTIFY_DAYS deve estar entre 1 e 30 (recebido %d)", c.DefaultNotifyDays)
	}
	if c.WidgetTopN < 1 {
		return fmt.Errorf("WIDGET_TOP_N deve ser positivo (recebido %d)", c.WidgetTopN)
	}
	if c.NotifyPollInterval <= 0 || c.WidgetRefreshInterval <= 0 {
		return fmt.Errorf("intervalos de workers devem ser positivos")
	}
	return nil
}

// splitList converte "a, b,c" em []string{"a","b","c"}, ignorando vazios.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
