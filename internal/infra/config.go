package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config: корневая структура конфигурации консоли.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	MetricsPort  int           `mapstructure:"metrics_port" validate:"min=0,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
	CatalogTTL   time.Duration `mapstructure:"catalog_ttl"`
}

// DatabaseConfig описывает подключение к PostgreSQL.
type DatabaseConfig struct {
	URL      string `mapstructure:"url" validate:"required"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig описывает подключение к Redis (Pub/Sub уведомлений).
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig содержит пути к RSA ключам и настройки JWT.
type AuthConfig struct {
	PublicKeyPath  string        `mapstructure:"public_key_path"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	PublicKey      []byte
	PrivateKey     []byte
}

// Режимы хранилища политик.
const (
	GatewayModeHTTP     = "http"     // Admin REST API сервера авторизации
	GatewayModePostgres = "postgres" // Собственная таблица client_policies
	GatewayModeMemory   = "memory"   // Для локальной разработки
)

// GatewayConfig: куда консоль пишет коллекцию политик.
type GatewayConfig struct {
	Mode        string        `mapstructure:"mode" validate:"oneof=http postgres memory"`
	BaseURL     string        `mapstructure:"base_url" validate:"omitempty,url"`
	Token       string        `mapstructure:"token"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	RateBurst   int           `mapstructure:"rate_burst"`
	Retries     uint          `mapstructure:"retries"`
	CBFailures  uint32        `mapstructure:"cb_failures"`
	CBTimeout   time.Duration `mapstructure:"cb_timeout"`
	CBInterval  time.Duration `mapstructure:"cb_interval"`
	MaxRequests uint32        `mapstructure:"cb_max_requests"`
}

// AuditConfig настройки буфера журнала действий.
type AuditConfig struct {
	BufferSize    int           `mapstructure:"buffer_size" validate:"min=1"`
	BatchSize     int           `mapstructure:"batch_size" validate:"min=1"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// SERVER_PORT=9000 перекроет server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет, работаем на ENV и дефолтах
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// Сначала PEM из ENV (Docker/K8s), потом файл
	cfg.Auth.PublicKey = loadKeyResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")
	cfg.Auth.PrivateKey = loadKeyResource(cfg.Auth.PrivateKeyPath, "AUTH_PRIVATE_KEY_DATA")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет теги и перекрестные правила.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed on '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Gateway.Mode == GatewayModeHTTP && c.Gateway.BaseURL == "" {
		return errors.New("invalid config: gateway.base_url is required in http mode")
	}
	if len(c.Auth.PublicKey) == 0 {
		return errors.New("invalid config: auth public key is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.session_ttl", 30*time.Minute)
	v.SetDefault("server.catalog_ttl", 5*time.Minute)
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("gateway.mode", GatewayModeHTTP)
	v.SetDefault("gateway.timeout", 10*time.Second)
	v.SetDefault("gateway.rate_limit", 20.0)
	v.SetDefault("gateway.rate_burst", 5)
	v.SetDefault("gateway.retries", 3)
	v.SetDefault("gateway.cb_failures", 5)
	v.SetDefault("gateway.cb_max_requests", 3)
	v.SetDefault("gateway.cb_interval", 5*time.Second)
	v.SetDefault("gateway.cb_timeout", 30*time.Second)
	v.SetDefault("audit.buffer_size", 1000)
	v.SetDefault("audit.batch_size", 100)
	v.SetDefault("audit.flush_interval", 1*time.Second)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
