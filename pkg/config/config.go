package config

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/vault-client-go"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var config = viper.New()

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`

	// BaseURL is the public origin used to build tracking links and
	// Stripe onboarding return URLs.
	BaseURL string `mapstructure:"BASE_URL"`

	TLS struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH"`
		KeyPath  string `mapstructure:"KEY_PATH"`
	} `mapstructure:"TLS"`
	Otel struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"OTEL"`
	Pyroscope struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"PYROSCOPE"`
	Server struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Auth struct {
		JWTSecret string `mapstructure:"JWT_SECRET"`
	} `mapstructure:"AUTH"`
	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	Stripe struct {
		SecretKey string `mapstructure:"SECRET_KEY"`
		APIBase   string `mapstructure:"API_BASE"`
	} `mapstructure:"STRIPE"`
	AIGateway struct {
		Addr   string `mapstructure:"ADDR"`
		APIKey string `mapstructure:"API_KEY"`
		Model  string `mapstructure:"MODEL"`
	} `mapstructure:"AI_GATEWAY"`
	Resend struct {
		APIKey string `mapstructure:"API_KEY"`
		From   string `mapstructure:"FROM"`
	} `mapstructure:"RESEND"`
	Payout struct {
		DefaultMinThreshold float64 `mapstructure:"DEFAULT_MIN_THRESHOLD"`
	} `mapstructure:"PAYOUT"`
	Sync struct {
		Interval time.Duration `mapstructure:"INTERVAL"`
	} `mapstructure:"SYNC"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

type Params struct {
	fx.In
	Vault *vault.Client `optional:"true"`
}

func LoadConfig(p Params) *Config {

	config.SetConfigName("config")
	config.SetConfigType("yaml")
	config.AddConfigPath(".")

	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	if err := config.ReadInConfig(); err != nil {
		zap.L().Error("failed to read config file", zap.Error(err))
		os.Exit(1)
	}

	var cfg Config
	if err := config.Unmarshal(&cfg); err != nil {
		zap.L().Error("failed to unmarshal config", zap.Error(err))
		os.Exit(1)
	}

	if cfg.Payout.DefaultMinThreshold == 0 {
		cfg.Payout.DefaultMinThreshold = 50
	}
	if cfg.Stripe.APIBase == "" {
		cfg.Stripe.APIBase = "https://api.stripe.com"
	}
	if cfg.AIGateway.Model == "" {
		cfg.AIGateway.Model = "google/gemini-2.5-flash"
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = time.Hour
	}

	if p.Vault != nil {
		// START - Vault
		client := p.Vault
		ctx := context.Background()

		zap.L().Info("Starting Get Secrets", zap.String("path", cfg.AppEnv))
		secret, err := client.Secrets.KvV2Read(ctx, cfg.AppEnv, vault.WithMountPath("secret"))
		if err != nil {
			zap.L().Error("failed get secret from vault", zap.Error(err))
			os.Exit(1)
		}
		zap.L().Info("Success Get Secret")

		get := func(key string) string {
			if val, ok := secret.Data.Data[key].(string); ok {
				return val
			}
			return ""
		}

		cfg.Database.User = get("postgres_user")
		cfg.Database.Password = get("postgres_password")
		cfg.Redis.Password = get("redis_password")
		cfg.Auth.JWTSecret = get("jwt_secret")
		cfg.Stripe.SecretKey = get("stripe_secret_key")
		cfg.AIGateway.APIKey = get("ai_gateway_api_key")
		cfg.Resend.APIKey = get("resend_api_key")
		// END - Vault
	}

	return &cfg
}
