package configuration

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type (
	Properties struct {
		LogLevel string `env:"LOG_LEVEL" envDefault:"DEBUG"`

		Auth    AuthProperties       `envPrefix:"AUTH_"`
		Mongo   MongoProperties      `envPrefix:"MONGO_"`
		S3      S3Properties         `envPrefix:"S3_"`
		Server  HttpServerProperties `envPrefix:"HTTP_"`
		CDN     CDNProperties        `envPrefix:"CDN_"`
		Payment PaymentProperties    `envPrefix:"PAYMENT_"`
		Credits CreditProperties
	}

	AuthProperties struct {
		Host                   string        `env:"HOST" envDefault:"https://accounts.example.com"`
		ID                     string        `env:"ID"`
		Secret                 string        `env:"SECRET"`
		Redirect               string        `env:"REDIRECT_URL" envDefault:"http://localhost:8088/callback"`
		AccessTokenCookieName  string        `env:"ACCESS_COOKIE" envDefault:"im_access_token"`
		RefreshTokenCookieName string        `env:"REFRESH_COOKIE" envDefault:"im_refresh_token"`
		IDTokenCookieName      string        `env:"ID_COOKIE" envDefault:"im_id_token"`
		ReadTimeout            time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	}

	HttpServerProperties struct {
		Name         string        `env:"NAME" envDefault:"localhost"`
		Port         string        `env:"PORT" envDefault:"8088"`
		PublicURL    string        `env:"PUBLIC_URL" envDefault:"http://localhost:3000"`
		AllowOrigins []string      `env:"ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
		Pprof        bool          `env:"PPROF" envDefault:"false"`
		Release      bool          `env:"RELEASE" envDefault:"false"`
	}

	MongoProperties struct {
		URL            string        `env:"URL" envDefault:"mongodb://localhost:27017"`
		Database       string        `env:"DATABASE" envDefault:"imaginify"`
		ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
	}

	S3Properties struct {
		Host      string `env:"HOST" envDefault:"localhost:9000"`
		AccessKey string `env:"ACCESS_KEY"`
		SecretKey string `env:"SECRET_KEY"`
		Bucket    string `env:"BUCKET" envDefault:"imaginify"`
		UseSSL    bool   `env:"USE_SSL" envDefault:"true"`
	}

	CDNProperties struct {
		CloudName    string        `env:"CLOUD_NAME"`
		APIKey       string        `env:"API_KEY"`
		APISecret    string        `env:"API_SECRET"`
		Folder       string        `env:"FOLDER" envDefault:"imaginify"`
		APIHost      string        `env:"API_HOST" envDefault:"https://api.cloudinary.com"`
		Timeout      time.Duration `env:"TIMEOUT" envDefault:"10s"`
		CacheSize    int           `env:"CACHE_SIZE" envDefault:"512"`
		CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	}

	PaymentProperties struct {
		SecretKey     string `env:"SECRET_KEY"`
		WebhookSecret string `env:"WEBHOOK_SECRET"`
		Currency      string `env:"CURRENCY" envDefault:"usd"`
	}

	CreditProperties struct {
		Fee            int `env:"CREDIT_FEE" envDefault:"1"`
		DefaultBalance int `env:"DEFAULT_CREDITS" envDefault:"10"`
		PageSize       int `env:"PAGE_SIZE" envDefault:"9"`
	}
)

// ReadProperties loads an optional .env file and parses the environment.
// It panics on malformed values.
func ReadProperties() *Properties {
	_ = godotenv.Load()

	config := &Properties{}
	if err := env.Parse(config); err != nil {
		panic(fmt.Errorf("read config error: %w", err))
	}
	return config
}
