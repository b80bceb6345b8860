package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Session       SessionConfig
	JWT           JWTConfig
	AuthRateLimit AuthRateLimitConfig
	Password      PasswordConfig
	Store         StoreConfig
	FeatureFlags  FeatureFlagsConfig
	Stripe        StripeConfig
	PayPal        PayPalConfig
	Przelewy24    Przelewy24Config
	SMTP          SMTPConfig
	Webhooks      WebhookConfig
	BankTransfer  BankTransferConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MOVAKID_APP_ENV" required:"true"`
	Port         string `envconfig:"MOVAKID_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"MOVAKID_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"MOVAKID_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MOVAKID_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MOVAKID_DB_DSN"`
	Driver string `envconfig:"MOVAKID_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MOVAKID_DB_HOST"`
	LegacyPort     int    `envconfig:"MOVAKID_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MOVAKID_DB_USER"`
	LegacyPassword string `envconfig:"MOVAKID_DB_PASSWORD"`
	LegacyName     string `envconfig:"MOVAKID_DB_NAME"`
	LegacySSLMode  string `envconfig:"MOVAKID_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MOVAKID_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MOVAKID_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MOVAKID_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MOVAKID_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MOVAKID_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MOVAKID_REDIS_ADDR"`
	Password     string        `envconfig:"MOVAKID_REDIS_PASSWORD"`
	DB           int           `envconfig:"MOVAKID_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MOVAKID_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MOVAKID_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MOVAKID_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MOVAKID_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MOVAKID_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SessionConfig struct {
	CookieName string        `envconfig:"MOVAKID_SESSION_COOKIE" default:"movakid_session"`
	TTL        time.Duration `envconfig:"MOVAKID_SESSION_TTL" default:"72h"`
	Secure     bool          `envconfig:"MOVAKID_SESSION_SECURE" default:"true"`
}

// AuthRateLimitConfig throttles admin login attempts per client IP and
// per target email.
type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"MOVAKID_LOGIN_RATE_WINDOW" default:"15m"`
	LoginIPLimit    int           `envconfig:"MOVAKID_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"MOVAKID_LOGIN_RATE_EMAIL_LIMIT" default:"5"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MOVAKID_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MOVAKID_JWT_ISSUER" default:"movakid"`
	ExpirationMinutes int    `envconfig:"MOVAKID_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MOVAKID_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MOVAKID_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MOVAKID_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MOVAKID_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MOVAKID_ARGON_KEY_LEN" default:"32"`
}

// StoreConfig carries the storefront pricing rules.
type StoreConfig struct {
	Currency              string          `envconfig:"MOVAKID_CURRENCY" default:"EUR"`
	VATRate               decimal.Decimal `envconfig:"MOVAKID_VAT_RATE" default:"0.23"`
	ShippingCost          decimal.Decimal `envconfig:"MOVAKID_SHIPPING_COST" default:"9.99"`
	FreeShippingThreshold decimal.Decimal `envconfig:"MOVAKID_FREE_SHIPPING_THRESHOLD" default:"100"`
	OrderNumberPrefix     string          `envconfig:"MOVAKID_ORDER_NUMBER_PREFIX" default:"MK"`
	SphereLimit           int             `envconfig:"MOVAKID_SPHERE_LIMIT" default:"100"`
	DualsphereLimit       int             `envconfig:"MOVAKID_DUALSPHERE_LIMIT" default:"50"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MOVAKID_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"MOVAKID_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"MOVAKID_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"MOVAKID_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PayPalConfig struct {
	ClientID   string        `envconfig:"MOVAKID_PAYPAL_CLIENT_ID"`
	Secret     string        `envconfig:"MOVAKID_PAYPAL_SECRET"`
	BaseAPIURL string        `envconfig:"MOVAKID_PAYPAL_BASE_API_URL" default:"https://api-m.sandbox.paypal.com"`
	WebhookID  string        `envconfig:"MOVAKID_PAYPAL_WEBHOOK_ID"`
	Timeout    time.Duration `envconfig:"MOVAKID_PAYPAL_TIMEOUT" default:"30s"`
}

type Przelewy24Config struct {
	MerchantID int           `envconfig:"MOVAKID_P24_MERCHANT_ID"`
	PosID      int           `envconfig:"MOVAKID_P24_POS_ID"`
	CRCKey     string        `envconfig:"MOVAKID_P24_CRC_KEY"`
	APIKey     string        `envconfig:"MOVAKID_P24_API_KEY"`
	BaseURL    string        `envconfig:"MOVAKID_P24_BASE_URL" default:"https://sandbox.przelewy24.pl"`
	Timeout    time.Duration `envconfig:"MOVAKID_P24_TIMEOUT" default:"30s"`
}

type SMTPConfig struct {
	Host     string        `envconfig:"MOVAKID_SMTP_HOST"`
	Port     int           `envconfig:"MOVAKID_SMTP_PORT" default:"587"`
	User     string        `envconfig:"MOVAKID_SMTP_USER"`
	Password string        `envconfig:"MOVAKID_SMTP_PASS"`
	From     string        `envconfig:"MOVAKID_MAIL_FROM" default:"kontakt@movakid.com"`
	FromName string        `envconfig:"MOVAKID_MAIL_FROM_NAME" default:"MovaKid"`
	Timeout  time.Duration `envconfig:"MOVAKID_SMTP_TIMEOUT" default:"10s"`
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"MOVAKID_WEBHOOK_IDEMPOTENCY_TTL" default:"168h"`
}

// BankTransferConfig holds the account details shown to shoppers who
// pick a manual transfer.
type BankTransferConfig struct {
	AccountHolder string `envconfig:"MOVAKID_BANK_ACCOUNT_HOLDER" default:"MovaKid Sp. z o.o."`
	IBAN          string `envconfig:"MOVAKID_BANK_IBAN"`
	BIC           string `envconfig:"MOVAKID_BANK_BIC"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
