package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string         `yaml:"env"`
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Payment  PaymentConfig  `yaml:"payment"`
	Maps     MapsConfig     `yaml:"maps"`
	Auth     AuthConfig     `yaml:"auth"`
	Email    EmailConfig    `yaml:"email"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	SwaggerDir     string   `yaml:"swagger_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

const defaultSubmitRetries = 1

type BookingConfig struct {
	DraftTTLMinutes        int    `yaml:"draft_ttl_minutes"`
	SubmitLockSeconds      int    `yaml:"submit_lock_seconds"`
	ConfirmationTTLMinutes int    `yaml:"confirmation_ttl_minutes"`
	MaxSubmitRetries       *int   `yaml:"max_submit_retries"`
	DraftStore             string `yaml:"draft_store"`
}

func (b BookingConfig) DraftTTL() time.Duration {
	return time.Duration(b.DraftTTLMinutes) * time.Minute
}

func (b BookingConfig) SubmitLockTTL() time.Duration {
	return time.Duration(b.SubmitLockSeconds) * time.Second
}

func (b BookingConfig) ConfirmationTTL() time.Duration {
	return time.Duration(b.ConfirmationTTLMinutes) * time.Minute
}

// SubmitRetries is the number of manual retries a failed submission gets.
// An explicit 0 disables retries; an absent value means one.
func (b BookingConfig) SubmitRetries() int {
	if b.MaxSubmitRetries == nil {
		return defaultSubmitRetries
	}
	return *b.MaxSubmitRetries
}

type PricingConfig struct {
	FareTablePath string `yaml:"fare_table_path"`
}

type PaymentConfig struct {
	BaseURL                 string `yaml:"base_url"`
	EntityID                string `yaml:"entity_id"`
	AccessToken             string `yaml:"access_token"`
	PaymentType             string `yaml:"payment_type"`
	TimeoutSeconds          int    `yaml:"timeout_seconds"`
	OutcomeRetentionMinutes int    `yaml:"outcome_retention_minutes"`
	OutcomeCacheTTLMinutes  int    `yaml:"outcome_cache_ttl_minutes"`
}

func (p PaymentConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func (p PaymentConfig) OutcomeRetention() time.Duration {
	return time.Duration(p.OutcomeRetentionMinutes) * time.Minute
}

func (p PaymentConfig) OutcomeCacheTTL() time.Duration {
	return time.Duration(p.OutcomeCacheTTLMinutes) * time.Minute
}

type MapsConfig struct {
	APIKey   string `yaml:"api_key"`
	Region   string `yaml:"region"`
	Language string `yaml:"language"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type EmailConfig struct {
	From        string `yaml:"from"`
	CompanyName string `yaml:"company_name"`
}

type WorkerConfig struct {
	ExpirationSweepMinutes int `yaml:"expiration_sweep_minutes"`
}

// LoadConfig reads the YAML file at path and then applies overrides from
// the environment (and a .env file, if present) for secrets and addresses.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (JWT_SECRET) is required in production")
	}
	if c.Booking.MaxSubmitRetries != nil && *c.Booking.MaxSubmitRetries < 0 {
		return fmt.Errorf("booking.max_submit_retries must not be negative")
	}
	if c.Booking.DraftTTLMinutes < 0 {
		return fmt.Errorf("booking.draft_ttl_minutes must not be negative")
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.Env, "APP_ENV")
	setString(&c.HTTP.Address, "HTTP_ADDRESS")
	setString(&c.GRPC.Address, "GRPC_ADDRESS")
	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Payment.BaseURL, "PAYMENT_BASE_URL")
	setString(&c.Payment.EntityID, "PAYMENT_ENTITY_ID")
	setString(&c.Payment.AccessToken, "PAYMENT_ACCESS_TOKEN")
	setString(&c.Maps.APIKey, "GOOGLE_MAPS_API_KEY")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Booking.DraftTTLMinutes == 0 {
		c.Booking.DraftTTLMinutes = 120
	}
	if c.Booking.SubmitLockSeconds == 0 {
		c.Booking.SubmitLockSeconds = 30
	}
	if c.Booking.ConfirmationTTLMinutes == 0 {
		c.Booking.ConfirmationTTLMinutes = 60
	}
	if c.Payment.PaymentType == "" {
		c.Payment.PaymentType = "DB"
	}
	if c.Payment.TimeoutSeconds == 0 {
		c.Payment.TimeoutSeconds = 15
	}
	if c.Payment.OutcomeRetentionMinutes == 0 {
		c.Payment.OutcomeRetentionMinutes = 24 * 60
	}
	if c.Payment.OutcomeCacheTTLMinutes == 0 {
		c.Payment.OutcomeCacheTTLMinutes = 24 * 60
	}
	if c.Maps.Region == "" {
		c.Maps.Region = "jo"
	}
	if c.Maps.Language == "" {
		c.Maps.Language = "en"
	}
	if c.Worker.ExpirationSweepMinutes == 0 {
		c.Worker.ExpirationSweepMinutes = 5
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
