package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Redis configuration (OTP store)
	Redis RedisConfig `mapstructure:"redis"`

	// JWT configuration
	JWT JWTConfig `mapstructure:"jwt"`

	// OTP delivery configuration
	OTP OTPConfig `mapstructure:"otp"`

	// Meeting link configuration
	Meeting MeetingConfig `mapstructure:"meeting"`

	// Emergency dispatch configuration
	Emergency EmergencyConfig `mapstructure:"emergency"`

	// AI text generation configuration
	AI AIConfig `mapstructure:"ai"`

	// Background sweeper configuration
	Sweeper SweeperConfig `mapstructure:"sweeper"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	TTLHours  int    `mapstructure:"ttl_hours"`
	Issuer    string `mapstructure:"issuer"`
}

// OTPConfig holds OTP issue and delivery configuration. Provider is "mock"
// (log the code) or "twilio".
type OTPConfig struct {
	Provider         string `mapstructure:"provider"`
	TTLMinutes       int    `mapstructure:"ttl_minutes"`
	MaxAttempts      int    `mapstructure:"max_attempts"`
	ResendSeconds    int    `mapstructure:"resend_seconds"`
	TwilioAccountSID string `mapstructure:"twilio_account_sid"`
	TwilioAuthToken  string `mapstructure:"twilio_auth_token"`
	TwilioFromNumber string `mapstructure:"twilio_from_number"`
}

// MeetingConfig holds video session link configuration. BaseURL has the
// meeting identifier templated onto it.
type MeetingConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	JitsiBaseURL string `mapstructure:"jitsi_base_url"`
}

// EmergencyConfig holds emergency dispatch configuration.
type EmergencyConfig struct {
	MedicalNumber      string `mapstructure:"medical_number"`
	PoliceNumber       string `mapstructure:"police_number"`
	FireNumber         string `mapstructure:"fire_number"`
	CallTimeoutSeconds int    `mapstructure:"call_timeout_seconds"`
}

// AIConfig holds AI text generation configuration.
type AIConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxRetries     int `mapstructure:"max_retries"`
}

// SweeperConfig holds background sweep configuration.
type SweeperConfig struct {
	IntervalMinutes    int `mapstructure:"interval_minutes"`
	NoShowGraceMinutes int `mapstructure:"no_show_grace_minutes"`
	SOSMaxActiveHours  int `mapstructure:"sos_max_active_hours"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/maruthuvan")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideWithEnv(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "maruthuvan")
	viper.SetDefault("database.user", "maruthuvan")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)

	// JWT defaults
	viper.SetDefault("jwt.ttl_hours", 168) // 7 days
	viper.SetDefault("jwt.issuer", "maruthuvan")

	// OTP defaults
	viper.SetDefault("otp.provider", "mock")
	viper.SetDefault("otp.ttl_minutes", 5)
	viper.SetDefault("otp.max_attempts", 3)
	viper.SetDefault("otp.resend_seconds", 60)

	// Meeting defaults
	viper.SetDefault("meeting.base_url", "http://localhost:3000/consult/session?meetingId=")
	viper.SetDefault("meeting.jitsi_base_url", "https://meet.jit.si/")

	// Emergency defaults (Indian national numbers)
	viper.SetDefault("emergency.medical_number", "108")
	viper.SetDefault("emergency.police_number", "100")
	viper.SetDefault("emergency.fire_number", "101")
	viper.SetDefault("emergency.call_timeout_seconds", 10)

	// AI defaults
	viper.SetDefault("ai.timeout_seconds", 15)
	viper.SetDefault("ai.max_retries", 1)

	// Sweeper defaults
	viper.SetDefault("sweeper.interval_minutes", 15)
	viper.SetDefault("sweeper.no_show_grace_minutes", 60)
	viper.SetDefault("sweeper.sos_max_active_hours", 24)

	// Logging defaults
	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		config.JWT.SecretKey = jwtSecret
	}

	if sid := os.Getenv("TWILIO_ACCOUNT_SID"); sid != "" {
		config.OTP.TwilioAccountSID = sid
	}

	if token := os.Getenv("TWILIO_AUTH_TOKEN"); token != "" {
		config.OTP.TwilioAuthToken = token
	}

	if from := os.Getenv("TWILIO_PHONE_NUMBER"); from != "" {
		config.OTP.TwilioFromNumber = from
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.JWT.SecretKey == "" {
		return fmt.Errorf("JWT secret key is required")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.OTP.Provider == "twilio" {
		if config.OTP.TwilioAccountSID == "" || config.OTP.TwilioAuthToken == "" {
			return fmt.Errorf("twilio credentials are required when otp.provider is twilio")
		}
	}

	return nil
}
