package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		RollbarToken     string
		defaultFromEmail string

		Server       ServerConfig
		Database     DatabaseConfig
		Identity     IdentityConfig
		Redis        RedisConfig
		Email        EmailConfig
		Provisioning ProvisioningConfig
	}

	ServerConfig struct {
		Host                       string
		DebugHost                  string
		JWTExpirationDelta         time.Duration
		ShutdownTimeout            time.Duration
		PasswordChangeTimeoutDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	IdentityConfig struct {
		// DatabaseURL is the pgx connection string of the identity store.
		// The in-memory store is used when empty.
		DatabaseURL string
		SessionTTL  time.Duration
	}

	RedisConfig struct {
		Addr             string
		Password         string
		DB               int
		DeliveredFlagTTL time.Duration
	}

	EmailConfig struct {
		Provider       string // console | sendgrid
		SendgridAPIKey string
		MaxRetries     uint64
		RetryBase      time.Duration
	}

	ProvisioningConfig struct {
		DebounceDelay time.Duration
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

// NewConfig loads the configuration of the current ENV (DEV by default) from the environment,
// after loading config/.env.<env> when it exists.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "EduAI")
	v.SetDefault("secretKey", "dz&uoxh2(h!x)#*c2-poq5-wer)enb$+57=(#yg4h^$cegm2emy")
	v.SetDefault("defaultFromEmail", "EduAI <noreply@localhost>")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("serverHost", ":8000")
	v.SetDefault("serverDebugHost", ":4000")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("shutdownTimeout", 5*time.Second)
	v.SetDefault("passwordChangeTimeoutDelta", 24*time.Hour)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "eduai")
	v.SetDefault("dbUser", "eduai")
	v.SetDefault("dbPassword", "eduai")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbDisableTLS", env == "DEV" || env == "TEST")

	v.SetDefault("identityDatabaseURL", "")
	v.SetDefault("identitySessionTTL", 7*24*time.Hour)

	v.SetDefault("redisAddr", "")
	v.SetDefault("redisPassword", "")
	v.SetDefault("redisDB", 0)
	v.SetDefault("deliveredFlagTTL", 12*time.Hour)

	v.SetDefault("emailProvider", "console")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("emailMaxRetries", uint64(3))
	v.SetDefault("emailRetryBase", 200*time.Millisecond)

	v.SetDefault("debounceDelay", time.Second)

	v.SetEnvPrefix(env)
	loadDotEnv(env)
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		RollbarToken:     v.GetString("rollbarToken"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:                       v.GetString("serverHost"),
			DebugHost:                  v.GetString("serverDebugHost"),
			JWTExpirationDelta:         v.GetDuration("jwtExpirationDelta"),
			ShutdownTimeout:            v.GetDuration("shutdownTimeout"),
			PasswordChangeTimeoutDelta: v.GetDuration("passwordChangeTimeoutDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		Identity: IdentityConfig{
			DatabaseURL: v.GetString("identityDatabaseURL"),
			SessionTTL:  v.GetDuration("identitySessionTTL"),
		},
		Redis: RedisConfig{
			Addr:             v.GetString("redisAddr"),
			Password:         v.GetString("redisPassword"),
			DB:               v.GetInt("redisDB"),
			DeliveredFlagTTL: v.GetDuration("deliveredFlagTTL"),
		},
		Email: EmailConfig{
			Provider:       strings.ToLower(v.GetString("emailProvider")),
			SendgridAPIKey: v.GetString("sendgridApiKey"),
			MaxRetries:     v.GetUint64("emailMaxRetries"),
			RetryBase:      v.GetDuration("emailRetryBase"),
		},
		Provisioning: ProvisioningConfig{
			DebounceDelay: v.GetDuration("debounceDelay"),
		},
	}
}

// NewTestConfig returns the TEST configuration without reading the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:              "TEST",
		Build:            "test",
		Debug:            true,
		TestMode:         true,
		AppName:          "EduAI",
		SecretKey:        "secret",
		FrontendBaseURL:  "http://localhost:5173",
		defaultFromEmail: "EduAI <noreply@eduai.test>",
		Server: ServerConfig{
			JWTExpirationDelta:         time.Hour,
			ShutdownTimeout:            time.Second,
			PasswordChangeTimeoutDelta: time.Hour,
		},
		Identity: IdentityConfig{SessionTTL: time.Hour},
		Redis:    RedisConfig{DeliveredFlagTTL: time.Hour},
		Email:    EmailConfig{Provider: "console", MaxRetries: 1, RetryBase: time.Millisecond},
		Provisioning: ProvisioningConfig{
			DebounceDelay: 20 * time.Millisecond,
		},
	}
}

// load .env if it exists (ignore if it does not)
func loadDotEnv(env string) {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
}
