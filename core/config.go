package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address                string
		DebugAddress           string // pprof & expvar; disabled when empty
		ShutdownTimeout        time.Duration
		SessionExpirationDelta time.Duration
		SessionCookie          string
		DisableCSRF            bool
	}

	StoreConfig struct {
		Driver          string // sheets (default), postgres, memory
		SpreadsheetID   string
		CredentialsFile string
		CredentialsJSON string
		DatabaseURL     string
		SeedFile        string
		Timeout         time.Duration
	}

	Config struct {
		Env          string
		Debug        bool
		TestMode     bool
		AppName      string
		Build        string
		SecretKey    string
		RollbarToken string
		Server       ServerConfig
		Store        StoreConfig
	}
)

// NewConfig reads the application configuration.
// Values come from (by priority) the environment, config/.env.<env> and the defaults below.
// Env vars are prefixed with the uppercased environment name, e.g. DEV_STORE_DRIVER.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Tutor")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "x7!kq2-tutor-dev-secret-0d9f3c(a1)")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", "")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.sessionExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.sessionCookie", "tutor_session")
	v.SetDefault("server.disableCSRF", false)
	v.SetDefault("store.driver", "sheets")
	v.SetDefault("store.spreadsheetID", "")
	v.SetDefault("store.credentialsFile", "service_account.json")
	v.SetDefault("store.credentialsJSON", "")
	v.SetDefault("store.databaseURL", "")
	v.SetDefault("store.seedFile", "")
	v.SetDefault("store.timeout", 15*time.Second)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		Build:        v.GetString("build"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:                v.GetString("server.address"),
			DebugAddress:           v.GetString("server.debugAddress"),
			ShutdownTimeout:        v.GetDuration("server.shutdownTimeout"),
			SessionExpirationDelta: v.GetDuration("server.sessionExpirationDelta"),
			SessionCookie:          v.GetString("server.sessionCookie"),
			DisableCSRF:            v.GetBool("server.disableCSRF"),
		},
		Store: StoreConfig{
			Driver:          strings.ToLower(v.GetString("store.driver")),
			SpreadsheetID:   v.GetString("store.spreadsheetID"),
			CredentialsFile: v.GetString("store.credentialsFile"),
			CredentialsJSON: v.GetString("store.credentialsJSON"),
			DatabaseURL:     v.GetString("store.databaseURL"),
			SeedFile:        v.GetString("store.seedFile"),
			Timeout:         v.GetDuration("store.timeout"),
		},
	}
}
