// Package config loads process settings from the environment, an optional
// .env file and an optional YAML file. Environment variables win over the file.
package config

import (
	"io/fs"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// AppConfig configures the web application API (serve).
type AppConfig struct {
	Port               string
	AppURL             string
	BackendURL         string
	GatewayURL         string
	HTTPTimeout        time.Duration
	ServiceTokenSecret string
}

// BackendConfig configures the payment status store (statusd).
type BackendConfig struct {
	Port                    string
	AppURL                  string
	HTTPTimeout             time.Duration
	ServiceTokenSecret      string
	StoreDriver             string
	MongoURI                string
	MongoDB                 string
	SQLitePath              string
	SSLCommerzStoreID       string
	SSLCommerzStorePassword string
	SSLCommerzBaseURL       string
	ValidatePayments        bool
	Currency                string
}

func LoadApp(configFile string) (*AppConfig, error) {
	v, err := load(configFile)
	if err != nil {
		return nil, err
	}
	v.SetDefault("PORT", "8080")
	v.SetDefault("GATEWAY_URL", "https://sandbox.sslcommerz.com")

	cfg := &AppConfig{
		Port:               v.GetString("PORT"),
		AppURL:             strings.TrimRight(v.GetString("APP_URL"), "/"),
		BackendURL:         strings.TrimRight(v.GetString("BACKEND_URL"), "/"),
		GatewayURL:         v.GetString("GATEWAY_URL"),
		HTTPTimeout:        v.GetDuration("HTTP_TIMEOUT"),
		ServiceTokenSecret: v.GetString("SERVICE_TOKEN_SECRET"),
	}
	if err := requireURL("APP_URL", cfg.AppURL); err != nil {
		return nil, err
	}
	if err := requireURL("BACKEND_URL", cfg.BackendURL); err != nil {
		return nil, err
	}
	if err := requireURL("GATEWAY_URL", cfg.GatewayURL); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, errors.New("HTTP_TIMEOUT must be a positive duration")
	}
	return cfg, nil
}

func LoadBackend(configFile string) (*BackendConfig, error) {
	v, err := load(configFile)
	if err != nil {
		return nil, err
	}
	v.SetDefault("PORT", "5000")
	v.SetDefault("STORE_DRIVER", DriverMongo)
	v.SetDefault("MONGO_DB", "ieltspro")
	v.SetDefault("SQLITE_PATH", "ieltspro.db")
	v.SetDefault("SSLCOMMERZ_BASE_URL", "https://sandbox.sslcommerz.com")
	v.SetDefault("SSLCOMMERZ_VALIDATE", true)
	v.SetDefault("CURRENCY", "BDT")

	cfg := &BackendConfig{
		Port:                    v.GetString("PORT"),
		AppURL:                  strings.TrimRight(v.GetString("APP_URL"), "/"),
		HTTPTimeout:             v.GetDuration("HTTP_TIMEOUT"),
		ServiceTokenSecret:      v.GetString("SERVICE_TOKEN_SECRET"),
		StoreDriver:             strings.ToLower(v.GetString("STORE_DRIVER")),
		MongoURI:                v.GetString("MONGOURI"),
		MongoDB:                 v.GetString("MONGO_DB"),
		SQLitePath:              v.GetString("SQLITE_PATH"),
		SSLCommerzStoreID:       v.GetString("SSLCOMMERZ_STORE_ID"),
		SSLCommerzStorePassword: v.GetString("SSLCOMMERZ_STORE_PASSWORD"),
		SSLCommerzBaseURL:       v.GetString("SSLCOMMERZ_BASE_URL"),
		ValidatePayments:        v.GetBool("SSLCOMMERZ_VALIDATE"),
		Currency:                strings.ToUpper(v.GetString("CURRENCY")),
	}
	if err := requireURL("APP_URL", cfg.AppURL); err != nil {
		return nil, err
	}
	if err := requireURL("SSLCOMMERZ_BASE_URL", cfg.SSLCommerzBaseURL); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, errors.New("HTTP_TIMEOUT must be a positive duration")
	}
	switch cfg.StoreDriver {
	case DriverMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New("MONGOURI environment variable not set")
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLITE_PATH must not be empty")
		}
	default:
		return nil, errors.Errorf("unknown STORE_DRIVER %q (want mongo or sqlite)", cfg.StoreDriver)
	}
	if cfg.SSLCommerzStoreID == "" || cfg.SSLCommerzStorePassword == "" {
		return nil, errors.New("SSLCOMMERZ_STORE_ID and SSLCOMMERZ_STORE_PASSWORD are required")
	}
	return cfg, nil
}

func load(configFile string) (*viper.Viper, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: Error loading .env: %s", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("HTTP_TIMEOUT", "10s")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", configFile)
		}
	}
	return v, nil
}

func requireURL(key, value string) error {
	if value == "" {
		return errors.Errorf("%s environment variable not set", key)
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("%s must be an absolute URL, got %q", key, value)
	}
	return nil
}
