package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"warbler/database"
)

type Config struct {
	Port        int            `json:"port"`
	Env         string         `json:"env"`
	Pepper      string         `json:"pepper"`
	SessionKey  string         `json:"session_key"`
	CSRFKey     string         `json:"csrf_key"`
	CSRFEnabled bool           `json:"csrf_enabled"`
	ImagesDir   string         `json:"images_dir"`
	StaticDir   string         `json:"static_dir"`
	Database    DatabaseConfig `json:"database"`
}

// IsProd reports whether the app runs in production.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}

type DatabaseConfig struct {
	// Dialect is either "postgres" or "sqlite".
	Dialect  string `json:"dialect"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
	// Path is the database file used with the sqlite dialect.
	Path string `json:"path"`
}

func (dc DatabaseConfig) ConnectionInfo() string {
	if dc.Dialect == database.DialectSqlite {
		return dc.Path
	}
	if dc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable", dc.Host, dc.Port, dc.User, dc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", dc.Host, dc.Port, dc.User, dc.Password, dc.Name)
}

func DefaultConfig() Config {
	return Config{
		Port:        5000,
		Env:         "dev",
		Pepper:      "secret-random-string",
		SessionKey:  "dev-session-key-of-32-bytes-long",
		CSRFKey:     "dev-csrf-key-that-is-32-bytes-ok",
		CSRFEnabled: true,
		ImagesDir:   "images",
		StaticDir:   "static",
		Database:    DefaultDatabaseConfig(),
	}
}

func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Dialect:  database.DialectPostgres,
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "",
		Name:     "warbler",
	}
}

// LoadConfig reads the config file at path. Without the file, the default
// development config is used, unless configRequired is set.
func LoadConfig(path string, configRequired bool) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if configRequired {
			return Config{}, fmt.Errorf("a %s file must be provided in production: %w", path, err)
		}
		logrus.WithField("path", path).Info("no config file found, using the default dev config")
		return DefaultConfig(), nil
	}
	defer f.Close()
	c := DefaultConfig()
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		return Config{}, fmt.Errorf("err decoding %s: %w", path, err)
	}
	logrus.WithField("path", path).Info("successfully loaded config")
	return c, nil
}
