package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/BurntSushi/toml"
)

// Store types
const (
	StorePostgres = "postgresql"
	StoreMemory   = "memory"
)

type DBConfig struct {
	Type        string `toml:"type"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	User        string `toml:"user"`
	Password    string `toml:"password"`
	DBName      string `toml:"dbname"`
	SSLMode     string `toml:"sslmode"`
	AutoMigrate bool   `toml:"auto_migrate"`
}

// DSN returns the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type ConfigParam struct {
	ServerPort  string   `toml:"server_port"`
	HandleCORS  bool     `toml:"handle_cors"`
	CORSOrigins []string `toml:"cors_origins"`
	// Environment names the deployment. Writes are only accepted when it is
	// one of WriteEnvironments.
	Environment       string   `toml:"environment"`
	WriteEnvironments []string `toml:"write_environments"`
	DB                DBConfig `toml:"db"`
}

// WritesAllowed reports whether mutating requests are accepted in the
// configured environment.
func (c *ConfigParam) WritesAllowed() bool {
	return slices.Contains(c.WriteEnvironments, c.Environment)
}

var cfg *ConfigParam

func Config() *ConfigParam {
	return cfg
}

func defaultConfig() *ConfigParam {
	return &ConfigParam{
		ServerPort:        "8000",
		HandleCORS:        true,
		CORSOrigins:       []string{"*"},
		Environment:       "dev",
		WriteEnvironments: []string{"dev", "staging", "internal"},
		DB: DBConfig{
			Type:        StoreMemory,
			Host:        "localhost",
			Port:        5432,
			User:        "track_api",
			DBName:      "tracks",
			SSLMode:     "disable",
			AutoMigrate: true,
		},
	}
}

// LoadConfig reads the TOML file. Keys missing from the file keep their defaults.
func LoadConfig(filename string) error {
	cp := defaultConfig()
	if filename == "" {
		cfg = cp
		return nil
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}
	if _, err := toml.Decode(string(content), cp); err != nil {
		return fmt.Errorf("error parsing config file: %v", err)
	}
	switch cp.DB.Type {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unsupported db type: %q", cp.DB.Type)
	}
	cfg = cp
	return nil
}

func init() {
	err := LoadConfig("")
	if err != nil {
		panic(err)
	}
}
