package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read when the matching flag is not set.
const (
	EnvAPIURL  = "TRACK_API_URL"
	EnvDataDir = "TRACK_DATA_DIR"
)

const DefaultLogfile = "track_submission.log"

// Config holds the settings shared by all commands. Flags override the
// config file, and the environment fills in what neither sets.
type Config struct {
	APIURL      string        `yaml:"api_url"`
	DataDir     string        `yaml:"data_dir"`
	TemplateDir string        `yaml:"template_dir"`
	Extensions  []string      `yaml:"extensions"`
	Timeout     time.Duration `yaml:"timeout"`
	Metadata    struct {
		DSN             string   `yaml:"dsn"`
		View            string   `yaml:"view"`
		GenePrefixes    []string `yaml:"gene_prefixes"`
		VariantPrefixes []string `yaml:"variant_prefixes"`
	} `yaml:"metadata"`
}

// LoadConfig reads a YAML config file. An empty path gives the zero config.
func LoadConfig(file string) (*Config, error) {
	c := &Config{}
	if file == "" {
		return c, nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}
	return c, nil
}

// applyEnv fills empty fields from the environment.
func (c *Config) applyEnv() {
	if c.APIURL == "" {
		c.APIURL = os.Getenv(EnvAPIURL)
	}
	if c.DataDir == "" {
		c.DataDir = os.Getenv(EnvDataDir)
	}
}

// ServerURL returns the API url with a scheme and without trailing slashes.
func (c *Config) ServerURL() (string, error) {
	if c.APIURL == "" {
		return "", errors.New("track API url is required: set --api-url or " + EnvAPIURL)
	}
	return MorphServer(c.APIURL), nil
}

// MorphServer adds http:// when no scheme is given and drops trailing slashes.
func MorphServer(server string) string {
	if server == "" {
		return server
	}
	server = strings.TrimRight(server, "/")
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "http://" + server
	}
	return server
}
