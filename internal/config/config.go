// Package config loads the configuration of the backend.
//
// Values are read from the defaults, an optional TOML file, an optional
// .env file and the environment, later sources overriding earlier ones.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/nestegg-finance/backend/internal/models"
)

// DriverFirestore selects the Firestore document store.
const DriverFirestore = "firestore"

var (
	ErrUnknownDriver    = errors.New("unknown database driver")
	ErrDSNMissing       = errors.New("the database DSN must be set")
	ErrProjectMissing   = errors.New("the Firestore project must be set")
	ErrIntervalNegative = errors.New("the allocation interval must not be negative")
	ErrInvalidAPIURL    = errors.New("the API URL must be an absolute URL")
	ErrInvalidMode      = errors.New("the gin mode must be one of debug, release or test")
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Firestore FirestoreConfig `toml:"firestore"`
	Engine    EngineConfig    `toml:"engine"`
	Log       LogConfig       `toml:"log"`
}

type ServerConfig struct {
	Mode             string   `toml:"gin_mode"`           // gin mode, "release" or "debug"
	APIURL           string   `toml:"api_url"`            // External URL of the API, used for links
	Port             string   `toml:"port"`               // Port to listen on
	CORSAllowOrigins []string `toml:"cors_allow_origins"` // Origins allowed to make CORS requests. CORS is disabled if empty
	EnablePprof      bool     `toml:"enable_pprof"`       // Serve pprof profiles at /debug/pprof
}

type DatabaseConfig struct {
	Driver string `toml:"driver"` // sqlite, mysql or firestore
	DSN    string `toml:"dsn"`    // Data source name for sqlite and mysql
}

type FirestoreConfig struct {
	Project     string `toml:"project"`     // Google Cloud project ID
	Credentials string `toml:"credentials"` // Path to a service account key. Application default credentials are used if empty
}

type EngineConfig struct {
	AllocationInterval Duration `toml:"allocation_interval"` // Interval of scheduled allocation runs, 0 disables them
	ProcessUsers       []string `toml:"process_users"`       // Users whose income is allocated on schedule
}

type LogConfig struct {
	Format string `toml:"format"` // "human" or "json". Defaults to human for debug and json for release mode
}

// Duration is a time.Duration that is written as a string, e.g. "15m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	d.Duration = duration
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Mode:   "release",
			APIURL: "http://localhost:8080",
			Port:   "8080",
		},
		Database: DatabaseConfig{
			Driver: models.DriverSQLite,
			DSN:    "data/nestegg.db",
		},
	}
}

// Load reads the configuration.
//
// If path is empty, the file named in NESTEGG_CONFIG is read, if set. The
// env files default to ".env" and are skipped if they do not exist.
// Variables already set in the environment are never overwritten by them.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("NESTEGG_CONFIG")
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("reading env file %s: %w", file, err)
		}
	}

	if err := cfg.fromEnv(); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (cfg *Config) fromEnv() error {
	lookup("GIN_MODE", &cfg.Server.Mode)
	lookup("API_URL", &cfg.Server.APIURL)
	lookup("PORT", &cfg.Server.Port)
	lookup("LOG_FORMAT", &cfg.Log.Format)
	lookup("DB_DRIVER", &cfg.Database.Driver)
	lookup("DB_DSN", &cfg.Database.DSN)
	lookup("FIRESTORE_PROJECT", &cfg.Firestore.Project)
	lookup("FIRESTORE_CREDENTIALS", &cfg.Firestore.Credentials)

	if origins, ok := os.LookupEnv("CORS_ALLOW_ORIGINS"); ok {
		cfg.Server.CORSAllowOrigins = strings.Fields(origins)
	}

	if pprof, ok := os.LookupEnv("ENABLE_PPROF"); ok {
		cfg.Server.EnablePprof = pprof == "true"
	}

	if users, ok := os.LookupEnv("PROCESS_USERS"); ok {
		cfg.Engine.ProcessUsers = strings.Fields(users)
	}

	if interval, ok := os.LookupEnv("ALLOCATION_INTERVAL"); ok {
		if err := cfg.Engine.AllocationInterval.UnmarshalText([]byte(interval)); err != nil {
			return fmt.Errorf("parsing ALLOCATION_INTERVAL: %w", err)
		}
	}

	return nil
}

func lookup(key string, target *string) {
	if value, ok := os.LookupEnv(key); ok {
		*target = value
	}
}

// Validate checks that the configuration can be used to start the backend.
func (cfg Config) Validate() error {
	switch cfg.Database.Driver {
	case models.DriverSQLite, models.DriverMySQL:
		if cfg.Database.DSN == "" {
			return ErrDSNMissing
		}
	case DriverFirestore:
		if cfg.Firestore.Project == "" {
			return ErrProjectMissing
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Database.Driver)
	}

	switch cfg.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, cfg.Server.Mode)
	}

	if cfg.Engine.AllocationInterval.Duration < 0 {
		return ErrIntervalNegative
	}

	u, err := url.Parse(cfg.Server.APIURL)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("%w: %q", ErrInvalidAPIURL, cfg.Server.APIURL)
	}

	return nil
}

// URL returns the parsed API URL. It must only be called on a valid
// configuration.
func (cfg Config) URL() *url.URL {
	u, _ := url.Parse(cfg.Server.APIURL)
	return u
}

// Export sets the environment variables read by the router for all router
// settings that are not set in the environment yet.
func (cfg Config) Export() {
	if _, ok := os.LookupEnv("CORS_ALLOW_ORIGINS"); !ok && len(cfg.Server.CORSAllowOrigins) > 0 {
		os.Setenv("CORS_ALLOW_ORIGINS", strings.Join(cfg.Server.CORSAllowOrigins, " "))
	}

	if _, ok := os.LookupEnv("ENABLE_PPROF"); !ok && cfg.Server.EnablePprof {
		os.Setenv("ENABLE_PPROF", "true")
	}
}
