/*
config.go - Runtime configuration

PURPOSE:
  Collects everything the report and the server need to run: database
  connection, output format, parallelism, logging and HTTP settings.

SOURCES (later wins):
  1. Defaults()
  2. Config file named by --config:
       *.json  the credentials file format {"host","user","database","password"}
               (plus optional "driver", "port", "dsn", "path")
       *.toml  full configuration with [database], [report], [log], [server]
  3. Environment: REPORT_DB_*, REPORT_*, LOG_*  (see env.go)
  4. Validate()

A missing config file is not an error; validation then decides whether the
environment supplied enough to connect.

EXAMPLE (payroll.toml):
  [database]
  driver = "pgx"
  host = "db.internal"
  user = "reports"
  password = "secret"
  database = "employees"

  [report]
  format = "json"
  parallelism = 4

SEE ALSO:
  - validate.go: validation rules
  - store/sqldb: drivers the DSN is built for
*/
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-sql-driver/mysql"

	"github.com/warp/payroll-report/logger"
	"github.com/warp/payroll-report/store/sqldb"
)

// DefaultFile is the config file read when --config is not given.
const DefaultFile = "db.json"

// Config is the full runtime configuration.
type Config struct {
	Database Database `toml:"database"`
	Report   Report   `toml:"report"`
	Log      Log      `toml:"log"`
	Server   Server   `toml:"server"`
}

// Database describes how to reach the employees database. DSN, when set,
// is used verbatim; otherwise one is built from the discrete fields.
type Database struct {
	Driver   string `json:"driver" toml:"driver" validate:"required,oneof=sqlite3 pgx mysql"`
	DSN      string `json:"dsn" toml:"dsn"`
	Host     string `json:"host" toml:"host" validate:"omitempty,hostname_rfc1123|ip"`
	Port     int    `json:"port" toml:"port" validate:"omitempty,min=1,max=65535"`
	User     string `json:"user" toml:"user"`
	Password string `json:"password" toml:"password"`
	Name     string `json:"database" toml:"database"`
	Path     string `json:"path" toml:"path"` // sqlite3 only
}

// Report controls the CLI output.
type Report struct {
	Format      string `toml:"format" validate:"oneof=text json"`
	Parallelism int    `toml:"parallelism" validate:"min=0,max=64"`
}

// Log mirrors logger.Options.
type Log struct {
	Level  string `toml:"level" validate:"oneof=trace debug info warn error fatal panic disabled off"`
	Format string `toml:"format" validate:"oneof=console json"`
}

// Server configures cmd/server.
type Server struct {
	Addr            string   `toml:"addr" validate:"required"`
	RefreshInterval Duration `toml:"refresh_interval"`
	AllowedOrigins  []string `toml:"allowed_origins"`
}

// Duration decodes "90s"-style strings from TOML and JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns the configuration used before any source is applied.
func Defaults() Config {
	return Config{
		Database: Database{Driver: string(sqldb.DriverMySQL)},
		Report:   Report{Format: "text"},
		Log:      Log{Level: "info", Format: "console"},
		Server: Server{
			Addr:            ":8080",
			RefreshInterval: Duration{5 * time.Minute},
			AllowedOrigins:  []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
	}
}

// Load builds a Config from defaults, the file at path (if it exists), and
// the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		err := cfg.readFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Named("config").Debug().Str("path", path).Msg("config file not found, using environment")
		case err != nil:
			return nil, err
		}
	}

	if err := cfg.applyEnv(newEnv("")); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) readFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, c); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	case ".json", "":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		// credentials file: a flat Database object
		if err := json.Unmarshal(data, &c.Database); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}
}

// =============================================================================
// DSN
// =============================================================================

// DriverName returns the parsed database driver.
func (d Database) DriverName() (sqldb.Driver, error) {
	return sqldb.ParseDriver(d.Driver)
}

// BuildDSN returns the data source name for the configured driver.
func (d Database) BuildDSN() (string, error) {
	if d.DSN != "" {
		return d.DSN, nil
	}

	driver, err := d.DriverName()
	if err != nil {
		return "", err
	}

	switch driver {
	case sqldb.DriverSQLite:
		return d.Path, nil

	case sqldb.DriverPostgres:
		u := url.URL{
			Scheme: "postgres",
			Host:   d.hostPort(5432),
			Path:   "/" + d.Name,
		}
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else if d.User != "" {
			u.User = url.User(d.User)
		}
		return u.String(), nil

	case sqldb.DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = d.User
		mc.Passwd = d.Password
		mc.Net = "tcp"
		mc.Addr = d.hostPort(3306)
		mc.DBName = d.Name
		mc.ParseTime = true
		mc.Loc = time.UTC
		return mc.FormatDSN(), nil
	}
	return "", fmt.Errorf("unsupported database driver %q", d.Driver)
}

func (d Database) hostPort(defaultPort int) string {
	port := d.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(d.Host, strconv.Itoa(port))
}

// Redacted returns a loggable description of the target database.
func (d Database) Redacted() string {
	if d.DSN != "" {
		return d.Driver + " (dsn)"
	}
	if d.Driver == string(sqldb.DriverSQLite) {
		return d.Driver + " " + d.Path
	}
	return fmt.Sprintf("%s %s@%s/%s", d.Driver, d.User, d.Host, d.Name)
}

// Open connects to the configured database. SQLite databases are created and
// migrated if needed; other databases must already hold the employees schema.
func (d Database) Open(ctx context.Context) (*sqldb.Store, error) {
	driver, err := d.DriverName()
	if err != nil {
		return nil, err
	}
	if driver == sqldb.DriverSQLite && d.DSN == "" {
		return sqldb.New(d.Path)
	}

	dsn, err := d.BuildDSN()
	if err != nil {
		return nil, err
	}
	return sqldb.Open(ctx, driver, dsn)
}
