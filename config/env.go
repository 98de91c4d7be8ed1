package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// env is a namespaced view over environment variables.
type env struct{ prefix string }

func newEnv(prefix string) env { return env{prefix: prefix} }

func (e env) key(k string) string { return e.prefix + k }

func (e env) lookup(k string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(e.key(k)))
	return v, v != ""
}

func (e env) string(k string, dst *string) {
	if v, ok := e.lookup(k); ok {
		*dst = v
	}
}

func (e env) int(k string, dst *int) error {
	v, ok := e.lookup(k)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: expected an integer", e.key(k), v)
	}
	*dst = n
	return nil
}

func (e env) duration(k string, dst *time.Duration) error {
	v, ok := e.lookup(k)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: expected a duration (e.g. 30s, 5m)", e.key(k), v)
	}
	*dst = d
	return nil
}

func (e env) list(k string, dst *[]string) {
	v, ok := e.lookup(k)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

// applyEnv overlays environment variables:
//
//	REPORT_DB_DRIVER REPORT_DB_DSN REPORT_DB_HOST REPORT_DB_PORT REPORT_DB_USER
//	REPORT_DB_PASSWORD REPORT_DB_NAME REPORT_DB_PATH
//	REPORT_FORMAT REPORT_PARALLELISM
//	REPORT_SERVER_ADDR REPORT_REFRESH_INTERVAL REPORT_ALLOWED_ORIGINS
//	LOG_LEVEL LOG_FORMAT
func (c *Config) applyEnv(root env) error {
	db := newEnv(root.prefix + "REPORT_DB_")
	db.string("DRIVER", &c.Database.Driver)
	db.string("DSN", &c.Database.DSN)
	db.string("HOST", &c.Database.Host)
	db.string("USER", &c.Database.User)
	db.string("PASSWORD", &c.Database.Password)
	db.string("NAME", &c.Database.Name)
	db.string("PATH", &c.Database.Path)
	if err := db.int("PORT", &c.Database.Port); err != nil {
		return err
	}

	report := newEnv(root.prefix + "REPORT_")
	report.string("FORMAT", &c.Report.Format)
	if err := report.int("PARALLELISM", &c.Report.Parallelism); err != nil {
		return err
	}
	report.string("SERVER_ADDR", &c.Server.Addr)
	report.list("ALLOWED_ORIGINS", &c.Server.AllowedOrigins)
	if err := report.duration("REFRESH_INTERVAL", &c.Server.RefreshInterval.Duration); err != nil {
		return err
	}

	log := newEnv(root.prefix + "LOG_")
	log.string("LEVEL", &c.Log.Level)
	log.string("FORMAT", &c.Log.Format)
	return nil
}
