package sqldb

import (
	"fmt"
	"strconv"
	"strings"
)

// Driver is a database/sql driver name.
type Driver string

const (
	DriverSQLite   Driver = "sqlite3"
	DriverPostgres Driver = "pgx"
	DriverMySQL    Driver = "mysql"
)

// Drivers lists the supported drivers.
var Drivers = []Driver{DriverSQLite, DriverPostgres, DriverMySQL}

// ParseDriver accepts the driver names and their common aliases.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DriverPostgres, nil
	case "mysql", "mariadb":
		return DriverMySQL, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", s)
}

// Validate reports whether d is a supported driver.
func (d Driver) Validate() error {
	for _, known := range Drivers {
		if d == known {
			return nil
		}
	}
	return fmt.Errorf("unsupported database driver %q", string(d))
}

// Rebind rewrites ? placeholders into the driver's bind syntax.
// Queries must not contain literal question marks.
func (d Driver) Rebind(query string) string {
	if d != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
