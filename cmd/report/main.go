/*
main.go - Quarterly department salary cost report

PURPOSE:
  Reads the salary history from the employees database and prints, for every
  department, the salary cost of each calendar quarter with data.

OUTPUT:
  text (default):
    Generating data for 1985-10-01 to 1985-12-31...
    ...
    Department: Marketing
    	1985-10-01: 2345.6789
  json: the report document on stdout; progress lines move to stderr

COMMANDS:
  (none)    generate the report
  quarters  list the quarters the report would cover
  seed      create a SQLite database holding the demo dataset
            (--from a dataset JSON file, --export to print it instead)

EXAMPLES:
  # MySQL credentials from db.json
  payroll-report

  # Postgres via environment, JSON out, 4 quarters in flight
  REPORT_DB_DRIVER=pgx REPORT_DB_DSN=postgres://... payroll-report --format json --parallel 4

  # Local demo
  payroll-report seed --db demo.db
  REPORT_DB_DRIVER=sqlite REPORT_DB_PATH=demo.db payroll-report

EXIT STATUS:
  0 on success, 1 on any error (configuration, connection, query).

SEE ALSO:
  - config/config.go: configuration sources
  - payroll/report.go: report generation
*/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/warp/payroll-report/config"
	"github.com/warp/payroll-report/factory"
	"github.com/warp/payroll-report/logger"
	"github.com/warp/payroll-report/payroll"
	"github.com/warp/payroll-report/store/sqldb"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "payroll-report",
		Usage:     "Quarterly salary cost per department",
		Version:   fmt.Sprintf("%s (commit: %s)", version, commit),
		Writer:    stdout,
		ErrWriter: stderr,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultFile,
				Usage:   "Config file (.json credentials or .toml)",
				EnvVars: []string{"REPORT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, json)",
				EnvVars: []string{"REPORT_FORMAT"},
			},
			&cli.IntFlag{
				Name:    "parallel",
				Aliases: []string{"p"},
				Usage:   "Quarters aggregated concurrently (0 or 1 = sequential)",
				EnvVars: []string{"REPORT_PARALLELISM"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error, off)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},

		Action: reportAction,

		Commands: []*cli.Command{
			quartersCommand(),
			seedCommand(),
		},
	}
}

// =============================================================================
// REPORT
// =============================================================================

func reportAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	out := c.App.Writer
	driver := payroll.NewDriver(store)
	driver.Parallelism = cfg.Report.Parallelism
	driver.Progress = out
	if cfg.Report.Format == "json" {
		driver.Progress = c.App.ErrWriter
	}

	report, err := driver.GenerateReport(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if cfg.Report.Format == "json" {
		return payroll.RenderJSON(out, report)
	}
	return payroll.RenderText(out, report)
}

// =============================================================================
// QUARTERS COMMAND
// =============================================================================

func quartersCommand() *cli.Command {
	return &cli.Command{
		Name:  "quarters",
		Usage: "List the quarters with salary data",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			store, err := openStore(c.Context, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			quarters, err := payroll.NewPartitioner(store).GenerateQuarters(c.Context)
			if err != nil {
				return err
			}
			for _, q := range quarters {
				fmt.Fprintf(c.App.Writer, "%s\t%s\n", q.StartString(), q.EndString())
			}
			return nil
		},
	}
}

// =============================================================================
// SEED COMMAND
// =============================================================================

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Create a SQLite database holding the demo (or a JSON) employees dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "SQLite database path",
				EnvVars: []string{"REPORT_DB_PATH"},
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "Dataset JSON file to load instead of the demo dataset",
			},
			&cli.BoolFlag{
				Name:  "export",
				Usage: "Print the dataset as JSON instead of loading it",
			},
		},
		Action: func(c *cli.Context) error {
			initLogger(c, "info")
			f := factory.NewDatasetFactory()

			ds := sqldb.DemoDataset()
			if path := c.String("from"); path != "" {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				if ds, err = f.ParseDataset(string(data)); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			if c.Bool("export") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(f.ToJSON(ds))
			}

			path := c.String("db")
			if path == "" {
				return errors.New("seed: --db is required unless --export is given")
			}
			store, err := sqldb.New(path)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Replace(c.Context, ds); err != nil {
				return fmt.Errorf("failed to seed %s: %w", path, err)
			}

			logger.Named("seed").Info().
				Str("path", path).
				Int("departments", len(ds.Departments)).
				Int("employees", len(ds.Employees)).
				Int("salaries", len(ds.Salaries)).
				Msg("dataset loaded")
			return nil
		},
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// loadConfig applies command-line flags on top of file and environment config.
func loadConfig(c *cli.Context) (*config.Config, error) {
	initLogger(c, "")

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("format") {
		cfg.Report.Format = c.String("format")
	}
	if c.IsSet("parallel") {
		cfg.Report.Parallelism = c.Int("parallel")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	initLogger(c, cfg.Log.Level)
	logger.Named("cli").Debug().
		Str("database", cfg.Database.Redacted()).
		Str("format", cfg.Report.Format).
		Int("parallelism", cfg.Report.Parallelism).
		Msg("configuration loaded")
	return cfg, nil
}

func initLogger(c *cli.Context, level string) {
	opts := logger.FromEnv()
	if level != "" {
		opts.Level = level
	}
	if c.IsSet("log-level") {
		opts.Level = c.String("log-level")
	}
	opts.Service = "payroll-report"
	opts.Writer = c.App.ErrWriter
	logger.Init(opts)
}

func openStore(ctx context.Context, cfg *config.Config) (*sqldb.Store, error) {
	store, err := cfg.Database.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Database.Redacted(), err)
	}
	return store, nil
}
