package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/rflorenc/tower-client/internal/api"
	"github.com/rflorenc/tower-client/internal/config"
	"github.com/rflorenc/tower-client/internal/logging"
	"github.com/rflorenc/tower-client/internal/metrics"
	"github.com/rflorenc/tower-client/internal/models"
	"github.com/rflorenc/tower-client/internal/tower"
	"github.com/rflorenc/tower-client/internal/transport"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `usage: towerctl [flags] <command> [args]

commands:
  serve                      run the HTTP API (default)
  templates                  list job templates
  projects                   list projects
  survey <template-id>       print a job template's survey spec
  launch <template-id>       launch a job template (--extra-vars, --limit, --watch)
  job <job-id>               show a job (--stdout)

flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	for _, arg := range args {
		if arg == "--version" || arg == "-v" {
			fmt.Fprintf(stdout, "towerctl %s (commit: %s, built: %s)\n", version, commit, date)
			return 0
		}
	}

	cfg, rest, err := config.Parse(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprint(stderr, usage)
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	logger := logging.New(cfg.Log)

	name := "serve"
	if len(rest) > 0 {
		name, rest = rest[0], rest[1:]
	}
	if name == "serve" {
		if err := serve(cfg, logger, stdout); err != nil {
			logger.Error("server stopped", slog.String("error", err.Error()))
			return 1
		}
		return 0
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n%s", name, usage)
		return 2
	}
	a, err := dial(cfg, logger)
	if err != nil {
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := cmd(&cli{api: a, out: stdout}, rest); err != nil {
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// dial connects to the selected connection.
func dial(cfg *config.Config, logger *slog.Logger) (*tower.API, error) {
	cc, err := cfg.Select()
	if err != nil {
		return nil, err
	}
	conn, err := cc.ToConnection()
	if err != nil {
		return nil, err
	}
	client := transport.NewClient(conn, transport.WithLogger(logger), transport.WithTimeout(cfg.Timeout))
	return tower.Connect(client, logger)
}

func serve(cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	mc, err := metrics.New(true)
	if err != nil {
		return err
	}
	server := &api.Server{
		Connections: models.NewConnectionStore(),
		Dial:        api.NewDialer(logger, transport.WithObserver(mc), transport.WithTimeout(cfg.Timeout)),
		Logger:      logger,
		Metrics:     mc,
	}

	// Load pre-configured connections and verify connectivity early
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()
	for _, cc := range cfg.Connections {
		conn, err := cc.ToConnection()
		if err != nil {
			return err
		}
		server.Connections.Create(conn)
		fmt.Fprintf(stdout, "Loaded connection: %s (%s)\n", conn.Name, conn.BaseURL())

		client := transport.NewClient(conn, transport.WithLogger(logger), transport.WithTimeout(cfg.Timeout))
		prefix := tower.DiscoverPrefix(client, logger)
		ping, err := tower.Ping(client, prefix)
		if err != nil {
			fmt.Fprintf(stdout, "  %s %s: %v\n", bad("PING FAILED"), conn.Name, err)
			continue
		}
		server.Connections.SetVersion(conn.ID, ping.Version, prefix)
		fmt.Fprintf(stdout, "  %s %s: version %s, prefix %s\n", ok("PING OK"), conn.Name, ping.Version, prefix)
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}
	fmt.Fprintf(stdout, "towerctl %s serving on %s\n", version, cfg.Listen)
	return srv.ListenAndServe()
}
