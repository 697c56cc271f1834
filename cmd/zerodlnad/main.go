// Command zerodlnad is the thin CLI collaborator spec.md §1 keeps out of
// the core's scope: flag parsing, signal handling, and exit codes around
// the core server.Server lifecycle.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"zerodlna/internal/config"
	"zerodlna/internal/server"

	"github.com/anacrolix/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		directory    = flag.String("directory", "", "directory to serve (default: current directory)")
		port         = flag.Int("port", 0, "HTTP port to listen on (default: 8200)")
		verbose      = flag.Bool("verbose", false, "set Config.Verbose (does not change the log level)")
		bindIP       = flag.String("bind-ip", "", "IPv4 address to advertise (default: autodetected)")
		friendlyName = flag.String("friendly-name", "", "override the advertised friendly name")
	)
	flag.Parse()

	cfg := config.Config{
		Directory:    *directory,
		Port:         *port,
		Verbose:      *verbose,
		FriendlyName: *friendlyName,
	}
	if *bindIP != "" {
		ip := net.ParseIP(*bindIP)
		if ip == nil {
			fmt.Fprintf(os.Stderr, "invalid -bind-ip %q\n", *bindIP)
			return config.ExitInvalidConfig
		}
		cfg.BindIP = ip
	}

	logger := log.Default.WithNames("zerodlnad")

	srv, err := server.New(cfg, logger)
	if err != nil {
		return exitCodeFor(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCodeFor(err)
	}

	<-ctx.Done()
	logger.Levelf(log.Info, "shutting down")

	shutdownCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return config.ExitOK
}

func exitCodeFor(err error) int {
	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Code
	}
	return config.ExitInvalidConfig
}
