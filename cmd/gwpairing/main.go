// Command gwpairing reports which gateway (base station) each sensor in
// the configured space is paired to, including pairings that have since
// been removed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	aranetadapter "github.com/aranetools/aranetcloud/internal/adapter/driven/aranet"
	fileadapter "github.com/aranetools/aranetcloud/internal/adapter/driven/file"
	"github.com/aranetools/aranetcloud/internal/application"
	"github.com/aranetools/aranetcloud/internal/config"
	"github.com/aranetools/aranetcloud/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := newCloudService(cfg)

	current, removed, err := svc.Pairings(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d paired sensors\n", len(current))
	if len(current) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SENSOR\tID\tPAIRED\tGATEWAY\tSERIAL")
		for _, p := range current {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				p.SensorName, p.SensorID, p.PairedAt, p.GatewayName, p.GatewaySerial)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Println()
	}

	fmt.Printf("Found %d removed pairings\n", len(removed))
	if len(removed) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SENSOR\tID\tPAIRED\tREMOVED\tPAIRED AS\tGATEWAY\tSERIAL")
		for _, p := range removed {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				p.SensorName, p.SensorID, p.PairedAt, p.RemovedAt,
				p.PairedName, p.GatewayName, p.GatewaySerial)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	return nil
}

func newCloudService(cfg *config.Config) *application.CloudService {
	client := aranetadapter.NewClient(cfg.Endpoint, cfg.Username, cfg.Password, cfg.HTTPTimeout)
	var store driven.SessionStore
	if cfg.CacheFile != "" {
		store = fileadapter.NewSessionRepo(cfg.CacheFile, cfg.CacheMaxAge)
	}
	return application.NewCloudService(client, store, cfg.SpaceName)
}
