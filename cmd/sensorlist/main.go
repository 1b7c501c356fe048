// Command sensorlist prints the id and name of every sensor in the
// configured space as CSV on stdout, sorted by name.
package main

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

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

	sensors, err := svc.Sensors(ctx, []string{"name"})
	if err != nil {
		return err
	}

	sort.Slice(sensors, func(i, j int) bool { return sensors[i].Name < sensors[j].Name })

	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"id", "name"}); err != nil {
		return err
	}
	for _, s := range sensors {
		if err := w.Write([]string{s.ID.String(), s.Name}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func newCloudService(cfg *config.Config) *application.CloudService {
	client := aranetadapter.NewClient(cfg.Endpoint, cfg.Username, cfg.Password, cfg.HTTPTimeout)
	var store driven.SessionStore
	if cfg.CacheFile != "" {
		store = fileadapter.NewSessionRepo(cfg.CacheFile, cfg.CacheMaxAge)
	}
	return application.NewCloudService(client, store, cfg.SpaceName)
}
