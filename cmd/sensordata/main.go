// Command sensordata prints the latest readings of every sensor in the
// configured space as a flat JSON attribute map on stdout, the format
// consumed by Home Assistant's command_line sensor platform.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	aranetadapter "github.com/aranetools/aranetcloud/internal/adapter/driven/aranet"
	fileadapter "github.com/aranetools/aranetcloud/internal/adapter/driven/file"
	"github.com/aranetools/aranetcloud/internal/application"
	"github.com/aranetools/aranetcloud/internal/config"
	"github.com/aranetools/aranetcloud/internal/domain/model"
	"github.com/aranetools/aranetcloud/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	fieldsFlag := flag.String("fields", "metrics,telemetry,name", "comma separated sensor fields to request")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := newCloudService(cfg)

	sensors, err := svc.Sensors(ctx, splitList(*fieldsFlag))
	if err != nil {
		return err
	}

	return json.NewEncoder(os.Stdout).Encode(model.FlattenSensors(sensors))
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func newCloudService(cfg *config.Config) *application.CloudService {
	client := aranetadapter.NewClient(cfg.Endpoint, cfg.Username, cfg.Password, cfg.HTTPTimeout)
	var store driven.SessionStore
	if cfg.CacheFile != "" {
		store = fileadapter.NewSessionRepo(cfg.CacheFile, cfg.CacheMaxAge)
	}
	return application.NewCloudService(client, store, cfg.SpaceName)
}
