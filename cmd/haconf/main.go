// Command haconf generates Home Assistant configuration files for the
// sensors of the configured space: a command_line sensor that pulls the
// flat attribute map produced by the sensordata command, template sensors
// exposing each attribute as its own entity, and optionally statistics
// sensors over the metric entities.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"gopkg.in/yaml.v3"

	aranetadapter "github.com/aranetools/aranetcloud/internal/adapter/driven/aranet"
	fileadapter "github.com/aranetools/aranetcloud/internal/adapter/driven/file"
	"github.com/aranetools/aranetcloud/internal/application"
	"github.com/aranetools/aranetcloud/internal/config"
	"github.com/aranetools/aranetcloud/internal/domain/model"
	"github.com/aranetools/aranetcloud/internal/domain/port/driven"
)

type options struct {
	mainFile      string
	templatesFile string
	statsFile     string
	program       string
	ignore        []string
	statsSensors  string
	statsList     []string
	statsMaxHours int
	statsSamples  int
	force         bool
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flag.StringVar(&opts.mainFile, "main", "ha_aranet_cloud_main.yaml", "main sensors configuration file")
	flag.StringVar(&opts.templatesFile, "templates", "ha_aranet_cloud_templates.yaml", "templates configuration file")
	flag.StringVar(&opts.statsFile, "stats", "", "statistics configuration file (empty to skip)")
	flag.StringVar(&opts.program, "prog", "sensordata", "command Home Assistant executes to fetch the data")
	ignoreFlag := flag.String("ignore", "", "comma separated sensor names to ignore")
	flag.StringVar(&opts.statsSensors, "stats-sensors", "*", "comma separated sensors to include in the statistics (* for all)")
	statsListFlag := flag.String("stats-list", "mean,value_max,value_min,standard_deviation", "comma separated statistical characteristics")
	flag.IntVar(&opts.statsMaxHours, "stats-max-hours", 168, "maximum sample age in hours for statistics")
	flag.IntVar(&opts.statsSamples, "stats-sampling-size", 10080, "maximum number of samples for statistics")
	flag.BoolVar(&opts.force, "force", false, "overwrite existing output files")
	flag.Parse()

	opts.ignore = splitList(*ignoreFlag)
	opts.statsList = splitList(*statsListFlag)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	for _, f := range []string{opts.mainFile, opts.templatesFile, opts.statsFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err == nil && !opts.force {
			return fmt.Errorf("output file %q already exists (use -force to overwrite)", f)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := newCloudService(cfg)

	sensors, err := svc.Sensors(ctx, []string{"name"})
	if err != nil {
		return err
	}
	names := sensorNames(sensors, opts.ignore)
	if len(names) == 0 {
		return errors.New("no sensors left after applying the ignore list")
	}

	if err := writeConf(opts.mainFile, mainConf(names, opts.program)); err != nil {
		return err
	}
	if err := writeConf(opts.templatesFile, templatesConf(names)); err != nil {
		return err
	}

	if opts.statsFile != "" {
		statsNames := names
		if opts.statsSensors != "*" {
			statsNames = filterNames(names, splitList(opts.statsSensors))
		}
		if err := writeConf(opts.statsFile, statsConf(statsNames, opts)); err != nil {
			return err
		}
	}

	return nil
}

// sensorNames returns the sorted, deduplicated sensor names minus the
// ignore list.
func sensorNames(sensors []model.Sensor, ignore []string) []string {
	ignored := make(map[string]bool, len(ignore))
	for _, n := range ignore {
		ignored[n] = true
	}

	seen := make(map[string]bool, len(sensors))
	var names []string
	for _, s := range sensors {
		if s.Name == "" || ignored[s.Name] || seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// filterNames keeps the wanted names that actually exist, warning about the
// rest.
func filterNames(names, wanted []string) []string {
	exists := make(map[string]bool, len(names))
	for _, n := range names {
		exists[n] = true
	}

	var out []string
	for _, n := range wanted {
		if exists[n] {
			out = append(out, n)
		} else {
			slog.Warn("sensor does not exist", "sensor", n)
		}
	}
	sort.Strings(out)
	return out
}

type commandSensor struct {
	Platform       string   `yaml:"platform"`
	Command        string   `yaml:"command"`
	Name           string   `yaml:"name"`
	ScanInterval   int      `yaml:"scan_interval"`
	CommandTimeout int      `yaml:"command_timeout"`
	ValueTemplate  string   `yaml:"value_template"`
	JSONAttributes []string `yaml:"json_attributes"`
}

type templateSensor struct {
	Name          string `yaml:"name"`
	Unit          string `yaml:"unit_of_measurement"`
	ValueTemplate string `yaml:"value_template"`
}

type templateBlock struct {
	Sensor []templateSensor `yaml:"sensor"`
}

type statisticsSensor struct {
	Platform            string `yaml:"platform"`
	Name                string `yaml:"name"`
	EntityID            string `yaml:"entity_id"`
	StateCharacteristic string `yaml:"state_characteristic"`
	SamplingSize        int    `yaml:"sampling_size"`
	MaxAge              struct {
		Hours int `yaml:"hours"`
	} `yaml:"max_age"`
}

// mainConf builds the command_line sensor whose attributes carry all
// readings. num_sensors doubles as the dummy state value.
func mainConf(names []string, program string) any {
	var attrs []string
	for _, name := range names {
		attrs = append(attrs, name+"_time")
		for _, id := range model.MetricIDs() {
			attrs = append(attrs, name+"_"+model.MetricNames[id])
		}
	}

	return []commandSensor{{
		Platform:       "command_line",
		Command:        program,
		Name:           "aranet",
		ScanInterval:   60,
		CommandTimeout: 30,
		ValueTemplate:  "{{ value_json.num_sensors }}",
		JSONAttributes: attrs,
	}}
}

// templatesConf builds one template sensor per metric and telemetry
// attribute of every sensor.
func templatesConf(names []string) any {
	var sensors []templateSensor
	for _, name := range names {
		for _, metric := range metricAndTelemetryNames() {
			sensors = append(sensors, templateSensor{
				Name: fmt.Sprintf("Aranet %s %s", entityName(name), metric),
				Unit: model.MetricUnits[metric],
				ValueTemplate: fmt.Sprintf(
					"{{ state_attr('sensor.aranet', '%s_%s') }}", name, metric),
			})
		}
	}
	return []templateBlock{{Sensor: sensors}}
}

// statsConf builds statistics sensors over the metric template entities.
func statsConf(names []string, opts options) any {
	var sensors []statisticsSensor
	for _, name := range names {
		id := entityName(name)
		for _, metricID := range model.MetricIDs() {
			metric := model.MetricNames[metricID]
			for _, stat := range opts.statsList {
				s := statisticsSensor{
					Platform:            "statistics",
					Name:                fmt.Sprintf("Aranet %s %s stats %s", id, metric, stat),
					EntityID:            fmt.Sprintf("sensor.aranet_%s_%s", id, strings.ToLower(metric)),
					StateCharacteristic: stat,
					SamplingSize:        opts.statsSamples,
				}
				s.MaxAge.Hours = opts.statsMaxHours
				sensors = append(sensors, s)
			}
		}
	}
	return sensors
}

// metricAndTelemetryNames returns all metric names followed by all
// telemetry names, in catalog order.
func metricAndTelemetryNames() []string {
	var names []string
	for _, id := range model.MetricIDs() {
		names = append(names, model.MetricNames[id])
	}
	for _, id := range model.TelemetryIDs() {
		names = append(names, model.TelemetryNames[id])
	}
	return names
}

// entityName strips the characters Home Assistant drops when deriving
// entity ids from sensor names.
func entityName(name string) string {
	return strings.ReplaceAll(name, ".", "")
}

// writeConf renders doc as YAML under a generated-file banner.
func writeConf(path string, doc any) error {
	body, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}

	var buf strings.Builder
	buf.WriteString("# ARANET SENSOR CONFIGURATION\n")
	buf.WriteString("# DO NOT MODIFY THIS FILE\n")
	buf.WriteString("# THIS FILE HAS BEEN GENERATED WITH THE haconf COMMAND\n\n")
	buf.Write(body)

	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	slog.Info("wrote configuration file", "path", path)
	return nil
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
