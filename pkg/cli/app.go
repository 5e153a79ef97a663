// Package cli implements the mscore command line application.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mchmarny/mscore/pkg/auth"
	"github.com/mchmarny/mscore/pkg/config"
	"github.com/mchmarny/mscore/pkg/hub"
	"github.com/mchmarny/mscore/pkg/lineage"
	"github.com/mchmarny/mscore/pkg/logging"
	"github.com/mchmarny/mscore/pkg/registry"
	"github.com/mchmarny/mscore/pkg/tree"
	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	outputFormat = formatJSON

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}

	cacheDirFlag = &urfave.StringFlag{
		Name:  "cache-dir",
		Usage: "Path to the score cache directory",
	}

	depthFlag = &urfave.IntFlag{
		Name:  "depth",
		Usage: "Maximum ancestry depth to walk",
	}

	endpointFlag = &urfave.StringFlag{
		Name:  "endpoint",
		Usage: "Hub API endpoint (optional, defaults to the public hub)",
	}

	modelFlag = &urfave.StringFlag{
		Name:     "model",
		Aliases:  []string{"m"},
		Usage:    "Model repo id (namespace/name)",
		Required: true,
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	initLogging(false)

	app := newApp()
	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Conf      *config.Config
	Registry  registry.Registry
	Extractor *lineage.Extractor
	Scorer    *tree.Scorer
}

func getConfig(c *urfave.Context) *appConfig {
	return c.App.Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.App {
	return &urfave.App{
		Name:                 "mscore",
		Version:              fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Compiled:             time.Now(),
		EnableBashCompletion: true,
		HideHelpCommand:      true,
		Usage:                "CLI for model lineage and ancestry-based trust scores",
		Flags: []urfave.Flag{
			debugFlag,
			formatFlag,
			cacheDirFlag,
			depthFlag,
			endpointFlag,
		},
		Commands: []*urfave.Command{
			authCmd,
			ancestryCmd,
			scoreCmd,
			cacheCmd,
			serverCmd,
		},
		Before: func(c *urfave.Context) error {
			if c.Bool(debugFlag.Name) {
				initLogging(true)
			}

			f := c.String(formatFlag.Name)
			if f == formatYAML || f == "yml" {
				outputFormat = formatYAML
			}

			conf := config.Load()
			if v := c.String(cacheDirFlag.Name); v != "" {
				conf.CacheDir = v
			}
			if c.IsSet(depthFlag.Name) {
				d := c.Int(depthFlag.Name)
				if d < 0 {
					return fmt.Errorf("depth must not be negative: %d", d)
				}
				conf.MaxDepth = d
			}
			if v := c.String(endpointFlag.Name); v != "" {
				conf.Endpoint = v
			}
			if conf.Token == "" {
				if dir, _, err := config.GetOrCreateHomeDir(); err == nil {
					conf.Token = auth.GetToken(dir)
				}
			}

			reg, err := registry.NewFile(conf.CacheDir)
			if err != nil {
				return fmt.Errorf("initializing score cache: %w", err)
			}

			client, err := hub.New(c.Context, conf.Endpoint, conf.Token)
			if err != nil {
				return fmt.Errorf("initializing hub client: %w", err)
			}

			extractor := lineage.NewExtractor(client)

			c.App.Metadata[appConfigKey] = &appConfig{
				Conf:      conf,
				Registry:  reg,
				Extractor: extractor,
				Scorer:    tree.NewScorer(extractor, reg, tree.WithMaxDepth(conf.MaxDepth)),
			}
			return nil
		},
	}
}

func initLogging(debug bool) {
	level := "info"
	if debug {
		level = "debug"
	}
	logging.SetDefaultCLILogger(level)
}

func encode(v any) error {
	if outputFormat == formatYAML {
		return yaml.NewEncoder(os.Stdout).Encode(v)
	}
	e := json.NewEncoder(os.Stdout)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
