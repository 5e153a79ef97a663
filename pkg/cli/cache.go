package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mchmarny/mscore/pkg/registry"
	"github.com/urfave/cli/v2"
)

var cacheCmd = &cli.Command{
	Name:            "cache",
	Usage:           "Score cache operations",
	HideHelpCommand: true,
	Subcommands: []*cli.Command{
		{
			Name:   "get",
			Usage:  "Print the cached scores for a model",
			Flags:  []cli.Flag{modelFlag, debugFlag},
			Action: cmdCacheGet,
		},
		{
			Name:   "clear",
			Usage:  "Delete all cached scores",
			Flags:  []cli.Flag{debugFlag},
			Action: cmdCacheClear,
		},
	},
}

type cacheResult struct {
	RepoID  string                           `json:"repo_id" yaml:"repoId"`
	Metrics map[string]registry.MetricResult `json:"metrics" yaml:"metrics"`
}

func cmdCacheGet(c *cli.Context) error {
	cfg := getConfig(c)
	id := c.String(modelFlag.Name)

	entry, ok := cfg.Registry.GetScore(id)
	if !ok {
		return fmt.Errorf("no cached scores for: %s", id)
	}

	return encode(cacheResult{RepoID: id, Metrics: entry})
}

func cmdCacheClear(c *cli.Context) error {
	cfg := getConfig(c)

	fmt.Printf("This will permanently delete all cached scores in %s\n", cfg.Conf.CacheDir)
	fmt.Print("Are you sure? [y/N]: ")

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	if strings.ToLower(strings.TrimSpace(answer)) != "y" {
		fmt.Println("Aborted.")
		return nil
	}

	if err := cfg.Registry.Clear(); err != nil {
		return fmt.Errorf("clearing score cache: %w", err)
	}

	slog.Info("score cache cleared", "path", cfg.Conf.CacheDir)
	return nil
}
