package cli

import (
	"fmt"

	"github.com/mchmarny/mscore/pkg/lineage"
	"github.com/urfave/cli/v2"
)

var ancestryCmd = &cli.Command{
	Name:            "ancestry",
	Aliases:         []string{"a", "lineage"},
	Usage:           "Print the discovered lineage graph for a model",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		modelFlag,
		debugFlag,
	},
	Action: cmdAncestry,
}

type ancestryResult struct {
	Root      string         `json:"root" yaml:"root"`
	Nodes     []lineage.Node `json:"nodes" yaml:"nodes"`
	Ancestors []string       `json:"ancestors,omitempty" yaml:"ancestors,omitempty"`
}

func cmdAncestry(c *cli.Context) error {
	cfg := getConfig(c)

	g, err := cfg.Extractor.Extract(c.Context, c.String(modelFlag.Name), cfg.Conf.MaxDepth)
	if err != nil {
		return fmt.Errorf("extracting lineage: %w", err)
	}

	return encode(ancestryResult{
		Root:      g.RootID(),
		Nodes:     g.Nodes(),
		Ancestors: g.Ancestors(),
	})
}
