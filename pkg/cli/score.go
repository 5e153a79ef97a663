package cli

import (
	"github.com/urfave/cli/v2"
)

var scoreCmd = &cli.Command{
	Name:            "score",
	Aliases:         []string{"s"},
	Usage:           "Compute the tree trust score for a model from its ancestors",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		modelFlag,
		debugFlag,
	},
	Action: cmdScore,
}

func cmdScore(c *cli.Context) error {
	cfg := getConfig(c)
	return encode(cfg.Scorer.Report(c.Context, c.String(modelFlag.Name)))
}
