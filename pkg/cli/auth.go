package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mchmarny/mscore/pkg/auth"
	"github.com/mchmarny/mscore/pkg/config"
	"github.com/urfave/cli/v2"
)

var authCmd = &cli.Command{
	Name:            "auth",
	HideHelpCommand: true,
	Usage:           "Store a hub API token for authenticated metadata access",
	Action:          cmdAuth,
}

func cmdAuth(c *cli.Context) error {
	fmt.Print("Paste your hub API token: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading user input: %w", err)
	}

	token := strings.TrimSpace(line)
	if token == "" {
		return fmt.Errorf("no token provided")
	}

	dir, _, err := config.GetOrCreateHomeDir()
	if err != nil {
		return fmt.Errorf("resolving app home dir: %w", err)
	}

	if err := auth.SaveToken(dir, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Println("Token saved to OS keychain")
	return nil
}
