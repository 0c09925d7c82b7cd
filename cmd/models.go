package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datachat-cli/internal/ai"
	"github.com/KaramelBytes/datachat-cli/internal/utils"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List known models with context size and pricing",
	Example: `  datachat models
  datachat models ollama
  datachat models --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := ""
		if len(args) == 1 {
			provider = args[0]
		}
		list := ai.Models(provider)
		if modelsJSON {
			b, err := utils.PrettyJSON(list)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		if len(list) == 0 {
			return fmt.Errorf("no models for provider %q (available: %v)", provider, ai.Providers())
		}
		rows := make([][]string, 0, len(list))
		for _, mi := range list {
			rows = append(rows, []string{mi.Provider, mi.Name, strconv.Itoa(mi.ContextTokens), price(mi.InputPerK), price(mi.OutputPerK)})
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("PROVIDER", "MODEL", "CONTEXT", "IN $/1K", "OUT $/1K").
			Rows(rows...)
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

func price(v float64) string {
	if v == 0 {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "print the catalog as JSON")
}
