package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datachat-cli/internal/orchestrator"
	"github.com/KaramelBytes/datachat-cli/internal/session"
	"github.com/KaramelBytes/datachat-cli/internal/utils"
)

var (
	askFrame    frameFlags
	askFile     string
	askJSON     bool
	askShowCode bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question about a dataset and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return fmt.Errorf("question cannot be empty")
		}
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		fopt, err := askFrame.options()
		if err != nil {
			return err
		}
		s := session.New()
		if askFile != "" {
			if _, err := loadDataset(s, askFile, fopt); err != nil {
				return err
			}
			warnTruncated(cmd.ErrOrStderr(), s.Data())
		}
		orch, err := buildOrchestrator(c)
		if err != nil {
			return err
		}

		reply := orch.Turn(cmd.Context(), s, question)
		if askJSON {
			b, err := utils.PrettyJSON(reply)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		p := newPrinter(cmd.OutOrStdout())
		for _, ev := range reply.Events {
			if ev.Kind == orchestrator.EventCode && !askShowCode {
				continue
			}
			p.event(ev)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askFrame.register(askCmd)
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "CSV/TSV dataset to analyze")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full turn as JSON")
	askCmd.Flags().BoolVar(&askShowCode, "show-code", false, "print the generated analysis code")
}
