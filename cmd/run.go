package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datachat-cli/internal/frame"
	"github.com/KaramelBytes/datachat-cli/internal/insight"
)

var (
	runFrame frameFlags
	runFile  string
)

var errExecution = errors.New("analysis code failed")

var runCmd = &cobra.Command{
	Use:   "run <code.go|->",
	Short: "Run analysis code against a dataset in the sandbox",
	Long: `Run executes Go analysis code the same way the assistant does: INSIGHT lines
are patched into prints, the dataset is bound to df, and the insights printed
by the program are listed at the end. Use "-" to read the code from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if runFile == "" {
			return fmt.Errorf("--file is required")
		}
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		fopt, err := runFrame.options()
		if err != nil {
			return err
		}
		df, err := frame.LoadFile(runFile, fopt)
		if err != nil {
			return err
		}
		warnTruncated(cmd.ErrOrStderr(), df)
		code, err := readCode(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}

		res := newExecutor(c).Execute(cmd.Context(), insight.Patch(code), df)
		out := cmd.OutOrStdout()
		p := newPrinter(out)
		if res.Output != "" {
			p.box("Saída", res.Output)
		}
		for _, a := range res.Artifacts {
			p.artifact(a)
		}
		if res.Failed() {
			fmt.Fprintln(cmd.ErrOrStderr(), failMark, res.Diagnostic)
			return errExecution
		}
		found := res.Conclusions()
		if len(found) > 0 {
			fmt.Fprintf(out, "%s %d insight(s):\n", okMark, len(found))
			for _, in := range found {
				fmt.Fprintf(out, "- %s\n", in)
			}
		}
		logger.Debug("run", zap.Duration("elapsed", res.Elapsed))
		return nil
	},
}

func readCode(stdin io.Reader, path string) (string, error) {
	var b []byte
	var err error
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read code: %w", err)
	}
	return string(b), nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	runFrame.register(runCmd)
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "CSV/TSV dataset bound to df")
}
