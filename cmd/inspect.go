package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datachat-cli/internal/frame"
	"github.com/KaramelBytes/datachat-cli/internal/utils"
)

var (
	insFrame      frameFlags
	insOutputPath string
	insSampleRows int
	insGroupBy    string
	insOutlierThr float64
	insNoOutliers bool
	insTopPairs   int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Profile a CSV/TSV without calling a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fopt, err := insFrame.options()
		if err != nil {
			return err
		}
		df, err := frame.LoadFile(args[0], fopt)
		if err != nil {
			return err
		}
		warnTruncated(cmd.ErrOrStderr(), df)

		opt := frame.DefaultSummaryOptions()
		opt.GroupBy = strings.TrimSpace(insGroupBy)
		if insSampleRows >= 0 {
			opt.SampleRows = insSampleRows
		}
		if insOutlierThr > 0 {
			opt.OutlierZ = insOutlierThr
		}
		if insNoOutliers {
			opt.OutlierZ = 0
		}
		if insTopPairs >= 0 {
			opt.TopPairs = insTopPairs
		}
		if opt.GroupBy != "" && !df.Has(opt.GroupBy) {
			return fmt.Errorf("--group-by: no column named %q (have %s)", opt.GroupBy, strings.Join(df.Columns(), ", "))
		}
		md := frame.Summarize(df, opt).Markdown()

		if insOutputPath != "" {
			if err := utils.SafeWriteFile(insOutputPath, []byte(md)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote profile of %s %s to %s\n", okMark, df.Name(), df.Shape(), insOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	insFrame.register(inspectCmd)
	inspectCmd.Flags().StringVarP(&insOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	inspectCmd.Flags().IntVar(&insSampleRows, "sample-rows", 5, "number of sample rows to include")
	inspectCmd.Flags().StringVar(&insGroupBy, "group-by", "", "categorical column for per-group means")
	inspectCmd.Flags().Float64Var(&insOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	inspectCmd.Flags().BoolVar(&insNoOutliers, "no-outliers", false, "skip robust outlier counts")
	inspectCmd.Flags().IntVar(&insTopPairs, "top-pairs", 10, "number of strongest numeric correlations to list")
}
