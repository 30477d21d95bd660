package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rsclarke/tlskeytap/internal/keylog"
)

var mergeFlags struct {
	output string
}

var mergeCmd = &cobra.Command{
	Use:   "merge <file>...",
	Short: "Merge key log files, dropping duplicate client randoms",
	Long: `Merge combines key log files from multiple producers into one.
Each client random identifies one session, so the first line seen for a
client random wins and later duplicates are dropped. Malformed lines are
dropped and counted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().StringVarP(&mergeFlags.output, "output", "o", "-", "output file, - for stdout")
}

func runMerge(cmd *cobra.Command, args []string) error {
	var out io.Writer = os.Stdout
	if mergeFlags.output != "-" {
		f, err := os.OpenFile(mergeFlags.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	var ins []io.Reader
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		ins = append(ins, f)
	}

	sum, err := keylog.Merge(out, ins...)
	if err != nil {
		return err
	}

	logger.Info("merged key logs",
		zap.Int("inputs", len(args)),
		zap.Int("written", sum.Written),
		zap.Int("duplicate", sum.Duplicate),
		zap.Int("malformed", sum.Malformed))
	if sum.Malformed > 0 {
		fmt.Fprintf(os.Stderr, "warning: dropped %d malformed lines\n", sum.Malformed)
	}
	return nil
}
