package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rsclarke/tlskeytap/internal/keylog"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a key log file",
	Long: `Check verifies that every line of a key log file is a well-formed
CLIENT_RANDOM entry a packet analyzer will accept. Blank and comment lines
are ignored. Exits non-zero if any line is malformed.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	sum, err := keylog.Lint(f)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d well-formed, %d malformed\n", args[0], sum.Written, sum.Malformed)
	if sum.Malformed > 0 {
		return fmt.Errorf("%d malformed lines", sum.Malformed)
	}
	return nil
}
