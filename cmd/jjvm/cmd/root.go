package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jjvm",
	Short: "A from-scratch Java bytecode interpreter",
	Long: `jjvm loads Java class files, links them against the JDK runtime
image (or a small built-in substitute set), and interprets their
bytecode on a stack-based VM until the program's main method returns.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
}
