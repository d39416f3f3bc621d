package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "husbandry",
	Short: "Animal husbandry portal",
	Long: `A portal for livestock farmers: government schemes, district market
prices, veterinary services and training workshops with enrollment.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
