package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var (
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "canbittiming",
	Short: "canbittiming computes bit timing for CAN controllers",
	Long: `Finds the prescaler, TSEG1, TSEG2 and SJW a CAN controller needs to run at a
given bitrate, and programs them into Linux SocketCAN interfaces.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetOutput(cmd.ErrOrStderr())
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		}

		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("loading %s: %w", envFile, err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "dotenv file with defaults such as CANBITTIMING_REFERENCE_CLOCK_HZ")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log file and line numbers")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
}
