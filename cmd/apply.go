package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/karlding/canbittiming/pkg/config"
	"github.com/karlding/canbittiming/pkg/driver"
	"github.com/karlding/canbittiming/socketcan"
)

type applyOptions struct {
	configFile string
	up         bool
}

var applyOpts applyOptions

func init() {
	rootCmd.AddCommand(applyCommand)

	applyCommand.Flags().StringVarP(&applyOpts.configFile, "config", "f", "", "TOML file describing the controllers")
	applyCommand.MarkFlagRequired("config")
	applyCommand.Flags().BoolVar(&applyOpts.up, "up", false, "Bring each interface up after programming it")
}

var applyCommand = &cobra.Command{
	Use:   "apply",
	Short: "Program bit timing into SocketCAN interfaces",
	Long: `Solve the bit timing for every controller in the configuration file and
write it to its SocketCAN interface. Interfaces must be down.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApply(cmd.OutOrStdout(), applyOpts, socketcan.Programmer{BringUp: applyOpts.up})
	},
}

// runApply starts one driver per controller. A controller that fails does
// not stop the others.
func runApply(w io.Writer, opts applyOptions, programmer driver.TimingProgrammer) error {
	conf, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}

	var errs []error
	for i := range conf.Controller {
		ctl := &conf.Controller[i]
		d := driver.New(ctl.Name, ctl.Interface, ctl.ReferenceClockHz, programmer)

		if err := d.Start(&ctl.Timing); err != nil {
			log.Println(err)
			errs = append(errs, err)
			continue
		}
		printSolution(w, fmt.Sprintf("%s -> %s", d.Name, d.Interface), d.ReferenceClockHz, d.Config().Timing())
	}
	return errors.Join(errs...)
}
