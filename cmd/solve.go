package cmd

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/karlding/canbittiming/pkg/bittiming"
	"github.com/karlding/canbittiming/pkg/config"
)

// busOptions describe the bus on the command line
type busOptions struct {
	clockHz   uint32
	bitrate   uint32
	propDelay uint16
	tolerance uint32
}

func (o busOptions) request() bittiming.Request {
	return bittiming.Request{
		Bitrate:                o.bitrate,
		PropagationDelayNs:     o.propDelay,
		OscillatorTolerancePPM: o.tolerance,
	}
}

func addBusFlags(fs *pflag.FlagSet, o *busOptions, withBitrate bool) {
	fs.Uint32VarP(&o.clockHz, "clock", "c", 0, "Controller reference clock in Hz")
	if withBitrate {
		fs.Uint32VarP(&o.bitrate, "bitrate", "b", 0, "Bus bitrate in bit/s")
	}
	fs.Uint16Var(&o.propDelay, "prop-delay", 220, "Estimated one-way propagation delay in ns")
	fs.Uint32Var(&o.tolerance, "tolerance", 0, "Combined oscillator tolerance against the least accurate peer, in ppm")
}

type solveOptions struct {
	bus        busOptions
	configFile string
	outputFile string
	all        bool
}

var solveOpts solveOptions

func init() {
	rootCmd.AddCommand(solveCommand)

	addBusFlags(solveCommand.Flags(), &solveOpts.bus, true)
	solveCommand.Flags().StringVarP(&solveOpts.configFile, "config", "f", "", "TOML file describing the controllers")
	solveCommand.Flags().StringVarP(&solveOpts.outputFile, "output", "o", "", "Write the solved TOML file here")
	solveCommand.Flags().BoolVarP(&solveOpts.all, "all", "a", false, "List every accepted candidate, best first")

	solveCommand.MarkFlagsMutuallyExclusive("config", "bitrate")
	solveCommand.MarkFlagsMutuallyExclusive("config", "all")
}

var solveCommand = &cobra.Command{
	Use:   "solve",
	Short: "Compute bit timing",
	Long: `Compute bit timing for one bus given on the command line, or for every
controller in a TOML file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSolve(cmd.OutOrStdout(), solveOpts)
	},
}

func runSolve(w io.Writer, opts solveOptions) error {
	if opts.configFile != "" {
		return solveFile(w, opts)
	}

	if opts.bus.clockHz == 0 {
		return errors.New("--clock is required")
	}
	req := opts.bus.request()
	if err := req.Validate(); err != nil {
		return err
	}

	if opts.all {
		return listCandidates(w, req, opts.bus.clockHz)
	}

	s, err := bittiming.Solve(req, opts.bus.clockHz)
	if err != nil {
		return err
	}
	printSolution(w, "solution", opts.bus.clockHz, s)
	return nil
}

func solveFile(w io.Writer, opts solveOptions) error {
	conf, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}

	var errs []error
	for i := range conf.Controller {
		ctl := &conf.Controller[i]
		if err := ctl.Timing.Calculate(ctl.ReferenceClockHz); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ctl.Name, err))
			continue
		}
		name := ctl.Name
		if !ctl.Timing.AutoGuess {
			name += " (manual)"
		}
		printSolution(w, name, ctl.ReferenceClockHz, ctl.Timing.Timing())
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if opts.outputFile == "" {
		return nil
	}
	f, err := os.Create(opts.outputFile)
	if err != nil {
		return err
	}
	if err := conf.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSolution(w io.Writer, name string, clockHz uint32, s bittiming.Solution) {
	sp := s.SamplePointPermille()
	fmt.Fprintf(w, "%s: %v (%d tq of %d ns, %d bit/s, sample point %d.%d%%)\n",
		name, s, s.QuantaPerBit(), s.QuantumDurationNs(clockHz), s.Bitrate(clockHz), sp/10, sp%10)
}

func listCandidates(w io.Writer, req bittiming.Request, clockHz uint32) error {
	candidates := bittiming.Candidates(req, clockHz)
	if len(candidates) == 0 {
		return fmt.Errorf("%w: %d bit/s from a %d Hz clock", bittiming.ErrNoSolutionFound, req.Bitrate, clockHz)
	}
	slices.SortStableFunc(candidates, func(a, b bittiming.Candidate) int {
		return cmp.Compare(b.Score(), a.Score())
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "TQ/BIT\tPRESCALER\tTQ NS\tMISMATCH NS\tPROP\tPHASE1\tPHASE2\tSJW\tNEEDED\tSCORE\t")
	for _, c := range candidates {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
			c.QuantaPerBit, c.Prescaler, c.QuantumDurationNs, c.MismatchNs,
			c.PropagationQuanta, c.Phase1Quanta, c.Phase2Quanta, c.SJW, c.RequiredJumpWidth, c.Score())
	}
	return tw.Flush()
}
