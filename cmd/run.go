package cmd

import (
	"log/slog"

	"github.com/encodeous/dualsim/core"
	"github.com/encodeous/dualsim/state"
	"github.com/spf13/cobra"
)

var runOpts = core.RunOptions{
	DebugAddr: "127.0.0.1:6060",
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario",
	Long:  `Runs the scenario until interrupted, or until the duration elapses. The final route tables are printed on exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := state.LoadSimCfg(scenarioPath)
		if err != nil {
			return err
		}
		err = state.SimConfigValidator(cfg)
		if err != nil {
			return err
		}

		runOpts.Level = slog.LevelInfo
		if ok, _ := cmd.Flags().GetBool("verbose"); ok {
			runOpts.Level = slog.LevelDebug
		}
		return core.Run(*cfg, runOpts)
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&scenarioPath, "config", "c", DefaultScenarioPath, "Path to the scenario file")
	runCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	runCmd.Flags().DurationVarP(&runOpts.Duration, "duration", "d", 0, "Stop after this long, 0 runs until interrupted")
	runCmd.Flags().DurationVarP(&runOpts.TableInterval, "table", "t", 0, "Print route tables at this interval")
	runCmd.Flags().StringVarP(&runOpts.LogPath, "log", "l", "", "Also write logs to this file")
	runCmd.Flags().BoolVar(&runOpts.Debug, "debug", false, "Serve pprof and metrics")
	runCmd.Flags().StringVar(&runOpts.DebugAddr, "debug-addr", runOpts.DebugAddr, "Listen address for --debug")
}
