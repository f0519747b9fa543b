package cmd

import (
	"fmt"

	"github.com/encodeous/dualsim/state"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validates a scenario and prints its directed edges",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := state.LoadSimCfg(scenarioPath)
		if err != nil {
			return err
		}
		err = state.SimConfigValidator(cfg)
		if err != nil {
			return err
		}
		topo, err := cfg.BuildTopology()
		if err != nil {
			return err
		}

		fmt.Printf("Scenario is valid: %d nodes, tick %s, jitter %s\n", len(cfg.Nodes), cfg.Tick, cfg.Jitter)
		for _, e := range topo.Edges() {
			fmt.Printf(" - %s\n", e)
		}
		for _, ev := range cfg.Events {
			fmt.Printf(" @ %s: %s->%s = %s", ev.At, ev.From, ev.To, ev.Cost)
			if ev.Bidirectional {
				fmt.Print(" (both directions)")
			}
			fmt.Println()
		}
		return nil
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&scenarioPath, "config", "c", DefaultScenarioPath, "Path to the scenario file")
}
