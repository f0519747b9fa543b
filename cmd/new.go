package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/encodeous/dualsim/state"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

const DefaultScenarioPath = "scenario.yaml"

var scenarioPath string
var overwrite bool

// ExampleScenario is S attached to a triangle of A, B and C, with the S-A link failing after 5s.
func ExampleScenario() state.SimCfg {
	cost := state.DefaultCost
	return state.SimCfg{
		Tick:        state.DefaultTick,
		Jitter:      state.DefaultJitter,
		DefaultCost: &cost,
		Nodes:       []state.NodeId{"s", "a", "b", "c"},
		Graph: []string{
			"s, a",
			"a, b, c",
		},
		Events: []state.EventCfg{
			{
				At:            5 * time.Second,
				From:          "s",
				To:            "a",
				Cost:          state.INF,
				Bidirectional: true,
			},
		},
	}
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Writes an example scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(scenarioPath); err == nil && !overwrite {
			return fmt.Errorf("%s already exists, pass --force to overwrite", scenarioPath)
		}
		cfg := ExampleScenario()
		data, err := yaml.Marshal(&cfg)
		if err != nil {
			return err
		}
		err = os.WriteFile(scenarioPath, data, 0600)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote example scenario to %s\n", scenarioPath)
		return nil
	},
	GroupID: "init",
}

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().StringVarP(&scenarioPath, "output", "o", DefaultScenarioPath, "Path to write the scenario to")
	newCmd.Flags().BoolVarP(&overwrite, "force", "f", false, "Overwrite an existing file")
}
