package app

import (
	"fmt"
	"strconv"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/autopeer-io/joynode/internal/joynode"
	"github.com/autopeer-io/joynode/internal/joynode/core"
	pkgoptions "github.com/autopeer-io/joynode/pkg/options"
)

func newDirectionsCommand() *cobra.Command {
	opts := pkgoptions.NewJoystickOptions()

	cmd := &cobra.Command{
		Use:   "directions [x y]",
		Short: "Print the direction table, or classify one reading",
		Args:  readingArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := utilerrors.NewAggregate(opts.Validate()); err != nil {
				return err
			}
			th := joynode.Thresholds(opts)

			if len(args) == 2 {
				x, err := parseReading(args[0])
				if err != nil {
					return err
				}
				y, err := parseReading(args[1])
				if err != nil {
					return err
				}
				d := th.Classify(x, y)
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d)\n", d.Label(), d.Code())
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), directionTable(th))
			return nil
		},
	}

	opts.AddFlags(cmd.Flags())
	return cmd
}

// directionTable lists each direction with the rule that selects it.
func directionTable(th core.Thresholds) *uitable.Table {
	rules := map[core.Direction]string{
		core.Center:    fmt.Sprintf("%d <= x,y <= %d, or no other rule matches", th.CenterMin, th.CenterMax),
		core.Northwest: fmt.Sprintf("y < %d and x > %d", th.Low, th.High),
		core.Southwest: fmt.Sprintf("y < %d and x < %d", th.Low, th.Low),
		core.Northeast: fmt.Sprintf("y > %d and x > %d", th.High, th.High),
		core.Southeast: fmt.Sprintf("y > %d and x < %d", th.High, th.Low),
		core.West:      fmt.Sprintf("y < %d", th.Low),
		core.East:      fmt.Sprintf("y > %d", th.High),
		core.North:     fmt.Sprintf("x > %d", th.High),
		core.South:     fmt.Sprintf("x < %d", th.Low),
	}

	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("CODE", "DIRECTION", "RULE")
	for _, d := range core.Directions {
		table.AddRow(d.Code(), d.Label(), rules[d])
	}
	return table
}

// readingArgs accepts either no arguments or an x y pair.
func readingArgs(cmd *cobra.Command, args []string) error {
	switch len(args) {
	case 0, 2:
		return nil
	default:
		return fmt.Errorf("accepts 0 or 2 args (x y), received %d", len(args))
	}
}

func parseReading(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid reading %q: %w", s, err)
	}
	return uint16(v), nil
}
