package commands

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/cback/internal/media"
)

var (
	capacityEntireDisc bool
	capacityNoMulti    bool
	capacityJSON       bool
)

func init() {
	capacityCmd.Flags().BoolVar(&capacityEntireDisc, "entire-disc", false,
		"report the capacity as if the disc were rewritten from scratch")
	capacityCmd.Flags().BoolVar(&capacityNoMulti, "no-multi", false,
		"ignore existing sessions on the disc")
	capacityCmd.Flags().BoolVar(&capacityJSON, "json", false,
		"output as JSON")
	rootCmd.AddCommand(capacityCmd)
}

var capacityCmd = &cobra.Command{
	Use:   "capacity",
	Short: "Show the space used and available on the loaded disc",
	Long: `Show how much of the loaded disc is used and how much is still available.

CD capacity is derived from the session boundaries reported by
cdrecord -msinfo. DVD capacity is derived from the sectors growisofs
reports as used.`,
	Example: `  # Space left for another session
  cback capacity

  # Space available if the disc were blanked first
  cback capacity --entire-disc

  # Machine-readable output
  cback capacity --json

See Also: cback write, cback device info`,
	Args: cobra.NoArgs,
	RunE: runCapacity,
}

// capacityOutput is the JSON form of a capacity report.
type capacityOutput struct {
	Device         string  `json:"device"`
	Media          string  `json:"media"`
	BytesUsed      float64 `json:"bytes_used"`
	BytesAvailable float64 `json:"bytes_available"`
	TotalCapacity  float64 `json:"total_capacity"`
	Utilized       float64 `json:"utilized_percent"`
	Boundaries     string  `json:"boundaries,omitempty"`
}

func runCapacity(cmd *cobra.Command, _ []string) error {
	_, w, err := openWriter(cmd)
	if err != nil {
		return err
	}

	capacity, err := w.RetrieveCapacity(commandContext(cmd), capacityEntireDisc, !capacityNoMulti)
	if err != nil {
		return err
	}

	if capacityJSON {
		return outputCapacityJSON(cmd, w.Device(), w.Media().Type(), capacity)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendRow(table.Row{"Device", w.Device()})
	t.AppendRow(table.Row{"Media", w.Media().Type().String()})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Used", humanize.IBytes(uint64(capacity.BytesUsed))})
	t.AppendRow(table.Row{"Available", humanize.IBytes(uint64(capacity.BytesAvailable))})
	t.AppendRow(table.Row{"Total", humanize.IBytes(uint64(capacity.TotalCapacity()))})
	t.AppendRow(table.Row{"Utilized", fmt.Sprintf("%.2f%%", capacity.Utilized())})
	if capacity.Boundaries != nil {
		t.AppendRow(table.Row{"Boundaries", capacity.Boundaries.String()})
	}
	t.Render()
	return nil
}

func outputCapacityJSON(cmd *cobra.Command, device string, mt media.Type, c media.Capacity) error {
	out := capacityOutput{
		Device:         device,
		Media:          mt.String(),
		BytesUsed:      c.BytesUsed,
		BytesAvailable: c.BytesAvailable,
		TotalCapacity:  c.TotalCapacity(),
		Utilized:       c.Utilized(),
	}
	if c.Boundaries != nil {
		out.Boundaries = c.Boundaries.String()
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return errors.Wrap(err, "encoding JSON")
	}
	return nil
}
