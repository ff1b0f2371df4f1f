package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/chronotable/chronotable/pkg/config"
	"github.com/chronotable/chronotable/pkg/window"
)

// PlotCommand holds the configuration for the plot command.
type PlotCommand struct {
	cfgPath string
	output  string
}

// NewPlotCommand creates and configures the plot command.
func NewPlotCommand(cfgPath *string) *cobra.Command {
	pc := &PlotCommand{}

	cobraCmd := &cobra.Command{
		Use:   "plot",
		Short: "Render the poll-interval histogram as HTML",
		Long: `Render a histogram of the gaps between consecutive polls as a
standalone HTML chart. Irregular polling shows up as a spread of bars.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			pc.cfgPath = *cfgPath

			return pc.run()
		},
	}

	cobraCmd.Flags().StringVarP(&pc.output, "output", "o", "polls.html", "Output HTML file")

	return cobraCmd
}

func (pc *PlotCommand) run() error {
	cfg, err := config.LoadConfig(pc.cfgPath)
	if err != nil {
		return err
	}

	s, err := openStore(cfg, true)
	if err != nil {
		return err
	}

	chart := pollIntervalChart(s.tbl.Name(), s.tbl.History())

	file, err := os.Create(pc.output)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}
	defer file.Close()

	err = chart.Render(file)
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	return nil
}

// pollIntervalChart builds a bar chart of the gaps between consecutive poll
// timestamps, one bar per distinct gap.
func pollIntervalChart(name string, msecs []window.Msec) *charts.Bar {
	gaps := make(map[int64]int)
	for i := 1; i < len(msecs); i++ {
		gaps[int64(msecs[i]-msecs[i-1])]++
	}

	keys := make([]int64, 0, len(gaps))
	for gap := range gaps {
		keys = append(keys, gap)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	labels := make([]string, len(keys))
	data := make([]opts.BarData, len(keys))

	for i, gap := range keys {
		labels[i] = fmt.Sprintf("%d", gap)
		data[i] = opts.BarData{Value: gaps[gap]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Poll Intervals",
			Subtitle: name,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Gap (msec)",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Polls",
		}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("polls", data)

	return bar
}
