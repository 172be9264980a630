package status

import (
	"context"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"paperharvest/pkg/checkpoint"
	errs "paperharvest/pkg/errors"
)

// DayCount is the number of records checkpointed for one key
type DayCount struct {
	Key     string
	Records int
}

// Counts reads every checkpoint and returns its record count in key order.
// Corrupt checkpoints are reported separately rather than failing the scan.
func Counts(ctx context.Context, store checkpoint.Store, keys []string) ([]DayCount, []string, error) {
	counts := make([]DayCount, 0, len(keys))
	var corrupt []string
	for _, key := range keys {
		records, err := store.Read(ctx, key)
		if err != nil {
			if errs.Is(err, errs.ErrorTypeCorruptCheckpoint) {
				corrupt = append(corrupt, key)
				continue
			}
			return nil, nil, err
		}
		counts = append(counts, DayCount{Key: key, Records: len(records)})
	}
	return counts, corrupt, nil
}

// RenderChart writes an HTML bar chart of records per checkpoint
func RenderChart(w io.Writer, s Summary, counts []DayCount) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "paperharvest coverage", Width: "1200px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Records per day",
			Subtitle: fmt.Sprintf("%s to %s, %d checkpoints, %d days missing", s.Earliest, s.Latest, s.Count, s.Missing()),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	x := make([]string, 0, len(counts))
	y := make([]opts.BarData, 0, len(counts))
	for _, c := range counts {
		x = append(x, c.Key)
		y = append(y, opts.BarData{Value: c.Records})
	}
	bar.SetXAxis(x).AddSeries("Records", y)

	return bar.Render(w)
}
