package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
)

// ParamSummary is the marginal posterior of one parameter.
type ParamSummary struct {
	Label  string
	Median float64
	// Lo and Hi are the 16th and 84th percentiles.
	Lo   float64
	Hi   float64
	Mean float64
	Std  float64
}

// Summarize computes marginal summaries from flattened samples, one row
// per sample and one column per label.
func Summarize(samples [][]float64, labels []string) ([]ParamSummary, error) {
	if len(samples) == 0 {
		return nil, ferrors.New(ferrors.ErrExportNoData, ferrors.CategoryIO, "no samples to summarize")
	}

	out := make([]ParamSummary, len(labels))
	col := make([]float64, len(samples))
	for d, label := range labels {
		for i, s := range samples {
			col[i] = s[d]
		}
		sort.Float64s(col)
		mean, std := stat.MeanStdDev(col, nil)
		out[d] = ParamSummary{
			Label:  label,
			Median: stat.Quantile(0.5, stat.Empirical, col, nil),
			Lo:     stat.Quantile(0.16, stat.Empirical, col, nil),
			Hi:     stat.Quantile(0.84, stat.Empirical, col, nil),
			Mean:   mean,
			Std:    std,
		}
	}
	return out, nil
}

// WriteSummaryCSV writes one row per parameter.
func WriteSummaryCSV(w io.Writer, summaries []ParamSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"param", "median", "p16", "p84", "mean", "std"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, s := range summaries {
		row := []string{s.Label}
		for _, v := range []float64{s.Median, s.Lo, s.Hi, s.Mean, s.Std} {
			row = append(row, strconv.FormatFloat(v, 'g', 6, 64))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
