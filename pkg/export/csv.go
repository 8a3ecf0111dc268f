// Package export writes fit results for downstream diagnostics: the chain
// as CSV, a per-parameter summary and a reproducibility record of the run.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
	"github.com/r3d91ll/spectrafit/pkg/sampler"
)

// CSVDialect specifies the CSV format variant.
type CSVDialect string

const (
	// DialectStandard uses RFC 4180 CSV.
	DialectStandard CSVDialect = "standard"

	// DialectTSV uses tab-separated values.
	DialectTSV CSVDialect = "tsv"
)

// CSVConfig specifies options for CSV export.
type CSVConfig struct {
	// Dialect specifies the CSV format variant.
	// Default: DialectStandard
	Dialect CSVDialect

	// IncludeHeader writes column headers as the first row.
	// Default: true
	IncludeHeader bool

	// Precision is the number of significant digits for values; -1 writes
	// the shortest exact representation.
	// Default: -1
	Precision int
}

// DefaultCSVConfig returns a CSVConfig with sensible defaults.
func DefaultCSVConfig() *CSVConfig {
	return &CSVConfig{
		Dialect:       DialectStandard,
		IncludeHeader: true,
		Precision:     -1,
	}
}

// ChainRow is one walker position at one step.
type ChainRow struct {
	Step    int
	Walker  int
	LogProb float64
	Params  []float64
}

// ChainWriter writes chain rows to CSV.
type ChainWriter struct {
	config      *CSVConfig
	labels      []string
	writer      *csv.Writer
	headerDone  bool
	rowsWritten int
}

// NewChainWriter creates a ChainWriter whose parameter columns are named by
// labels. If config is nil, DefaultCSVConfig() is used.
func NewChainWriter(w io.Writer, labels []string, config *CSVConfig) *ChainWriter {
	if config == nil {
		config = DefaultCSVConfig()
	}

	csvWriter := csv.NewWriter(w)
	if config.Dialect == DialectTSV {
		csvWriter.Comma = '\t'
	}

	return &ChainWriter{
		config: config,
		labels: labels,
		writer: csvWriter,
	}
}

// WriteHeader writes the header row: step, walker, lnprob, then one column
// per label. It is called automatically on the first Write.
func (cw *ChainWriter) WriteHeader() error {
	if cw.headerDone {
		return nil
	}

	headers := append([]string{"step", "walker", "lnprob"}, cw.labels...)
	if err := cw.writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	cw.headerDone = true
	return nil
}

// Write writes a single row.
func (cw *ChainWriter) Write(r ChainRow) error {
	if cw.config.IncludeHeader && !cw.headerDone {
		if err := cw.WriteHeader(); err != nil {
			return err
		}
	}
	if len(r.Params) != len(cw.labels) {
		return ferrors.New(ferrors.ErrIOWriteFailed, ferrors.CategoryIO,
			fmt.Sprintf("row has %d parameters, header has %d", len(r.Params), len(cw.labels)))
	}

	row := make([]string, 0, 3+len(r.Params))
	row = append(row, strconv.Itoa(r.Step), strconv.Itoa(r.Walker), cw.formatFloat(r.LogProb))
	for _, p := range r.Params {
		row = append(row, cw.formatFloat(p))
	}
	if err := cw.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}

	cw.rowsWritten++
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (cw *ChainWriter) Flush() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// RowsWritten returns the number of data rows written (excluding header).
func (cw *ChainWriter) RowsWritten() int {
	return cw.rowsWritten
}

func (cw *ChainWriter) formatFloat(f float64) string {
	if cw.config.Precision < 0 {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', cw.config.Precision, 64)
}

// ExportChainToCSV writes every recorded step of chain, ordered by step then
// walker. An empty chain is an EXPORT_NO_DATA error.
func ExportChainToCSV(w io.Writer, chain *sampler.Chain, labels []string, config *CSVConfig) error {
	if chain == nil || chain.Len() == 0 {
		return ferrors.New(ferrors.ErrExportNoData, ferrors.CategoryIO, "chain has no recorded steps")
	}

	writer := NewChainWriter(w, labels, config)
	positions := chain.Positions()
	logProbs := chain.LogProbs()
	for s, step := range positions {
		for k, p := range step {
			if err := writer.Write(ChainRow{Step: s, Walker: k, LogProb: logProbs[s][k], Params: p}); err != nil {
				return err
			}
		}
	}
	return writer.Flush()
}
