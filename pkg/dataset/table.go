package dataset

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
)

// Column is a named table column. Numeric columns use Values; columns read
// from text may keep their raw cells in Raw (used for upper-limit flags).
type Column struct {
	Name   string
	Unit   string
	Values []float64
	Raw    []string
}

// Table is an unvalidated spectrum as delivered by an ingestion source.
type Table struct {
	Columns map[string]*Column

	// CL is the upper-limit confidence level from the table metadata, if any.
	CL *float64

	// Comments are free-form metadata lines.
	Comments []string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{Columns: make(map[string]*Column)}
}

// Add inserts or replaces a numeric column.
func (t *Table) Add(name, unit string, values []float64) *Table {
	t.Columns[name] = &Column{Name: name, Unit: unit, Values: values}
	return t
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.Columns[name]
	return ok
}

// Validate converts a table into a Dataset, applying unit conversion and the
// column rules:
//   - energy and flux are required;
//   - flux_error, or flux_error_lo and flux_error_hi, are required;
//   - ene_width, or ene_lo and ene_hi, are optional; edges are generated otherwise;
//   - ul is optional (0/1 values or True/False strings);
//   - CL defaults to 0.9, with a warning when upper limits are present.
//
// Failures are data-format errors.
func Validate(t *Table, logger *zap.Logger) (*Dataset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if t == nil {
		return nil, ferrors.DataFormat(ferrors.ErrDataEmpty, "no data table given")
	}

	energy, _, err := t.column("energy", positive, TypeEnergy)
	if err != nil {
		return nil, err
	}
	n := len(energy)
	if n == 0 {
		return nil, ferrors.DataFormat(ferrors.ErrDataEmpty, "data table has no rows")
	}

	flux, fluxType, err := t.column("flux", finite, FluxTypes...)
	if err != nil {
		return nil, err
	}

	d := &Dataset{Energy: energy, Flux: flux, FluxType: fluxType}

	switch {
	case t.Has("flux_error"):
		dflux, pt, err := t.column("flux_error", nonNegative, FluxTypes...)
		if err != nil {
			return nil, err
		}
		if err := sameType("flux_error", pt, fluxType); err != nil {
			return nil, err
		}
		d.FluxErrorLo, d.FluxErrorHi = dflux, append([]float64(nil), dflux...)
	case t.Has("flux_error_lo") && t.Has("flux_error_hi"):
		lo, ptLo, err := t.column("flux_error_lo", nonNegative, FluxTypes...)
		if err != nil {
			return nil, err
		}
		hi, ptHi, err := t.column("flux_error_hi", nonNegative, FluxTypes...)
		if err != nil {
			return nil, err
		}
		if err := sameType("flux_error_lo", ptLo, fluxType); err != nil {
			return nil, err
		}
		if err := sameType("flux_error_hi", ptHi, fluxType); err != nil {
			return nil, err
		}
		d.FluxErrorLo, d.FluxErrorHi, d.Asymmetric = lo, hi, true
	default:
		return nil, ferrors.DataFormat(ferrors.ErrDataMissingColumn,
			`data table does not contain required column "flux_error" or columns "flux_error_lo" and "flux_error_hi"`).
			WithContext("column", "flux_error")
	}

	switch {
	case t.Has("ene_width"):
		width, _, err := t.column("ene_width", positive, TypeEnergy)
		if err != nil {
			return nil, err
		}
		d.EnergyLo = make([]float64, len(width))
		d.EnergyHi = make([]float64, len(width))
		for i, w := range width {
			d.EnergyLo[i], d.EnergyHi[i] = w/2, w/2
		}
	case t.Has("ene_lo") && t.Has("ene_hi"):
		lo, _, err := t.column("ene_lo", positive, TypeEnergy)
		if err != nil {
			return nil, err
		}
		hi, _, err := t.column("ene_hi", positive, TypeEnergy)
		if err != nil {
			return nil, err
		}
		if len(lo) != n || len(hi) != n {
			return nil, ferrors.DataFormat(ferrors.ErrDataLengthMismatch, "energy edge columns do not match energy")
		}
		d.EnergyLo = make([]float64, n)
		d.EnergyHi = make([]float64, n)
		for i := range energy {
			d.EnergyLo[i] = energy[i] - lo[i]
			d.EnergyHi[i] = hi[i] - energy[i]
		}
	default:
		d.EnergyLo, d.EnergyHi = GenerateEnergyEdges(energy)
	}

	d.UpperLimit, err = t.upperLimits(n)
	if err != nil {
		return nil, err
	}

	if t.CL != nil {
		d.CL = *t.CL
	} else {
		d.CL = DefaultCL
		if t.Has("ul") {
			logger.Warn("cl keyword not provided in input data table, upper limits will be assumed to be at 90% confidence level")
		}
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

type domain func(float64) bool

func positive(v float64) bool    { return v > 0 }
func nonNegative(v float64) bool { return v >= 0 }
func finite(v float64) bool      { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// column reads a numeric column, checks its unit against the allowed physical
// types and returns the values scaled to canonical units.
func (t *Table) column(name string, ok domain, allowed ...PhysicalType) ([]float64, PhysicalType, error) {
	col, found := t.Columns[name]
	if !found {
		return nil, "", ferrors.DataFormatf(ferrors.ErrDataMissingColumn,
			"data table does not contain required column %q", name).WithContext("column", name)
	}
	unit, known := ParseUnit(col.Unit)
	if !known {
		return nil, "", ferrors.DataFormatf(ferrors.ErrDataInvalidUnit,
			"column %q has unrecognised unit %q", name, col.Unit).WithContext("column", name)
	}
	if !typeAllowed(unit.Type, allowed) {
		return nil, "", ferrors.DataFormatf(ferrors.ErrDataInvalidUnit,
			"column %q has physical type %q, expected one of %s", name, unit.Type, joinTypes(allowed)).
			WithContext("column", name)
	}

	out := make([]float64, len(col.Values))
	for i, v := range col.Values {
		if !ok(v) {
			return nil, "", ferrors.DataFormatf(ferrors.ErrDataInvalidValue,
				"column %q has invalid value %g at row %d", name, v, i).WithContext("column", name)
		}
		out[i] = v * unit.Scale
	}
	if energy, has := t.Columns["energy"]; has && name != "energy" && len(out) != len(energy.Values) {
		return nil, "", ferrors.DataFormatf(ferrors.ErrDataLengthMismatch,
			"column %q has %d rows, energy has %d", name, len(out), len(energy.Values)).WithContext("column", name)
	}
	return out, unit.Type, nil
}

func (t *Table) upperLimits(n int) ([]bool, error) {
	ul := make([]bool, n)
	col, ok := t.Columns["ul"]
	if !ok {
		return ul, nil
	}

	switch {
	case col.Raw != nil:
		if len(col.Raw) != n {
			return nil, ferrors.DataFormat(ferrors.ErrDataLengthMismatch, "ul column does not match energy")
		}
		for i, s := range col.Raw {
			switch strings.TrimSpace(s) {
			case "True", "true", "1":
				ul[i] = true
			case "False", "false", "0":
			default:
				return nil, ferrors.DataFormatf(ferrors.ErrDataInvalidUpperLimit, "UL column is in wrong format: %q", s)
			}
		}
	default:
		if len(col.Values) != n {
			return nil, ferrors.DataFormat(ferrors.ErrDataLengthMismatch, "ul column does not match energy")
		}
		for i, v := range col.Values {
			switch v {
			case 1:
				ul[i] = true
			case 0:
			default:
				return nil, ferrors.DataFormatf(ferrors.ErrDataInvalidUpperLimit, "UL column is in wrong format: %g", v)
			}
		}
	}
	return ul, nil
}

func sameType(name string, got, want PhysicalType) error {
	if got != want {
		return ferrors.DataFormatf(ferrors.ErrDataInvalidUnit,
			"column %q has physical type %q but flux is %q", name, got, want).WithContext("column", name)
	}
	return nil
}

func typeAllowed(pt PhysicalType, allowed []PhysicalType) bool {
	for _, a := range allowed {
		if pt == a {
			return true
		}
	}
	return false
}

func joinTypes(types []PhysicalType) string {
	parts := make([]string, len(types))
	for i, pt := range types {
		parts[i] = fmt.Sprintf("%q", pt)
	}
	return strings.Join(parts, ", ")
}
