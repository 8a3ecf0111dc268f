package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
)

const crabCSV = `# HESS Crab Nebula spectrum (excerpt)
# cl: 0.95
energy [TeV], flux [1/(cm2 s TeV)], flux_error_lo [1/(cm2 s TeV)], flux_error_hi [1/(cm2 s TeV)], ul
0.52, 1.50e-10, 0.10e-10, 0.12e-10, False
1.03, 2.30e-11, 0.20e-11, 0.25e-11, False
2.06, 3.10e-12, 0.40e-12, 0.45e-12, False
30.0, 1.00e-15, 0, 0, True
`

func TestReadCSVAndValidate(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(crabCSV))
	require.NoError(t, err)
	require.NotNil(t, table.CL)
	assert.Equal(t, 0.95, *table.CL)
	assert.Contains(t, table.Comments, "HESS Crab Nebula spectrum (excerpt)")

	d, err := Validate(table, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, d.Len())
	assert.True(t, d.Asymmetric)
	assert.Equal(t, []bool{false, false, false, true}, d.UpperLimit)
	assert.Equal(t, 1, d.NumUpperLimits())
	assert.Equal(t, 0.95, d.CL)
	assert.Equal(t, TypeDifferentialFlux, d.FluxType)
	assert.Equal(t, 0.12e-10, d.FluxErrorHi[0])

	// No bin columns: edges are generated.
	lo, hi := GenerateEnergyEdges(d.Energy)
	assert.Equal(t, lo, d.EnergyLo)
	assert.Equal(t, hi, d.EnergyHi)
}

func TestValidate_UnitConversion(t *testing.T) {
	table := NewTable().
		Add("energy", "GeV", []float64{500, 1000, 2000}).
		Add("flux", "1/(cm2 s GeV)", []float64{1e-13, 1e-14, 1e-15}).
		Add("flux_error", "1/(cm2 s GeV)", []float64{1e-14, 1e-15, 1e-16}).
		Add("ene_width", "GeV", []float64{100, 200, 400})

	d, err := Validate(table, zap.NewNop())
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 1, 2}, d.Energy, 1e-12)
	assert.InEpsilon(t, 1e-10, d.Flux[0], 1e-12)
	assert.InEpsilon(t, 0.05, d.EnergyLo[0], 1e-12)
	assert.InEpsilon(t, 0.2, d.EnergyHi[2], 1e-12)
	assert.False(t, d.Asymmetric)
	assert.Equal(t, d.FluxErrorLo, d.FluxErrorHi)
	assert.Equal(t, DefaultCL, d.CL)
}

func TestValidate_EnergyEdgeColumns(t *testing.T) {
	table := NewTable().
		Add("energy", "TeV", []float64{1, 2}).
		Add("ene_lo", "TeV", []float64{0.8, 1.5}).
		Add("ene_hi", "TeV", []float64{1.5, 3}).
		Add("flux", "erg/(cm2 s)", []float64{1e-11, 2e-11}).
		Add("flux_error", "erg/(cm2 s)", []float64{1e-12, 2e-12})

	d, err := Validate(table, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.2, 0.5}, d.EnergyLo, 1e-12)
	assert.InDeltaSlice(t, []float64{0.5, 1}, d.EnergyHi, 1e-12)
	assert.Equal(t, TypeFlux, d.FluxType)
}

func TestValidate_MissingCLWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	table := NewTable().
		Add("energy", "TeV", []float64{1, 2}).
		Add("flux", "1/(cm2 s TeV)", []float64{1e-11, 2e-12}).
		Add("flux_error", "1/(cm2 s TeV)", []float64{1e-12, 0}).
		Add("ul", "", []float64{0, 1})

	d, err := Validate(table, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, DefaultCL, d.CL)
	assert.Equal(t, 1, logs.Len())
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Table {
		return NewTable().
			Add("energy", "TeV", []float64{1, 2, 4}).
			Add("flux", "1/(cm2 s TeV)", []float64{1e-12, 1e-12, 1e-12}).
			Add("flux_error", "1/(cm2 s TeV)", []float64{1e-13, 1e-13, 1e-13})
	}

	tests := []struct {
		name   string
		mutate func(*Table)
		code   string
	}{
		{"missing energy", func(t *Table) { delete(t.Columns, "energy") }, ferrors.ErrDataMissingColumn},
		{"missing errors", func(t *Table) { delete(t.Columns, "flux_error") }, ferrors.ErrDataMissingColumn},
		{"only lower error", func(t *Table) {
			delete(t.Columns, "flux_error")
			t.Add("flux_error_lo", "1/(cm2 s TeV)", []float64{1, 1, 1})
		}, ferrors.ErrDataMissingColumn},
		{"unknown unit", func(t *Table) { t.Columns["energy"].Unit = "furlong" }, ferrors.ErrDataInvalidUnit},
		{"energy unit on flux", func(t *Table) { t.Columns["flux"].Unit = "TeV" }, ferrors.ErrDataInvalidUnit},
		{"error type differs from flux", func(t *Table) { t.Columns["flux_error"].Unit = "erg/(cm2 s)" }, ferrors.ErrDataInvalidUnit},
		{"negative energy", func(t *Table) { t.Columns["energy"].Values[0] = -1 }, ferrors.ErrDataInvalidValue},
		{"unsorted energy", func(t *Table) { t.Columns["energy"].Values[2] = 1.5 }, ferrors.ErrDataNotIncreasing},
		{"zero error on detection", func(t *Table) { t.Columns["flux_error"].Values[1] = 0 }, ferrors.ErrDataInvalidValue},
		{"short flux", func(t *Table) { t.Columns["flux"].Values = []float64{1, 2} }, ferrors.ErrDataLengthMismatch},
		{"bad ul value", func(t *Table) { t.Add("ul", "", []float64{0, 2, 0}) }, ferrors.ErrDataInvalidUpperLimit},
		{"bad ul text", func(t *Table) {
			t.Columns["ul"] = &Column{Name: "ul", Raw: []string{"False", "maybe", "True"}}
		}, ferrors.ErrDataInvalidUpperLimit},
		{"cl out of range", func(t *Table) { cl := 1.0; t.CL = &cl }, ferrors.ErrDataInvalidCL},
		{"empty", func(t *Table) {
			for _, c := range t.Columns {
				c.Values = nil
			}
		}, ferrors.ErrDataEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := base()
			tt.mutate(table)
			_, err := Validate(table, nil)
			require.Error(t, err)
			assert.True(t, ferrors.IsCategory(err, ferrors.CategoryData), "got %v", err)
			assert.True(t, ferrors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestBuildTable(t *testing.T) {
	cl := 0.99
	table, err := BuildTable(BuildInput{
		Energy:      Quantity{[]float64{1, 2, 4}, "TeV"},
		Flux:        Quantity{[]float64{1e-12, 1e-12, 1e-12}, "1/(cm2 s TeV)"},
		FluxErrorLo: &Quantity{[]float64{1e-13, 1e-13, 1e-13}, "1/(cm2 s TeV)"},
		FluxErrorHi: &Quantity{[]float64{2e-13, 2e-13, 2e-13}, "1/(cm2 s TeV)"},
		UpperLimit:  []bool{false, false, true},
		CL:          &cl,
	})
	require.NoError(t, err)

	d, err := Validate(table, nil)
	require.NoError(t, err)
	assert.True(t, d.Asymmetric)
	assert.Equal(t, 0.99, d.CL)
	assert.True(t, d.UpperLimit[2])

	_, err = BuildTable(BuildInput{
		Energy: Quantity{[]float64{1}, "TeV"},
		Flux:   Quantity{[]float64{1}, "1/(cm2 s TeV)"},
	})
	assert.True(t, ferrors.IsCode(err, ferrors.ErrDataMissingColumn))
}

func TestGenerateEnergyEdges(t *testing.T) {
	e := []float64{1, 4, 16}
	lo, hi := GenerateEnergyEdges(e)
	assert.InDeltaSlice(t, []float64{0.5, 2, 8}, lo, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 4, 8}, hi, 1e-12)

	lo, hi = GenerateEnergyEdges(nil)
	assert.Empty(t, lo)
	assert.Empty(t, hi)
}

func TestSEDConversion(t *testing.T) {
	e := []float64{1, 10}

	unit, f, err := SEDConversion(e, TypeDifferentialFlux, SEDOn)
	require.NoError(t, err)
	assert.Equal(t, "erg/(cm2 s)", unit)
	assert.InDeltaSlice(t, []float64{ergPerTeV, 100 * ergPerTeV}, f, 1e-12)

	unit, f, err = SEDConversion(e, TypeFlux, SEDOff)
	require.NoError(t, err)
	assert.Equal(t, "1/(cm2 s TeV)", unit)
	assert.InEpsilon(t, 1/(100*ergPerTeV), f[1], 1e-12)

	unit, f, err = SEDConversion(e, TypeDifferentialPower, SEDOff)
	require.NoError(t, err)
	assert.Equal(t, "1/(s TeV)", unit)
	assert.Equal(t, []float64{1, 1}, f)

	unit, f, err = SEDConversion(e, TypePower, SEDNone)
	require.NoError(t, err)
	assert.Equal(t, "erg/s", unit)
	assert.Equal(t, []float64{1, 1}, f)

	_, _, err = SEDConversion(e, TypeNumberDensity, SEDOn)
	assert.True(t, ferrors.IsCode(err, ferrors.ErrDataInvalidUnit))
}

func TestParseUnit(t *testing.T) {
	u, ok := ParseUnit("  1/(cm2  s TeV) ")
	require.True(t, ok)
	assert.Equal(t, TypeDifferentialFlux, u.Type)

	u, ok = ParseUnit("erg")
	require.True(t, ok)
	assert.InEpsilon(t, 1/ergPerTeV, u.Scale, 1e-12)

	_, ok = ParseUnit("parsec")
	assert.False(t, ok)
	assert.True(t, TypeDifferentialPower.IsDifferential())
	assert.False(t, TypeFlux.IsDifferential())
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("energy [TeV], flux [1/(cm2 s TeV)]\n1, abc\n"))
	assert.True(t, ferrors.IsCode(err, ferrors.ErrDataParseFailed))

	_, err = ReadCSV(strings.NewReader("# cl: high\nenergy [TeV]\n1\n"))
	assert.True(t, ferrors.IsCode(err, ferrors.ErrDataInvalidCL))

	_, err = ReadCSV(strings.NewReader(""))
	assert.True(t, ferrors.IsCode(err, ferrors.ErrDataEmpty))

	_, err = ReadCSVFile("/nonexistent/spectrum.csv")
	assert.True(t, ferrors.IsCategory(err, ferrors.CategoryIO))
}
