package crisis

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hed1ad/crisiswatch/pkg/detectors"
	dataio "github.com/hed1ad/crisiswatch/pkg/io"
	"github.com/hed1ad/crisiswatch/pkg/io/csv"
)

var header = []string{
	ColCountry, ColYear, ColAgriculture, ColIndustry, ColServices, ColUnemployment, ColGDP,
}

// fakeDetector flags the rows whose unemployment exceeds cutoff and records
// what it was given.
type fakeDetector struct {
	cutoff   float64
	err      error
	calls    int
	features [][]float64
	seed     int64
	contam   float64
	labels   []detectors.Label
}

func (f *fakeDetector) FitPredict(features [][]float64, contamination float64, seed int64) ([]detectors.Label, error) {
	f.calls++
	f.features = features
	f.seed = seed
	f.contam = contamination
	if f.err != nil {
		return nil, f.err
	}
	if f.labels != nil {
		return f.labels, nil
	}
	out := make([]detectors.Label, len(features))
	for i, row := range features {
		out[i] = detectors.Inlier
		if row[3] > f.cutoff {
			out[i] = detectors.Outlier
		}
	}
	return out, nil
}

func table(rows ...[]string) *dataio.Records {
	return dataio.NewRecords(header, rows)
}

func TestLabelSchemaGate(t *testing.T) {
	tests := []struct {
		name        string
		columns     []string
		wantMissing []string
	}{
		{
			name:        "no columns",
			columns:     nil,
			wantMissing: RequiredColumns,
		},
		{
			name:        "missing year and gdp",
			columns:     []string{ColCountry, ColAgriculture, ColIndustry, ColServices, ColUnemployment, "Other"},
			wantMissing: []string{ColYear, ColGDP},
		},
		{
			name:        "case sensitive",
			columns:     append(append([]string{}, header[:6]...), "gdp (in usd)"),
			wantMissing: []string{ColGDP},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := &fakeDetector{}
			l := NewLabeler(WithDetector(det))

			_, err := l.Label(dataio.NewRecords(tt.columns, [][]string{{"A"}}), 0.05)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMissing, verr.MissingColumns)
			assert.True(t, IsValidation(err))
			assert.Zero(t, det.calls, "detector must not run")
		})
	}
}

func TestLabelDropsNonNumericYears(t *testing.T) {
	det := &fakeDetector{cutoff: 100}
	l := NewLabeler(WithDetector(det))

	ds, err := l.Label(table(
		[]string{"A", "2000", "1", "2", "3", "4", "5"},
		[]string{"A", "", "1", "2", "3", "4", "5"},
		[]string{"A", "two thousand", "1", "2", "3", "4", "5"},
		[]string{"A", "NaN", "1", "2", "3", "4", "5"},
		[]string{"B", " 2001.0 ", "1", "2", "3", "4", "5"},
		[]string{"C"},
	), 0)
	require.NoError(t, err)

	rows := ds.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Country)
	assert.Equal(t, 2000.0, rows[0].Year)
	assert.Equal(t, "B", rows[1].Country)
	assert.Equal(t, 2001.0, rows[1].Year)
	assert.Equal(t, 4, ds.Summary().DroppedRows)
	assert.Len(t, det.features, 2)
}

func TestLabelLogsDroppedRows(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLabeler(WithDetector(&fakeDetector{cutoff: 100}), WithLogger(zap.New(core)))

	_, err := l.Label(table(
		[]string{"A", "2000", "1", "2", "3", "4", "5"},
		[]string{"A", "?", "1", "2", "3", "4", "5"},
	), 0.05)
	require.NoError(t, err)

	dropped := logs.FilterMessage("dropped rows without a numeric year").All()
	require.Len(t, dropped, 1)
	assert.Equal(t, int64(1), dropped[0].ContextMap()["dropped"])
	assert.Equal(t, zapcore.DebugLevel, dropped[0].Level)
}

func TestLabelSortsByCountryThenYear(t *testing.T) {
	l := NewLabeler(WithDetector(&fakeDetector{cutoff: 100}))

	ds, err := l.Label(table(
		[]string{"B", "2001", "", "", "", "", ""},
		[]string{"A", "2003", "", "", "", "", ""},
		[]string{"B", "1999", "", "", "", "", ""},
		[]string{"A", "2001", "", "", "", "", ""},
		[]string{"A", "2001.5", "", "", "", "", ""},
	), 0.05)
	require.NoError(t, err)

	var got []string
	for _, r := range ds.Rows() {
		got = append(got, fmt.Sprintf("%s/%v", r.Country, r.Year))
	}
	assert.Equal(t, []string{"A/2001", "A/2001.5", "A/2003", "B/1999", "B/2001"}, got)
}

func TestLabelFillsFeatureGaps(t *testing.T) {
	det := &fakeDetector{cutoff: 100}
	l := NewLabeler(WithDetector(det))

	ds, err := l.Label(table(
		[]string{"A", "2000", "", "NA", "abc", "NaN", " 12.5 "},
		[]string{"A", "2001"},
	), 0.05)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{
		{0, 0, 0, 0, 12.5},
		{0, 0, 0, 0, 0},
	}, det.features)

	r := ds.Rows()[0]
	assert.Equal(t, []float64{0, 0, 0, 0, 12.5}, r.Features())
}

func TestLabelPassesConfiguration(t *testing.T) {
	det := &fakeDetector{cutoff: 100}

	_, err := NewLabeler(WithDetector(det)).Label(table([]string{"A", "2000", "1", "1", "1", "1", "1"}), 0)
	require.NoError(t, err)
	assert.Equal(t, 0.05, det.contam)
	assert.Equal(t, int64(42), det.seed)

	_, err = NewLabeler(WithDetector(det), WithSeed(7)).Label(table([]string{"A", "2000", "1", "1", "1", "1", "1"}), 0.2)
	require.NoError(t, err)
	assert.Equal(t, 0.2, det.contam)
	assert.Equal(t, int64(7), det.seed)
}

func TestLabelMapsVerdicts(t *testing.T) {
	l := NewLabeler(WithDetector(&fakeDetector{cutoff: 10}))

	ds, err := l.Label(table(
		[]string{"A", "2000", "1", "1", "1", "5", "1"},
		[]string{"A", "2001", "1", "1", "1", "50", "1"},
	), 0.5)
	require.NoError(t, err)

	rows := ds.Rows()
	assert.Equal(t, Normal, rows[0].Flag)
	assert.Equal(t, Crisis, rows[1].Flag)
}

func TestLabelErrors(t *testing.T) {
	valid := table([]string{"A", "2000", "1", "1", "1", "1", "1"})

	tests := []struct {
		name    string
		table   dataio.Table
		contam  float64
		det     *fakeDetector
		wantErr error
	}{
		{
			name:    "negative contamination",
			table:   valid,
			contam:  -0.1,
			det:     &fakeDetector{},
			wantErr: ErrInvalidContamination,
		},
		{
			name:    "contamination of one",
			table:   valid,
			contam:  1,
			det:     &fakeDetector{},
			wantErr: ErrInvalidContamination,
		},
		{
			name:    "no numeric years",
			table:   table([]string{"A", "x", "1", "1", "1", "1", "1"}),
			contam:  0.05,
			det:     &fakeDetector{},
			wantErr: ErrEmptyDataset,
		},
		{
			name:    "no rows at all",
			table:   table(),
			contam:  0.05,
			det:     &fakeDetector{},
			wantErr: ErrEmptyDataset,
		},
		{
			name:    "detector failure",
			table:   valid,
			contam:  0.05,
			det:     &fakeDetector{err: errors.New("boom")},
			wantErr: ErrScoring,
		},
		{
			name:    "label count mismatch",
			table:   valid,
			contam:  0.05,
			det:     &fakeDetector{labels: []detectors.Label{}},
			wantErr: ErrScoring,
		},
		{
			name:    "unknown label",
			table:   valid,
			contam:  0.05,
			det:     &fakeDetector{labels: []detectors.Label{0}},
			wantErr: ErrScoring,
		},
		{
			name:    "infinite feature",
			table:   table([]string{"A", "2000", "1", "1", "1", "1", "+Inf"}),
			contam:  0.05,
			det:     &fakeDetector{},
			wantErr: ErrScoring,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLabeler(WithDetector(tt.det)).Label(tt.table, tt.contam)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestScoringErrorKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	_, err := NewLabeler(WithDetector(&fakeDetector{err: cause})).
		Label(table([]string{"A", "2000", "1", "1", "1", "1", "1"}), 0.05)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsScoring(err))
	assert.False(t, IsEmptyDataset(err))
}

func TestLabelEndToEnd(t *testing.T) {
	input := strings.Join([]string{
		strings.Join([]string{
			`Country Name`, `Year`, `"Employment Sector: Agriculture"`, `"Employment Sector: Industry"`,
			`"Employment Sector: Services"`, `Unemployment Rate`, `GDP (in USD)`,
		}, ","),
		"A,2000,10,20,70,5.0,1000",
		"A,2001,10,20,70,5.0,1050",
		"A,2002,10,20,70,50.0,10",
	}, "\n")

	r, err := csv.NewReaderFrom(strings.NewReader(input))
	require.NoError(t, err)
	tbl, err := r.Read()
	require.NoError(t, err)

	ds, err := NewLabeler().Label(tbl, 0.34)
	require.NoError(t, err)

	flags := map[float64]Flag{}
	for _, row := range ds.Rows() {
		flags[row.Year] = row.Flag
	}
	assert.Equal(t, map[float64]Flag{2000: Normal, 2001: Normal, 2002: Crisis}, flags)

	crises := ds.Crises()
	require.Len(t, crises, 1)
	assert.Equal(t, 2002.0, crises[0].Year)
}

func TestLabelIsIdempotent(t *testing.T) {
	tbl := syntheticTable(300)
	l := NewLabeler()

	render := func() string {
		ds, err := l.Label(tbl, 0.05)
		require.NoError(t, err)
		var buf bytes.Buffer
		h, rows := ds.Records()
		require.NoError(t, csv.NewWriter(&buf).WriteAll(h, rows))
		return buf.String()
	}

	first := render()
	assert.Equal(t, first, render())
	assert.Equal(t, first, func() string {
		ds, err := NewLabeler().Label(tbl, 0.05)
		require.NoError(t, err)
		var buf bytes.Buffer
		h, rows := ds.Records()
		require.NoError(t, csv.NewWriter(&buf).WriteAll(h, rows))
		return buf.String()
	}())
}

func TestLabelCardinality(t *testing.T) {
	tbl := syntheticTable(400)

	for _, c := range []float64{0.05, 0.1, 0.2} {
		t.Run(fmt.Sprint(c), func(t *testing.T) {
			ds, err := NewLabeler().Label(tbl, c)
			require.NoError(t, err)
			assert.InDelta(t, c*400, ds.Summary().Crises, 3)
		})
	}
}

func syntheticTable(n int) *dataio.Records {
	rng := rand.New(rand.NewSource(1))
	rows := make([][]string, n)
	for i := range rows {
		country := fmt.Sprintf("C%02d", i%20)
		rows[i] = []string{
			country,
			fmt.Sprint(1980 + i/20),
			fmt.Sprintf("%.3f", 20+rng.NormFloat64()*3),
			fmt.Sprintf("%.3f", 25+rng.NormFloat64()*3),
			fmt.Sprintf("%.3f", 55+rng.NormFloat64()*3),
			fmt.Sprintf("%.3f", 6+rng.NormFloat64()),
			fmt.Sprintf("%.1f", 1e11+rng.NormFloat64()*1e10),
		}
	}
	return dataio.NewRecords(header, rows)
}
