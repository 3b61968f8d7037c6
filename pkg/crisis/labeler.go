package crisis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hed1ad/crisiswatch/pkg/detectors"
	"github.com/hed1ad/crisiswatch/pkg/detectors/iforest"
	dataio "github.com/hed1ad/crisiswatch/pkg/io"
)

// DefaultContamination is used when the caller passes 0.
var DefaultContamination = detectors.DefaultConfig().Contamination

// Labeler validates, cleans and labels economic indicator tables.
type Labeler struct {
	detector detectors.OutlierDetector
	seed     int64
	logger   *zap.Logger
}

// Option configures a Labeler.
type Option func(*Labeler)

// WithDetector replaces the default Isolation Forest.
func WithDetector(d detectors.OutlierDetector) Option {
	return func(l *Labeler) {
		l.detector = d
	}
}

// WithSeed sets the seed handed to the detector.
func WithSeed(seed int64) Option {
	return func(l *Labeler) {
		l.seed = seed
	}
}

// WithLogger sets the logger. Labeling only logs at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Labeler) {
		l.logger = logger
	}
}

// NewLabeler creates a Labeler backed by an Isolation Forest with seed 42
// unless options say otherwise.
func NewLabeler(opts ...Option) *Labeler {
	l := &Labeler{
		detector: iforest.NewEstimator(),
		seed:     detectors.DefaultConfig().RandomSeed,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Label validates table, drops rows whose Year is not numeric, sorts by
// (Country Name, Year), zero-fills feature gaps and flags every row with
// the detector's verdict. A contamination of 0 means DefaultContamination.
func (l *Labeler) Label(table dataio.Table, contamination float64) (*LabeledDataset, error) {
	if contamination == 0 {
		contamination = DefaultContamination
	}
	if !(contamination > 0 && contamination < 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidContamination, contamination)
	}

	if missing := MissingColumns(table.Columns()); len(missing) > 0 {
		return nil, &ValidationError{MissingColumns: missing}
	}

	columns := outputColumns(table.Columns())
	rows := make([]Row, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		raw, _ := table.Value(i, ColYear)
		year, ok := parseNumber(raw)
		if !ok || math.IsInf(year, 0) {
			continue
		}

		country, _ := table.Value(i, ColCountry)
		cells := make([]string, len(columns))
		for j, col := range columns {
			cells[j], _ = table.Value(i, col)
		}
		rows = append(rows, Row{Country: country, Year: year, cells: cells})
	}

	dropped := table.Len() - len(rows)
	if dropped > 0 {
		l.logger.Debug("dropped rows without a numeric year", zap.Int("dropped", dropped))
	}
	if len(rows) == 0 {
		return nil, &EmptyDatasetError{InputRows: table.Len()}
	}

	sortRows(rows)

	featureIdx := make([]int, len(FeatureColumns))
	for j, col := range FeatureColumns {
		featureIdx[j] = columnIndex(columns, col)
	}

	features := make([][]float64, len(rows))
	for i := range rows {
		r := &rows[i]
		vals := make([]float64, len(FeatureColumns))
		for j, col := range FeatureColumns {
			v, err := featureValue(r.cells[featureIdx[j]], col)
			if err != nil {
				return nil, &ScoringError{Err: fmt.Errorf("%s %v: %w", r.Country, r.Year, err)}
			}
			vals[j] = v
		}
		r.Agriculture, r.Industry, r.Services, r.Unemployment, r.GDP = vals[0], vals[1], vals[2], vals[3], vals[4]
		features[i] = vals
	}

	labels, err := l.detector.FitPredict(features, contamination, l.seed)
	if err != nil {
		return nil, &ScoringError{Err: err}
	}
	if len(labels) != len(rows) {
		return nil, &ScoringError{Err: fmt.Errorf("detector returned %d labels for %d rows", len(labels), len(rows))}
	}

	for i, lbl := range labels {
		switch lbl {
		case detectors.Inlier:
			rows[i].Flag = Normal
		case detectors.Outlier:
			rows[i].Flag = Crisis
		default:
			return nil, &ScoringError{Err: fmt.Errorf("row %d: unexpected label %d", i, lbl)}
		}
	}

	ds := &LabeledDataset{
		columns:       columns,
		rows:          rows,
		contamination: contamination,
		dropped:       dropped,
	}
	l.logger.Debug("labeled dataset",
		zap.Int("rows", ds.Len()),
		zap.Int("crises", ds.Summary().Crises),
		zap.Float64("contamination", contamination),
	)
	return ds, nil
}

// outputColumns drops any incoming AnomalyFlag column; it is recomputed.
func outputColumns(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if c != ColAnomalyFlag {
			out = append(out, c)
		}
	}
	return out
}

func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}

// featureValue coerces a raw feature cell. Gaps become 0.
func featureValue(raw, column string) (float64, error) {
	v, ok := parseNumber(raw)
	if !ok {
		return 0, nil
	}
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s is not finite: %q", column, raw)
	}
	return v, nil
}

// parseNumber reports ok=false for empty, NaN or non-numeric text.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
