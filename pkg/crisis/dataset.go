package crisis

import (
	"sort"
	"strconv"
)

// Flag is the label attached to every cleaned row.
type Flag string

const (
	Normal Flag = "Normal"
	Crisis Flag = "Crisis"
)

// AllCountries passes every row through Filter.
const AllCountries = "All"

// Row is a cleaned, labeled input row.
type Row struct {
	Country      string
	Year         float64
	Agriculture  float64
	Industry     float64
	Services     float64
	Unemployment float64
	GDP          float64
	Flag         Flag

	// cells holds the raw input cells aligned with LabeledDataset.columns.
	cells []string
}

// Features returns the row's feature vector in FeatureColumns order.
func (r Row) Features() []float64 {
	return []float64{r.Agriculture, r.Industry, r.Services, r.Unemployment, r.GDP}
}

// LabeledDataset is the cleaned, sorted and labeled result of one Label call.
type LabeledDataset struct {
	columns       []string
	rows          []Row
	contamination float64
	dropped       int
}

// Summary describes a labeled dataset.
type Summary struct {
	Rows          int     `json:"rows" yaml:"rows"`
	Crises        int     `json:"crises" yaml:"crises"`
	DroppedRows   int     `json:"dropped_rows" yaml:"dropped_rows"`
	Contamination float64 `json:"contamination" yaml:"contamination"`
}

// Len returns the number of rows.
func (d *LabeledDataset) Len() int {
	return len(d.rows)
}

// Rows returns a copy of the rows in (Country Name, Year) order.
func (d *LabeledDataset) Rows() []Row {
	out := make([]Row, len(d.rows))
	copy(out, d.rows)
	return out
}

// Columns returns the output header: the input columns followed by AnomalyFlag.
func (d *LabeledDataset) Columns() []string {
	out := make([]string, 0, len(d.columns)+1)
	out = append(out, d.columns...)
	return append(out, ColAnomalyFlag)
}

// Filter returns the rows of a single country. AllCountries returns the
// whole dataset.
func (d *LabeledDataset) Filter(country string) *LabeledDataset {
	if country == AllCountries {
		return d
	}

	var rows []Row
	for _, r := range d.rows {
		if r.Country == country {
			rows = append(rows, r)
		}
	}
	return &LabeledDataset{
		columns:       d.columns,
		rows:          rows,
		contamination: d.contamination,
	}
}

// Crises returns only the Crisis rows, sorted by (Country Name, Year).
func (d *LabeledDataset) Crises() []Row {
	var out []Row
	for _, r := range d.rows {
		if r.Flag == Crisis {
			out = append(out, r)
		}
	}
	sortRows(out)
	return out
}

// Countries returns the sorted distinct country names.
func (d *LabeledDataset) Countries() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range d.rows {
		if _, ok := seen[r.Country]; ok {
			continue
		}
		seen[r.Country] = struct{}{}
		out = append(out, r.Country)
	}
	sort.Strings(out)
	return out
}

// Summary counts rows and crises.
func (d *LabeledDataset) Summary() Summary {
	s := Summary{
		Rows:          len(d.rows),
		DroppedRows:   d.dropped,
		Contamination: d.contamination,
	}
	for _, r := range d.rows {
		if r.Flag == Crisis {
			s.Crises++
		}
	}
	return s
}

// Records renders the dataset as string cells. Year and feature cells hold
// the cleaned numbers; other cells are passed through unchanged.
func (d *LabeledDataset) Records() (header []string, rows [][]string) {
	header = d.Columns()
	rows = make([][]string, len(d.rows))
	for i, r := range d.rows {
		cells := make([]string, 0, len(header))
		for j, col := range d.columns {
			cells = append(cells, r.cell(j, col))
		}
		rows[i] = append(cells, string(r.Flag))
	}
	return header, rows
}

// CrisisRecords renders Crises() as the detected-crisis-years table.
func (d *LabeledDataset) CrisisRecords() (header []string, rows [][]string) {
	header = []string{ColCountry, ColYear, ColUnemployment, ColGDP}
	for _, r := range d.Crises() {
		rows = append(rows, []string{
			r.Country,
			formatNumber(r.Year),
			formatNumber(r.Unemployment),
			formatNumber(r.GDP),
		})
	}
	return header, rows
}

func (r Row) cell(idx int, column string) string {
	switch column {
	case ColCountry:
		return r.Country
	case ColYear:
		return formatNumber(r.Year)
	case ColAgriculture:
		return formatNumber(r.Agriculture)
	case ColIndustry:
		return formatNumber(r.Industry)
	case ColServices:
		return formatNumber(r.Services)
	case ColUnemployment:
		return formatNumber(r.Unemployment)
	case ColGDP:
		return formatNumber(r.GDP)
	}
	if idx < len(r.cells) {
		return r.cells[idx]
	}
	return ""
}

func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Country != rows[j].Country {
			return rows[i].Country < rows[j].Country
		}
		return rows[i].Year < rows[j].Year
	})
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
