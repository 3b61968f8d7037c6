// Package crisis labels country-year economic indicators as Normal or Crisis
// with an unsupervised outlier detector.
package crisis

// Column names of the input schema.
const (
	ColCountry      = "Country Name"
	ColYear         = "Year"
	ColAgriculture  = "Employment Sector: Agriculture"
	ColIndustry     = "Employment Sector: Industry"
	ColServices     = "Employment Sector: Services"
	ColUnemployment = "Unemployment Rate"
	ColGDP          = "GDP (in USD)"

	// ColAnomalyFlag is appended to every labeled row.
	ColAnomalyFlag = "AnomalyFlag"
)

// RequiredColumns lists every column an input table must carry.
var RequiredColumns = []string{
	ColCountry,
	ColYear,
	ColAgriculture,
	ColIndustry,
	ColServices,
	ColUnemployment,
	ColGDP,
}

// FeatureColumns are the indicators fed to the detector, in matrix order.
var FeatureColumns = []string{
	ColAgriculture,
	ColIndustry,
	ColServices,
	ColUnemployment,
	ColGDP,
}

// MissingColumns returns the required columns absent from columns, in
// required order.
func MissingColumns(columns []string) []string {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := present[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}
