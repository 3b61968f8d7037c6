package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hed1ad/crisiswatch/pkg/config"
	"github.com/hed1ad/crisiswatch/pkg/crisis"
	"github.com/hed1ad/crisiswatch/pkg/detectors/iforest"
	dataio "github.com/hed1ad/crisiswatch/pkg/io"
	"github.com/hed1ad/crisiswatch/pkg/io/csv"
	"github.com/hed1ad/crisiswatch/pkg/io/xlsx"
	"github.com/hed1ad/crisiswatch/pkg/report"
)

type labelOptions struct {
	input         string
	sheet         string
	contamination float64
	seed          int64
	country       string
	out           string
	crisesXLSX    string
	chart         string
}

func newLabelCommand(a *app) *cobra.Command {
	o := &labelOptions{}

	cmd := &cobra.Command{
		Use:   "label",
		Short: "Label every row of a dataset Normal or Crisis",
		Example: `  crisiswatch label --input indicators.csv
  crisiswatch label --input indicators.xlsx --contamination 0.1 --country Greece --chart greece.png
  crisiswatch label --input indicators.csv --out labeled.csv --crises-xlsx crises.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runLabel(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.input, "input", "i", "", "CSV or XLSX file with the required columns")
	f.StringVar(&o.sheet, "sheet", "", "worksheet to read from an XLSX input (default first sheet)")
	f.Float64VarP(&o.contamination, "contamination", "c", 0, "expected share of crisis rows (overrides config)")
	f.Int64Var(&o.seed, "seed", 0, "random seed (overrides config)")
	f.StringVar(&o.country, "country", crisis.AllCountries, "restrict output to one country")
	f.StringVarP(&o.out, "out", "o", "", "write labeled CSV here instead of stdout")
	f.StringVar(&o.crisesXLSX, "crises-xlsx", "", "export detected crisis years to an XLSX workbook")
	f.StringVar(&o.chart, "chart", "", "render GDP vs Year scatter chart (png, svg or pdf)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (a *app) runLabel(cmd *cobra.Command, o *labelOptions) error {
	log := a.log.With(zap.String("run_id", uuid.NewString()))
	flags := cmd.Flags()

	contamination := a.cfg.EffectiveContamination()
	if flags.Changed("contamination") {
		if a.cfg.Variant == config.VariantMinimal {
			return fmt.Errorf("contamination is fixed at %v in the %s variant", config.FixedContamination, config.VariantMinimal)
		}
		if err := config.ValidateContamination(o.contamination); err != nil {
			return err
		}
		contamination = o.contamination
	}
	seed := a.cfg.Seed
	if flags.Changed("seed") {
		seed = o.seed
	}
	if o.crisesXLSX != "" && !a.cfg.CrisisTable() {
		return fmt.Errorf("--crises-xlsx is not available in the %s variant", a.cfg.Variant)
	}

	table, err := readTable(o.input, o.sheet)
	if err != nil {
		return err
	}
	log.Info("loaded dataset", zap.String("input", o.input), zap.Int("rows", table.Len()))

	labeler := crisis.NewLabeler(
		crisis.WithDetector(iforest.NewEstimator(
			iforest.WithTrees(a.cfg.Forest.Trees),
			iforest.WithSampleSize(a.cfg.Forest.SampleSize),
		)),
		crisis.WithSeed(seed),
		crisis.WithLogger(log),
	)

	ds, err := labeler.Label(table, contamination)
	if err != nil {
		var verr *crisis.ValidationError
		if errors.As(err, &verr) {
			log.Error("dataset rejected", zap.Strings("missing_columns", verr.MissingColumns))
		}
		return err
	}

	view := ds.Filter(o.country)
	if o.country != crisis.AllCountries && !slices.Contains(ds.Countries(), o.country) {
		return fmt.Errorf("unknown country %q", o.country)
	}

	if err := writeLabeled(cmd.OutOrStdout(), o.out, view); err != nil {
		return err
	}

	if o.crisesXLSX != "" {
		header, rows := view.CrisisRecords()
		if err := xlsx.WriteFile(o.crisesXLSX, "Crises", header, rows); err != nil {
			return err
		}
		log.Info("wrote crisis table", zap.String("path", o.crisesXLSX), zap.Int("rows", len(rows)))
	}

	if o.chart != "" {
		title := report.DefaultTitle
		if o.country != crisis.AllCountries {
			title = fmt.Sprintf("%s (%s)", title, o.country)
		}
		if err := report.SaveScatter(o.chart, view.Rows(), title); err != nil {
			return err
		}
		log.Info("wrote chart", zap.String("path", o.chart))
	}

	sum := ds.Summary()
	fields := []zap.Field{
		zap.Int("rows", sum.Rows),
		zap.Int("crises", sum.Crises),
		zap.Float64("contamination", sum.Contamination),
		zap.Int64("seed", seed),
	}
	if a.cfg.Variant == config.VariantValidated {
		fields = append(fields, zap.Int("dropped_rows", sum.DroppedRows))
	}
	log.Info("labeling complete", fields...)
	return nil
}

func readTable(path, sheet string) (dataio.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		var opts []xlsx.Option
		if sheet != "" {
			opts = append(opts, xlsx.WithSheet(sheet))
		}
		return xlsx.ReadFile(path, opts...)
	case ".tsv":
		return csv.ReadFile(path, csv.WithDelimiter('\t'))
	default:
		return csv.ReadFile(path)
	}
}

func writeLabeled(stdout io.Writer, path string, ds *crisis.LabeledDataset) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	header, rows := ds.Records()
	return csv.NewWriter(w).WriteAll(header, rows)
}
