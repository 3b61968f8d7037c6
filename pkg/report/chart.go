// Package report renders labeled datasets as charts.
package report

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/hed1ad/crisiswatch/pkg/crisis"
)

// DefaultTitle is the chart title used when none is given.
const DefaultTitle = "GDP vs Year with Anomaly Flags"

// Chart size.
const (
	Width  = 10 * vg.Inch
	Height = 6 * vg.Inch
)

var flagColors = map[crisis.Flag]color.Color{
	crisis.Normal: color.RGBA{R: 31, G: 119, B: 180, A: 255},
	crisis.Crisis: color.RGBA{R: 214, G: 39, B: 40, A: 255},
}

// Scatter plots GDP against Year with one series per flag.
func Scatter(rows []crisis.Row, title string) (*plot.Plot, error) {
	if title == "" {
		title = DefaultTitle
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = crisis.ColYear
	p.Y.Label.Text = crisis.ColGDP
	p.Add(plotter.NewGrid())

	for _, flag := range []crisis.Flag{crisis.Normal, crisis.Crisis} {
		var xys plotter.XYs
		for _, r := range rows {
			if r.Flag == flag {
				xys = append(xys, plotter.XY{X: r.Year, Y: r.GDP})
			}
		}
		if len(xys) == 0 {
			continue
		}

		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("scatter %s: %w", flag, err)
		}
		s.GlyphStyle.Color = flagColors[flag]
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(3)

		p.Add(s)
		p.Legend.Add(string(flag), s)
	}

	p.Legend.Top = true
	return p, nil
}

// WriteScatter renders the chart to w in the given format (png, svg, pdf...).
func WriteScatter(w io.Writer, rows []crisis.Row, title, format string) error {
	p, err := Scatter(rows, title)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(Width, Height, format)
	if err != nil {
		return fmt.Errorf("chart writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}

// SaveScatter renders the chart to path; the extension picks the format.
func SaveScatter(path string, rows []crisis.Row, title string) error {
	p, err := Scatter(rows, title)
	if err != nil {
		return err
	}
	if strings.TrimPrefix(filepath.Ext(path), ".") == "" {
		return fmt.Errorf("chart path %q has no extension", path)
	}
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}
