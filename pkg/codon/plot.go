package codon

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot renders the table as a bar chart of per-codon frequency. The image
// format follows the extension of file (png, svg, pdf, ...).
func (t *Table) Plot(file string) error {
	if t.Len() == 0 {
		return fmt.Errorf("codon table for %s is empty", t.taxonID)
	}

	codons := t.Codons()
	values := make(plotter.Values, len(codons))
	for i, c := range codons {
		values[i] = t.freq[c]
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Codon usage, taxon %s", t.taxonID)
	p.Y.Label.Text = "Frequency (per thousand)"

	bars, err := plotter.NewBarChart(values, vg.Points(6))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = color.RGBA{R: 50, G: 100, B: 200, A: 255}
	p.Add(bars)
	p.NominalX(codons...)
	p.X.Tick.Label.Rotation = 1.5708

	return p.Save(14*vg.Inch, 4*vg.Inch, file)
}
