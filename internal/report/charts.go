package report

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	colorGasoline  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	colorEthanol   = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
	colorLPG       = color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff}
	colorExpensive = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	colorCheap     = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
)

var dashed = []vg.Length{vg.Points(6), vg.Points(3)}

// Series is one line of the trend chart.
type Series struct {
	Label  string
	Points []MonthlyMean
	Color  color.Color
	Dashed bool
}

// TrendChart plots monthly means over time, one line per series.
func TrendChart(title string, series []Series, dpi int) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Mês/Ano"
	p.Y.Label.Text = "Preço Médio (R$)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "01/2006"}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(s.Points))
		for i, pt := range s.Points {
			xys[i].X = float64(pt.Month.Unix())
			xys[i].Y = pt.Mean
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, fmt.Errorf("plot series %s: %w", s.Label, err)
		}
		line.Color = s.Color
		if s.Dashed {
			line.Dashes = dashed
		}
		points.Color = s.Color
		points.Shape = draw.CircleGlyph{}
		p.Add(line, points)
		p.Legend.Add(s.Label, line, points)
	}

	return renderPNG([][]*plot.Plot{{p}}, 12*vg.Inch, 7*vg.Inch, dpi)
}

// StateChart draws the most expensive and the cheapest states side by side.
func StateChart(product string, priciest, cheapest []StateMean, dpi int) ([]byte, error) {
	left, err := stateBars(fmt.Sprintf("%s: %d Estados mais Caros", product, len(priciest)), priciest, colorExpensive)
	if err != nil {
		return nil, err
	}
	right, err := stateBars(fmt.Sprintf("%s: %d Estados mais Baratos", product, len(cheapest)), cheapest, colorCheap)
	if err != nil {
		return nil, err
	}
	return renderPNG([][]*plot.Plot{{left, right}}, 15*vg.Inch, 6*vg.Inch, dpi)
}

func stateBars(title string, means []StateMean, c color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Preço Médio (R$)"
	if len(means) == 0 {
		return p, nil
	}

	values := make(plotter.Values, len(means))
	names := make([]string, len(means))
	for i, m := range means {
		values[i] = m.Mean
		names[i] = m.State
	}
	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, fmt.Errorf("bar chart %q: %w", title, err)
	}
	bars.Horizontal = true
	bars.Color = c
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(names...)
	return p, nil
}

// RatioChart draws ethanol/gasoline per state, green at or under parity, red above, with the parity line.
func RatioChart(ratios []StateRatio, parity float64, dpi int) ([]byte, error) {
	p := plot.New()
	p.Title.Text = "Relação de Preço Etanol/Gasolina por Estado"
	p.X.Label.Text = "Relação de Preço (Etanol / Gasolina)"
	p.Y.Label.Text = "Estado"
	p.Legend.Top = true

	if n := len(ratios); n > 0 {
		favorable := make(plotter.Values, n)
		unfavorable := make(plotter.Values, n)
		names := make([]string, n)
		for i, r := range ratios {
			if r.Favorable {
				favorable[i] = r.Ratio
			} else {
				unfavorable[i] = r.Ratio
			}
			names[i] = r.State
		}

		greenBars, err := plotter.NewBarChart(favorable, vg.Points(12))
		if err != nil {
			return nil, fmt.Errorf("favorable bars: %w", err)
		}
		redBars, err := plotter.NewBarChart(unfavorable, vg.Points(12))
		if err != nil {
			return nil, fmt.Errorf("unfavorable bars: %w", err)
		}
		for _, b := range []*plotter.BarChart{greenBars, redBars} {
			b.Horizontal = true
			b.LineStyle.Width = 0
		}
		greenBars.Color = colorCheap
		redBars.Color = colorExpensive

		limit, err := plotter.NewLine(plotter.XYs{
			{X: parity, Y: -0.5},
			{X: parity, Y: float64(n) - 0.5},
		})
		if err != nil {
			return nil, fmt.Errorf("parity line: %w", err)
		}
		limit.Color = color.Black
		limit.Dashes = dashed

		p.Add(greenBars, redBars, limit)
		p.NominalY(names...)
		p.Legend.Add(fmt.Sprintf("Limite de %.0f%% (Vantajoso para Etanol)", parity*100), limit)
	}

	return renderPNG([][]*plot.Plot{{p}}, 15*vg.Inch, 8*vg.Inch, dpi)
}

func renderPNG(plots [][]*plot.Plot, width, height vg.Length, dpi int) ([]byte, error) {
	img := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(dpi))
	dc := draw.New(img)

	if len(plots) == 1 && len(plots[0]) == 1 {
		plots[0][0].Draw(dc)
	} else {
		tiles := draw.Tiles{
			Rows:      len(plots),
			Cols:      len(plots[0]),
			PadX:      vg.Millimeter * 6,
			PadY:      vg.Millimeter * 6,
			PadTop:    vg.Millimeter * 4,
			PadBottom: vg.Millimeter * 4,
			PadLeft:   vg.Millimeter * 4,
			PadRight:  vg.Millimeter * 4,
		}
		canvases := plot.Align(plots, tiles, dc)
		for i := range plots {
			for j := range plots[i] {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
