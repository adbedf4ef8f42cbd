package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"fraudlens/domain/core"
)

// Grid geometry in output pixels
const (
	gridPadding     = 50
	gridChartGap    = 30
	gridTitleBand   = 120
	gridTitleOffset = 40
	gridLineHeight  = 28
	gridTitleWidth  = 0.85
	gridHeading     = "Charts Export"
)

// Panel is one rendered chart and the caption drawn beneath it
type Panel struct {
	Title string
	Image image.Image
}

// ExportFileName names a grid export after its date
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("charts-export-%s.png", t.Format("2006-01-02"))
}

// ChartsPerRow returns the grid width for n charts: a single chart alone,
// up to four in pairs, more in threes
func ChartsPerRow(n int) int {
	switch {
	case n <= 1:
		return 1
	case n <= 4:
		return 2
	}
	return 3
}

// ComposeGrid lays panels out on a white canvas. Every cell takes the size
// of the first panel's image.
func ComposeGrid(panels []Panel) (*image.RGBA, error) {
	if len(panels) == 0 {
		return nil, fmt.Errorf("%w: no charts to export", core.ErrInvalidInput)
	}

	perRow := ChartsPerRow(len(panels))
	cols := min(perRow, len(panels))
	rows := (len(panels) + perRow - 1) / perRow
	cell := panels[0].Image.Bounds()
	cellW, cellH := cell.Dx(), cell.Dy()

	width := cols*cellW + (cols-1)*gridChartGap + 2*gridPadding
	height := rows*(cellH+gridTitleBand) + (rows-1)*gridChartGap + 2*gridPadding
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawText(canvas, face, gridHeading, gridPadding, gridPadding-10)

	for i, p := range panels {
		row, col := i/perRow, i%perRow
		x := gridPadding + col*(cellW+gridChartGap)
		y := gridPadding + row*(cellH+gridTitleBand+gridChartGap)

		src := p.Image.Bounds()
		dst := image.Rect(x, y, x+min(cellW, src.Dx()), y+min(cellH, src.Dy()))
		draw.Draw(canvas, dst, p.Image, src.Min, draw.Over)

		lines := wrapText(face, p.Title, int(float64(cellW)*gridTitleWidth))
		for j, line := range lines {
			lineW := font.MeasureString(face, line).Round()
			drawText(canvas, face, line, x+(cellW-lineW)/2, y+cellH+gridTitleOffset+j*gridLineHeight)
		}
	}
	return canvas, nil
}

func drawText(dst draw.Image, face font.Face, text string, x, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// wrapText breaks text on spaces so no line exceeds maxWidth pixels where
// possible; a single overlong word keeps its own line
func wrapText(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		candidate := line + " " + w
		if font.MeasureString(face, candidate).Round() > maxWidth {
			lines = append(lines, line)
			line = w
			continue
		}
		line = candidate
	}
	return append(lines, line)
}
