package export

import (
	"bytes"
	"encoding/csv"
	"image"
	"image/color"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"

	"fraudlens/adapters/stats/engine"
	"fraudlens/domain/dataset"
	"fraudlens/internal/config"
	"fraudlens/internal/dashboard"
	"fraudlens/internal/testkit"
)

func testDataset(t *testing.T, seed int64) *dataset.Dataset {
	t.Helper()
	cfg := testkit.DefaultFraudConfig()
	cfg.Transactions = 800
	cfg.Seed = seed
	ds, err := testkit.NewFraudDataGenerator(cfg).Dataset("tx.csv")
	require.NoError(t, err)
	return ds
}

func testChart(t *testing.T, ct dashboard.ChartType) *dashboard.Chart {
	t.Helper()
	c := dashboard.NewChart(engine.NewStatsEngine(engine.DefaultConfig()), 6)
	require.NoError(t, c.SelectVariable(testDataset(t, 1), "amount"))
	require.NoError(t, c.SetChartType(ct))
	return c
}

func readCSV(t *testing.T, data string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteChartCSV_Binned(t *testing.T) {
	c := testChart(t, dashboard.Histogram)
	var buf bytes.Buffer
	require.NoError(t, WriteChartCSV(&buf, c))

	records := readCSV(t, buf.String())
	require.Len(t, records, 7)
	assert.Equal(t, binnedHeader, records[0])
	for _, rec := range records[1:] {
		assert.NotEmpty(t, rec[7], "trend column is filled when a regression exists")
	}
}

func TestWriteChartCSV_Compare(t *testing.T) {
	c := testChart(t, dashboard.CompareHistogram)
	var buf bytes.Buffer
	require.NoError(t, WriteChartCSV(&buf, c))

	records := readCSV(t, buf.String())
	assert.Equal(t, compareHeader, records[0])
	assert.Len(t, records, engine.DefaultCompareBins+1)
}

func TestWriteChartCSV_OutliersInRowOrder(t *testing.T) {
	c := testChart(t, dashboard.OutlierDetection)
	var buf bytes.Buffer
	require.NoError(t, WriteChartCSV(&buf, c))

	records := readCSV(t, buf.String())
	assert.Equal(t, outlierHeader, records[0])
	assert.Len(t, records, c.Series().Len()+1)

	sawOutlier := false
	prev := -1
	for _, rec := range records[1:] {
		row, err := strconv.Atoi(rec[0])
		require.NoError(t, err)
		assert.Greater(t, row, prev)
		prev = row
		if rec[3] == "true" {
			sawOutlier = true
		}
	}
	assert.True(t, sawOutlier, "log-normal amounts have a long right tail")
}

func TestWriteChartCSV_EmptyChart(t *testing.T) {
	c := dashboard.NewChart(engine.NewStatsEngine(engine.DefaultConfig()), 6)
	assert.Error(t, WriteChartCSV(&bytes.Buffer{}, c))
}

func TestWriteMergedCSV(t *testing.T) {
	eng := engine.NewStatsEngine(engine.DefaultConfig())
	a := dashboard.NewChart(eng, 5)
	b := dashboard.NewChart(eng, 5)
	require.NoError(t, a.SelectVariable(testDataset(t, 1), "items"))
	require.NoError(t, b.SelectVariable(testDataset(t, 2), "items"))
	m, err := dashboard.NewMergedChart(eng, a, b)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteMergedCSV(&buf, m))
	records := readCSV(t, buf.String())
	require.Len(t, records, 11)
	assert.Equal(t, "dataset", records[0][0])
	assert.Equal(t, "tx.csv", records[1][0])
}

func TestRenderChart_AllModes(t *testing.T) {
	canvas := CanvasFromConfig(config.Default().Chart)
	for _, ct := range []dashboard.ChartType{dashboard.Histogram, dashboard.CompareHistogram, dashboard.OutlierDetection} {
		t.Run(ct.String(), func(t *testing.T) {
			img, err := RenderChart(testChart(t, ct), canvas)
			require.NoError(t, err)
			assert.Equal(t, 800, img.Bounds().Dx())
			assert.Equal(t, 500, img.Bounds().Dy())
		})
	}
}

func TestRenderMerged(t *testing.T) {
	eng := engine.NewStatsEngine(engine.DefaultConfig())
	a := dashboard.NewChart(eng, 8)
	b := dashboard.NewChart(eng, 8)
	require.NoError(t, a.SelectVariable(testDataset(t, 3), "amount"))
	require.NoError(t, b.SelectVariable(testDataset(t, 4), "amount"))
	m, err := dashboard.NewMergedChart(eng, a, b)
	require.NoError(t, err)

	img, err := RenderMerged(m, Canvas{Width: 640, Height: 400, Margins: config.Margins{Top: 20, Right: 20, Bottom: 40, Left: 40}})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 640, 400), img.Bounds())

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, img))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestChartsPerRow(t *testing.T) {
	tests := map[int]int{1: 1, 2: 2, 3: 2, 4: 2, 5: 3, 9: 3}
	for n, want := range tests {
		assert.Equal(t, want, ChartsPerRow(n), "n=%d", n)
	}
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestComposeGrid_Layout(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	panels := make([]Panel, 5)
	for i := range panels {
		panels[i] = Panel{Title: "Analysis: amount (tx.csv)", Image: solid(100, 80, red)}
	}

	grid, err := ComposeGrid(panels)
	require.NoError(t, err)
	// 3 columns, 2 rows
	assert.Equal(t, 3*100+2*30+2*50, grid.Bounds().Dx())
	assert.Equal(t, 2*(80+120)+30+2*50, grid.Bounds().Dy())

	assert.Equal(t, color.RGBA{255, 255, 255, 255}, grid.RGBAAt(0, 0))
	assert.Equal(t, red, grid.RGBAAt(50, 50), "first panel starts at the padding")
	assert.Equal(t, red, grid.RGBAAt(50+2*(100+30), 50))
	assert.Equal(t, red, grid.RGBAAt(50, 50+80+120+30), "second row")
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, grid.RGBAAt(50+100+15, 60), "gap between panels")
}

func TestComposeGrid_SinglePanel(t *testing.T) {
	grid, err := ComposeGrid([]Panel{{Title: "one", Image: solid(40, 30, color.Black)}})
	require.NoError(t, err)
	assert.Equal(t, 40+100, grid.Bounds().Dx())
	assert.Equal(t, 30+120+100, grid.Bounds().Dy())

	_, err = ComposeGrid(nil)
	assert.Error(t, err)
}

func TestWrapText(t *testing.T) {
	face := basicfont.Face7x13
	lines := wrapText(face, "Analysis: a_rather_long_variable_name (transactions-2024.csv)", 140)
	require.Greater(t, len(lines), 1)
	assert.Equal(t, "Analysis: a_rather_long_variable_name (transactions-2024.csv)", strings.Join(lines, " "))
	assert.Nil(t, wrapText(face, "   ", 100))
}

func TestExportFileName(t *testing.T) {
	name := ExportFileName(time.Date(2026, 10, 14, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "charts-export-2026-10-14.png", name)
}

func TestWriteChartHTML(t *testing.T) {
	canvas := CanvasFromConfig(config.Default().Chart)
	for _, ct := range []dashboard.ChartType{dashboard.Histogram, dashboard.CompareHistogram, dashboard.OutlierDetection} {
		t.Run(ct.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteChartHTML(&buf, testChart(t, ct), canvas))
			page := buf.String()
			assert.Contains(t, page, "echarts")
			assert.Contains(t, page, "Analysis: amount (tx.csv)")
			assert.Contains(t, page, "800px")
		})
	}

	empty := dashboard.NewChart(engine.NewStatsEngine(engine.DefaultConfig()), 6)
	assert.Error(t, WriteChartHTML(&bytes.Buffer{}, empty, canvas))
}
