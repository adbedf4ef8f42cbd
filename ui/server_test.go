package ui

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudlens/adapters/ingest"
	"fraudlens/adapters/stats/engine"
	"fraudlens/internal"
	"fraudlens/internal/config"
	"fraudlens/internal/dashboard"
	"fraudlens/internal/testkit"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWith(t, nil)
}

func newTestServerWith(t *testing.T, configure func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Server.GinMode = gin.TestMode
	cfg.Chart.Width, cfg.Chart.Height = 320, 200
	if configure != nil {
		configure(cfg)
	}

	logger := internal.NewWriterLogger(internal.LogLevelError, &bytes.Buffer{})
	reader := ingest.NewDataReader(cfg.Columns, cfg.Ingest.MaxUploadBytes())
	worker := ingest.NewWorker(reader, 2, logger)
	t.Cleanup(worker.Close)

	ws := dashboard.NewWorkspace(engine.NewStatsEngine(cfg.Stats), cfg.Chart, logger)
	s := NewServer(cfg, ws, worker, logger)
	s.now = func() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }
	return s
}

func fraudCSV(t *testing.T, seed int64) []byte {
	t.Helper()
	cfg := testkit.DefaultFraudConfig()
	cfg.Transactions = 600
	cfg.Seed = seed
	var buf bytes.Buffer
	require.NoError(t, testkit.NewFraudDataGenerator(cfg).WriteCSV(&buf))
	return buf.Bytes()
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, s *Server, files map[string][]byte, order ...string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range order {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type uploadResponse struct {
	Files []struct {
		Name    string `json:"name"`
		Dataset *struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"dataset"`
		Error string `json:"error"`
		Code  string `json:"code"`
	} `json:"files"`
}

type snapshot struct {
	ID        string `json:"id"`
	DatasetID string `json:"dataset_id"`
	Title     string `json:"title"`
	State     string `json:"state"`
	ChartType string `json:"chart_type"`
	Mode      string `json:"mode"`
	BinCount  int    `json:"bin_count"`
	Zoomed    bool   `json:"zoomed"`
	Binned    *struct {
		Bins []struct {
			FraudRatio float64 `json:"fraud_ratio"`
		} `json:"bins"`
	} `json:"binned"`
	Compare *struct{} `json:"compare"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// uploadOne uploads a generated CSV and returns its dataset id
func uploadOne(t *testing.T, s *Server, name string, seed int64) string {
	t.Helper()
	rec := upload(t, s, map[string][]byte{name: fraudCSV(t, seed)}, name)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp uploadResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Files, 1)
	require.NotNil(t, resp.Files[0].Dataset, resp.Files[0].Error)
	return resp.Files[0].Dataset.ID
}

// chartWithVariable adds a chart, binds it to datasetID and selects variable
func chartWithVariable(t *testing.T, s *Server, datasetID, variable string) snapshot {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/charts", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var snap snapshot
	decode(t, rec, &snap)

	rec = do(t, s, http.MethodPut, "/api/charts/"+snap.ID+"/dataset", gin.H{"dataset_id": datasetID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, s, http.MethodPut, "/api/charts/"+snap.ID+"/variable", gin.H{"variable": variable})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &snap)
	return snap
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUpload_PerFileOutcomes(t *testing.T) {
	s := newTestServer(t)
	rec := upload(t, s, map[string][]byte{
		"good.csv":  fraudCSV(t, 1),
		"notes.txt": []byte("hello"),
		"empty.csv": []byte(""),
	}, "good.csv", "notes.txt", "empty.csv")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp uploadResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Files, 3)
	assert.Equal(t, "good.csv", resp.Files[0].Name)
	require.NotNil(t, resp.Files[0].Dataset)
	assert.Equal(t, "PARSE_ERROR", resp.Files[1].Code)
	assert.Equal(t, "EMPTY_FILE", resp.Files[2].Code)

	rec = do(t, s, http.MethodGet, "/api/datasets", nil)
	var list struct {
		Count int `json:"count"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Count)

	rec = do(t, s, http.MethodGet, "/api/status", nil)
	var status struct {
		Messages []dashboard.StatusMessage `json:"messages"`
	}
	decode(t, rec, &status)
	require.Len(t, status.Messages, 3)
	assert.Equal(t, dashboard.StatusInfo, status.Messages[0].Level)
	assert.Equal(t, "PARSE_ERROR", status.Messages[1].Code)
}

func TestUpload_OversizedFileKeepsTheRest(t *testing.T) {
	s := newTestServerWith(t, func(cfg *config.Config) { cfg.Ingest.MaxUploadMB = 1 })
	big := bytes.Repeat([]byte("1,0,1\n"), 2<<20/6)
	rec := upload(t, s, map[string][]byte{
		"good.csv": fraudCSV(t, 2),
		"big.csv":  append([]byte("sessionid,fraud_combined,amount\n"), big...),
	}, "good.csv", "big.csv")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp uploadResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Files, 2)
	require.NotNil(t, resp.Files[0].Dataset, resp.Files[0].Error)
	assert.Nil(t, resp.Files[1].Dataset)
	assert.Equal(t, "PARSE_ERROR", resp.Files[1].Code)
	assert.Contains(t, resp.Files[1].Error, "exceeds")

	rec = do(t, s, http.MethodGet, "/api/datasets", nil)
	var list struct {
		Count int `json:"count"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Count)
}

func TestUpload_NoFiles(t *testing.T) {
	s := newTestServer(t)
	rec := upload(t, s, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChartLifecycle(t *testing.T) {
	s := newTestServer(t)
	dsID := uploadOne(t, s, "tx.csv", 1)

	snap := chartWithVariable(t, s, dsID, "amount")
	assert.Equal(t, "histogrammed", snap.State)
	assert.Equal(t, "Analysis: amount (tx.csv)", snap.Title)
	require.NotNil(t, snap.Binned)
	assert.Len(t, snap.Binned.Bins, 10)
	base := "/api/charts/" + snap.ID

	rec := do(t, s, http.MethodPut, base+"/bins", gin.H{"bin_count": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &snap)
	assert.Len(t, snap.Binned.Bins, 5)

	var gesture struct {
		Chart   snapshot `json:"chart"`
		Applied bool     `json:"applied"`
	}
	rec = do(t, s, http.MethodPost, base+"/brush", gin.H{"lo": 20, "hi": 80})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &gesture)
	assert.True(t, gesture.Applied)
	assert.True(t, gesture.Chart.Zoomed)

	rec = do(t, s, http.MethodPut, base+"/type", gin.H{"chart_type": "compare-histogram"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var compared snapshot
	decode(t, rec, &compared)
	assert.Equal(t, "compared", compared.State)
	assert.NotNil(t, compared.Compare)
	assert.Nil(t, compared.Binned)
	assert.False(t, compared.Zoomed, "compare charts always show the full range")

	rec = do(t, s, http.MethodPost, base+"/brush", gin.H{"lo": 20, "hi": 80})
	gesture.Applied = true
	decode(t, rec, &gesture)
	assert.False(t, gesture.Applied)

	rec = do(t, s, http.MethodPost, base+"/reset", nil)
	gesture.Applied = true
	decode(t, rec, &gesture)
	assert.False(t, gesture.Applied)

	rec = do(t, s, http.MethodPut, base+"/color", gin.H{"color": "#00aa11"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, base+"/export.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "amount-compare-histogram.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "edge_lo,edge_hi,density_fraud,density_legit\n"))

	rec = do(t, s, http.MethodGet, base+"/export.html", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "echarts")

	rec = do(t, s, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGestureErrors(t *testing.T) {
	s := newTestServer(t)
	dsID := uploadOne(t, s, "tx.csv", 2)
	snap := chartWithVariable(t, s, dsID, "items")
	base := "/api/charts/" + snap.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"unknown chart", http.MethodGet, "/api/charts/nope", nil, http.StatusNotFound, "NOT_FOUND"},
		{"bin count out of range", http.MethodPut, base + "/bins", gin.H{"bin_count": 25}, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown chart type", http.MethodPut, base + "/type", gin.H{"chart_type": "pie"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"missing chart type", http.MethodPut, base + "/type", gin.H{}, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad color", http.MethodPut, base + "/color", gin.H{"color": "orange"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"brush without bounds", http.MethodPost, base + "/brush", gin.H{"lo": 1}, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown variable", http.MethodPut, base + "/variable", gin.H{"variable": "nope"}, http.StatusNotFound, "NOT_FOUND"},
		{"unknown dataset", http.MethodPut, base + "/dataset", gin.H{"dataset_id": "nope"}, http.StatusNotFound, "NOT_FOUND"},
		{"label column as variable", http.MethodPut, base + "/variable", gin.H{"variable": "fraud_combined"}, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			var body errorBody
			decode(t, rec, &body)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestSetChartType_MissingTypeKeepsChart(t *testing.T) {
	s := newTestServer(t)
	dsID := uploadOne(t, s, "tx.csv", 8)
	snap := chartWithVariable(t, s, dsID, "amount")
	base := "/api/charts/" + snap.ID

	rec := do(t, s, http.MethodPut, base+"/type", gin.H{"chart_type": "step"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPut, base+"/type", gin.H{"chart_type": nil})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got snapshot
	decode(t, rec, &got)
	assert.Equal(t, "step", got.ChartType)
	require.NotNil(t, got.Binned)
	assert.NotEmpty(t, got.Binned.Bins)
}

func TestExportPNG(t *testing.T) {
	s := newTestServer(t)
	dsID := uploadOne(t, s, "tx.csv", 3)
	a := chartWithVariable(t, s, dsID, "amount")
	b := chartWithVariable(t, s, dsID, "hour_of_day")

	rec := do(t, s, http.MethodPost, "/api/export.png", gin.H{"chart_ids": []string{a.ID, b.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="charts-export-2026-10-14.png"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = do(t, s, http.MethodPost, "/api/export.png", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "an empty request exports every chart with data")

	rec = do(t, s, http.MethodPost, "/api/export.png", gin.H{"chart_ids": []string{"missing"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportPNG_NothingToExport(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/export.png", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMergeAndCascade(t *testing.T) {
	s := newTestServer(t)
	left := uploadOne(t, s, "left.csv", 4)
	right := uploadOne(t, s, "right.csv", 5)
	a := chartWithVariable(t, s, left, "distance_km")
	b := chartWithVariable(t, s, right, "distance_km")

	rec := do(t, s, http.MethodPost, "/api/merge", gin.H{"chart_a": a.ID, "chart_b": b.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var merged struct {
		ID       string `json:"id"`
		Variable string `json:"variable"`
		Sources  []struct {
			DatasetName string `json:"dataset_name"`
		} `json:"sources"`
	}
	decode(t, rec, &merged)
	assert.Equal(t, "distance_km", merged.Variable)
	require.Len(t, merged.Sources, 2)
	assert.Equal(t, "right.csv", merged.Sources[1].DatasetName)

	rec = do(t, s, http.MethodPost, "/api/export.png", gin.H{"merged_ids": []string{merged.ID}})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/merge", gin.H{"chart_a": a.ID, "chart_b": a.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/datasets/"+left, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/merged/"+merged.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/charts/"+a.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/charts/"+b.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/datasets/"+left, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMergedGestures(t *testing.T) {
	s := newTestServer(t)
	left := uploadOne(t, s, "left.csv", 6)
	right := uploadOne(t, s, "right.csv", 7)
	a := chartWithVariable(t, s, left, "amount")
	b := chartWithVariable(t, s, right, "amount")

	rec := do(t, s, http.MethodPost, "/api/merge", gin.H{"chart_a": a.ID, "chart_b": b.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rec, &created)
	base := "/api/merged/" + created.ID

	type mergedGesture struct {
		Merged struct {
			Zoomed bool `json:"zoomed"`
			Domain struct {
				Min float64 `json:"min"`
				Max float64 `json:"max"`
			} `json:"domain"`
		} `json:"merged"`
		Applied bool `json:"applied"`
	}

	rec = do(t, s, http.MethodPost, base+"/brush", gin.H{"lo": 40, "hi": 20})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var zoomed mergedGesture
	decode(t, rec, &zoomed)
	assert.True(t, zoomed.Applied)
	assert.True(t, zoomed.Merged.Zoomed)
	assert.Equal(t, 20.0, zoomed.Merged.Domain.Min)

	rec = do(t, s, http.MethodPost, base+"/brush", gin.H{"lo": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reset mergedGesture
	decode(t, rec, &reset)
	assert.True(t, reset.Applied)
	assert.False(t, reset.Merged.Zoomed)

	rec = do(t, s, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodPost, base+"/reset", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/charts/"+a.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "source charts survive")
}
