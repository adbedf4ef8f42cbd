package dashboard

import (
	"fmt"
	"time"

	"fraudlens/domain/core"
	"fraudlens/domain/dataset"
	"fraudlens/internal"
	"fraudlens/internal/config"
	apperrors "fraudlens/internal/errors"
	"fraudlens/ports"
)

// maxStatusMessages bounds the status log; the oldest entries are dropped
const maxStatusMessages = 200

// StatusLevel classifies a status message
type StatusLevel string

const (
	StatusInfo  StatusLevel = "info"
	StatusError StatusLevel = "error"
)

// StatusMessage is one entry of the persistent status area
type StatusMessage struct {
	Time    time.Time   `json:"time"`
	Level   StatusLevel `json:"level"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message"`
}

// Workspace owns every dataset, chart and merged chart of a session. It is
// not safe for concurrent use; callers serialize gestures.
type Workspace struct {
	engine   ports.AnalysisEngine
	settings config.ChartConfig
	log      *internal.TaggedLogger
	now      func() time.Time

	datasets    []*dataset.Dataset
	charts      map[core.ChartID]*Chart
	chartOrder  []core.ChartID
	merged      map[core.MergedChartID]*MergedChart
	mergedOrder []core.MergedChartID
	status      []StatusMessage
}

// NewWorkspace creates an empty workspace
func NewWorkspace(engine ports.AnalysisEngine, settings config.ChartConfig, logger *internal.Logger) *Workspace {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Workspace{
		engine:   engine,
		settings: settings,
		log:      logger.Tagged("Workspace"),
		now:      time.Now,
		charts:   make(map[core.ChartID]*Chart),
		merged:   make(map[core.MergedChartID]*MergedChart),
	}
}

// Settings returns the chart configuration the workspace was built with
func (w *Workspace) Settings() config.ChartConfig {
	return w.settings
}

func (w *Workspace) record(level StatusLevel, code, format string, args ...interface{}) {
	msg := StatusMessage{
		Time:    w.now(),
		Level:   level,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
	w.status = append(w.status, msg)
	if len(w.status) > maxStatusMessages {
		w.status = w.status[len(w.status)-maxStatusMessages:]
	}
}

// Info appends an informational status message
func (w *Workspace) Info(format string, args ...interface{}) {
	w.record(StatusInfo, "", format, args...)
	w.log.Info(format, args...)
}

// Fail records err in the status log and returns it unchanged
func (w *Workspace) Fail(err error) error {
	if err == nil {
		return nil
	}
	w.record(StatusError, apperrors.Classify(err), "%v", err)
	w.log.Warn("%v", err)
	return err
}

// Status returns a copy of the status log, oldest first
func (w *Workspace) Status() []StatusMessage {
	out := make([]StatusMessage, len(w.status))
	copy(out, w.status)
	return out
}

// AddDataset appends an ingested dataset. Uploading identical content twice
// is allowed; the status log notes the earlier copy.
func (w *Workspace) AddDataset(ds *dataset.Dataset) {
	if prev := w.sameContent(ds); prev != nil {
		w.Info("%s has the same content as %s (%s)", ds.Name, prev.Name, ds.Fingerprint.Short())
	}
	w.datasets = append(w.datasets, ds)
	w.Info("Loaded %s (%d records, %d variables)", ds.Name, ds.TotalRecords, len(ds.Variables))
}

func (w *Workspace) sameContent(ds *dataset.Dataset) *dataset.Dataset {
	if ds.Fingerprint.IsEmpty() {
		return nil
	}
	for _, prev := range w.datasets {
		if prev.Fingerprint == ds.Fingerprint {
			return prev
		}
	}
	return nil
}

// Datasets returns the datasets in upload order
func (w *Workspace) Datasets() []*dataset.Dataset {
	out := make([]*dataset.Dataset, len(w.datasets))
	copy(out, w.datasets)
	return out
}

// Dataset looks up a dataset by id
func (w *Workspace) Dataset(id core.DatasetID) (*dataset.Dataset, error) {
	for _, ds := range w.datasets {
		if ds.ID == id {
			return ds, nil
		}
	}
	return nil, core.NewNotFoundError(core.ErrDatasetNotFound, id.String())
}

// RemoveDataset drops a dataset together with every chart bound to it and
// every merged chart built from it
func (w *Workspace) RemoveDataset(id core.DatasetID) error {
	idx := -1
	for i, ds := range w.datasets {
		if ds.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return w.Fail(core.NewNotFoundError(core.ErrDatasetNotFound, id.String()))
	}
	name := w.datasets[idx].Name
	w.datasets = append(w.datasets[:idx:idx], w.datasets[idx+1:]...)

	removedCharts := 0
	for _, chartID := range append([]core.ChartID(nil), w.chartOrder...) {
		if w.charts[chartID].DatasetID() == id {
			w.dropChart(chartID)
			removedCharts++
		}
	}
	removedMerged := 0
	for _, mergedID := range append([]core.MergedChartID(nil), w.mergedOrder...) {
		if w.merged[mergedID].References(id) {
			w.dropMerged(mergedID)
			removedMerged++
		}
	}

	w.Info("Removed %s (%d charts, %d merged charts)", name, removedCharts, removedMerged)
	return nil
}

// AddChart creates a chart bound to the first dataset, if any
func (w *Workspace) AddChart() *Chart {
	c := NewChart(w.engine, w.settings.DefaultBinCount)
	if len(w.datasets) > 0 {
		_ = c.BindDataset(w.datasets[0])
	}
	w.charts[c.ID] = c
	w.chartOrder = append(w.chartOrder, c.ID)
	w.log.Debug("chart %s added", c.ID)
	return c
}

// Chart looks up a chart by id
func (w *Workspace) Chart(id core.ChartID) (*Chart, error) {
	c, ok := w.charts[id]
	if !ok {
		return nil, core.NewNotFoundError(core.ErrChartNotFound, id.String())
	}
	return c, nil
}

// Charts returns every chart in creation order
func (w *Workspace) Charts() []*Chart {
	out := make([]*Chart, 0, len(w.chartOrder))
	for _, id := range w.chartOrder {
		out = append(out, w.charts[id])
	}
	return out
}

// RemoveChart destroys a chart. Merged charts keep their own copies.
func (w *Workspace) RemoveChart(id core.ChartID) error {
	if _, ok := w.charts[id]; !ok {
		return w.Fail(core.NewNotFoundError(core.ErrChartNotFound, id.String()))
	}
	w.dropChart(id)
	return nil
}

func (w *Workspace) dropChart(id core.ChartID) {
	delete(w.charts, id)
	for i, cid := range w.chartOrder {
		if cid == id {
			w.chartOrder = append(w.chartOrder[:i:i], w.chartOrder[i+1:]...)
			return
		}
	}
}

func (w *Workspace) dropMerged(id core.MergedChartID) {
	delete(w.merged, id)
	for i, mid := range w.mergedOrder {
		if mid == id {
			w.mergedOrder = append(w.mergedOrder[:i:i], w.mergedOrder[i+1:]...)
			return
		}
	}
}

// gesture runs fn against a chart, recording any failure
func (w *Workspace) gesture(id core.ChartID, fn func(*Chart) error) (*Chart, error) {
	c, err := w.Chart(id)
	if err != nil {
		return nil, w.Fail(err)
	}
	if err := fn(c); err != nil {
		return c, w.Fail(err)
	}
	return c, nil
}

// SelectDataset rebinds a chart to another dataset
func (w *Workspace) SelectDataset(id core.ChartID, datasetID core.DatasetID) (*Chart, error) {
	return w.gesture(id, func(c *Chart) error {
		ds, err := w.Dataset(datasetID)
		if err != nil {
			return err
		}
		return c.BindDataset(ds)
	})
}

// SelectVariable loads a variable of the chart's dataset
func (w *Workspace) SelectVariable(id core.ChartID, variable string) (*Chart, error) {
	return w.gesture(id, func(c *Chart) error {
		if c.DatasetID().IsEmpty() {
			return fmt.Errorf("%w: chart has no dataset", core.ErrInvalidInput)
		}
		ds, err := w.Dataset(c.DatasetID())
		if err != nil {
			return err
		}
		return c.SelectVariable(ds, variable)
	})
}

// SetBinCount changes a chart's bin count
func (w *Workspace) SetBinCount(id core.ChartID, n int) (*Chart, error) {
	return w.gesture(id, func(c *Chart) error { return c.SetBinCount(n) })
}

// SetChartType changes a chart's presentation
func (w *Workspace) SetChartType(id core.ChartID, t ChartType) (*Chart, error) {
	return w.gesture(id, func(c *Chart) error { return c.SetChartType(t) })
}

// SetColor changes a chart's bar color
func (w *Workspace) SetColor(id core.ChartID, color string) (*Chart, error) {
	return w.gesture(id, func(c *Chart) error { return c.SetColor(color) })
}

// Brush zooms a chart; applied is false when the chart ignores brushing
func (w *Workspace) Brush(id core.ChartID, lo, hi float64) (chart *Chart, applied bool, err error) {
	chart, err = w.gesture(id, func(c *Chart) error {
		var berr error
		applied, berr = c.Brush(lo, hi)
		return berr
	})
	return chart, applied, err
}

// ResetZoom restores a chart's full domain
func (w *Workspace) ResetZoom(id core.ChartID) (chart *Chart, applied bool, err error) {
	chart, err = w.gesture(id, func(c *Chart) error {
		var rerr error
		applied, rerr = c.ResetZoom()
		return rerr
	})
	return chart, applied, err
}

// Merge overlays two charts' variable in a new merged chart
func (w *Workspace) Merge(a, b core.ChartID) (*MergedChart, error) {
	ca, err := w.Chart(a)
	if err != nil {
		return nil, w.Fail(err)
	}
	cb, err := w.Chart(b)
	if err != nil {
		return nil, w.Fail(err)
	}
	m, err := NewMergedChart(w.engine, ca, cb)
	if err != nil {
		return nil, w.Fail(err)
	}
	w.merged[m.ID] = m
	w.mergedOrder = append(w.mergedOrder, m.ID)
	w.Info("Merged %s from %s and %s", m.Variable, m.Sources[0].DatasetName, m.Sources[1].DatasetName)
	return m, nil
}

// MergedChart looks up a merged chart by id
func (w *Workspace) MergedChart(id core.MergedChartID) (*MergedChart, error) {
	m, ok := w.merged[id]
	if !ok {
		return nil, core.NewNotFoundError(core.ErrChartNotFound, id.String())
	}
	return m, nil
}

// MergedCharts returns every merged chart in creation order
func (w *Workspace) MergedCharts() []*MergedChart {
	out := make([]*MergedChart, 0, len(w.mergedOrder))
	for _, id := range w.mergedOrder {
		out = append(out, w.merged[id])
	}
	return out
}

// RemoveMerged destroys a merged chart. Its source charts are untouched.
func (w *Workspace) RemoveMerged(id core.MergedChartID) error {
	if _, ok := w.merged[id]; !ok {
		return w.Fail(core.NewNotFoundError(core.ErrChartNotFound, id.String()))
	}
	w.dropMerged(id)
	return nil
}

func (w *Workspace) mergedGesture(id core.MergedChartID, fn func(*MergedChart) error) (*MergedChart, error) {
	m, err := w.MergedChart(id)
	if err != nil {
		return nil, w.Fail(err)
	}
	if err := fn(m); err != nil {
		return m, w.Fail(err)
	}
	return m, nil
}

// BrushMerged zooms both sources of a merged chart into [lo, hi]
func (w *Workspace) BrushMerged(id core.MergedChartID, lo, hi float64) (merged *MergedChart, applied bool, err error) {
	merged, err = w.mergedGesture(id, func(m *MergedChart) error {
		var berr error
		applied, berr = m.Brush(lo, hi)
		return berr
	})
	return merged, applied, err
}

// ResetMergedZoom restores a merged chart's combined domain
func (w *Workspace) ResetMergedZoom(id core.MergedChartID) (*MergedChart, error) {
	return w.mergedGesture(id, func(m *MergedChart) error { return m.ResetZoom() })
}
