package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/carbocation/vocsensor/analyzer"
	"github.com/carbocation/vocsensor/compileinfo"
	"github.com/carbocation/vocsensor/config"
	"github.com/carbocation/vocsensor/extract"
	"github.com/carbocation/vocsensor/plot"
	"github.com/carbocation/vocsensor/sensorarray"
	"github.com/gorilla/mux"
)

var errBadRequest = errors.New("bad request")

type handler struct {
	*Global
	router *mux.Router
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// parsePosition accepts "3", "C3" or "c3" (with prefix "C") and returns
// the 0-based index.
func parsePosition(s, prefix string) (int, error) {
	trimmed := strings.TrimPrefix(strings.ToUpper(s), prefix)
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q is not a position like %s1", errBadRequest, s, prefix)
	}

	return n - 1, nil
}

// withSession runs f on the loaded session while holding the lock.
func (h *handler) withSession(f func(s *analyzer.Session) error) error {
	h.m.Lock()
	defer h.m.Unlock()

	if h.session == nil {
		return errNoDataset
	}

	return f(h.session)
}

type datasetEntry struct {
	Key  string `json:"key"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type gasEntry struct {
	Key      string         `json:"key"`
	Name     string         `json:"name"`
	Datasets []datasetEntry `json:"datasets"`
}

func (h *handler) Gases(w http.ResponseWriter, r *http.Request) {
	out := make([]gasEntry, 0, len(h.Config.Gases))
	for _, gk := range h.Config.GasKeys() {
		g := h.Config.Gases[gk]
		entry := gasEntry{Key: gk, Name: g.Name, Datasets: []datasetEntry{}}
		for _, dk := range g.DatasetKeys() {
			entry.Datasets = append(entry.Datasets, datasetEntry{Key: dk, ID: config.DatasetID(gk, dk), Name: g.Datasets[dk].Name})
		}
		out = append(out, entry)
	}

	writeJSON(w, out)
}

type loadResponse struct {
	ID       string `json:"id"`
	Gas      string `json:"gas"`
	Dataset  string `json:"dataset"`
	Samples  int    `json:"samples"`
	Rows     int    `json:"rows"`
	Cols     int    `json:"cols"`
	Policy   string `json:"policy"`
	Extended int    `json:"extended"`
	Cycles   int    `json:"cycles"`
}

func (h *handler) Load(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	started := time.Now()
	loaded, err := h.Config.Load(vars["gas"], vars["dataset"], h.storageClient, h.log)
	if err != nil {
		h.metrics.RecordLoad(started, 0, err)
		h.log.Printf("An error occurred while loading this dataset: %v\n", err)
		JSONError(h, w, r, err)
		return
	}

	ex := extract.Extractor{Sink: h.Sink, DatasetID: loaded.ID, Log: h.log}
	session, err := analyzer.New(loaded.Data, loaded.Schedule, ex, h.log)
	if err != nil {
		JSONError(h, w, r, err)
		return
	}

	h.m.Lock()
	h.loaded = &loaded
	h.session = session
	h.m.Unlock()
	h.metrics.RecordLoad(started, loaded.Data.Len(), nil)

	writeJSON(w, loadResponse{
		ID:       loaded.ID,
		Gas:      loaded.Gas.Name,
		Dataset:  loaded.Dataset.Name,
		Samples:  loaded.Data.Len(),
		Rows:     loaded.Data.NumRows(),
		Cols:     loaded.Data.NumCols(),
		Policy:   loaded.Data.Policy.String(),
		Extended: loaded.Data.Extended,
		Cycles:   loaded.Schedule.Len(),
	})
}

// stateResponse is the session state plus the dataset it was loaded from.
type stateResponse struct {
	ID      string `json:"id"`
	Gas     string `json:"gas"`
	Dataset string `json:"dataset"`
	Cycles  int    `json:"cycles"`
	analyzer.State
}

func (h *handler) State(w http.ResponseWriter, r *http.Request) {
	var st stateResponse
	if err := h.withSession(func(s *analyzer.Session) error {
		st.State = s.State()
		if h.loaded != nil {
			st.ID = h.loaded.ID
			st.Gas = h.loaded.Gas.Name
			st.Dataset = h.loaded.Dataset.Name
			st.Cycles = h.loaded.Schedule.Len()
		}
		return nil
	}); err != nil {
		JSONError(h, w, r, err)
		return
	}

	writeJSON(w, st)
}

// mutate applies f to the session and responds with the resulting state.
func (h *handler) mutate(w http.ResponseWriter, r *http.Request, f func(s *analyzer.Session) error) {
	var st analyzer.State
	if err := h.withSession(func(s *analyzer.Session) error {
		if err := f(s); err != nil {
			return err
		}
		st = s.State()
		return nil
	}); err != nil {
		JSONError(h, w, r, err)
		return
	}

	writeJSON(w, st)
}

func (h *handler) Row(w http.ResponseWriter, r *http.Request) {
	row, err := parsePosition(mux.Vars(r)["row"], "C")
	if err != nil {
		JSONError(h, w, r, err)
		return
	}

	h.mutate(w, r, func(s *analyzer.Session) error {
		if err := s.SelectRow(row); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return nil
	})
}

func (h *handler) Sensor(w http.ResponseWriter, r *http.Request) {
	sensor, err := parsePosition(mux.Vars(r)["sensor"], "A")
	if err != nil {
		JSONError(h, w, r, err)
		return
	}

	h.mutate(w, r, func(s *analyzer.Session) error {
		if err := s.SelectSensor(sensor); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return nil
	})
}

func (h *handler) Signal(w http.ResponseWriter, r *http.Request) {
	kind, err := sensorarray.ParseSignalKind(mux.Vars(r)["kind"])
	if err != nil {
		JSONError(h, w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	h.mutate(w, r, func(s *analyzer.Session) error {
		return s.SetSignal(kind)
	})
}

// Selection drives the begin/update/end protocol. The time is taken from
// the t query parameter, in seconds.
func (h *handler) Selection(w http.ResponseWriter, r *http.Request) {
	t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil {
		JSONError(h, w, r, fmt.Errorf("%w: t must be a time in seconds", errBadRequest))
		return
	}

	var out interface{}
	err = h.withSession(func(s *analyzer.Session) error {
		var err error
		switch mux.Vars(r)["phase"] {
		case "begin":
			out, err = s.BeginSelection(t)
		case "update":
			out, err = s.UpdateSelection(t)
		case "end":
			out, err = s.EndSelection(t)
			if err == nil {
				h.metrics.RecordSelection()
			}
		}
		return err
	})
	if err != nil {
		JSONError(h, w, r, err)
		return
	}

	writeJSON(w, out)
}

func (h *handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(s *analyzer.Session) error {
		s.ClearSelection()
		return nil
	})
}

type extractResponse struct {
	Segments int      `json:"segments"`
	Cycles   []int    `json:"cycles"`
	Files    []string `json:"files"`
	Output   string   `json:"output"`
}

func (h *handler) Extract(w http.ResponseWriter, r *http.Request) {
	var res extract.Result
	err := h.withSession(func(s *analyzer.Session) error {
		var err error
		res, err = s.Extract()
		return err
	})
	h.metrics.RecordExtraction(res.Segments, err)
	if err != nil {
		JSONError(h, w, r, err)
		return
	}

	out := extractResponse{Segments: res.Segments, Cycles: []int{}, Files: res.Files, Output: h.Sink.String()}
	for _, c := range res.Cycles {
		out.Cycles = append(out.Cycles, c.Number())
	}
	if out.Files == nil {
		out.Files = []string{}
	}

	writeJSON(w, out)
}

func (h *handler) Plot(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.withSession(func(s *analyzer.Session) error {
		rc := plot.RowChart{
			Time:        s.Dataset().Time,
			Row:         s.ActiveRow(),
			RowIndex:    s.Row(),
			SignalLabel: s.Signal().Label(),
			Schedule:    s.Schedule(),
			YMin:        h.YMin,
			YMax:        h.YMax,
		}
		if win, ok := s.Window(); ok {
			rc.Selection = &win
		}
		return rc.Render(&buf)
	}); err != nil {
		JSONError(h, w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = buf.WriteTo(w)
}

func (h *handler) Board(w http.ResponseWriter, r *http.Request) {
	b := plot.Board{Rows: h.Config.Rows, Cols: h.Config.Cols}
	_ = h.withSession(func(s *analyzer.Session) error {
		b.Row, b.Sensor = s.Row(), s.Sensor()
		return nil
	})

	var buf bytes.Buffer
	if err := b.Render(&buf); err != nil {
		JSONError(h, w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = buf.WriteTo(w)
}

func (h *handler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, compileinfo.Get())
}
