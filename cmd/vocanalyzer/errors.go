package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/carbocation/vocsensor"
	"github.com/carbocation/vocsensor/analyzer"
	"github.com/carbocation/vocsensor/config"
	"github.com/carbocation/vocsensor/cycle"
	"github.com/carbocation/vocsensor/sensorarray"
)

var errNoDataset = errors.New("no dataset is loaded; POST /load/{gas}/{dataset} first")

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errNoDataset), errors.Is(err, analyzer.ErrEmptySelection):
		return http.StatusConflict
	case errors.Is(err, analyzer.ErrOutOfRange), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, config.ErrUnknownDataset), errors.Is(err, sensorarray.ErrFileNotFound), vocsensor.IsNotExist(err):
		return http.StatusNotFound
	case errors.Is(err, sensorarray.ErrMalformedInput), errors.Is(err, cycle.ErrConfiguration):
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}

func JSONError(h *handler, w http.ResponseWriter, r *http.Request, err error, code ...int) {
	if len(code) == 0 {
		code = []int{statusFor(err)}
	}

	w.Header().Set("Content-Type", "application/json")
	unifiedError(h, w, r, err, code...)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(struct {
		Success bool
		Message string
	}{
		false,
		err.Error(),
	})
}

func unifiedError(h *handler, w http.ResponseWriter, r *http.Request, err error, code ...int) {
	usedCode := http.StatusInternalServerError
	if len(code) > 0 {
		usedCode = code[0]
	}
	w.WriteHeader(usedCode)
	h.log.Println(r.Host, r.URL.Path, ":", usedCode, err)
}
