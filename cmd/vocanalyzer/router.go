package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/interpose/middleware"
	"github.com/justinas/alice"
)

func router(config *Global) http.Handler {
	router := mux.NewRouter()
	POST := router.Methods("POST").Subrouter()
	GET := router.Methods("GET", "HEAD").Subrouter()
	DELETE := router.Methods("DELETE").Subrouter()

	h := handler{Global: config, router: router}

	GET.HandleFunc("/gases", h.Gases).Name("gases")
	GET.HandleFunc("/state", h.State).Name("state")
	GET.HandleFunc("/plot.png", h.Plot).Name("plot")
	GET.HandleFunc("/board.png", h.Board).Name("board")
	GET.HandleFunc("/version", h.Version).Name("version")
	if config.metrics != nil {
		GET.Handle("/metrics", config.metrics.Handler()).Name("metrics")
	}

	//
	// POST
	//
	POST.HandleFunc("/load/{gas}/{dataset}", h.Load)
	POST.HandleFunc("/row/{row}", h.Row)
	POST.HandleFunc("/sensor/{sensor}", h.Sensor)
	POST.HandleFunc("/signal/{kind}", h.Signal)
	POST.HandleFunc("/selection/{phase:(?:begin|update|end)}", h.Selection)
	POST.HandleFunc("/extract", h.Extract)

	DELETE.HandleFunc("/selection", h.ClearSelection)

	standard := alice.New(
		// Log all requests to STDOUT
		middleware.GorillaLog(),
	)

	return standard.Then(router)
}
