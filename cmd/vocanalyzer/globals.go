package main

import (
	"sync"

	"cloud.google.com/go/storage"
	"github.com/carbocation/vocsensor"
	"github.com/carbocation/vocsensor/analyzer"
	"github.com/carbocation/vocsensor/config"
)

type Global struct {
	log           logger
	storageClient *storage.Client
	metrics       *Metrics

	Config config.Config
	Sink   vocsensor.Sink

	// YMin and YMax fix the plot's intensity axis when they differ.
	YMin, YMax float64

	// m guards the loaded dataset and its session; the session itself is
	// not safe for concurrent use.
	m       sync.Mutex
	loaded  *config.Loaded
	session *analyzer.Session
}

type logger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}
