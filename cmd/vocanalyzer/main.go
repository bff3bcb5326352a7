// vocanalyzer serves an HTTP API for interactively analyzing a sensor array
// recording: pick a gas and dataset, select a row, sensor and signal, drag
// out a time window to see each sensor's change in intensity, and export
// every exposure cycle inside the window.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"cloud.google.com/go/storage"
	"github.com/carbocation/vocsensor"
	_ "github.com/carbocation/vocsensor/compileinfoprint"
	"github.com/carbocation/vocsensor/config"
)

var global *Global

func main() {
	errors := make(chan error, 1)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig,
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGUSR1,
	)

	configPath := flag.String("config", "", "JSON or YAML file describing the gases and datasets to analyze.")
	outputPath := flag.String("output", "", "(Optional) Directory or gs:// prefix for extracted cycles. Overrides the config's output.")
	port := flag.Int("port", 9019, "Port for HTTP server")
	yMin := flag.Float64("ymin", 0, "(Optional) Lower bound of the plot's intensity axis. Fit to the data if ymin == ymax.")
	yMax := flag.Float64("ymax", 0, "(Optional) Upper bound of the plot's intensity axis.")
	flag.Parse()

	if *configPath == "" {
		flag.PrintDefaults()
		return
	}

	cfg, err := config.ParseFromPath(*configPath)
	if err != nil {
		log.Fatalln(err)
	}
	if *outputPath != "" {
		cfg.Output = *outputPath
	}

	var sclient *storage.Client
	if cfg.UsesGoogleStorage() {
		sclient, err = storage.NewClient(context.Background())
		if err != nil {
			log.Fatalln(err)
		}
	}

	sink, err := vocsensor.NewSink(cfg.Output, sclient)
	if err != nil {
		log.Fatalln(err)
	}

	global = &Global{
		log:           log.New(os.Stderr, log.Prefix(), log.Ldate|log.Ltime),
		storageClient: sclient,
		metrics:       NewMetrics(),
		Config:        cfg,
		Sink:          sink,
		YMin:          *yMin,
		YMax:          *yMax,
	}

	global.log.Println("--- Application Started ---")
	global.log.Printf("%d gases configured in %s; extracted cycles go to %s\n", len(cfg.Gases), cfg.ConfigPath, sink)

	go func() {
		global.log.Println("Starting HTTP server on port", *port)
		if err := http.ListenAndServe(fmt.Sprintf(`:%d`, *port), router(global)); err != nil {
			errors <- err
			global.log.Println(err)
			sig <- syscall.SIGTERM
			return
		}
	}()

Outer:
	for {
		select {
		case sigl := <-sig:
			if sigl == syscall.SIGUSR1 {
				SigStatus()
				continue
			}

			// By default, exit
			global.log.Printf("--- Exit: %s. Application shutting down. ---\n", sigl.String())

			break Outer

		case err := <-errors:
			if err == nil {
				global.log.Println("Finished")
				break Outer
			}

			// Return a status code indicating failure
			global.log.Println("Exiting due to error", err)
			os.Exit(1)
		}
	}
}

func SigStatus() {
	global.log.Println("There are", runtime.NumGoroutine(), "goroutines running")
}
