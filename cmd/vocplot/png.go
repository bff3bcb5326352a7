package main

import (
	"bytes"
	"io"
	"os"
)

// writePNG renders into memory first so a failed render leaves no partial
// file behind.
func writePNG(name string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}

	outFile, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := buf.WriteTo(outFile); err != nil {
		outFile.Close()
		return err
	}

	return outFile.Close()
}
