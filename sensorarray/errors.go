package sensorarray

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFileNotFound is reported when a channel file does not exist.
	ErrFileNotFound = errors.New("channel file not found")

	// ErrMalformedInput is reported when a channel file does not parse as
	// rows of numbers of a consistent width.
	ErrMalformedInput = errors.New("malformed channel input")

	// ErrDataUnavailable is reported when a dataset cannot be built because
	// at least one of its channels is unusable.
	ErrDataUnavailable = errors.New("channel data unavailable")
)

// ChannelError describes a failure to load one channel.
type ChannelError struct {
	Channel string
	Path    string
	Line    int // 1-based; 0 when the failure is not tied to a line
	Detail  string
	Err     error
}

func (e *ChannelError) Error() string {
	var b strings.Builder

	if e.Channel != "" {
		b.WriteString(e.Channel)
		b.WriteString(" channel ")
	}
	if e.Path != "" {
		fmt.Fprintf(&b, "(%s) ", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	b.WriteString(e.Err.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	return b.String()
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

func malformed(line int, format string, args ...interface{}) *ChannelError {
	return &ChannelError{Line: line, Detail: fmt.Sprintf(format, args...), Err: ErrMalformedInput}
}

// DataUnavailableError aggregates the channel failures that stopped a
// dataset from being built. It matches ErrDataUnavailable with errors.Is, as
// well as anything the individual failures match.
type DataUnavailableError struct {
	Failures []error
}

func (e *DataUnavailableError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}

	return fmt.Sprintf("%s: %s", ErrDataUnavailable, strings.Join(msgs, "; "))
}

func (e *DataUnavailableError) Is(target error) bool {
	if target == ErrDataUnavailable {
		return true
	}

	for _, f := range e.Failures {
		if errors.Is(f, target) {
			return true
		}
	}

	return false
}
