//go:build !windows

package main

import (
	"io"

	"github.com/v0xg/clickreplay/internal/progress"
)

func titleSink(w io.Writer) progress.Sink {
	return progress.NewTitle(w)
}

func stopHint() string {
	return "Press Ctrl+C at any time to immediately stop the procedure!"
}
