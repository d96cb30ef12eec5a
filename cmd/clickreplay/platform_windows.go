//go:build windows

package main

import (
	"io"

	"github.com/v0xg/clickreplay/internal/progress"
)

func titleSink(io.Writer) progress.Sink {
	return &progress.ConsoleTitle{}
}

func stopHint() string {
	return "Press ESC key at any time to immediately stop the procedure!"
}
