// Package balance keeps two output directories at the same file count by
// deleting the newest files of whichever holds more. It runs after every
// replay round when enabled in the configuration.
package balance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ErrNoProgress is returned when a deletion did not lower the file count
var ErrNoProgress = errors.New("file count did not change after delete")

// Pair is the two directories to balance
type Pair struct {
	Path1 string
	Path2 string
	Log   logrus.FieldLogger
}

// Count returns the number of regular files directly inside dir
func Count(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() {
			n++
		}
	}
	return n, nil
}

// Newest returns the most recently modified regular file in dir. Ties are
// broken by name so the choice is stable.
func Newest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var (
		best    string
		bestMod int64
	)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		mod := info.ModTime().UnixNano()
		if best == "" || mod > bestMod || (mod == bestMod && e.Name() > best) {
			best, bestMod = e.Name(), mod
		}
	}
	if best == "" {
		return "", fmt.Errorf("no files in %s", dir)
	}
	return filepath.Join(dir, best), nil
}

// Balance deletes newest files from the larger directory until both hold
// the same number of files. It returns the removed paths.
func (p Pair) Balance() ([]string, error) {
	log := p.Log
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}

	var removed []string
	for {
		n1, err := Count(p.Path1)
		if err != nil {
			return removed, fmt.Errorf("count %s: %w", p.Path1, err)
		}
		n2, err := Count(p.Path2)
		if err != nil {
			return removed, fmt.Errorf("count %s: %w", p.Path2, err)
		}
		if n1 == n2 {
			return removed, nil
		}

		larger, label := p.Path1, "Path1"
		before := n1
		if n2 > n1 {
			larger, label = p.Path2, "Path2"
			before = n2
		}

		victim, err := Newest(larger)
		if err != nil {
			return removed, err
		}
		log.WithFields(logrus.Fields{"dir": larger, "file": victim}).
			Warnf("%s has more files than the other directory, deleting newest", label)

		if err := os.Remove(victim); err != nil {
			return removed, fmt.Errorf("delete %s: %w", victim, err)
		}
		removed = append(removed, victim)

		after, err := Count(larger)
		if err != nil {
			return removed, fmt.Errorf("count %s: %w", larger, err)
		}
		if after >= before {
			return removed, fmt.Errorf("%s: %w", larger, ErrNoProgress)
		}
	}
}

// AfterIteration adapts Balance to the executor's per-round hook
func (p Pair) AfterIteration(round int) error {
	removed, err := p.Balance()
	if len(removed) > 0 && p.Log != nil {
		p.Log.WithFields(logrus.Fields{"round": round, "removed": len(removed)}).Info("Directories balanced")
	}
	return err
}
