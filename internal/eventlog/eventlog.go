// Package eventlog appends one JSON line per item outcome so runs can be
// tailed or post-processed.
package eventlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"limitedseller/internal/pipeline"
)

type Event struct {
	Time        time.Time `json:"time"`
	RunID       string    `json:"run_id,omitempty"`
	AssetID     int64     `json:"asset_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	State       string    `json:"state"`
	MarketPrice int64     `json:"market_price,omitempty"`
	TargetPrice int64     `json:"target_price,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Detail      string    `json:"detail,omitempty"`
}

func FromOutcome(runID string, at time.Time, o pipeline.ItemOutcome) Event {
	return Event{
		Time:        at,
		RunID:       runID,
		AssetID:     o.Item.ID,
		Name:        o.Item.Name,
		Category:    o.Item.Category.String(),
		State:       string(o.State),
		MarketPrice: o.MarketPrice,
		TargetPrice: o.TargetPrice,
		Reason:      string(o.Reason),
		Detail:      o.Detail,
	}
}

// Writer appends records to a file, it is safe for concurrent use. A nil
// *Writer discards everything.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

// Open returns a writer appending to `path`, or nil for a blank path.
func Open(path string) (*Writer, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Writer{file: f, w: bufio.NewWriter(f)}, nil
}

// Write appends v followed by a newline and flushes, so tailers see whole
// records only.
func (w *Writer) Write(v any) error {
	if w == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return os.ErrClosed
	}
	_, err = w.w.Write(b)
	if err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}

	err := errors.Join(w.w.Flush(), w.file.Close())
	w.file = nil
	w.w = nil
	return err
}
