package sink

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/livp123/firesense/internal/report"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Console writes reports to a terminal or serial-style stream.
// Console 将报告写入终端。
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	format string
}

// NewConsole creates a console sink writing format ("text" or "json").
func NewConsole(w io.Writer, format string) *Console {
	if format != FormatJSON {
		format = FormatText
	}
	return &Console{w: w, format: format}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Publish(_ context.Context, r *report.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.format == FormatJSON {
		return json.NewEncoder(c.w).Encode(r)
	}
	return report.WriteText(c.w, r)
}

func (c *Console) Close() error { return nil }
