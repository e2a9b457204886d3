package logging

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-logfmt/logfmt"
)

// writer decodes logfmt records emitted by slog's text handler and feeds
// them into the logging service.
type writer struct{}

func (w *writer) Write(p []byte) (int, error) {
	d := logfmt.NewDecoder(bytes.NewReader(p))
	for d.ScanRecord() {
		msg := Log{}

		for d.ScanKeyval() {
			switch string(d.Key()) {
			case "time":
				parsed, err := time.Parse(time.RFC3339, string(d.Value()))
				if err != nil {
					return 0, fmt.Errorf("parsing time: %w", err)
				}
				msg.Timestamp = parsed
			case "level":
				msg.Level = strings.ToLower(string(d.Value()))
			case "msg":
				msg.Message = string(d.Value())
			default:
				if msg.Attributes == nil {
					msg.Attributes = make(map[string]string)
				}
				msg.Attributes[string(d.Key())] = string(d.Value())
			}
		}

		GetService().Create(context.Background(), msg)
	}
	if d.Err() != nil {
		return 0, d.Err()
	}
	return len(p), nil
}

// NewWriter returns an io.Writer suitable as the sink of a slog text handler.
func NewWriter() *writer {
	return &writer{}
}
