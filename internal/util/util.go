package util

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var dateInputFormats = []string{"2006-01-02", "01/02/2006", "01-02-2006"}

// NormalizeDate parses a user-supplied date in any of the accepted input
// formats and returns it as YYYY-MM-DD. Unparseable or empty input yields
// ok=false, which callers treat as "no override" rather than an error.
func NormalizeDate(value string) (string, bool) {
	text := strings.TrimSpace(value)
	if text == "" {
		return "", false
	}
	for _, layout := range dateInputFormats {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed.Format("2006-01-02"), true
		}
	}
	return "", false
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// LogFileName builds the collision-resistant name for a job's persisted
// output stream: query id (filename-sanitized), UTC timestamp and a short
// job-id fragment keep concurrent jobs from ever overwriting each other.
func LogFileName(queryID string, ts time.Time, jobID, stream string) string {
	id := unsafeFilenameChars.ReplaceAllString(queryID, "_")
	short := jobID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s_%s_%s_%s.txt", id, ts.UTC().Format("20060102T150405Z"), short, stream)
}

func RecordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
