package logparser

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/nikita-bekish/qwen-analyzer/internal/domain"
)

// FormatError reports a malformed corpus line. It is fatal at load time.
type FormatError struct {
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("corpus format error at line %d: %s", e.Line, e.Reason)
}

// ParseFile reads a JSONL corpus file into ordered log records.
func ParseFile(path string) ([]byte, []domain.LogRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	records, err := Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	return raw, records, nil
}

// Parse interprets raw bytes as one JSON object per line. Blank lines are
// skipped; anything else that fails to parse is a FormatError.
func Parse(raw []byte) ([]domain.LogRecord, error) {
	var p fastjson.Parser
	var records []domain.LogRecord

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		v, err := p.Parse(text)
		if err != nil {
			return nil, &FormatError{Line: line, Reason: fmt.Sprintf("invalid JSON: %v", err)}
		}
		rec, err := parseRecord(v, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan corpus: %w", err)
	}
	return records, nil
}

func parseRecord(v *fastjson.Value, line int) (domain.LogRecord, error) {
	rec := domain.LogRecord{
		Level:      string(v.GetStringBytes("level")),
		Service:    string(v.GetStringBytes("service")),
		ErrorType:  string(v.GetStringBytes("error_type")),
		Message:    string(v.GetStringBytes("message")),
		UserID:     string(v.GetStringBytes("user_id")),
		RequestID:  string(v.GetStringBytes("request_id")),
		StackTrace: string(v.GetStringBytes("stack_trace")),
	}
	if rec.Service == "" {
		return rec, &FormatError{Line: line, Reason: "missing service"}
	}
	if rec.ErrorType == "" {
		return rec, &FormatError{Line: line, Reason: "missing error_type"}
	}

	if ts := v.GetStringBytes("timestamp"); len(ts) > 0 {
		parsed, err := time.Parse(time.RFC3339, string(ts))
		if err != nil {
			return rec, &FormatError{Line: line, Reason: fmt.Sprintf("bad timestamp %q", ts)}
		}
		rec.Timestamp = parsed
	} else if unix := v.GetInt64("timestamp"); unix > 0 {
		rec.Timestamp = time.Unix(unix, 0).UTC()
	}

	if meta := v.GetObject("metadata"); meta != nil {
		rec.Metadata = make(map[string]string)
		meta.Visit(func(key []byte, val *fastjson.Value) {
			if val.Type() == fastjson.TypeString {
				rec.Metadata[string(key)] = string(val.GetStringBytes())
			} else {
				rec.Metadata[string(key)] = val.String()
			}
		})
	}
	return rec, nil
}
