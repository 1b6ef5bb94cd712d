package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file is not an error.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one record of the JSON file sink.
type Entry struct {
	Time     time.Time
	Level    string
	Message  string
	Date     string
	Hostname string
	Source   string
	Fields   map[string]any
	Raw      string
}

// reserved keys are lifted out of Fields.
var reserved = map[string]struct{}{
	"time": {}, "level": {}, "msg": {}, "date": {}, "datetime": {}, "hostname": {}, "source": {},
}

// Parse decodes one line. Lines that are not JSON objects come back as an
// entry carrying only Raw and Message.
func Parse(line string) Entry {
	entry := Entry{Raw: line}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		entry.Message = strings.TrimSpace(line)
		return entry
	}

	entry.Level = strings.ToUpper(stringField(fields, "level"))
	entry.Message = stringField(fields, "msg")
	entry.Date = stringField(fields, "date")
	entry.Hostname = stringField(fields, "hostname")
	entry.Source = stringField(fields, "source")
	if ts := stringField(fields, "time"); ts != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Time = parsed
		}
	}
	for key, value := range fields {
		if _, skip := reserved[key]; skip {
			continue
		}
		if entry.Fields == nil {
			entry.Fields = make(map[string]any)
		}
		entry.Fields[key] = value
	}
	return entry
}

// Tail reads the last maxLines records with at least minLevel severity.
// An empty minLevel keeps everything.
func Tail(path string, maxLines int, minLevel string) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	floor := 0
	if strings.TrimSpace(minLevel) != "" {
		floor = levelRank(minLevel)
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry := Parse(line)
		if levelRank(entry.Level) < floor {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// String renders the entry on one line: date, level, message, then the
// remaining fields sorted by key.
func (e Entry) String() string {
	if e.Level == "" && e.Fields == nil && e.Date == "" {
		return e.Raw
	}
	var b strings.Builder
	stamp := e.Date
	if stamp == "" && !e.Time.IsZero() {
		stamp = e.Time.Format("2006-01-02 15:04:05")
	}
	if stamp != "" {
		b.WriteString(stamp)
		b.WriteByte(' ')
	}
	if e.Level != "" {
		b.WriteString(e.Level)
		b.WriteByte(' ')
	}
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(renderValue(e.Fields[key]))
	}
	return b.String()
}

func renderValue(v any) string {
	if s, ok := v.(string); ok {
		if strings.ContainsAny(s, " \t\"=") {
			return fmt.Sprintf("%q", s)
		}
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func stringField(fields map[string]any, key string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

func levelRank(level string) int {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return 0
	case "", "INFO":
		return 1
	case "WARN", "WARNING":
		return 2
	case "ERROR":
		return 3
	}
	return 1
}
