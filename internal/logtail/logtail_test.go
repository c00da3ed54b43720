package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "missing.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestParse(t *testing.T) {
	line := `{"level":"warn","component":"coordinator","error":"timeout","failures":2,"host":"cam","time":"2026-03-07T14:05:09Z","message":"refresh failed"}`
	e := Parse(line)

	if !e.Structured() {
		t.Fatal("Structured() = false, want true")
	}
	if e.Level != "WARN" || e.Component != "coordinator" || e.Message != "refresh failed" || e.Error != "timeout" {
		t.Fatalf("Parse() = %+v", e)
	}
	want := time.Date(2026, time.March, 7, 14, 5, 9, 0, time.UTC)
	if !e.Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", e.Time, want)
	}
	wantFields := []Field{{Key: "failures", Value: "2"}, {Key: "host", Value: "cam"}}
	if !reflect.DeepEqual(e.Fields, wantFields) {
		t.Fatalf("Fields = %v, want %v", e.Fields, wantFields)
	}
}

func TestParseRaw(t *testing.T) {
	for _, line := range []string{"plain text", "{broken", ""} {
		e := Parse(line)
		if e.Structured() {
			t.Errorf("Parse(%q) structured, want raw", line)
		}
		if Format(e) != line {
			t.Errorf("Format(Parse(%q)) = %q", line, Format(e))
		}
	}
}

func TestFormat(t *testing.T) {
	e := Entry{
		JSON:      true,
		Time:      time.Date(2026, time.March, 7, 14, 5, 9, 0, time.Local),
		Level:     "WARN",
		Component: "coordinator",
		Message:   "refresh failed",
		Error:     "timeout",
		Fields:    []Field{{Key: "failures", Value: "2"}, {Key: "empty", Value: ""}},
	}
	want := "2026-03-07 14:05:09 WARN [coordinator] – refresh failed\n    - error: timeout\n    - failures: 2"
	if got := Format(e); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}

	minimal := Entry{JSON: true, Message: "hello"}
	if got := Format(minimal); got != "INFO – hello" {
		t.Errorf("Format() = %q, want %q", got, "INFO – hello")
	}
}

func TestReadEntries(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "z.log")
	data := `{"level":"info","message":"one"}` + "\n\n" + "raw line\n" + `{"level":"error","message":"two"}` + "\n"
	if err := os.WriteFile(logPath, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	entries, err := ReadEntries(logPath, 0)
	if err != nil {
		t.Fatalf("ReadEntries() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("ReadEntries() returned %d entries, want 3", len(entries))
	}
	if entries[0].Message != "one" || entries[1].Raw != "raw line" || entries[2].Level != "ERROR" {
		t.Errorf("ReadEntries() = %+v", entries)
	}
}
