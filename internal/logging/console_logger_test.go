package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
)

func TestConsoleLogger_Verbose(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    string
	}{
		{"enabled", true, "[VERBOSE] loaded mapping hospital_2024.json\n"},
		{"disabled", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewConsoleLoggerTo(&buf, tt.verbose)
			logger.Verbose("loaded mapping %s", "hospital_2024.json")
			if buf.String() != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestConsoleLogger_InfoAndError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)

	logger.Info("✓ compiled %d schemas", 4)
	logger.Error("mapping failed: %v", "no mapping for ESRD 2020")
	logger.Info("100% done")

	want := "✓ compiled 4 schemas\n[ERROR] mapping failed: no mapping for ESRD 2020\n100% done\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestConsoleLogger_DefaultsToStderr(t *testing.T) {
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	logger := NewConsoleLogger(false)
	logger.Info("to stderr")

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	if buf.String() != "to stderr\n" {
		t.Errorf("Expected %q, got %q", "to stderr\n", buf.String())
	}
}

func TestConsoleLogger_ConcurrentLinesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, true)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("entity %d mapped", id)
			logger.Verbose("entity %d detail", id)
			logger.Error("entity %d failed", id)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 150 {
		t.Fatalf("Expected 150 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "entity ") && !strings.HasPrefix(line, "[VERBOSE] entity ") && !strings.HasPrefix(line, "[ERROR] entity ") {
			t.Errorf("Unexpected line %q", line)
		}
	}
}

func TestNullLogger_ConcurrentSafety(t *testing.T) {
	logger := NewNullLogger()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("message %d", id)
			logger.Verbose("verbose %d", id)
			logger.Error("error %d", id)
		}(i)
	}
	wg.Wait()
}

func BenchmarkConsoleLogger_Verbose(b *testing.B) {
	logger := NewConsoleLoggerTo(io.Discard, true)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Verbose("benchmark message %d", i)
	}
}

func BenchmarkConsoleLogger_VerboseDisabled(b *testing.B) {
	logger := NewConsoleLoggerTo(io.Discard, false)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Verbose("benchmark message %d", i)
	}
}

func ExampleNullLogger() {
	logger := NewNullLogger()
	logger.Info("This message is discarded")
	logger.Verbose("This too")
	logger.Error("And this")
	fmt.Println("Done")
	// Output:
	// Done
}

func ExampleNewConsoleLoggerTo() {
	logger := NewConsoleLoggerTo(os.Stdout, true)
	logger.Info("Compiling schemas")
	logger.Verbose("schemas/ahq-long/README.md")
	logger.Error("schemas/broken/README.md: malformed input")
	// Output:
	// Compiling schemas
	// [VERBOSE] schemas/ahq-long/README.md
	// [ERROR] schemas/broken/README.md: malformed input
}
