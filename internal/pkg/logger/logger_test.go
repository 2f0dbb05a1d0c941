package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitWithWriterLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("warn", &buf)

	Info("below the configured level")
	Warn("ledger mirror unreachable", "model", "wq-rf")

	out := buf.String()
	if strings.Contains(out, "below the configured level") {
		t.Fatalf("info line must be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "ledger mirror unreachable") {
		t.Fatalf("warn line missing: %s", out)
	}
	if !strings.Contains(out, `"model":"wq-rf"`) {
		t.Fatalf("structured attrs must be JSON-encoded: %s", out)
	}

	// once 语义：重复 Init 不会换 handler，级别也不变
	Init("debug")
	Debug("still filtered")
	if strings.Contains(buf.String(), "still filtered") {
		t.Fatalf("re-init must not reset the handler: %s", buf.String())
	}
}
