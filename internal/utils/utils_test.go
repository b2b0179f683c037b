package utils

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestWorkerLockIsExclusive(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state", "testovak.sqlite")

	first, err := NewWorkerLock(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.TryLock(); err != nil {
		t.Fatalf("expected first lock to succeed, got %v", err)
	}

	second, err := NewWorkerLock(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := second.TryLock(); !errors.Is(err, ErrWorkerRunning) {
		t.Fatalf("expected ErrWorkerRunning, got %v", err)
	}

	if err := first.Unlock(); err != nil {
		t.Fatal(err)
	}
	if err := second.TryLock(); err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}
	second.Unlock()

	if !strings.HasSuffix(first.Path(), "testovak.sqlite.lock") {
		t.Fatalf("unexpected lock path %s", first.Path())
	}
}

func TestGetAbsDBPathDefault(t *testing.T) {
	p, err := GetAbsDBPath("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(p, filepath.Join(".config", "testovak", "testovak.sqlite")) {
		t.Fatalf("unexpected default path %s", p)
	}
}

func TestRetryLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(logrus.DebugLevel)

	RetryLogger{L: l}.Warn("retrying", "url", "https://example.edu", "attempt")
	out := buf.String()
	if !strings.Contains(out, "url=\"https://example.edu\"") && !strings.Contains(out, "url=https://example.edu") {
		t.Fatalf("expected url field, got %q", out)
	}
	if !strings.Contains(out, "extra=attempt") {
		t.Fatalf("expected dangling value under extra, got %q", out)
	}
}
