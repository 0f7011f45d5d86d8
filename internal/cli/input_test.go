package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("  alice  \n"))

	got, err := GetSimpleText(reader, "Enter user name", &out)
	if err != nil {
		t.Fatalf("GetSimpleText error: %v", err)
	}
	if got != "alice" {
		t.Errorf("expected trimmed input, got %q", got)
	}
	if !strings.Contains(out.String(), "Enter user name") {
		t.Errorf("prompt not written: %q", out.String())
	}
}

func TestGetSimpleText_EOFWithPartialLine(t *testing.T) {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("bob"))

	got, err := GetSimpleText(reader, "Enter user name", &out)
	if err != nil {
		t.Fatalf("GetSimpleText error: %v", err)
	}
	if got != "bob" {
		t.Errorf("expected partial line, got %q", got)
	}
}

func TestGetSecret_UsesSeam(t *testing.T) {
	orig := readPassword
	readPassword = func(fd int) ([]byte, error) {
		return []byte("hunter2"), nil
	}
	defer func() { readPassword = orig }()

	var out bytes.Buffer
	got, err := GetSecret("Enter master password", &out)
	if err != nil {
		t.Fatalf("GetSecret error: %v", err)
	}
	if string(got) != "hunter2" {
		t.Errorf("unexpected secret: %q", got)
	}
	if !strings.Contains(out.String(), "Enter master password") {
		t.Errorf("prompt not written: %q", out.String())
	}
}

func TestGetMultiline(t *testing.T) {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("line one\nline two\n\nignored\n"))

	got, err := GetMultiline(reader, "Enter content", &out)
	if err != nil {
		t.Fatalf("GetMultiline error: %v", err)
	}
	if got != "line one\nline two" {
		t.Errorf("unexpected text: %q", got)
	}
}
