package util

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeTextRemovesNulAndControls(t *testing.T) {
	in := "ab\x00cd\x01\x02\n\txy\x7f"
	out := SanitizeText(in)
	if out != "abcd\n\txy" {
		t.Fatalf("unexpected sanitized output: %q", out)
	}
}

func TestWorkflowErrorMatchesKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewWorkflowError(ErrTransport, "ingest", cause.Error(), cause)
	if !errors.Is(err, ErrTransport) || !errors.Is(err, cause) {
		t.Fatalf("kind or cause not reachable through errors.Is")
	}
	if errors.Is(err, ErrService) {
		t.Fatalf("unexpected kind match")
	}
}

func TestWriteJSONAtomicPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "record.json")
	if err := WriteJSONAtomic(path, []byte(`{"z":1,"a":{"b":2}}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"z\": 1,\n  \"a\": {\n    \"b\": 2\n  }\n}\n"
	if string(b) != want {
		t.Fatalf("unexpected file content:\n%s", b)
	}
}
