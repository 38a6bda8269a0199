package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type testDoc struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

func TestWriter_SerializeJSON(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(FormatJSON, &buf)

	data := []testDoc{
		{Name: "system_info", Value: 1},
		{Name: "network_interfaces", Value: 2},
	}

	if err := writer.Serialize(context.Background(), data); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var result []testDoc
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	if len(result) != 2 {
		t.Errorf("Expected 2 items, got %d", len(result))
	}
	if result[0].Name != "system_info" || result[0].Value != 1 {
		t.Errorf("Unexpected data: %+v", result[0])
	}
}

func TestWriter_SerializeYAML(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(FormatYAML, &buf)

	data := testDoc{Name: "system_info", Value: 1}

	if err := writer.Serialize(context.Background(), data); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var result testDoc
	if err := yaml.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal YAML: %v", err)
	}
	if result != data {
		t.Errorf("Expected %+v, got %+v", data, result)
	}
}

func TestWriter_SerializeTable(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(FormatTable, &buf)

	data := map[string]any{
		"cpu": map[string]any{
			"architecture": "amd64",
			"cores":        8,
		},
		"mounts": []string{"/", "/boot"},
	}

	if err := writer.Serialize(context.Background(), data); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "FIELD") || !strings.Contains(out, "VALUE") {
		t.Errorf("Expected table header, got:\n%s", out)
	}
	if !strings.Contains(out, "cpu.architecture") {
		t.Errorf("Expected flattened key cpu.architecture, got:\n%s", out)
	}
	if !strings.Contains(out, "mounts[0]") {
		t.Errorf("Expected indexed key mounts[0], got:\n%s", out)
	}
	if !strings.Contains(out, "amd64") {
		t.Errorf("Expected value amd64, got:\n%s", out)
	}
}

func TestWriter_UnknownFormatFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(Format("xml"), &buf)

	if err := writer.Serialize(context.Background(), testDoc{Name: "x", Value: 1}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var result testDoc
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Fallback output is not JSON: %v", err)
	}
}

func TestWriter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	writer := NewWriter(FormatJSON, &bytes.Buffer{})
	if err := writer.Serialize(ctx, testDoc{}); err == nil {
		t.Fatal("Expected error for cancelled context")
	}
}

func TestFormat_IsUnknown(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML, FormatTable} {
		if f.IsUnknown() {
			t.Errorf("Format %q should be known", f)
		}
	}
	for _, f := range []Format{"", "xml", "JSON"} {
		if !f.IsUnknown() {
			t.Errorf("Format %q should be unknown", f)
		}
	}
}

func TestNewFileWriterOrStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	writer, err := NewFileWriterOrStdout(FormatJSON, path)
	if err != nil {
		t.Fatalf("NewFileWriterOrStdout failed: %v", err)
	}
	if err := writer.Serialize(context.Background(), testDoc{Name: "x", Value: 1}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	var result testDoc
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Output file is not JSON: %v", err)
	}

	// Empty path targets stdout and needs no file cleanup.
	stdoutWriter, err := NewFileWriterOrStdout(FormatJSON, "")
	if err != nil {
		t.Fatalf("NewFileWriterOrStdout with empty path failed: %v", err)
	}
	if err := stdoutWriter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}
