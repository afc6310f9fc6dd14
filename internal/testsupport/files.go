package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// SampleEventLog is a two-instance export: a tagged goal by J. Doe and an
// unlabelled corner.
const SampleEventLog = `<?xml version="1.0" encoding="UTF-8"?>
<file>
  <ALL_INSTANCES>
    <instance>
      <ID>1</ID>
      <start>61.999</start>
      <end>75.5</end>
      <code>Goal</code>
      <label><group>Player</group><text>J. Doe</text></label>
    </instance>
    <instance>
      <ID>2</ID>
      <start>120</start>
      <end>130</end>
      <code>Corner</code>
    </instance>
  </ALL_INSTANCES>
</file>
`

// WriteEventLog writes SampleEventLog (or the given contents) beneath the
// test's temp directory and returns its path.
func WriteEventLog(t testing.TB, dir, contents string) string {
	t.Helper()
	if contents == "" {
		contents = SampleEventLog
	}
	path := filepath.Join(dir, "events.xml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write event log: %v", err)
	}
	return path
}
