package eventlog_test

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"matchreel/internal/eventlog"
	"matchreel/internal/testsupport"
)

func TestParseSampleExport(t *testing.T) {
	drafts, err := eventlog.Parse([]byte(testsupport.SampleEventLog))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := []eventlog.Draft{
		{Tag: "Goal", Player: "J. Doe", StartMs: 61999, EndMs: 75500},
		{Tag: "Corner", Player: "", StartMs: 120000, EndMs: 130000},
	}
	if len(drafts) != len(want) {
		t.Fatalf("expected %d drafts, got %d: %+v", len(want), len(drafts), drafts)
	}
	for i := range want {
		if drafts[i] != want[i] {
			t.Fatalf("draft %d = %+v, want %+v", i, drafts[i], want[i])
		}
	}
}

func TestParseDefaultsAndSkips(t *testing.T) {
	doc := `<root>
  <instance><start>1</start><end>2</end></instance>
  <instance><start>3</start><code>  </code><end>4</end></instance>
  <instance><end>5</end><code>NoStart</code></instance>
  <instance><start>abc</start><end>6</end><code>Garbage</code></instance>
  <instance><start>-1</start><end>6</end><code>Negative</code></instance>
  <instance><start>9</start><end>8</end><code>Inverted</code></instance>
  <instance><start>0.0005</start><end>1e1</end><code>Tiny</code></instance>
  <instance><start>9223372036854775.999</start><end>9223372036854775.999</end><code>Overflow</code></instance>
  <instance><start>9.223372036854775807e15</start><end>9.223372036854775807e15</end><code>OverflowExp</code></instance>
  <instance><start>9223372036854775.807</start><end>9223372036854775.807</end><code>Largest</code></instance>
</root>`
	res, err := eventlog.ParseDetailed([]byte(doc))
	if err != nil {
		t.Fatalf("ParseDetailed returned error: %v", err)
	}
	if res.Instances != 10 || res.Skipped != 6 {
		t.Fatalf("unexpected counts: instances=%d skipped=%d", res.Instances, res.Skipped)
	}
	if len(res.Drafts) != 4 {
		t.Fatalf("expected 3 drafts, got %+v", res.Drafts)
	}
	if res.Drafts[0].Tag != eventlog.UnknownTag || res.Drafts[0].Player != "" {
		t.Fatalf("missing code should default to Unknown: %+v", res.Drafts[0])
	}
	if res.Drafts[1].Tag != eventlog.UnknownTag {
		t.Fatalf("blank code should default to Unknown: %+v", res.Drafts[1])
	}
	if res.Drafts[2].StartMs != 0 || res.Drafts[2].EndMs != 10000 {
		t.Fatalf("unexpected conversion: %+v", res.Drafts[2])
	}
	if res.Drafts[3].Tag != "Largest" || res.Drafts[3].StartMs != math.MaxInt64 {
		t.Fatalf("largest representable offset should survive: %+v", res.Drafts[3])
	}
	for _, d := range res.Drafts {
		if d.StartMs < 0 || d.EndMs < d.StartMs {
			t.Fatalf("draft outside range: %+v", d)
		}
	}
}

func TestParseFindsNestedAndNamespacedInstances(t *testing.T) {
	doc := `<?xml version="1.0"?>
<sc:file xmlns:sc="urn:sportscode">
  <sc:SESSION><sc:ALL_INSTANCES>
    <sc:instance>
      <sc:start>10</sc:start><sc:end>12.25</sc:end><sc:code>Shot</sc:code>
      <sc:label><sc:text>A. Smith</sc:text></sc:label>
      <sc:label><sc:text>Second label</sc:text></sc:label>
    </sc:instance>
  </sc:ALL_INSTANCES></sc:SESSION>
</sc:file>`
	drafts, err := eventlog.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	got := drafts[0]
	if got.Tag != "Shot" || got.Player != "A. Smith" || got.StartMs != 10000 || got.EndMs != 12250 {
		t.Fatalf("unexpected draft: %+v", got)
	}
}

func TestParseEmptyDocumentIsValid(t *testing.T) {
	drafts, err := eventlog.Parse([]byte(`<file><ALL_INSTANCES/></file>`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if drafts == nil || len(drafts) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", drafts)
	}
}

func TestParseMalformed(t *testing.T) {
	for name, doc := range map[string]string{
		"unclosed":   `<file><instance><start>1</start>`,
		"mismatched": `<file><instance></file>`,
		"empty":      ``,
		"not xml":    `just some text`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := eventlog.Parse([]byte(doc))
			if !errors.Is(err, eventlog.ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestParseLatin1Declaration(t *testing.T) {
	doc := `<?xml version="1.0" encoding="ISO-8859-1"?><file><instance><start>1</start><end>2</end><code>Tackle</code><label><text>José Müller</text></label></instance></file>`
	raw, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(doc))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	res, err := eventlog.ParseDetailed(raw)
	if err != nil {
		t.Fatalf("ParseDetailed returned error: %v", err)
	}
	if len(res.Drafts) != 1 || res.Drafts[0].Player != "José Müller" {
		t.Fatalf("unexpected drafts: %+v", res.Drafts)
	}
}

func TestParseUTF16WithBOM(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-16"?><file><instance><start>4.5</start><end>5</end><code>Save</code></instance></file>`
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	raw, err := enc.Bytes([]byte(doc))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	res, err := eventlog.ParseDetailed(raw)
	if err != nil {
		t.Fatalf("ParseDetailed returned error: %v", err)
	}
	if res.Encoding != "utf-16le" {
		t.Fatalf("expected utf-16le detection, got %q", res.Encoding)
	}
	if len(res.Drafts) != 1 || res.Drafts[0].StartMs != 4500 {
		t.Fatalf("unexpected drafts: %+v", res.Drafts)
	}
}

func TestParseUndeclaredLegacyBytesDecodeLeniently(t *testing.T) {
	// 0xE9 is not valid UTF-8 on its own; sniffing falls back to a single
	// byte encoding instead of rejecting the document.
	raw := append([]byte(`<file><instance><start>1</start><end>2</end><code>Caf`), 0xE9)
	raw = append(raw, []byte(`</code></instance></file>`)...)
	drafts, err := eventlog.Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Tag != "Café" {
		t.Fatalf("unexpected drafts: %+v", drafts)
	}
}

func TestParseInvalidUTF8IsReplaced(t *testing.T) {
	raw := append([]byte(`<?xml version="1.0" encoding="UTF-8"?><file><instance><start>1</start><end>2</end><code>Bad`), 0xFF, 0xFE)
	raw = append(raw, []byte(`</code></instance></file>`)...)
	drafts, err := eventlog.Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Tag != "Bad\ufffd\ufffd" {
		t.Fatalf("expected replacement characters, got %+v", drafts)
	}
}
