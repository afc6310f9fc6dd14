package eventlog

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffLimit = 1024

var declEncoding = regexp.MustCompile(`^\s*<\?xml[^>]*?encoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)

type detection struct {
	enc  encoding.Encoding
	name string
}

// detectEncoding picks the most likely text encoding for raw.
func detectEncoding(raw []byte) detection {
	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		return detection{enc: unicode.UTF8BOM, name: "utf-8"}
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		return detection{enc: unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), name: "utf-16le"}
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		return detection{enc: unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), name: "utf-16be"}
	case bytes.HasPrefix(raw, []byte{'<', 0, '?', 0}):
		return detection{enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), name: "utf-16le"}
	case bytes.HasPrefix(raw, []byte{0, '<', 0, '?'}):
		return detection{enc: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), name: "utf-16be"}
	}

	head := raw
	if len(head) > sniffLimit {
		head = head[:sniffLimit]
	}
	if m := declEncoding.FindSubmatch(head); m != nil {
		// A UTF-16 label on bytes that matched as ASCII is wrong; ignore it.
		if enc, name := charset.Lookup(string(m[1])); enc != nil && !strings.HasPrefix(name, "utf-16") {
			return normalizeDetection(enc, name)
		}
	}

	enc, name, _ := charset.DetermineEncoding(raw, "text/xml")
	if enc == nil {
		return detection{enc: unicode.UTF8, name: "utf-8"}
	}
	return normalizeDetection(enc, name)
}

// normalizeDetection swaps pass-through UTF-8 for the replacing decoder so
// invalid sequences become U+FFFD rather than reaching the XML decoder.
func normalizeDetection(enc encoding.Encoding, name string) detection {
	name = strings.ToLower(name)
	if name == "utf-8" || name == "utf8" {
		return detection{enc: unicode.UTF8, name: "utf-8"}
	}
	return detection{enc: enc, name: name}
}

// decode converts raw to UTF-8 with the detected encoding. x/text decoders
// substitute U+FFFD for undecodable input, so this only fails on internal
// transformer errors.
func decode(raw []byte, det detection) (string, error) {
	out, _, err := transform.Bytes(det.enc.NewDecoder(), raw)
	if err != nil {
		return "", err
	}
	text := strings.TrimPrefix(string(out), "\ufeff")
	return strings.TrimSpace(text), nil
}
