package eventlog

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// UnknownTag labels instances whose code is missing or blank.
const UnknownTag = "Unknown"

// ErrMalformed reports a document that could not be parsed as XML at all.
var ErrMalformed = errors.New("malformed event log")

// Draft is one parsed instance, ready to be stored as an event.
type Draft struct {
	Tag     string
	Player  string
	StartMs int64
	EndMs   int64
}

// Result carries the drafts plus parse diagnostics.
type Result struct {
	Drafts    []Draft
	Encoding  string
	Instances int
	// Skipped counts instances dropped for missing, unparseable, negative,
	// or inverted times.
	Skipped int
}

// Parse returns the drafts in document order. An empty slice is a valid
// result; only a malformed document is an error.
func Parse(raw []byte) ([]Draft, error) {
	res, err := ParseDetailed(raw)
	if err != nil {
		return nil, err
	}
	return res.Drafts, nil
}

// ParseDetailed is Parse plus the detected encoding and instance counts.
func ParseDetailed(raw []byte) (Result, error) {
	det := detectEncoding(raw)
	res := Result{Encoding: det.name, Drafts: []Draft{}}

	text, err := decode(raw, det)
	if err != nil {
		return res, fmt.Errorf("%w: decode %s: %w", ErrMalformed, det.name, err)
	}

	dec := xml.NewDecoder(strings.NewReader(text))
	// Input is already UTF-8; the declaration's label no longer applies.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if start.Name.Local != "instance" {
			continue
		}
		fields, err := readInstance(dec)
		if err != nil {
			return res, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		res.Instances++
		draft, ok := fields.draft()
		if !ok {
			res.Skipped++
			continue
		}
		res.Drafts = append(res.Drafts, draft)
	}
	if !sawRoot {
		return res, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	return res, nil
}

type instanceFields struct {
	start, end, code *string
	label            *string
}

func (f instanceFields) draft() (Draft, bool) {
	if f.start == nil || f.end == nil {
		return Draft{}, false
	}
	startMs, ok := secondsToMillis(*f.start)
	if !ok {
		return Draft{}, false
	}
	endMs, ok := secondsToMillis(*f.end)
	if !ok || endMs < startMs {
		return Draft{}, false
	}
	d := Draft{Tag: UnknownTag, StartMs: startMs, EndMs: endMs}
	if f.code != nil && *f.code != "" {
		d.Tag = *f.code
	}
	if f.label != nil {
		d.Player = *f.label
	}
	return d, true
}

// readInstance consumes tokens up to the instance's end tag. start, end, and
// code are read from direct children only; the label is the first <text>
// inside a <label> at any depth.
func readInstance(dec *xml.Decoder) (instanceFields, error) {
	var (
		fields  instanceFields
		path    []string
		buf     strings.Builder
		capture bool
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fields, io.ErrUnexpectedEOF
			}
			return fields, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			path = append(path, t.Name.Local)
			capture = wantsText(path, fields)
			buf.Reset()
		case xml.CharData:
			if capture {
				buf.Write(t)
			}
		case xml.EndElement:
			if len(path) == 0 {
				return fields, nil
			}
			if capture {
				value := strings.TrimSpace(buf.String())
				assign(&fields, path, value)
				capture = false
			}
			path = path[:len(path)-1]
		}
	}
}

func wantsText(path []string, f instanceFields) bool {
	name := path[len(path)-1]
	if len(path) == 1 {
		switch name {
		case "start":
			return f.start == nil
		case "end":
			return f.end == nil
		case "code":
			return f.code == nil
		}
	}
	return name == "text" && len(path) >= 2 && path[len(path)-2] == "label" && f.label == nil
}

func assign(f *instanceFields, path []string, value string) {
	name := path[len(path)-1]
	if len(path) == 1 {
		switch name {
		case "start":
			f.start = &value
			return
		case "end":
			f.end = &value
			return
		case "code":
			f.code = &value
			return
		}
	}
	if name == "text" {
		f.label = &value
	}
}
