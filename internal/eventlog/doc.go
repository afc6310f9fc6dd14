// Package eventlog parses time-coded XML event logs (Sportscode-style
// <instance> exports) into event drafts.
//
// Input arrives as raw bytes of unknown encoding. Detection tries a byte
// order mark, then the XML declaration, then content sniffing, and finally
// falls back to UTF-8; undecodable sequences become U+FFFD instead of
// failing the document. Every <instance> element is collected regardless of
// nesting or namespace. Instances without usable start and end times are
// skipped individually; only a document that is not well-formed XML fails.
package eventlog
