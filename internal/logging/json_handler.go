package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// redactedKeys never reach a log sink with their values. Mux secrets and
// session tokens end up in attrs when requests are logged verbatim.
var redactedKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"token_secret":  {},
	"authorization": {},
	"session_token": {},
}

const redactedValue = "[redacted]"

// newJSONHandler writes one object per line with ts/level/msg keys, the
// format `matchreel logs` reads back.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) (slog.Handler, error) {
	opts := slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	}
	return slog.NewJSONHandler(w, &opts), nil
}

func replaceJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch attr.Key {
		case slog.TimeKey:
			if attr.Value.Kind() == slog.KindTime {
				return slog.String("ts", attr.Value.Time().UTC().Format(time.RFC3339))
			}
			attr.Key = "ts"
			return attr
		case slog.LevelKey:
			return slog.String("level", strings.ToLower(attr.Value.String()))
		case slog.SourceKey:
			if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
				return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
			}
			return attr
		}
	}
	if _, secret := redactedKeys[strings.ToLower(attr.Key)]; secret && attr.Value.Kind() != slog.KindGroup {
		return slog.String(attr.Key, redactedValue)
	}
	return attr
}
