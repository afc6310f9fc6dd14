package timeline

import (
	"fmt"
	"strings"

	"matchreel/internal/services"
)

// DefaultStreamHost serves Mux playback ids.
const DefaultStreamHost = "stream.mux.com"

// SeekSeconds floors a millisecond offset to whole seconds.
func SeekSeconds(startMs int64) int64 {
	if startMs <= 0 {
		return 0
	}
	return startMs / 1000
}

// PlaybackURL builds https://<host>/<playbackID>/low.mp4#t=<seconds>.
func PlaybackURL(host, playbackID string, startMs int64) (string, error) {
	playbackID = strings.TrimSpace(playbackID)
	if playbackID == "" {
		return "", services.Wrap(services.ErrValidation, "timeline", "playback url", "empty playback id", nil)
	}
	host = strings.Trim(strings.TrimSpace(host), "/")
	if host == "" {
		host = DefaultStreamHost
	}
	return fmt.Sprintf("https://%s/%s/low.mp4#t=%d", host, playbackID, SeekSeconds(startMs)), nil
}
