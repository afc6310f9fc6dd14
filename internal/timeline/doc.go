// Package timeline answers the viewer-facing queries: tagged events with
// seekable playback URLs, the tag vocabulary, and match listings.
package timeline
