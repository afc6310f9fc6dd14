// Package mux talks to the Mux video REST API: it creates direct uploads,
// streams the video body to the signed upload URL, and reports which asset an
// upload became and whether that asset is playable.
//
// Credentials are an access token id/secret pair sent as HTTP basic auth.
// Everything returned is wrapped with services.ErrProvider so callers can
// classify remote failures without inspecting HTTP details.
package mux
