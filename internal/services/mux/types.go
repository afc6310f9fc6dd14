package mux

import "time"

// UploadPolicy controls the direct upload and the asset it creates.
type UploadPolicy struct {
	// CORSOrigin is echoed to Mux so browsers may PUT directly.
	CORSOrigin string
	// Timeout is how long the signed upload URL stays valid.
	Timeout time.Duration
	// Public requests a public playback id on the resulting asset.
	Public bool
}

// Upload is a created direct upload.
type Upload struct {
	ID  string
	URL string
}

// AssetState is the provider-side lifecycle of an asset.
type AssetState string

const (
	AssetPreparing AssetState = "preparing"
	AssetReady     AssetState = "ready"
	AssetErrored   AssetState = "errored"
)

// Asset is the subset of asset fields reconciliation needs.
type Asset struct {
	ID          string
	State       AssetState
	PlaybackIDs []string
	// Errors carries provider messages when State is errored.
	Errors []string
}

// PlaybackID returns the first playback id, or "" when none exist.
func (a Asset) PlaybackID() string {
	for _, id := range a.PlaybackIDs {
		if id != "" {
			return id
		}
	}
	return ""
}

// Playable reports whether the asset can be streamed.
func (a Asset) Playable() bool {
	return a.State == AssetReady && a.PlaybackID() != ""
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type createUploadBody struct {
	NewAssetSettings newAssetSettings `json:"new_asset_settings"`
	CORSOrigin       string           `json:"cors_origin,omitempty"`
	Timeout          int              `json:"timeout,omitempty"`
}

type newAssetSettings struct {
	PlaybackPolicy []string `json:"playback_policy"`
}

type uploadData struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Status  string `json:"status"`
	AssetID string `json:"asset_id"`
}

type assetData struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	PlaybackIDs []struct {
		ID     string `json:"id"`
		Policy string `json:"policy"`
	} `json:"playback_ids"`
	Errors *struct {
		Type     string   `json:"type"`
		Messages []string `json:"messages"`
	} `json:"errors"`
}

func (d assetData) toAsset() Asset {
	asset := Asset{ID: d.ID, State: AssetState(d.Status)}
	for _, p := range d.PlaybackIDs {
		asset.PlaybackIDs = append(asset.PlaybackIDs, p.ID)
	}
	if d.Errors != nil {
		asset.Errors = append(asset.Errors, d.Errors.Messages...)
		if len(asset.Errors) == 0 && d.Errors.Type != "" {
			asset.Errors = []string{d.Errors.Type}
		}
	}
	return asset
}
