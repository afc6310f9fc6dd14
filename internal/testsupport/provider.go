package testsupport

import (
	"context"
	"fmt"
	"io"
	"sync"

	"matchreel/internal/services"
	"matchreel/internal/services/mux"
)

// FakeProvider is an in-memory stand-in for the Mux client. Uploads resolve
// to assets only after tests call Finish.
type FakeProvider struct {
	mu sync.Mutex

	next        int
	uploads     map[string]string // upload id -> asset id
	assets      map[string]mux.Asset
	transferred map[string][]byte

	// Failure injection. Each error is returned by the matching call.
	CreateErr   error
	TransferErr error
	ResolveErr  map[string]error
	StatusErr   map[string]error

	CreateCalls   int
	TransferCalls int
	ResolveCalls  int
	StatusCalls   int
	LastPolicy    mux.UploadPolicy
}

// NewFakeProvider returns an empty fake.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		uploads:     make(map[string]string),
		assets:      make(map[string]mux.Asset),
		transferred: make(map[string][]byte),
		ResolveErr:  make(map[string]error),
		StatusErr:   make(map[string]error),
	}
}

func (f *FakeProvider) CreateUpload(ctx context.Context, policy mux.UploadPolicy) (mux.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	f.LastPolicy = policy
	if f.CreateErr != nil {
		return mux.Upload{}, f.CreateErr
	}
	f.next++
	id := fmt.Sprintf("upload-%d", f.next)
	f.uploads[id] = ""
	return mux.Upload{ID: id, URL: "https://uploads.test/" + id}, nil
}

func (f *FakeProvider) Transfer(ctx context.Context, url string, body io.Reader, size int64) error {
	f.mu.Lock()
	f.TransferCalls++
	transferErr := f.TransferErr
	f.mu.Unlock()
	if transferErr != nil {
		return transferErr
	}
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrProvider, "fake", "transfer", "cancelled", err)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return services.Wrap(services.ErrProvider, "fake", "transfer", "read body", err)
	}
	f.mu.Lock()
	f.transferred[url] = data
	f.mu.Unlock()
	return nil
}

func (f *FakeProvider) ResolveAsset(ctx context.Context, uploadID string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ResolveCalls++
	if err := f.ResolveErr[uploadID]; err != nil {
		return "", false, err
	}
	assetID := f.uploads[uploadID]
	return assetID, assetID != "", nil
}

func (f *FakeProvider) AssetStatus(ctx context.Context, assetID string) (mux.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatusCalls++
	if err := f.StatusErr[assetID]; err != nil {
		return mux.Asset{}, err
	}
	asset, ok := f.assets[assetID]
	if !ok {
		return mux.Asset{}, services.Wrap(services.ErrProvider, "fake", "asset status", "unknown asset "+assetID, nil)
	}
	return asset, nil
}

// Attach links an upload to an asset in the given state.
func (f *FakeProvider) Attach(uploadID, assetID string, state mux.AssetState, playbackIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[uploadID] = assetID
	f.assets[assetID] = mux.Asset{ID: assetID, State: state, PlaybackIDs: playbackIDs}
}

// Finish attaches a ready asset "asset-<uploadID>" with playback id
// "play-<uploadID>".
func (f *FakeProvider) Finish(uploadID string) {
	f.Attach(uploadID, "asset-"+uploadID, mux.AssetReady, "play-"+uploadID)
}

// Transferred returns the bytes received for an upload url.
func (f *FakeProvider) Transferred(url string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.transferred[url]
	return data, ok
}
