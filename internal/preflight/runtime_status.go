package preflight

import (
	"context"

	"matchreel/internal/config"
	"matchreel/internal/services/mux"
)

// CheckMuxFromConfig builds a client from cfg and pings it. Missing
// credentials fail without a network call.
func CheckMuxFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Mux API"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.MuxConfigured() {
		return Result{Name: name, Detail: "missing credentials (set MUX_TOKEN_ID and MUX_TOKEN_SECRET)"}
	}
	client, err := mux.NewConfiguredClient(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return CheckMux(ctx, client)
}
