package config

const (
	defaultConfigPath          = "~/.config/matchreel/config.toml"
	defaultDataDir             = "~/.local/share/matchreel"
	defaultLogDir              = "~/.local/share/matchreel/logs"
	defaultEnvFile             = "matchreel.env"
	defaultMuxBaseURL          = "https://api.mux.com"
	defaultMuxStreamHost       = "stream.mux.com"
	defaultMuxCORSOrigin       = "*"
	defaultMuxUploadTimeout    = 3600
	defaultMuxRequestTimeout   = 30
	defaultAPIBind             = "127.0.0.1:7488"
	defaultMaxUploadMiB        = 8192
	defaultPlaceholdersVisible = true
	defaultSessionTTLHours     = 24 * 7
	defaultBcryptCost          = 10
	defaultReconcileInterval   = 60
	defaultNtfyTimeout         = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			EnvFile: defaultEnvFile,
		},
		Mux: Mux{
			BaseURL:        defaultMuxBaseURL,
			StreamHost:     defaultMuxStreamHost,
			CORSOrigin:     defaultMuxCORSOrigin,
			UploadTimeout:  defaultMuxUploadTimeout,
			RequestTimeout: defaultMuxRequestTimeout,
		},
		API: API{
			Bind:           defaultAPIBind,
			AllowedOrigins: []string{"*"},
			MaxUploadMiB:   defaultMaxUploadMiB,
		},
		Access: Access{
			PlaceholdersVisible: defaultPlaceholdersVisible,
		},
		Auth: Auth{
			SessionTTLHours: defaultSessionTTLHours,
			BcryptCost:      defaultBcryptCost,
		},
		Reconcile: Reconcile{
			IntervalSeconds: defaultReconcileInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
