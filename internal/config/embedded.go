package config

// Values injected at build time via ldflags. The API keys serve as
// defaults and can be overridden by environment variables or config file.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/streamscout/streamscout/internal/config.Version=1.2.0' \
//	                   -X 'github.com/streamscout/streamscout/internal/config.EmbeddedTMDBKey=xxx' \
//	                   -X 'github.com/streamscout/streamscout/internal/config.EmbeddedOMDBKey=yyy'"
var (
	Version         = "dev"
	EmbeddedTMDBKey string
	EmbeddedOMDBKey string
)
