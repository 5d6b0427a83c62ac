package config

// Provenance defaults shared with the collector.
const (
	DefaultGitBinary = "git"
	DefaultGitRemote = "origin"
)

const (
	defaultRenderWidth  = 1024
	defaultRenderHeight = 768
	defaultRenderDPI    = 96
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// DefaultEmbedExtensions are the raster and fixed-layout formats whose readers
// ignore bytes appended after the payload.
var DefaultEmbedExtensions = []string{".png", ".pdf", ".jpg", ".jpeg"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Save: Save{
			EmbedExtensions: append([]string(nil), DefaultEmbedExtensions...),
		},
		Provenance: Provenance{
			Enabled:   true,
			GitBinary: DefaultGitBinary,
			Remote:    DefaultGitRemote,
		},
		Render: Render{
			Width:  defaultRenderWidth,
			Height: defaultRenderHeight,
			DPI:    defaultRenderDPI,
		},
		Catalog: Catalog{
			Path: defaultCatalogPath(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
