package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       8080,
			DataDir:    ".bookmap",
			UploadsDir: "uploads",
			PagesDir:   "pages",
		},
		Geocoder: GeocoderConfig{
			BaseURL:        "https://nominatim.openstreetmap.org",
			TimeoutSeconds: 10,
		},
		Map: MapConfig{
			DebounceMs:        300,
			SearchDebounceMs:  250,
			FlyToSettleMs:     1500,
			PaddingDeg:        2,
			ClusterPixelRange: 60,
			ClusterMinSize:    3,
			HeatmapRadiusM:    50000,
			LabelMaxDistanceM: 4_000_000,
		},
		Reader: ReaderConfig{
			SpreadMinWidth:  1100,
			SpreadMinHeight: 600,
			ThumbnailWidth:  140,
		},
	}
}
