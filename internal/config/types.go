package config

// Config is the top-level bookmap configuration, corresponding to bookmap.yml.
type Config struct {
	Server   ServerConfig   `yaml:"server" koanf:"server"`
	Geocoder GeocoderConfig `yaml:"geocoder" koanf:"geocoder"`
	Map      MapConfig      `yaml:"map" koanf:"map"`
	Reader   ReaderConfig   `yaml:"reader" koanf:"reader"`
}

// ServerConfig holds catalog server settings.
type ServerConfig struct {
	Port       int    `yaml:"port" koanf:"port"`
	DataDir    string `yaml:"data_dir" koanf:"data_dir"`
	UploadsDir string `yaml:"uploads_dir" koanf:"uploads_dir"`
	PagesDir   string `yaml:"pages_dir" koanf:"pages_dir"` // pre-rendered page images, one subdirectory per book
	AllowAll   bool   `yaml:"allow_all" koanf:"allow_all"` // allow all CORS origins (dev mode)
}

// GeocoderConfig holds settings for the external place-search service.
type GeocoderConfig struct {
	BaseURL        string `yaml:"base_url" koanf:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// MapConfig tunes the map session pipeline.
type MapConfig struct {
	DebounceMs        int     `yaml:"debounce_ms" koanf:"debounce_ms"`               // quiet period after camera movement
	SearchDebounceMs  int     `yaml:"search_debounce_ms" koanf:"search_debounce_ms"` // quiet period after search keystrokes
	FlyToSettleMs     int     `yaml:"flyto_settle_ms" koanf:"flyto_settle_ms"`       // delay before reloading after a fly-to
	PaddingDeg        float64 `yaml:"padding_deg" koanf:"padding_deg"`               // angular padding applied to the viewport rect
	ClusterPixelRange int     `yaml:"cluster_pixel_range" koanf:"cluster_pixel_range"`
	ClusterMinSize    int     `yaml:"cluster_min_size" koanf:"cluster_min_size"`
	HeatmapRadiusM    float64 `yaml:"heatmap_radius_m" koanf:"heatmap_radius_m"`
	LabelMaxDistanceM float64 `yaml:"label_max_distance_m" koanf:"label_max_distance_m"`
}

// ReaderConfig tunes the page reader.
type ReaderConfig struct {
	SpreadMinWidth  int `yaml:"spread_min_width" koanf:"spread_min_width"`   // viewport width threshold for spread mode
	SpreadMinHeight int `yaml:"spread_min_height" koanf:"spread_min_height"` // viewport height threshold for spread mode
	ThumbnailWidth  int `yaml:"thumbnail_width" koanf:"thumbnail_width"`     // fixed low-resolution thumbnail width
}
