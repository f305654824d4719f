package mapview

import "sync"

// Handle identifies one rendered entity on a surface. Handles are stable
// for the lifetime of a render pass and resolve clicks back to books.
type Handle string

// Marker is a rendered book point with its label.
type Marker struct {
	Handle           Handle  `json:"handle"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	Label            string  `json:"label"`
	LabelMaxDistance float64 `json:"label_max_distance"` // meters; label hidden beyond this camera distance
	PixelSize        int     `json:"pixel_size"`
	Color            string  `json:"color"`
}

// Disc is one translucent heatmap circle.
type Disc struct {
	Handle  Handle  `json:"handle"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	RadiusM float64 `json:"radius_m"`
	Color   string  `json:"color"`
}

// ClusterConfig is passed through to the underlying rendering library.
type ClusterConfig struct {
	PixelRange  int `json:"pixel_range"`
	MinimumSize int `json:"minimum_size"`
}

// Surface is the drawing target for the marker and heatmap renderers. The
// renderers always clear before redrawing, so implementations never see
// partial updates.
type Surface interface {
	SetClustering(ClusterConfig)
	AddMarker(Marker)
	ClearMarkers()
	AddDisc(Disc)
	ClearDiscs()
}

// MemorySurface records draw calls in memory. It backs the WebSocket
// gateway's render batches and the package tests.
type MemorySurface struct {
	mu         sync.Mutex
	clustering ClusterConfig
	markers    []Marker
	discs      []Disc
}

// NewMemorySurface returns an empty MemorySurface.
func NewMemorySurface() *MemorySurface { return &MemorySurface{} }

func (s *MemorySurface) SetClustering(c ClusterConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clustering = c
}

func (s *MemorySurface) AddMarker(m Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = append(s.markers, m)
}

func (s *MemorySurface) ClearMarkers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = nil
}

func (s *MemorySurface) AddDisc(d Disc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discs = append(s.discs, d)
}

func (s *MemorySurface) ClearDiscs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discs = nil
}

// Markers returns a snapshot of the rendered markers.
func (s *MemorySurface) Markers() []Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Marker, len(s.markers))
	copy(out, s.markers)
	return out
}

// Discs returns a snapshot of the rendered heatmap discs.
func (s *MemorySurface) Discs() []Disc {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Disc, len(s.discs))
	copy(out, s.discs)
	return out
}

// Clustering returns the last configured clustering parameters.
func (s *MemorySurface) Clustering() ClusterConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clustering
}
