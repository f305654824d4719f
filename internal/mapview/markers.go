package mapview

import (
	"github.com/google/uuid"

	"github.com/bookmapapp/bookmap/internal/catalog"
)

// Marker styling is fixed; clustering is configured once on the surface.
const (
	markerPixelSize = 10
	markerColor     = "#e8553a"
	heatColor       = "rgba(232,85,58,0.25)"
)

// renderMarkersLocked clears the marker layer and redraws one marker per
// (book, location) pair, rebuilding the handle side table atomically.
func (s *Session) renderMarkersLocked(books []catalog.Book) {
	s.surface.ClearMarkers()
	entities := make(map[Handle]entityRef)

	for _, b := range books {
		for _, loc := range b.Locations {
			h := Handle(uuid.New().String())
			entities[h] = entityRef{book: b, location: loc}
			s.surface.AddMarker(Marker{
				Handle:           h,
				Lat:              loc.Lat,
				Lng:              loc.Lng,
				Label:            b.Title,
				LabelMaxDistance: s.cfg.LabelMaxDistanceM,
				PixelSize:        markerPixelSize,
				Color:            markerColor,
			})
		}
	}

	// The old table is discarded wholesale; handles from earlier passes no
	// longer resolve.
	s.entities = entities
}

// renderHeatmapLocked redraws the heatmap layer. It always clears first, so
// repeated renders with the same state produce a stable disc count.
func (s *Session) renderHeatmapLocked(books []catalog.Book) {
	s.surface.ClearDiscs()
	if !s.heatmap {
		return
	}
	for _, b := range books {
		for _, loc := range b.Locations {
			s.surface.AddDisc(Disc{
				Handle:  Handle(uuid.New().String()),
				Lat:     loc.Lat,
				Lng:     loc.Lng,
				RadiusM: s.cfg.HeatmapRadiusM,
				Color:   heatColor,
			})
		}
	}
}
