package mapview

// Click resolves a clicked entity to its book and shows the popup. Clicks
// that miss any known entity hide it. x and y are the click's screen
// coordinates, used as a fallback position when projection fails.
func (s *Session) Click(h Handle, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.entities[h]
	if !ok {
		s.hidePopupLocked()
		return
	}

	p := Popup{
		BookID:      ref.book.ID,
		Title:       ref.book.Title,
		Author:      ref.book.Author,
		Year:        ref.book.Year,
		PlaceName:   ref.location.PlaceName,
		Country:     ref.location.Country,
		HasDocument: ref.book.HasDocument(),
	}
	p.X, p.Y, p.Positioned = s.projectLocked(ref.location.Lat, ref.location.Lng, x, y)

	s.popupShown = true
	s.emitter.PopupShown(p)
}

// projectLocked projects a location to screen coordinates, clamping to the
// viewport. When projection fails the click point is used instead.
func (s *Session) projectLocked(lat, lng, fallbackX, fallbackY float64) (x, y float64, positioned bool) {
	if s.projector != nil {
		if px, py, ok := s.projector.Project(lat, lng); ok {
			return s.clampLocked(px), s.clampYLocked(py), true
		}
	}
	return s.clampLocked(fallbackX), s.clampYLocked(fallbackY), false
}

func (s *Session) clampLocked(x float64) float64 {
	if x < 0 {
		return 0
	}
	if s.screenW > 0 && x > s.screenW {
		return s.screenW
	}
	return x
}

func (s *Session) clampYLocked(y float64) float64 {
	if y < 0 {
		return 0
	}
	if s.screenH > 0 && y > s.screenH {
		return s.screenH
	}
	return y
}

func (s *Session) hidePopupLocked() {
	if s.popupShown {
		s.popupShown = false
		s.emitter.PopupHidden()
	}
}
