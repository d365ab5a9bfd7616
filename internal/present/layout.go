package present

// Size is the rendered artwork size class.
type Size int

const (
	// SizeNormal renders artwork at its regular size.
	SizeNormal Size = iota
	// SizeReduced renders smaller artwork on short viewports.
	SizeReduced
	// SizeHidden hides the artwork; the track text stays visible.
	SizeHidden
)

func (s Size) String() string {
	switch s {
	case SizeNormal:
		return "normal"
	case SizeReduced:
		return "reduced"
	case SizeHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// MarshalText renders the size class in JSON snapshots.
func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Viewport is the measured layout: where the info panel starts and where
// the footer begins, in pixels from the top. A zero FooterTop means the
// layout has not been measured yet.
type Viewport struct {
	PanelTop  int `json:"panelTop"`
	FooterTop int `json:"footerTop"`
}

// FitArtwork picks the largest size whose bottom edge, plus buffer, stays
// above the footer.
func FitArtwork(v Viewport, normal, reduced, buffer int) Size {
	if v.FooterTop <= 0 {
		return SizeNormal
	}
	if v.PanelTop+normal+buffer < v.FooterTop {
		return SizeNormal
	}
	if v.PanelTop+reduced+buffer < v.FooterTop {
		return SizeReduced
	}
	return SizeHidden
}
