package availability

// Merge combines band availability with bandmate unavailability over every date
// that appears in any input. Band dates that are absent take the policy default.
// A date is available only if the band has it available and no bandmate is
// unavailable on it.
func Merge(band Map, bandmates []Map, policy DefaultPolicy) Map {
	keys := make(map[string]struct{}, len(band))
	for d := range band {
		keys[d] = struct{}{}
	}
	for _, bm := range bandmates {
		for d := range bm {
			keys[d] = struct{}{}
		}
	}

	out := make(Map, len(keys))
	for d := range keys {
		out[d] = mergeDate(d, band, bandmates, policy)
	}
	return out
}

// MergeWindow is Merge restricted to, and complete over, the given window dates
func MergeWindow(window []string, band Map, bandmates []Map, policy DefaultPolicy) Map {
	out := make(Map, len(window))
	for _, d := range window {
		out[d] = mergeDate(d, band, bandmates, policy)
	}
	return out
}

func mergeDate(date string, band Map, bandmates []Map, policy DefaultPolicy) bool {
	if !band.Get(date, bool(policy)) {
		return false
	}
	for _, bm := range bandmates {
		if bm.Get(date, false) {
			return false
		}
	}
	return true
}

// DateStatus is what a bandmate sees for one date
type DateStatus string

const (
	StatusAvailable       DateStatus = "available"
	StatusUnavailable     DateStatus = "unavailable"
	StatusBandUnavailable DateStatus = "band-unavailable"
)

// BandmateStatus classifies a date from a single bandmate's point of view.
// The band's own unavailability takes precedence and cannot be changed by the bandmate.
func BandmateStatus(date string, band Map, own Map) DateStatus {
	if !band.Get(date, true) {
		return StatusBandUnavailable
	}
	if own.Get(date, false) {
		return StatusUnavailable
	}
	return StatusAvailable
}
