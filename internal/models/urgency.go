package models

// Urgency is the free-form urgency label attached to a point. Three values
// are recognised; anything else degrades to rank 0 and the default colour.
type Urgency string

const (
	UrgencyLow    Urgency = "peu urgent"
	UrgencyMedium Urgency = "urgent"
	UrgencyHigh   Urgency = "très urgent"
)

// Marker colours.
const (
	ColorGreen  = "green"
	ColorOrange = "orange"
	ColorRed    = "red"
	ColorBlue   = "blue"
)

// Urgencies lists the recognised labels from least to most urgent.
func Urgencies() []Urgency {
	return []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh}
}

func (u Urgency) Valid() bool {
	return UrgencyRank(u) > 0
}

// UrgencyRank maps a label to its ordering rank: 1, 2 or 3 for the
// recognised labels and 0 otherwise.
func UrgencyRank(u Urgency) int {
	switch u {
	case UrgencyLow:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyHigh:
		return 3
	default:
		return 0
	}
}

func UrgencyColor(u Urgency) string {
	switch u {
	case UrgencyLow:
		return ColorGreen
	case UrgencyMedium:
		return ColorOrange
	case UrgencyHigh:
		return ColorRed
	default:
		return ColorBlue
	}
}
