package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

type LocationType string

const (
	LocationMap  LocationType = "map"
	LocationPlan LocationType = "plan"
)

// PlanCount is the number of floor plans a point may be placed on.
const PlanCount = 3

var ErrInvalidPlanIndex = errors.New("invalid plan index")

// Location is either a MapLocation or a PlanLocation.
type Location interface {
	Type() LocationType
	isLocation()
}

// MapLocation is a geographic position on the outdoor map.
type MapLocation struct {
	Lat float64
	Lng float64
}

func (MapLocation) Type() LocationType { return LocationMap }
func (MapLocation) isLocation()        {}

// PlanLocation is a position on one of the building floor plans, expressed
// as fractions of the plan image width and height.
type PlanLocation struct {
	PlanIndex int
	RelX      float64
	RelY      float64
}

func (PlanLocation) Type() LocationType { return LocationPlan }
func (PlanLocation) isLocation()        {}

// NewPlanLocation validates the plan index and clamps the relative
// coordinates into [0, 1].
func NewPlanLocation(planIndex int, relX, relY float64) (PlanLocation, error) {
	if planIndex < 0 || planIndex >= PlanCount {
		return PlanLocation{}, fmt.Errorf("%w: %d", ErrInvalidPlanIndex, planIndex)
	}
	return PlanLocation{PlanIndex: planIndex, RelX: clamp01(relX), RelY: clamp01(relY)}, nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var planLabels = [PlanCount]string{
	"Plan bâtiment – RDC",
	"Plan bâtiment – Étage 1",
	"Plan bâtiment – Étage 2",
}

// LocationLabel returns the human readable description of where a point is.
func LocationLabel(loc Location) string {
	switch l := loc.(type) {
	case MapLocation:
		return "Carte extérieure"
	case PlanLocation:
		if l.PlanIndex >= 0 && l.PlanIndex < PlanCount {
			return planLabels[l.PlanIndex]
		}
		return "Plan bâtiment"
	default:
		return ""
	}
}

// DirectionsURL builds a walking-directions link to a map point. Plan
// points have no geographic position, so ok is false for them.
func DirectionsURL(loc Location) (link string, ok bool) {
	m, isMap := loc.(MapLocation)
	if !isMap {
		return "", false
	}

	return "https://www.google.com/maps/dir/?api=1&destination=" +
		strconv.FormatFloat(m.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(m.Lng, 'f', -1, 64) +
		"&travelmode=walking", true
}
