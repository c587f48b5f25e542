package rest

import (
	"time"

	"github.com/dmitrijs2005/sitepins/internal/models"
	"github.com/dmitrijs2005/sitepins/internal/tracker"
)

type locationRequest struct {
	Type      string   `json:"type" validate:"required,oneof=map plan"`
	Lat       *float64 `json:"lat" validate:"required_if=Type map"`
	Lng       *float64 `json:"lng" validate:"required_if=Type map"`
	PlanIndex *int     `json:"planIndex" validate:"required_if=Type plan"`
	RelX      *float64 `json:"relX"`
	RelY      *float64 `json:"relY"`
}

func (l locationRequest) location() models.Location {
	if l.Type == string(models.LocationPlan) {
		return models.PlanLocation{PlanIndex: *l.PlanIndex, RelX: deref(l.RelX, 0.5), RelY: deref(l.RelY, 0.5)}
	}
	return models.MapLocation{Lat: *l.Lat, Lng: *l.Lng}
}

func deref(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

type photoDTO struct {
	Name string `json:"name"`
	Data string `json:"data" validate:"required"`
}

// createPointRequest is the body of POST /api/points.
type createPointRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"required,max=4000"`
	Urgency     string          `json:"urgency" validate:"omitempty,oneof='peu urgent' urgent 'très urgent'"`
	Group       string          `json:"group"`
	Location    locationRequest `json:"location"`
	Photos      []photoDTO      `json:"photos" validate:"omitempty,dive"`
}

func (req createPointRequest) newPoint() tracker.NewPoint {
	photos := make([]models.Photo, 0, len(req.Photos))
	for _, p := range req.Photos {
		photos = append(photos, models.Photo{Name: p.Name, Data: p.Data})
	}
	return tracker.NewPoint{
		Title:       req.Title,
		Description: req.Description,
		Urgency:     models.Urgency(req.Urgency),
		Group:       models.Group(req.Group),
		Location:    req.Location.location(),
		Photos:      photos,
	}
}

type commentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type groupRequest struct {
	Group string `json:"group" validate:"required"`
}

type locationDTO struct {
	Type      models.LocationType `json:"type"`
	Lat       *float64            `json:"lat,omitempty"`
	Lng       *float64            `json:"lng,omitempty"`
	PlanIndex *int                `json:"planIndex,omitempty"`
	RelX      *float64            `json:"relX,omitempty"`
	RelY      *float64            `json:"relY,omitempty"`
}

type commentDTO struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// pointResponse carries a point plus the fields the front-end derives
// from it: elapsed time, colour, location label and directions link.
type pointResponse struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Urgency       models.Urgency `json:"urgency"`
	Color         string         `json:"color"`
	Group         models.Group   `json:"group"`
	Location      locationDTO    `json:"location"`
	LocationLabel string         `json:"locationLabel"`
	DirectionsURL string         `json:"directionsUrl,omitempty"`
	CreatedAt     string         `json:"createdAt"`
	Elapsed       string         `json:"elapsed"`
	DeletedAt     string         `json:"deletedAt,omitempty"`
	OpenFor       string         `json:"openFor,omitempty"`
	Comments      []commentDTO   `json:"comments"`
	Photos        []photoDTO     `json:"photos"`
}

func newPointResponse(p models.Point, now time.Time) pointResponse {
	resp := pointResponse{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Urgency:       p.Urgency,
		Color:         models.UrgencyColor(p.Urgency),
		Group:         p.Group,
		LocationLabel: models.LocationLabel(p.Location),
		CreatedAt:     models.FormatTime(p.CreatedAt),
		Elapsed:       p.Elapsed(now),
		Comments:      make([]commentDTO, 0, len(p.Comments)),
		Photos:        make([]photoDTO, 0, len(p.Photos)),
	}

	switch loc := p.Location.(type) {
	case models.MapLocation:
		resp.Location = locationDTO{Type: models.LocationMap, Lat: &loc.Lat, Lng: &loc.Lng}
	case models.PlanLocation:
		resp.Location = locationDTO{Type: models.LocationPlan, PlanIndex: &loc.PlanIndex, RelX: &loc.RelX, RelY: &loc.RelY}
	}
	if link, ok := models.DirectionsURL(p.Location); ok {
		resp.DirectionsURL = link
	}

	if p.DeletedAt != nil {
		resp.DeletedAt = models.FormatTime(*p.DeletedAt)
		resp.OpenFor, _ = p.OpenFor()
	}
	for _, c := range p.Comments {
		resp.Comments = append(resp.Comments, commentDTO{Text: c.Text, CreatedAt: models.FormatTime(c.CreatedAt)})
	}
	for _, ph := range p.Photos {
		resp.Photos = append(resp.Photos, photoDTO{Name: ph.Name, Data: ph.Data})
	}
	return resp
}

func newPointResponses(points []models.Point, now time.Time) []pointResponse {
	out := make([]pointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, newPointResponse(p, now))
	}
	return out
}

type historyItemDTO struct {
	ID            int64                `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Urgency       models.Urgency       `json:"urgency"`
	Location      string               `json:"location"`
	CreatedAt     string               `json:"createdAt"`
	Status        models.HistoryStatus `json:"status"`
	CommentCount  int                  `json:"commentCount"`
	LastCommentAt string               `json:"lastCommentAt,omitempty"`
}

func newHistoryItems(items []models.HistoryItem) []historyItemDTO {
	out := make([]historyItemDTO, 0, len(items))
	for _, it := range items {
		dto := historyItemDTO{
			ID:           it.ID,
			Title:        it.Title,
			Description:  it.Description,
			Urgency:      it.Urgency,
			Location:     it.Location,
			CreatedAt:    models.FormatTime(it.CreatedAt),
			Status:       it.Status,
			CommentCount: it.CommentCount,
		}
		if it.LastCommentAt != nil {
			dto.LastCommentAt = models.FormatTime(*it.LastCommentAt)
		}
		out = append(out, dto)
	}
	return out
}

type urgencyDTO struct {
	Name  models.Urgency `json:"name"`
	Color string         `json:"color"`
}

type groupsResponse struct {
	Groups    []models.Group `json:"groups"`
	Urgencies []urgencyDTO   `json:"urgencies"`
}

type listResponse struct {
	Points []pointResponse `json:"points"`
	Total  int             `json:"total"`
}

type importResponse struct {
	Active    int   `json:"active"`
	Resolved  int   `json:"resolved"`
	IDCounter int64 `json:"idCounter"`
}
