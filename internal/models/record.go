package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the ISO-8601 form used for every persisted timestamp.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

var ErrMalformedRecord = errors.New("malformed record")

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts any RFC 3339 timestamp, with or without fractional
// seconds.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
}

// RecordID decodes a point id given either as a JSON number or as a numeric
// string. Anything that is not a positive integer decodes to 0.
type RecordID int64

func (id *RecordID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || n < 1 || n != math.Trunc(n) || n > math.MaxInt64 {
		*id = 0
		return nil
	}
	*id = RecordID(n)
	return nil
}

type CommentRecord struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type PhotoRecord struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// Record is the flat, storage-neutral form of a Point. Both the local blob
// and the remote documents use it.
type Record struct {
	ID           RecordID        `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Urgency      string          `json:"urgency"`
	Group        string          `json:"group"`
	LocationType string          `json:"locationType"`
	Lat          *float64        `json:"lat"`
	Lng          *float64        `json:"lng"`
	PlanIndex    *int            `json:"planIndex"`
	RelX         *float64        `json:"relX"`
	RelY         *float64        `json:"relY"`
	CreatedAt    string          `json:"createdAt"`
	DeletedAt    string          `json:"deletedAt,omitempty"`
	Comments     []CommentRecord `json:"comments"`
	Photos       []PhotoRecord   `json:"photos"`
}

// DocID is the remote document id of the record.
func (r Record) DocID() string {
	return strconv.FormatInt(int64(r.ID), 10)
}

// RecordFromPoint flattens p.
func RecordFromPoint(p Point) Record {
	r := Record{
		ID:          RecordID(p.ID),
		Title:       p.Title,
		Description: p.Description,
		Urgency:     string(p.Urgency),
		Group:       string(p.Group),
		CreatedAt:   FormatTime(p.CreatedAt),
		Comments:    CommentRecords(p.Comments),
		Photos:      make([]PhotoRecord, 0, len(p.Photos)),
	}

	switch l := p.Location.(type) {
	case MapLocation:
		lat, lng := l.Lat, l.Lng
		r.LocationType = string(LocationMap)
		r.Lat, r.Lng = &lat, &lng
	case PlanLocation:
		idx, x, y := l.PlanIndex, l.RelX, l.RelY
		r.LocationType = string(LocationPlan)
		r.PlanIndex, r.RelX, r.RelY = &idx, &x, &y
	}

	if p.DeletedAt != nil {
		r.DeletedAt = FormatTime(*p.DeletedAt)
	}

	for _, ph := range p.Photos {
		r.Photos = append(r.Photos, PhotoRecord(ph))
	}
	return r
}

// CommentRecords flattens a comment list. The result is never nil.
func CommentRecords(comments []Comment) []CommentRecord {
	out := make([]CommentRecord, 0, len(comments))
	for _, c := range comments {
		cr := CommentRecord{Text: c.Text}
		if !c.CreatedAt.IsZero() {
			cr.CreatedAt = FormatTime(c.CreatedAt)
		}
		out = append(out, cr)
	}
	return out
}

// ToPoint rebuilds a Point from r. Missing timestamps are replaced by now;
// an unparseable creation time makes the whole record malformed, while
// unparseable comment times are kept as the zero time. When resolved is
// true the point gets a resolution time no earlier than its creation.
func (r Record) ToPoint(now time.Time, resolved bool) (Point, error) {
	if r.ID < 1 {
		return Point{}, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}

	createdAt := now
	if strings.TrimSpace(r.CreatedAt) != "" {
		t, err := ParseTime(r.CreatedAt)
		if err != nil {
			return Point{}, fmt.Errorf("%w: id %d: createdAt %q", ErrMalformedRecord, r.ID, r.CreatedAt)
		}
		createdAt = t
	}

	loc, err := r.location()
	if err != nil {
		return Point{}, err
	}

	urgency := Urgency(r.Urgency)
	if urgency == "" {
		urgency = UrgencyLow
	}

	p := Point{
		ID:          int64(r.ID),
		Title:       r.Title,
		Description: r.Description,
		Urgency:     urgency,
		Group:       ParseGroup(r.Group),
		Location:    loc,
		CreatedAt:   createdAt,
		Comments:    make([]Comment, 0, len(r.Comments)),
		Photos:      make([]Photo, 0, len(r.Photos)),
	}

	for _, c := range r.Comments {
		at, err := ParseTime(c.CreatedAt)
		if err != nil {
			at = time.Time{}
		}
		p.Comments = append(p.Comments, Comment{Text: c.Text, CreatedAt: at})
	}

	for _, ph := range r.Photos {
		p.Photos = append(p.Photos, Photo(ph))
	}
	p.Photos = LimitPhotos(p.Photos)

	if resolved {
		deletedAt := now
		if t, err := ParseTime(r.DeletedAt); err == nil {
			deletedAt = t
		}
		if deletedAt.Before(createdAt) {
			deletedAt = createdAt
		}
		p.DeletedAt = &deletedAt
	}

	return p, nil
}

func (r Record) location() (Location, error) {
	switch LocationType(r.LocationType) {
	case LocationPlan:
		// A missing or out-of-range index places the point on the ground floor.
		idx := 0
		if r.PlanIndex != nil {
			idx = *r.PlanIndex
		}
		loc, err := NewPlanLocation(idx, deref(r.RelX, 0.5), deref(r.RelY, 0.5))
		if err != nil {
			loc, _ = NewPlanLocation(0, deref(r.RelX, 0.5), deref(r.RelY, 0.5))
		}
		return loc, nil
	case LocationMap, "":
		if r.Lat == nil || r.Lng == nil {
			return nil, fmt.Errorf("%w: id %d: map point without coordinates", ErrMalformedRecord, r.ID)
		}
		return MapLocation{Lat: *r.Lat, Lng: *r.Lng}, nil
	default:
		return nil, fmt.Errorf("%w: id %d: location type %q", ErrMalformedRecord, r.ID, r.LocationType)
	}
}

func deref(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
