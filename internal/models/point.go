package models

import "time"

// MaxPhotos is the number of photos kept per point. Extra photos are
// dropped, not rejected.
const MaxPhotos = 5

type Comment struct {
	Text      string
	CreatedAt time.Time
}

// Photo is an attached image stored inline as a data URL.
type Photo struct {
	Name string
	Data string
}

// LimitPhotos truncates photos to MaxPhotos entries.
func LimitPhotos(photos []Photo) []Photo {
	if len(photos) > MaxPhotos {
		photos = photos[:MaxPhotos]
	}
	out := make([]Photo, len(photos))
	copy(out, photos)
	return out
}

// Point is a reported incident. A point is active until it is resolved, at
// which point DeletedAt is set and never cleared again.
type Point struct {
	ID          int64
	Title       string
	Description string
	Urgency     Urgency
	Group       Group
	Location    Location
	CreatedAt   time.Time
	DeletedAt   *time.Time
	Comments    []Comment
	Photos      []Photo
}

func (p Point) IsResolved() bool {
	return p.DeletedAt != nil
}

// Clone returns a deep copy so callers can hand points out of a locked
// state without sharing slices.
func (p Point) Clone() Point {
	c := p
	if p.DeletedAt != nil {
		d := *p.DeletedAt
		c.DeletedAt = &d
	}
	if p.Comments != nil {
		c.Comments = make([]Comment, len(p.Comments))
		copy(c.Comments, p.Comments)
	}
	if p.Photos != nil {
		c.Photos = make([]Photo, len(p.Photos))
		copy(c.Photos, p.Photos)
	}
	return c
}

// Elapsed formats the time since creation of an active point.
func (p Point) Elapsed(now time.Time) string {
	return FormatElapsed(p.CreatedAt, now)
}

// OpenFor formats how long a resolved point stayed open. ok is false for
// active points.
func (p Point) OpenFor() (s string, ok bool) {
	if p.DeletedAt == nil {
		return "", false
	}
	return FormatElapsed(p.CreatedAt, *p.DeletedAt), true
}

// LastComment returns the most recent comment, if any.
func (p Point) LastComment() (Comment, bool) {
	if len(p.Comments) == 0 {
		return Comment{}, false
	}
	return p.Comments[len(p.Comments)-1], true
}
