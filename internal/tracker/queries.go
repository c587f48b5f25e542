package tracker

import (
	"time"

	"github.com/dmitrijs2005/sitepins/internal/models"
)

func clonePoints(points []models.Point) []models.Point {
	out := make([]models.Point, len(points))
	for i, p := range points {
		out[i] = p.Clone()
	}
	return out
}

// Active lists active points that pass the filter, ordered by mode.
func (t *Tracker) Active(mode models.SortMode, filter models.GroupFilter) []models.Point {
	t.mu.Lock()
	points := clonePoints(t.state.Active)
	t.mu.Unlock()

	points = models.FilterPoints(points, filter)
	models.SortPoints(points, mode)
	return points
}

// Resolved lists resolved points in the order they were resolved.
func (t *Tracker) Resolved() []models.Point {
	t.mu.Lock()
	defer t.mu.Unlock()
	return clonePoints(t.state.Resolved)
}

// Get looks a point up in both collections.
func (t *Tracker) Get(id int64) (models.Point, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if i := indexOf(t.state.Active, id); i >= 0 {
		return t.state.Active[i].Clone(), true
	}
	if i := indexOf(t.state.Resolved, id); i >= 0 {
		return t.state.Resolved[i].Clone(), true
	}
	return models.Point{}, false
}

// History returns the per-service history of group over the last week.
func (t *Tracker) History(group models.Group) []models.HistoryItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	return models.ServiceHistory(t.state.Active, t.state.Resolved, group, t.now())
}

// Counts returns the sizes of both collections.
func (t *Tracker) Counts() (active, resolved int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.state.Active), len(t.state.Resolved)
}

// IDCounter returns the id the next created point will get.
func (t *Tracker) IDCounter() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.IDCounter
}

// Now is the tracker clock, exposed so views render elapsed times
// consistently with stored timestamps.
func (t *Tracker) Now() time.Time {
	return t.now()
}
