package tracker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/sitepins/internal/models"
	"github.com/dmitrijs2005/sitepins/internal/remotestore"
)

// NewPoint is the input of Create.
type NewPoint struct {
	Title       string
	Description string
	Urgency     models.Urgency
	Group       models.Group
	Location    models.Location
	Photos      []models.Photo
}

func (in NewPoint) normalize() (NewPoint, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" {
		return in, fmt.Errorf("%w: title and description are required", ErrValidation)
	}

	switch loc := in.Location.(type) {
	case models.MapLocation:
	case models.PlanLocation:
		pl, err := models.NewPlanLocation(loc.PlanIndex, loc.RelX, loc.RelY)
		if err != nil {
			return in, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		in.Location = pl
	default:
		return in, fmt.Errorf("%w: location is required", ErrValidation)
	}

	in.Urgency = models.Urgency(strings.TrimSpace(string(in.Urgency)))
	if in.Urgency == "" {
		in.Urgency = models.UrgencyLow
	}
	in.Group = models.ParseGroup(string(in.Group))
	in.Photos = models.LimitPhotos(in.Photos)
	return in, nil
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Create assigns the next id to a new active point, saves it and mirrors it.
func (t *Tracker) Create(ctx context.Context, in NewPoint) (models.Point, error) {
	in, err := in.normalize()
	if err != nil {
		t.metrics.ObserveOperation("create", err)
		return models.Point{}, err
	}

	if err = t.acquire(); err != nil {
		t.metrics.ObserveOperation("create", err)
		return models.Point{}, err
	}
	defer t.release()

	t.mu.Lock()
	p := models.Point{
		ID:          t.state.IDCounter,
		Title:       in.Title,
		Description: in.Description,
		Urgency:     in.Urgency,
		Group:       in.Group,
		Location:    in.Location,
		CreatedAt:   t.now(),
		Comments:    []models.Comment{},
		Photos:      in.Photos,
	}
	t.state.IDCounter++
	t.state.Active = append(t.state.Active, p)
	t.persistLocked(ctx)
	out := p.Clone()
	t.mu.Unlock()

	t.mirror.EnqueueUpsert(remotestore.CollectionActive, models.RecordFromPoint(out))
	t.metrics.ObserveOperation("create", nil)
	t.logger.Info(ctx, "point created", "id", out.ID, "group", out.Group, "urgency", out.Urgency)
	return out, nil
}

// Comment appends a comment to an active point.
func (t *Tracker) Comment(ctx context.Context, id int64, text string) (models.Point, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		t.metrics.ObserveOperation("comment", ErrEmptyComment)
		return models.Point{}, ErrEmptyComment
	}

	if err := t.acquire(); err != nil {
		t.metrics.ObserveOperation("comment", err)
		return models.Point{}, err
	}
	defer t.release()

	t.mu.Lock()
	i := indexOf(t.state.Active, id)
	if i < 0 {
		t.mu.Unlock()
		t.metrics.ObserveOperation("comment", ErrNotFound)
		return models.Point{}, fmt.Errorf("point %d: %w", id, ErrNotFound)
	}

	p := &t.state.Active[i]
	p.Comments = append(p.Comments, models.Comment{Text: text, CreatedAt: t.now()})
	t.persistLocked(ctx)
	out := p.Clone()
	t.mu.Unlock()

	t.mirror.EnqueueUpdate(remotestore.CollectionActive, docID(id), remotestore.Fields{Comments: out.Comments})
	t.metrics.ObserveOperation("comment", nil)
	t.logger.Info(ctx, "comment added", "id", id, "comments", len(out.Comments))
	return out, nil
}

// Reclassify changes the responsible group of a point, active or resolved.
// The group is normalised, so unknown names become the fallback group.
func (t *Tracker) Reclassify(ctx context.Context, id int64, group models.Group) (models.Point, error) {
	group = models.ParseGroup(string(group))

	if err := t.acquire(); err != nil {
		t.metrics.ObserveOperation("reclassify", err)
		return models.Point{}, err
	}
	defer t.release()

	t.mu.Lock()
	collection := remotestore.CollectionActive
	points := t.state.Active
	i := indexOf(points, id)
	if i < 0 {
		collection = remotestore.CollectionResolved
		points = t.state.Resolved
		i = indexOf(points, id)
	}
	if i < 0 {
		t.mu.Unlock()
		t.metrics.ObserveOperation("reclassify", ErrNotFound)
		return models.Point{}, fmt.Errorf("point %d: %w", id, ErrNotFound)
	}

	points[i].Group = group
	t.persistLocked(ctx)
	out := points[i].Clone()
	t.mu.Unlock()

	t.mirror.EnqueueUpdate(collection, docID(id), remotestore.Fields{Group: &group})
	t.metrics.ObserveOperation("reclassify", nil)
	t.logger.Info(ctx, "point reclassified", "id", id, "group", group, "collection", collection)
	return out, nil
}

// Resolve moves an active point to the resolved collection. The remote
// mirror receives the new resolved document first and the removal of the
// active one second; the two writes succeed or fail independently.
func (t *Tracker) Resolve(ctx context.Context, id int64) (models.Point, error) {
	if err := t.acquire(); err != nil {
		t.metrics.ObserveOperation("resolve", err)
		return models.Point{}, err
	}
	defer t.release()

	t.mu.Lock()
	i := indexOf(t.state.Active, id)
	if i < 0 {
		t.mu.Unlock()
		t.metrics.ObserveOperation("resolve", ErrNotFound)
		return models.Point{}, fmt.Errorf("point %d: %w", id, ErrNotFound)
	}

	p := t.state.Active[i]
	t.state.Active = append(t.state.Active[:i:i], t.state.Active[i+1:]...)

	resolvedAt := t.now()
	if resolvedAt.Before(p.CreatedAt) {
		resolvedAt = p.CreatedAt
	}
	p.DeletedAt = &resolvedAt
	t.state.Resolved = append(t.state.Resolved, p)

	t.persistLocked(ctx)
	out := p.Clone()
	t.mu.Unlock()

	t.mirror.EnqueueUpsert(remotestore.CollectionResolved, models.RecordFromPoint(out))
	t.mirror.EnqueueDelete(remotestore.CollectionActive, docID(id))
	t.metrics.ObserveOperation("resolve", nil)

	openFor, _ := out.OpenFor()
	t.logger.Info(ctx, "point resolved", "id", id, "open_for", openFor)
	return out, nil
}
