package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SortMode selects the ordering of the active list.
type SortMode string

const (
	SortUrgency  SortMode = "urgency"
	SortDateDesc SortMode = "date_desc"
	SortDateAsc  SortMode = "date_asc"
	SortGroup    SortMode = "group"
)

// ParseSortMode accepts the four known mode names. An empty string selects
// SortUrgency.
func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(strings.TrimSpace(s)); m {
	case "":
		return SortUrgency, nil
	case SortUrgency, SortDateDesc, SortDateAsc, SortGroup:
		return m, nil
	default:
		return "", fmt.Errorf("unknown sort mode %q", s)
	}
}

// SortPoints orders points in place. Ties are broken by creation time,
// oldest first, for the urgency and group modes.
func SortPoints(points []Point, mode SortMode) {
	var less func(a, b Point) bool

	switch mode {
	case SortDateDesc:
		less = func(a, b Point) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortDateAsc:
		less = func(a, b Point) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortGroup:
		less = func(a, b Point) bool {
			ga, gb := strings.ToLower(string(a.Group)), strings.ToLower(string(b.Group))
			if ga != gb {
				return ga < gb
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	default:
		less = func(a, b Point) bool {
			ra, rb := UrgencyRank(a.Urgency), UrgencyRank(b.Urgency)
			if ra != rb {
				return ra > rb
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}

	sort.SliceStable(points, func(i, j int) bool { return less(points[i], points[j]) })
}

// GroupFilter is the set of groups whose points are shown. An empty filter
// shows everything.
type GroupFilter map[Group]bool

func NewGroupFilter(groups ...Group) GroupFilter {
	f := make(GroupFilter, len(groups))
	for _, g := range groups {
		f[ParseGroup(string(g))] = true
	}
	return f
}

func (f GroupFilter) Visible(g Group) bool {
	if len(f) == 0 {
		return true
	}
	return f[ParseGroup(string(g))]
}

// FilterPoints returns the points whose group passes the filter. The input
// slice is not modified.
func FilterPoints(points []Point, f GroupFilter) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if f.Visible(p.Group) {
			out = append(out, p)
		}
	}
	return out
}

// HistoryWindow is how far back the per-service history looks.
const HistoryWindow = 7 * 24 * time.Hour

type HistoryStatus string

const (
	StatusOpen HistoryStatus = "En cours"
	StatusDone HistoryStatus = "Traité"
)

// HistoryItem is one line of the per-service history.
type HistoryItem struct {
	ID            int64
	Title         string
	Description   string
	Urgency       Urgency
	Location      string
	CreatedAt     time.Time
	Status        HistoryStatus
	CommentCount  int
	LastCommentAt *time.Time
}

// ServiceHistory lists the points of one group, active and resolved, that
// were created within HistoryWindow before now. Newest first.
func ServiceHistory(active, resolved []Point, group Group, now time.Time) []HistoryItem {
	group = ParseGroup(string(group))
	since := now.Add(-HistoryWindow)

	items := make([]HistoryItem, 0)
	collect := func(points []Point, status HistoryStatus) {
		for _, p := range points {
			if ParseGroup(string(p.Group)) != group || p.CreatedAt.Before(since) {
				continue
			}
			item := HistoryItem{
				ID:           p.ID,
				Title:        p.Title,
				Description:  p.Description,
				Urgency:      p.Urgency,
				Location:     LocationLabel(p.Location),
				CreatedAt:    p.CreatedAt,
				Status:       status,
				CommentCount: len(p.Comments),
			}
			if c, ok := p.LastComment(); ok && !c.CreatedAt.IsZero() {
				at := c.CreatedAt
				item.LastCommentAt = &at
			}
			items = append(items, item)
		}
	}
	collect(active, StatusOpen)
	collect(resolved, StatusDone)

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}
