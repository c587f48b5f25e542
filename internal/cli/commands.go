package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/sitepins/internal/filex"
	"github.com/dmitrijs2005/sitepins/internal/models"
	"github.com/dmitrijs2005/sitepins/internal/tracker"
)

var ErrUsage = errors.New("usage")

func usage(format string) error {
	return fmt.Errorf("%w: %s", ErrUsage, format)
}

func parseID(args []string, format string) (int64, error) {
	if len(args) == 0 {
		return 0, usage(format)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id < 1 {
		return 0, usage(format)
	}
	return id, nil
}

func groupNames() []string {
	groups := models.Groups()
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = string(g)
	}
	return out
}

func (a *App) List(_ context.Context, args []string) error {
	mode := models.SortUrgency
	if len(args) > 0 {
		m, err := models.ParseSortMode(args[0])
		if err != nil {
			return err
		}
		mode = m
	}

	var filter models.GroupFilter
	if len(args) > 1 {
		var groups []models.Group
		for _, g := range strings.Split(strings.Join(args[1:], " "), ",") {
			if g = strings.TrimSpace(g); g != "" {
				groups = append(groups, models.ParseGroup(g))
			}
		}
		filter = models.NewGroupFilter(groups...)
	}

	a.render.points(a.tracker.Active(mode, filter), a.tracker.Now(), "No active points")
	return nil
}

func (a *App) Resolved(_ context.Context, _ []string) error {
	a.render.points(a.tracker.Resolved(), a.tracker.Now(), "No resolved points")
	return nil
}

func (a *App) Groups(_ context.Context, _ []string) error {
	for i, g := range models.Groups() {
		fmt.Fprintf(a.out, "%2d. %s\n", i+1, g)
	}
	return nil
}

// Add asks for every field of a new point in turn.
func (a *App) Add(ctx context.Context, _ []string) error {
	title, err := GetSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	description, err := GetMultiline(a.reader, "Description", a.out)
	if err != nil {
		return err
	}

	urgencies := models.Urgencies()
	names := make([]string, len(urgencies))
	for i, u := range urgencies {
		names[i] = string(u)
	}
	ui, err := GetChoice(a.reader, "Urgency", names, 0, a.out)
	if err != nil {
		return err
	}

	groups := groupNames()
	gi, err := GetChoice(a.reader, "Group", groups, len(groups)-1, a.out)
	if err != nil {
		return err
	}

	raw, err := GetSimpleText(a.reader, "Location: map LAT LNG | plan INDEX [X Y] (INDEX 0=RDC, 1, 2; X and Y within 0..1)", a.out)
	if err != nil {
		return err
	}
	loc, err := parseLocation(raw)
	if err != nil {
		return err
	}

	p, err := a.tracker.Create(ctx, tracker.NewPoint{
		Title:       title,
		Description: description,
		Urgency:     urgencies[ui],
		Group:       models.Group(groups[gi]),
		Location:    loc,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Point #%d created\n", p.ID)
	return nil
}

func parseLocation(s string) (models.Location, error) {
	const format = "location must be 'map LAT LNG' or 'plan INDEX [X Y]'"

	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields) == 0 {
		return nil, usage(format)
	}

	nums := make([]float64, 0, len(fields)-1)
	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, usage(format)
		}
		nums = append(nums, v)
	}

	switch strings.ToLower(fields[0]) {
	case string(models.LocationMap):
		if len(nums) != 2 {
			return nil, usage(format)
		}
		return models.MapLocation{Lat: nums[0], Lng: nums[1]}, nil
	case string(models.LocationPlan):
		switch len(nums) {
		case 1:
			return models.PlanLocation{PlanIndex: int(nums[0]), RelX: 0.5, RelY: 0.5}, nil
		case 3:
			return models.PlanLocation{PlanIndex: int(nums[0]), RelX: nums[1], RelY: nums[2]}, nil
		}
	}
	return nil, usage(format)
}

func (a *App) Comment(ctx context.Context, args []string) error {
	id, err := parseID(args, "comment <id> [text]")
	if err != nil {
		return err
	}

	text := strings.Join(args[1:], " ")
	if text == "" {
		if text, err = GetMultiline(a.reader, fmt.Sprintf("Comment on #%d", id), a.out); err != nil {
			return err
		}
	}

	p, err := a.tracker.Comment(ctx, id, text)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Comment added to #%d (%d total)\n", p.ID, len(p.Comments))
	return nil
}

func (a *App) Group(ctx context.Context, args []string) error {
	id, err := parseID(args, "group <id> [group]")
	if err != nil {
		return err
	}

	group := models.Group(strings.Join(args[1:], " "))
	if group == "" {
		groups := groupNames()
		gi, err := GetChoice(a.reader, fmt.Sprintf("New group for #%d", id), groups, len(groups)-1, a.out)
		if err != nil {
			return err
		}
		group = models.Group(groups[gi])
	}

	p, err := a.tracker.Reclassify(ctx, id, group)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "#%d now belongs to %s\n", p.ID, p.Group)
	return nil
}

func (a *App) Resolve(ctx context.Context, args []string) error {
	id, err := parseID(args, "resolve <id>")
	if err != nil {
		return err
	}

	p, err := a.tracker.Resolve(ctx, id)
	if err != nil {
		return err
	}
	openFor, _ := p.OpenFor()
	fmt.Fprintf(a.out, "#%d resolved after %s\n", p.ID, openFor)
	return nil
}

func (a *App) History(_ context.Context, args []string) error {
	if len(args) == 0 {
		return usage("history <group>")
	}
	group := models.ParseGroup(strings.Join(args, " "))
	a.render.history(group, a.tracker.History(group))
	return nil
}

// Export writes the stored blob verbatim. A path ending in .json names the
// file; any other path is a directory that receives the timestamped name.
func (a *App) Export(ctx context.Context, args []string) error {
	name, blob, err := a.tracker.Export(ctx)
	if err != nil {
		return err
	}

	dir, file := "", name
	if len(args) > 0 {
		if strings.EqualFold(filepath.Ext(args[0]), ".json") {
			dir, file = filepath.Dir(args[0]), filepath.Base(args[0])
		} else {
			dir = args[0]
		}
	}

	dir, err = filex.EnsureDir(dir)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, file)
	if err := filex.WriteFileAtomic(path, blob, 0o600); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Exported to %s (%d bytes)\n", path, len(blob))
	return nil
}

func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("import <path>")
	}

	raw, err := os.ReadFile(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if err := a.tracker.Import(ctx, raw); err != nil {
		return err
	}

	active, resolved := a.tracker.Counts()
	fmt.Fprintf(a.out, "Imported: %d active, %d resolved, next id %d\n", active, resolved, a.tracker.IDCounter())
	return nil
}
