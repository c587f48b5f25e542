package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/sitepins/internal/localstore"
	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/models"
	"github.com/dmitrijs2005/sitepins/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cliNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T, input string, color bool) (*App, *bytes.Buffer) {
	t.Helper()
	clock := func() time.Time { return cliNow }

	store, err := localstore.NewMemory(localstore.Options{Now: clock}, logging.Discard())
	require.NoError(t, err)
	tr := tracker.New(store, tracker.Options{Now: clock}, logging.Discard())
	require.NoError(t, tr.Start(context.Background()))

	var out bytes.Buffer
	return newApp(tr, logging.Discard(), strings.NewReader(input), &out, color), &out
}

func seed(t *testing.T, a *App, title string, u models.Urgency, g models.Group) models.Point {
	t.Helper()
	p, err := a.tracker.Create(context.Background(), tracker.NewPoint{
		Title: title, Description: "desc", Urgency: u, Group: g,
		Location: models.MapLocation{Lat: 43.9, Lng: 4.5},
	})
	require.NoError(t, err)
	return p
}

func TestAdd_Interactive(t *testing.T) {
	input := strings.Join([]string{
		"Fuite",
		"Eau partout",
		"sous l'évier",
		"",
		"3",
		"maintenance",
		"plan 1 0.25 0.75",
	}, "\n") + "\n"
	a, out := newTestApp(t, input, false)

	require.NoError(t, a.Add(context.Background(), nil))
	assert.Contains(t, out.String(), "Point #1 created")

	p, ok := a.tracker.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Fuite", p.Title)
	assert.Equal(t, "Eau partout\nsous l'évier", p.Description)
	assert.Equal(t, models.UrgencyHigh, p.Urgency)
	assert.Equal(t, models.GroupMaintenance, p.Group)
	assert.Equal(t, models.PlanLocation{PlanIndex: 1, RelX: 0.25, RelY: 0.75}, p.Location)
}

func TestAdd_Defaults(t *testing.T) {
	a, _ := newTestApp(t, "t\nd\n\n\n\nmap 43.95, 4.53\n", false)

	require.NoError(t, a.Add(context.Background(), nil))
	p, ok := a.tracker.Get(1)
	require.True(t, ok)
	assert.Equal(t, models.UrgencyLow, p.Urgency)
	assert.Equal(t, models.GroupUnknown, p.Group)
	assert.Equal(t, models.MapLocation{Lat: 43.95, Lng: 4.53}, p.Location)
}

func TestAdd_Rejected(t *testing.T) {
	a, _ := newTestApp(t, "t\nd\n\n\n\nsomewhere\n", false)
	require.ErrorIs(t, a.Add(context.Background(), nil), ErrUsage)

	a, _ = newTestApp(t, "   \nd\n\n\n\nmap 1 2\n", false)
	require.ErrorIs(t, a.Add(context.Background(), nil), tracker.ErrValidation)
	assert.Equal(t, int64(1), a.tracker.IDCounter())
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in      string
		want    models.Location
		wantErr bool
	}{
		{"map 1.5 2.5", models.MapLocation{Lat: 1.5, Lng: 2.5}, false},
		{"MAP 1.5,2.5", models.MapLocation{Lat: 1.5, Lng: 2.5}, false},
		{"plan 2", models.PlanLocation{PlanIndex: 2, RelX: 0.5, RelY: 0.5}, false},
		{"plan 0 0.1 0.9", models.PlanLocation{PlanIndex: 0, RelX: 0.1, RelY: 0.9}, false},
		{"map 1", nil, true},
		{"plan 0 0.1", nil, true},
		{"plan x", nil, true},
		{"", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLocation(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUsage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestList(t *testing.T) {
	a, out := newTestApp(t, "", false)
	ctx := context.Background()

	require.NoError(t, a.List(ctx, nil))
	assert.Contains(t, out.String(), "No active points")

	seed(t, a, "low shop", models.UrgencyLow, models.GroupShop)
	seed(t, a, "high desk", models.UrgencyHigh, models.GroupWelcome)
	out.Reset()

	require.NoError(t, a.List(ctx, nil))
	s := out.String()
	assert.Less(t, strings.Index(s, "high desk"), strings.Index(s, "low shop"))
	assert.Contains(t, s, "[très urgent]")
	assert.Contains(t, s, "https://www.google.com/maps/dir/")
	assert.Contains(t, s, "2 point(s)")
	assert.NotContains(t, s, "\x1b[")

	out.Reset()
	require.NoError(t, a.List(ctx, []string{"date_asc", "boutique"}))
	assert.Contains(t, out.String(), "low shop")
	assert.NotContains(t, out.String(), "high desk")

	require.Error(t, a.List(ctx, []string{"sideways"}))
}

func TestList_Colour(t *testing.T) {
	a, out := newTestApp(t, "", true)
	seed(t, a, "x", models.UrgencyHigh, models.GroupShop)

	require.NoError(t, a.List(context.Background(), nil))
	assert.Contains(t, out.String(), "\x1b[31m[très urgent]\x1b[0m")
}

func TestCommentGroupResolve(t *testing.T) {
	a, out := newTestApp(t, "typed comment\n\n2\n", false)
	ctx := context.Background()
	p := seed(t, a, "x", models.UrgencyMedium, models.GroupShop)

	require.NoError(t, a.Comment(ctx, []string{"1", "on", "it"}))
	require.NoError(t, a.Comment(ctx, []string{"#1"}))
	got, _ := a.tracker.Get(p.ID)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "on it", got.Comments[0].Text)
	assert.Equal(t, "typed comment", got.Comments[1].Text)

	require.NoError(t, a.Group(ctx, []string{"1", "Espace", "nature"}))
	got, _ = a.tracker.Get(p.ID)
	assert.Equal(t, models.GroupNature, got.Group)

	require.NoError(t, a.Group(ctx, []string{"1"}))
	got, _ = a.tracker.Get(p.ID)
	assert.Equal(t, models.GroupNature, got.Group)

	require.NoError(t, a.Resolve(ctx, []string{"1"}))
	assert.Contains(t, out.String(), "#1 resolved after 0 s")

	require.ErrorIs(t, a.Resolve(ctx, []string{"1"}), tracker.ErrNotFound)
	require.ErrorIs(t, a.Resolve(ctx, nil), ErrUsage)
	require.ErrorIs(t, a.Comment(ctx, []string{"abc"}), ErrUsage)

	out.Reset()
	require.NoError(t, a.Resolved(ctx, nil))
	assert.Contains(t, out.String(), "open for 0 s")
}

func TestHistoryAndGroups(t *testing.T) {
	a, out := newTestApp(t, "", false)
	ctx := context.Background()
	seed(t, a, "gate", models.UrgencyLow, models.GroupSecurity)

	require.NoError(t, a.History(ctx, []string{"sécurité"}))
	assert.Contains(t, out.String(), "gate")
	assert.Contains(t, out.String(), string(models.StatusOpen))

	out.Reset()
	require.NoError(t, a.History(ctx, []string{"Boutique"}))
	assert.Contains(t, out.String(), "No points for Boutique")

	require.ErrorIs(t, a.History(ctx, nil), ErrUsage)

	out.Reset()
	require.NoError(t, a.Groups(ctx, nil))
	assert.Contains(t, out.String(), "13. Ne sait pas")
}

func TestExportImport(t *testing.T) {
	src, out := newTestApp(t, "", false)
	ctx := context.Background()
	seed(t, src, "exported", models.UrgencyLow, models.GroupShop)

	dir := filepath.Join(t.TempDir(), "exports")
	require.NoError(t, src.Export(ctx, []string{dir}))
	want := filepath.Join(dir, tracker.ExportFilename(cliNow))
	assert.Contains(t, out.String(), want)

	named := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, src.Export(ctx, []string{named}))
	_, err := os.Stat(named)
	require.NoError(t, err)

	dst, out := newTestApp(t, "", false)
	require.NoError(t, dst.Import(ctx, []string{want}))
	assert.Contains(t, out.String(), "Imported: 1 active, 0 resolved, next id 2")
	_, ok := dst.tracker.Get(1)
	assert.True(t, ok)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[]`), 0o600))
	require.ErrorIs(t, dst.Import(ctx, []string{bad}), tracker.ErrInvalidImport)
	require.ErrorIs(t, dst.Import(ctx, nil), ErrUsage)
}

func TestRun_WithoutStack(t *testing.T) {
	a, out := newTestApp(t, "list\nexit\n", false)
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "0 active, 0 resolved")
	assert.Contains(t, out.String(), "No active points")
}
