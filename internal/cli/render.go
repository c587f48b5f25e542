package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/sitepins/internal/models"
)

const ansiReset = "\x1b[0m"

var ansiColors = map[string]string{
	models.ColorGreen:  "\x1b[32m",
	models.ColorOrange: "\x1b[33m",
	models.ColorRed:    "\x1b[31m",
	models.ColorBlue:   "\x1b[34m",
}

type renderer struct {
	w     io.Writer
	color bool
}

func (r renderer) urgency(u models.Urgency) string {
	label := "[" + string(u) + "]"
	if !r.color {
		return label
	}
	return ansiColors[models.UrgencyColor(u)] + label + ansiReset
}

func (r renderer) point(p models.Point, now time.Time) {
	fmt.Fprintf(r.w, "#%d %s %s\n", p.ID, r.urgency(p.Urgency), p.Title)
	fmt.Fprintf(r.w, "    %s | %s\n", p.Group, models.LocationLabel(p.Location))

	if openFor, ok := p.OpenFor(); ok {
		fmt.Fprintf(r.w, "    created %s, resolved %s, open for %s\n",
			localTime(p.CreatedAt), localTime(*p.DeletedAt), openFor)
	} else {
		fmt.Fprintf(r.w, "    created %s, %s ago\n", localTime(p.CreatedAt), p.Elapsed(now))
	}

	for _, line := range strings.Split(p.Description, "\n") {
		fmt.Fprintf(r.w, "    %s\n", line)
	}
	if c, ok := p.LastComment(); ok {
		fmt.Fprintf(r.w, "    last comment (%d total): %s\n", len(p.Comments), c.Text)
	}
	if n := len(p.Photos); n > 0 {
		fmt.Fprintf(r.w, "    %d photo(s)\n", n)
	}
	if link, ok := models.DirectionsURL(p.Location); ok {
		fmt.Fprintf(r.w, "    %s\n", link)
	}
}

func (r renderer) points(points []models.Point, now time.Time, empty string) {
	if len(points) == 0 {
		fmt.Fprintln(r.w, empty)
		return
	}
	for _, p := range points {
		r.point(p, now)
	}
	fmt.Fprintf(r.w, "%d point(s)\n", len(points))
}

func (r renderer) history(group models.Group, items []models.HistoryItem) {
	if len(items) == 0 {
		fmt.Fprintf(r.w, "No points for %s in the last 7 days\n", group)
		return
	}
	fmt.Fprintf(r.w, "%s, last 7 days:\n", group)
	for _, it := range items {
		fmt.Fprintf(r.w, "#%d %s %s [%s] %s\n", it.ID, localTime(it.CreatedAt), r.urgency(it.Urgency), it.Status, it.Title)
		fmt.Fprintf(r.w, "    %s | %d comment(s)", it.Location, it.CommentCount)
		if it.LastCommentAt != nil {
			fmt.Fprintf(r.w, ", last %s", localTime(*it.LastCommentAt))
		}
		fmt.Fprintln(r.w)
	}
}

func localTime(t time.Time) string {
	return t.Local().Format("02/01/2006 15:04")
}
