package rest

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/sitepins/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

const (
	maxBodyBytes   = 16 << 20
	maxImportBytes = 64 << 20
)

func (rt *Router) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		rt.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := validateStruct(dst); err != nil {
		rt.respondError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return false
	}
	return true
}

func (rt *Router) pointID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "pointID"), 10, 64)
	if err != nil || id < 1 {
		rt.respondError(w, r, http.StatusBadRequest, "invalid point id")
		return 0, false
	}
	return id, true
}

// listPoints handles GET /api/points?sort=&groups=a,b
func (rt *Router) listPoints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	mode, err := models.ParseSortMode(q.Get("sort"))
	if err != nil {
		rt.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var filter models.GroupFilter
	if raw := q.Get("groups"); raw != "" {
		var groups []models.Group
		for _, g := range strings.Split(raw, ",") {
			if g = strings.TrimSpace(g); g != "" {
				groups = append(groups, models.ParseGroup(g))
			}
		}
		filter = models.NewGroupFilter(groups...)
	}

	points := rt.tracker.Active(mode, filter)
	rt.respondJSON(w, r, http.StatusOK, listResponse{
		Points: newPointResponses(points, rt.tracker.Now()),
		Total:  len(points),
	})
}

// getPoint handles GET /api/points/{pointID}
func (rt *Router) getPoint(w http.ResponseWriter, r *http.Request) {
	id, ok := rt.pointID(w, r)
	if !ok {
		return
	}
	p, found := rt.tracker.Get(id)
	if !found {
		rt.respondError(w, r, http.StatusNotFound, fmt.Sprintf("point %d not found", id))
		return
	}
	rt.respondJSON(w, r, http.StatusOK, newPointResponse(p, rt.tracker.Now()))
}

// createPoint handles POST /api/points
func (rt *Router) createPoint(w http.ResponseWriter, r *http.Request) {
	var req createPointRequest
	if !rt.decode(w, r, &req) {
		return
	}

	p, err := rt.tracker.Create(r.Context(), req.newPoint())
	if err != nil {
		rt.respondFailure(w, r, err)
		return
	}
	rt.respondJSON(w, r, http.StatusCreated, newPointResponse(p, rt.tracker.Now()))
}

// addComment handles POST /api/points/{pointID}/comments
func (rt *Router) addComment(w http.ResponseWriter, r *http.Request) {
	id, ok := rt.pointID(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !rt.decode(w, r, &req) {
		return
	}

	p, err := rt.tracker.Comment(r.Context(), id, req.Text)
	if err != nil {
		rt.respondFailure(w, r, err)
		return
	}
	rt.respondJSON(w, r, http.StatusOK, newPointResponse(p, rt.tracker.Now()))
}

// reclassifyPoint handles PUT /api/points/{pointID}/group
func (rt *Router) reclassifyPoint(w http.ResponseWriter, r *http.Request) {
	id, ok := rt.pointID(w, r)
	if !ok {
		return
	}
	var req groupRequest
	if !rt.decode(w, r, &req) {
		return
	}

	p, err := rt.tracker.Reclassify(r.Context(), id, models.Group(req.Group))
	if err != nil {
		rt.respondFailure(w, r, err)
		return
	}
	rt.respondJSON(w, r, http.StatusOK, newPointResponse(p, rt.tracker.Now()))
}

// resolvePoint handles DELETE /api/points/{pointID}
func (rt *Router) resolvePoint(w http.ResponseWriter, r *http.Request) {
	id, ok := rt.pointID(w, r)
	if !ok {
		return
	}

	p, err := rt.tracker.Resolve(r.Context(), id)
	if err != nil {
		rt.respondFailure(w, r, err)
		return
	}
	rt.respondJSON(w, r, http.StatusOK, newPointResponse(p, rt.tracker.Now()))
}

// listResolved handles GET /api/resolved
func (rt *Router) listResolved(w http.ResponseWriter, r *http.Request) {
	points := rt.tracker.Resolved()
	rt.respondJSON(w, r, http.StatusOK, listResponse{
		Points: newPointResponses(points, rt.tracker.Now()),
		Total:  len(points),
	})
}

// history handles GET /api/history?group=
func (rt *Router) history(w http.ResponseWriter, r *http.Request) {
	group := strings.TrimSpace(r.URL.Query().Get("group"))
	if group == "" {
		rt.respondError(w, r, http.StatusBadRequest, "group is required")
		return
	}
	items := rt.tracker.History(models.Group(group))
	rt.respondJSON(w, r, http.StatusOK, newHistoryItems(items))
}

// groups handles GET /api/groups
func (rt *Router) groups(w http.ResponseWriter, r *http.Request) {
	resp := groupsResponse{Groups: models.Groups()}
	for _, u := range models.Urgencies() {
		resp.Urgencies = append(resp.Urgencies, urgencyDTO{Name: u, Color: models.UrgencyColor(u)})
	}
	rt.respondJSON(w, r, http.StatusOK, resp)
}

// exportState handles GET /api/export
func (rt *Router) exportState(w http.ResponseWriter, r *http.Request) {
	name, blob, err := rt.tracker.Export(r.Context())
	if err != nil {
		rt.respondFailure(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob); err != nil {
		rt.logger.Error(r.Context(), "Failed to write export", "error", err)
	}
}

// importState handles POST /api/import with the raw exported file as body.
func (rt *Router) importState(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		rt.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := rt.tracker.Import(r.Context(), raw); err != nil {
		rt.respondFailure(w, r, err)
		return
	}

	active, resolved := rt.tracker.Counts()
	rt.respondJSON(w, r, http.StatusOK, importResponse{
		Active:    active,
		Resolved:  resolved,
		IDCounter: rt.tracker.IDCounter(),
	})
}
