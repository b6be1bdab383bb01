package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"github.com/theoremus-urban-solutions/hkbus-eta/favourite"
	"github.com/theoremus-urban-solutions/hkbus-eta/hkbus"
	"github.com/theoremus-urban-solutions/hkbus-eta/registry"
	"github.com/theoremus-urban-solutions/hkbus-eta/store"
	"github.com/theoremus-urban-solutions/hkbus-eta/widget"
)

var errBadRequest = errors.New("bad request")

var validate = validator.New()

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, favourite.ErrUnknownRoute),
		errors.Is(err, favourite.ErrNotOnRoute),
		errors.Is(err, widget.ErrStopNotOnRoute),
		errors.Is(err, registry.ErrUnknownStop):
		return http.StatusBadRequest
	case errors.Is(err, registry.ErrNoData):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func pathID(r *http.Request) (int, error) {
	id, err := cast.ToIntE(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid favourite id %q", errBadRequest, r.PathValue("id"))
	}
	return id, nil
}

// originFrom reads the optional lat/lng query parameters.
func originFrom(r *http.Request) (*hkbus.Coordinates, error) {
	q := r.URL.Query()
	lat, lng := q.Get("lat"), q.Get("lng")
	if lat == "" && lng == "" {
		return nil, nil
	}
	la, err := cast.ToFloat64E(lat)
	if err != nil {
		return nil, fmt.Errorf("%w: lat: %v", errBadRequest, err)
	}
	ln, err := cast.ToFloat64E(lng)
	if err != nil {
		return nil, fmt.Errorf("%w: lng: %v", errBadRequest, err)
	}
	return &hkbus.Coordinates{Lat: la, Lng: ln}, nil
}

func (s *Server) language(r *http.Request) (string, error) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		return s.cfg.Widget.Language, nil
	}
	if lang != "en" && lang != "zh" {
		return "", fmt.Errorf("%w: unsupported language %q", errBadRequest, lang)
	}
	return lang, nil
}

type stopView struct {
	Index     int        `json:"index"`
	StopID    string     `json:"stopId"`
	Stop      hkbus.Stop `json:"stop"`
	Branch    int        `json:"branch"`
	BranchIDs []int      `json:"branchIds"`
}

type routeStopsResponse struct {
	Query    string        `json:"query"`
	Branches []hkbus.Route `json:"branches"`
	Stops    []stopView    `json:"stops"`
}

func (s *Server) handleRouteStops(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := registry.RouteQuery{
		RouteNumber: strings.TrimSpace(q.Get("route")),
		Bound:       strings.TrimSpace(q.Get("bound")),
		Co:          hkbus.Operator(strings.TrimSpace(q.Get("co"))),
		GMBRegion:   hkbus.GMBRegion(strings.ToUpper(strings.TrimSpace(q.Get("gmbRegion")))),
	}
	if query.RouteNumber == "" || query.Co == "" {
		writeError(w, fmt.Errorf("%w: route and co are required", errBadRequest))
		return
	}
	if query.Bound == "" {
		query.Bound = "O"
	}
	list, err := s.registry.AllStops(query)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := routeStopsResponse{Query: query.String(), Branches: list.Branches, Stops: make([]stopView, 0, len(list.Stops))}
	for i, sd := range list.Stops {
		ids := sd.BranchIDs.Slice()
		slices.Sort(ids)
		resp.Stops = append(resp.Stops, stopView{Index: i + 1, StopID: sd.StopID, Stop: sd.Stop, Branch: sd.BranchIndex, BranchIDs: ids})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListFavourites(w http.ResponseWriter, r *http.Request) {
	favs, err := s.store.Favourites()
	if err != nil {
		writeError(w, err)
		return
	}
	if favs == nil {
		favs = []favourite.RouteStop{}
	}
	writeJSON(w, http.StatusOK, favs)
}

type addFavouriteRequest struct {
	RouteKey string             `json:"routeKey" validate:"required"`
	StopID   string             `json:"stopId" validate:"required"`
	Co       hkbus.Operator     `json:"co"`
	Index    int                `json:"index" validate:"gte=0"`
	Mode     favourite.StopMode `json:"favouriteStopMode"`
}

func (s *Server) handleAddFavourite(w http.ResponseWriter, r *http.Request) {
	var req addFavouriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	fav, err := s.newFavourite(req)
	if err != nil {
		writeError(w, err)
		return
	}
	fav, err = s.store.AddFavourite(fav)
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("favourite added", "favourite", fav.ID, "route", fav.Route.RouteNumber, "co", fav.Co, "stop", fav.StopID)
	writeJSON(w, http.StatusCreated, fav)
}

func (s *Server) newFavourite(req addFavouriteRequest) (favourite.RouteStop, error) {
	snap, err := s.registry.Snapshot()
	if err != nil {
		return favourite.RouteStop{}, err
	}
	return favourite.New(snap, req.RouteKey, req.Co, req.StopID, req.Index, req.Mode)
}

func (s *Server) handleDeleteFavourite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.DeleteFavourite(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resolution struct {
	FavouriteID int                     `json:"favouriteId"`
	Stop        *favourite.ResolvedStop `json:"stop"`
}

func (s *Server) handleResolveFavourites(w http.ResponseWriter, r *http.Request) {
	origin, err := originFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	favs, err := s.store.Favourites()
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := s.registry.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := favourite.NewResolver(snap, s.metrics).ResolveAll(favs, origin)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]resolution, 0, len(res))
	for _, rs := range res {
		out = append(out, resolution{FavouriteID: rs.Favourite.ID, Stop: rs.Stop})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleWidget precomputes a favourite, stores the snapshot and returns the
// platform record. The fingerprint doubles as ETag.
func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	lang, err := s.language(r)
	if err != nil {
		writeError(w, err)
		return
	}
	fav, err := s.store.Favourite(id)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := s.registry.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := widget.NewBuilder(snap, lang, s.metrics).Build(fav)
	if err != nil {
		writeError(w, err)
		return
	}
	payload, err := widget.Encode(data, s.cfg.Widget.Compress)
	if err != nil {
		writeError(w, err)
		return
	}
	changed, err := s.store.PutSnapshot(fav.ID, payload, s.now())
	if err != nil {
		writeError(w, err)
		return
	}
	info, err := widget.PlatformInfoOf(data)
	if err != nil {
		writeError(w, err)
		return
	}
	if changed {
		slog.Debug("widget snapshot updated", "favourite", fav.ID, "fingerprint", info.Fingerprint)
	}

	etag := `"` + info.Fingerprint + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleDisplay renders the stored snapshot of a favourite for the given
// location and the current time.
func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	origin, err := originFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := s.store.Snapshot(id)
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := widget.BuildDisplay(snap.Payload, origin, s.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
