// Package server exposes the map controller, the custom monitor store and
// the overlay stream over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sudorandom/situation-map/pkg/catalog"
	"github.com/sudorandom/situation-map/pkg/geo"
	"github.com/sudorandom/situation-map/pkg/layers"
	"github.com/sudorandom/situation-map/pkg/mapstate"
	"github.com/sudorandom/situation-map/pkg/monitors"
	"github.com/sudorandom/situation-map/pkg/overlay"
)

// Refresher is the part of the refresh loop the API drives.
type Refresher interface {
	Request()
	RescoreMonitors() bool
}

// Deps are the collaborators of a Server. Monitors, Stream and Metrics may
// be nil; their routes are then not registered.
type Deps struct {
	Controller *mapstate.Controller
	Refresher  Refresher
	Monitors   *monitors.Store
	Stream     http.Handler
	Metrics    http.Handler
	Logger     *zap.Logger
}

type Server struct {
	Deps
	router *mux.Router
}

func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &Server{Deps: deps, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/overlay", s.handleOverlay).Methods(http.MethodGet)
	api.HandleFunc("/views", s.handleViews).Methods(http.MethodGet)
	api.HandleFunc("/view", s.handleSetView).Methods(http.MethodPut)
	api.HandleFunc("/zoom/{action:in|out|reset}", s.handleZoom).Methods(http.MethodPost)
	api.HandleFunc("/wheel", s.handleWheel).Methods(http.MethodPost)
	api.HandleFunc("/pan/{action:begin|move|end}", s.handlePan).Methods(http.MethodPost)
	api.HandleFunc("/layers", s.handleLayers).Methods(http.MethodGet)
	api.HandleFunc("/layers/{layer}", s.handleSetLayer).Methods(http.MethodPut)
	api.HandleFunc("/layers/{layer}/toggle", s.handleToggleLayer).Methods(http.MethodPost)
	api.HandleFunc("/popups", s.handlePopups).Methods(http.MethodGet)
	api.HandleFunc("/popups/click", s.handleClick).Methods(http.MethodPost)
	api.HandleFunc("/popups/outside", s.handleOutsideClick).Methods(http.MethodPost)
	api.HandleFunc("/popups/{category}", s.handleClosePopup).Methods(http.MethodDelete)
	api.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)

	if s.Monitors != nil {
		api.HandleFunc("/monitors", s.handleListMonitors).Methods(http.MethodGet)
		api.HandleFunc("/monitors", s.handleCreateMonitor).Methods(http.MethodPost)
		api.HandleFunc("/monitors/{id}", s.handleGetMonitor).Methods(http.MethodGet)
		api.HandleFunc("/monitors/{id}", s.handleUpdateMonitor).Methods(http.MethodPut)
		api.HandleFunc("/monitors/{id}", s.handleDeleteMonitor).Methods(http.MethodDelete)
		api.HandleFunc("/monitors/{id}/enabled", s.handleEnableMonitor).Methods(http.MethodPut)
	}
	if s.Stream != nil {
		s.router.Handle("/ws", s.Stream)
	}
	if s.Metrics != nil {
		s.router.Handle("/metrics", s.Metrics).Methods(http.MethodGet)
	}
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.Logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, apiError{Error: err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

// stateResponse is the controller snapshot without the overlay set.
type stateResponse struct {
	View       mapstate.ViewState `json:"view"`
	ZoomLabel  string             `json:"zoomLabel"`
	PanHint    bool               `json:"panHint"`
	Toggles    layers.Toggles     `json:"toggles"`
	Popups     []mapstate.Popup   `json:"popups"`
	Generation uint64             `json:"generation"`
}

func (s *Server) state() stateResponse {
	snap := s.Controller.Current()
	return stateResponse{
		View:       snap.View,
		ZoomLabel:  snap.ZoomLabel,
		PanHint:    snap.PanHint,
		Toggles:    snap.Toggles,
		Popups:     snap.Popups,
		Generation: snap.Generation,
	}
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleOverlay(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Controller.Current().Set)
}

func (s *Server) handleViews(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, geo.Views)
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		View string `json:"view"`
	}
	if !decode(w, r, &req) {
		return
	}
	v, err := geo.ParseView(req.View)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.Controller.SetView(v)
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	switch mux.Vars(r)["action"] {
	case "in":
		s.Controller.ZoomIn()
	case "out":
		s.Controller.ZoomOut()
	case "reset":
		s.Controller.ZoomReset()
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleWheel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeltaY float64 `json:"deltaY"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.Controller.Wheel(req.DeltaY)
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handlePan(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	if action == "end" {
		s.Controller.EndPan()
		writeJSON(w, http.StatusOK, s.state())
		return
	}
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if !decode(w, r, &req) {
		return
	}
	if action == "begin" {
		s.Controller.BeginPan(req.X, req.Y)
	} else {
		s.Controller.PanTo(req.X, req.Y)
	}
	writeJSON(w, http.StatusOK, s.state())
}

type layerInfo struct {
	Layer      layers.Layer `json:"layer"`
	Toggleable bool         `json:"toggleable"`
	Enabled    bool         `json:"enabled"`
	Visible    bool         `json:"visible"`
}

func (s *Server) handleLayers(w http.ResponseWriter, _ *http.Request) {
	snap := s.Controller.Current()
	out := make([]layerInfo, 0, len(layers.All))
	for _, l := range layers.All {
		r := layers.Rules[l]
		out = append(out, layerInfo{
			Layer:      l,
			Toggleable: r.Toggleable,
			Enabled:    snap.Toggles.Enabled(l),
			Visible:    layers.IsVisible(l, snap.View.Mode, snap.Toggles),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) layerChanged(l layers.Layer, on bool) {
	// Flights are only fetched while the layer is on.
	if l == layers.LayerFlights && on && s.Refresher != nil {
		s.Refresher.Request()
	}
}

func (s *Server) handleSetLayer(w http.ResponseWriter, r *http.Request) {
	l, err := layers.ParseLayer(mux.Vars(r)["layer"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.Controller.SetLayer(l, req.Enabled); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	s.layerChanged(l, req.Enabled)
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleToggleLayer(w http.ResponseWriter, r *http.Request) {
	l, err := layers.ParseLayer(mux.Vars(r)["layer"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	on, err := s.Controller.ToggleLayer(l)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	s.layerChanged(l, on)
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handlePopups(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Controller.Current().Popups)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind overlay.Kind `json:"kind"`
		ID   string       `json:"id"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, err := s.Controller.Click(req.Kind, req.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleOutsideClick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Trigger mapstate.Category `json:"trigger"`
		Popup   mapstate.Category `json:"popup"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.Controller.OutsideClick(mapstate.Target{Trigger: req.Trigger, Popup: req.Popup})
	writeJSON(w, http.StatusOK, s.Controller.Current().Popups)
}

func (s *Server) handleClosePopup(w http.ResponseWriter, r *http.Request) {
	s.Controller.ClosePopup(mapstate.Category(mux.Vars(r)["category"]))
	writeJSON(w, http.StatusOK, s.Controller.Current().Popups)
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	if s.Refresher == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("refresh is not available"))
		return
	}
	s.Refresher.Request()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) monitorsChanged() {
	if s.Refresher != nil {
		s.Refresher.RescoreMonitors()
	}
}

func monitorStatus(err error) int {
	switch {
	case errors.Is(err, monitors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, monitors.ErrInvalid):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) handleListMonitors(w http.ResponseWriter, _ *http.Request) {
	ms, err := s.Monitors.List()
	if err != nil {
		writeError(w, monitorStatus(err), err)
		return
	}
	if ms == nil {
		ms = []catalog.CustomMonitor{}
	}
	writeJSON(w, http.StatusOK, ms)
}

// createMonitorRequest is a monitor whose enabled flag defaults to true.
type createMonitorRequest struct {
	catalog.CustomMonitor
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleCreateMonitor(w http.ResponseWriter, r *http.Request) {
	var req createMonitorRequest
	if !decode(w, r, &req) {
		return
	}
	m := req.CustomMonitor
	m.Enabled = req.Enabled == nil || *req.Enabled
	m, err := s.Monitors.Create(m)
	if err != nil {
		writeError(w, monitorStatus(err), err)
		return
	}
	s.monitorsChanged()
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleGetMonitor(w http.ResponseWriter, r *http.Request) {
	m, err := s.Monitors.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, monitorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleUpdateMonitor(w http.ResponseWriter, r *http.Request) {
	var m catalog.CustomMonitor
	if !decode(w, r, &m) {
		return
	}
	m.ID = mux.Vars(r)["id"]
	m, err := s.Monitors.Update(m)
	if err != nil {
		writeError(w, monitorStatus(err), err)
		return
	}
	s.monitorsChanged()
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMonitor(w http.ResponseWriter, r *http.Request) {
	if err := s.Monitors.Delete(mux.Vars(r)["id"]); err != nil {
		writeError(w, monitorStatus(err), err)
		return
	}
	s.monitorsChanged()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEnableMonitor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, errors.New("enabled is required"))
		return
	}
	m, err := s.Monitors.SetEnabled(mux.Vars(r)["id"], *req.Enabled)
	if err != nil {
		writeError(w, monitorStatus(err), err)
		return
	}
	s.monitorsChanged()
	writeJSON(w, http.StatusOK, m)
}
