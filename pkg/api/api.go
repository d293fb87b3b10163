// Package api exposes the plotter over HTTP: job control, homing, manual
// moves and the tool and area settings.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/gorilla/websocket"

	"github.com/vart-team/vart/go-controller/pkg/geometry"
	"github.com/vart-team/vart/go-controller/pkg/job"
	"github.com/vart-team/vart/go-controller/pkg/logging"
	"github.com/vart-team/vart/go-controller/pkg/vart"
	"github.com/vart-team/vart/go-controller/pkg/vartlang"
)

// Server serves one device and its job runner.
type Server struct {
	device          *vart.Device
	runner          *job.Runner
	maxProgramBytes int64

	// StreamPeriod is how often /status/ws pushes a status.
	StreamPeriod time.Duration
	upgrader     websocket.Upgrader
}

func New(device *vart.Device, runner *job.Runner, maxProgramBytes int64) *Server {
	return &Server{
		device:          device,
		runner:          runner,
		maxProgramBytes: maxProgramBytes,
		StreamPeriod:    250 * time.Millisecond,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router returns the routes of the server.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/status", s.getStatus)
	r.Get("/status/ws", s.streamStatus)

	r.Route("/job", func(r chi.Router) {
		r.Post("/", s.startJob)
		r.Post("/demo", s.startDemo)
		r.Post("/abort", s.abortJob)
		r.Post("/pause", s.pauseJob(true))
		r.Post("/resume", s.pauseJob(false))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.exclusive)

		r.Route("/homing", func(r chi.Router) {
			r.Post("/enable", s.setEnabled)
			r.Post("/pull-in", s.pullRopes(true))
			r.Post("/pull-out", s.pullRopes(false))
			r.Post("/set-home", s.setHome)
			r.Post("/move-top", s.homingMove(s.device.MoveTop))
			r.Post("/move-home", s.homingMove(s.device.MoveHome))
			r.Post("/offset/{side}", s.setOffset)
		})

		r.Post("/move", s.move)
		r.Post("/planner", s.setPlanner)
		r.Post("/area", s.setArea)
		r.Post("/tool/enable", s.setToolEnabled)
		r.Post("/tool/active", s.setActiveTool)
		r.Post("/tool/{marker}", s.setToolAngle)
	})
	r.Get("/area", s.getArea)
	r.Get("/tool/{marker}", s.getToolAngle)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.For("api").WithField("method", r.Method).WithField("path", r.URL.Path).Debug("Request")
		next.ServeHTTP(w, r)
	})
}

// exclusive runs the request as a manual operation of the runner, so it
// gets 409 while a job or another manual request holds the device, and
// jobs are refused until it is done.
func (s *Server) exclusive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := s.runner.Manual(r.Method+" "+r.URL.Path, func() error {
			next.ServeHTTP(w, r)
			return nil
		})
		if errors.Is(err, job.ErrBusy) {
			http.Error(w, err.Error(), http.StatusConflict)
		}
	})
}

func respondJSON(w http.ResponseWriter, v interface{}) {
	respondJSONStatus(w, http.StatusOK, v)
}

func respondJSONStatus(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.For("api").WithError(err).Warn("Failed to write response")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// motionError maps a planner failure to a response.
func motionError(w http.ResponseWriter, err error) {
	var domain *vart.DomainError
	switch {
	case errors.As(err, &domain):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, vart.ErrUnknownMode), errors.Is(err, vart.ErrUnknownMarker):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type PlannerStatus struct {
	Mode  string  `json:"mode"`
	Speed float64 `json:"speed"`
	Accel float64 `json:"accel"`
}

type Status struct {
	Job      job.Status         `json:"job"`
	Position *geometry.Vector2D `json:"position"`
	Target   *geometry.Vector2D `json:"target"`
	Ready    bool               `json:"ready"`
	AreaSize geometry.Vector2D  `json:"area_size"`
	Planner  PlannerStatus      `json:"planner"`
}

func (s *Server) status() Status {
	c := s.device.Controller()
	st := Status{
		Job:      s.runner.Status(),
		Ready:    c.IsReady(),
		AreaSize: c.AreaSize(),
		Planner: PlannerStatus{
			Mode:  s.device.Planner.Mode().String(),
			Speed: s.device.Planner.Speed(),
			Accel: s.device.Planner.Accel(),
		},
	}
	if p, err := c.CurrentPosition(); err == nil {
		st.Position = &p
	}
	if p, err := c.TargetPosition(); err == nil {
		st.Target = &p
	}
	return st
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.status())
}

// startJob runs the request body as a program. The name query parameter
// labels the job.
func (s *Server) startJob(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, s.maxProgramBytes+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if int64(len(body)) > s.maxProgramBytes {
		http.Error(w, "program too large", http.StatusRequestEntityTooLarge)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}
	s.start(w, name, body)
}

func (s *Server) startDemo(w http.ResponseWriter, r *http.Request) {
	s.start(w, "demo", vartlang.Demo())
}

func (s *Server) start(w http.ResponseWriter, name string, program []byte) {
	if err := s.runner.Start(name, bytes.NewReader(program)); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	respondJSONStatus(w, http.StatusAccepted, s.runner.Status())
}

func (s *Server) abortJob(w http.ResponseWriter, r *http.Request) {
	s.runner.Abort()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) pauseJob(paused bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.runner.SetPaused(paused)
		w.WriteHeader(http.StatusOK)
	}
}

type BoolT struct {
	Bool bool `json:"bool"`
}

func (s *Server) setEnabled(w http.ResponseWriter, r *http.Request) {
	var b BoolT
	if !decode(w, r, &b) {
		return
	}
	if err := s.device.Controller().SetEnabled(b.Bool); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) pullRopes(in bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if in {
			s.device.Controller().PullRopesIn()
		} else {
			s.device.Controller().PullRopesOut()
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) setHome(w http.ResponseWriter, r *http.Request) {
	s.device.Controller().SetCurrentPositionAsHome()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) homingMove(move func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := move(); err != nil {
			motionError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

type OffsetT struct {
	MM int32 `json:"mm"`
}

func (s *Server) setOffset(w http.ResponseWriter, r *http.Request) {
	var set func(int32) (int32, error)
	switch chi.URLParam(r, "side") {
	case "left":
		set = s.device.SetLeftOffset
	case "right":
		set = s.device.SetRightOffset
	default:
		http.Error(w, "side must be left or right", http.StatusNotFound)
		return
	}
	var o OffsetT
	if !decode(w, r, &o) {
		return
	}
	mm, err := set(o.MM)
	if err != nil {
		motionError(w, err)
		return
	}
	respondJSON(w, OffsetT{MM: mm})
}

// MoveRequest optionally changes the planner settings before moving.
type MoveRequest struct {
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Mode  *int     `json:"mode,omitempty"`
	Speed *float64 `json:"speed,omitempty"`
	Accel *float64 `json:"accel,omitempty"`
}

type PlannerRequest struct {
	Mode  *int     `json:"mode,omitempty"`
	Speed *float64 `json:"speed,omitempty"`
	Accel *float64 `json:"accel,omitempty"`
}

func (s *Server) applyPlanner(req PlannerRequest) error {
	p := s.device.Planner
	if req.Mode != nil {
		if err := p.SetMode(vart.Mode(*req.Mode)); err != nil {
			return err
		}
	}
	if req.Speed != nil {
		p.SetSpeed(*req.Speed)
	}
	if req.Accel != nil {
		p.SetAccel(*req.Accel)
	}
	return nil
}

func (s *Server) setPlanner(w http.ResponseWriter, r *http.Request) {
	var req PlannerRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.applyPlanner(req); err != nil {
		motionError(w, err)
		return
	}
	p := s.device.Planner
	respondJSON(w, PlannerStatus{Mode: p.Mode().String(), Speed: p.Speed(), Accel: p.Accel()})
}

func (s *Server) move(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.applyPlanner(PlannerRequest{Mode: req.Mode, Speed: req.Speed, Accel: req.Accel}); err != nil {
		motionError(w, err)
		return
	}
	if err := s.device.Planner.MoveTo(geometry.Vector2D{X: req.X, Y: req.Y}); err != nil {
		motionError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getArea(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.device.Controller().AreaSize())
}

func (s *Server) setArea(w http.ResponseWriter, r *http.Request) {
	var size geometry.Vector2D
	if !decode(w, r, &size) {
		return
	}
	respondJSON(w, s.device.Controller().SetAreaSize(size))
}

func parseMarker(w http.ResponseWriter, r *http.Request) (vart.Marker, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, "marker"), 10, 8)
	if err != nil || n >= vart.MarkerCount {
		http.Error(w, "unknown marker", http.StatusNotFound)
		return 0, false
	}
	return vart.Marker(n), true
}

type AngleT struct {
	Angle uint8 `json:"angle"`
}

func (s *Server) getToolAngle(w http.ResponseWriter, r *http.Request) {
	m, ok := parseMarker(w, r)
	if !ok {
		return
	}
	a, err := s.device.Tool.ToolAngle(m)
	if err != nil {
		motionError(w, err)
		return
	}
	respondJSON(w, AngleT{Angle: a})
}

// setToolAngle stores the angle for the marker and swings to it.
func (s *Server) setToolAngle(w http.ResponseWriter, r *http.Request) {
	m, ok := parseMarker(w, r)
	if !ok {
		return
	}
	var a AngleT
	if !decode(w, r, &a) {
		return
	}
	angle, err := s.device.Tool.UpdateToolAngle(m, a.Angle)
	if err == nil {
		err = s.device.Tool.SetActiveTool(m)
	}
	if err != nil {
		motionError(w, err)
		return
	}
	respondJSON(w, AngleT{Angle: angle})
}

type MarkerT struct {
	Marker uint8 `json:"marker"`
}

func (s *Server) setActiveTool(w http.ResponseWriter, r *http.Request) {
	var m MarkerT
	if !decode(w, r, &m) {
		return
	}
	if err := s.device.Tool.SetActiveTool(vart.Marker(m.Marker)); err != nil {
		motionError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) setToolEnabled(w http.ResponseWriter, r *http.Request) {
	var b BoolT
	if !decode(w, r, &b) {
		return
	}
	if err := s.device.Tool.SetEnabled(b.Bool); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
