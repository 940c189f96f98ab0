// Package server exposes chart conversion over HTTP. Charts are addressed by
// path relative to a root directory; keysounds are read next to them.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"

	"github.com/cbegin/bms2rpp-go"
	"github.com/cbegin/bms2rpp-go/internal/rpp"
)

var errOutsideRoot = errors.New("chart path escapes the served directory")

type Server struct {
	root   string
	logger *slog.Logger
	opts   []bms2rpp.Option
}

// New serves charts below root. opts are applied to every conversion before
// the per-request dialect and encoding.
func New(root string, logger *slog.Logger, opts ...bms2rpp.Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{root: root, logger: logger, opts: opts}
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/convert", s.handleConvert).Methods(http.MethodPost)
	router.HandleFunc("/timeline", s.handleTimeline).Methods(http.MethodPost)
	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "root", s.root)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	res, path, ok := s.convert(w, r)
	if !ok {
		return
	}
	var sb strings.Builder
	if err := res.WriteRPP(&sb, filepath.Dir(path)); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Conversion-Warnings", strconv.Itoa(len(res.Warnings())))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(sb.String()))
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.convert(w, r)
	if !ok {
		return
	}
	tl := res.Timeline
	out := TimelineResponse{
		InitialBPM: tl.InitialBPM,
		Tempo:      make([]TempoPoint, 0, len(tl.Tempo)),
		Signatures: make([]SignaturePoint, 0, len(tl.Signatures)),
		Tracks:     make([]TrackTimeline, 0, len(tl.Tracks)),
		Warnings:   make([]string, 0),
	}
	for _, a := range tl.Tempo {
		out.Tempo = append(out.Tempo, TempoPoint{Position: a.Position, Seconds: a.Seconds, BPM: a.BPM})
	}
	for _, sig := range tl.Signatures {
		out.Signatures = append(out.Signatures, SignaturePoint{Measure: sig.Measure, Seconds: sig.Seconds, Multiplier: sig.Multiplier})
	}
	for _, tr := range tl.Tracks {
		tt := TrackTimeline{
			Code:    tr.Code,
			Name:    rpp.TrackName(res.Chart.Keysounds[tr.Code].File),
			Samples: make([]SamplePlacement, 0, len(tr.Samples)),
		}
		for _, smp := range tr.Samples {
			tt.Samples = append(tt.Samples, SamplePlacement{
				Position: smp.Position,
				Length:   smp.Length,
				Channel:  smp.Channel,
				Group:    smp.Group,
			})
		}
		out.Tracks = append(out.Tracks, tt)
	}
	for _, warn := range res.Warnings() {
		out.Warnings = append(out.Warnings, warn.Error())
	}
	writeJSON(w, http.StatusOK, out)
}

// convert decodes the request and runs the conversion, writing the error
// response itself when it fails.
func (s *Server) convert(w http.ResponseWriter, r *http.Request) (*bms2rpp.Result, string, bool) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return nil, "", false
	}
	path, err := s.resolve(req.Chart)
	if err != nil {
		s.fail(w, statusFor(err), err)
		return nil, "", false
	}
	opts := append(append([]bms2rpp.Option{}, s.opts...),
		bms2rpp.WithDialect(req.Dialect),
		bms2rpp.WithEncoding(req.Encoding),
		bms2rpp.WithLogger(s.logger))
	res, err := bms2rpp.Convert(r.Context(), path, opts...)
	if err != nil {
		s.fail(w, statusFor(err), err)
		return nil, "", false
	}
	return res, path, true
}

func (s *Server) resolve(chart string) (string, error) {
	if strings.TrimSpace(chart) == "" {
		return "", errors.New("chart is required")
	}
	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", errors.Wrap(err, "resolve root")
	}
	path := filepath.Join(root, filepath.FromSlash(chart))
	if !within(root, path) {
		return "", errors.Wrapf(errOutsideRoot, "%q", chart)
	}

	// symlinks are followed before the second check; a path that does not
	// exist is left for Convert to report
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", errors.Wrap(err, "resolve root")
	}
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		return "", errors.Wrapf(err, "resolve %q", chart)
	}
	if !within(realRoot, realPath) {
		return "", errors.Wrapf(errOutsideRoot, "%q", chart)
	}
	return path, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errOutsideRoot):
		return http.StatusForbidden
	case errors.Is(err, bms2rpp.ErrMissingAudioSource):
		return http.StatusUnprocessableEntity
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed", "status", status, "err", err)
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
