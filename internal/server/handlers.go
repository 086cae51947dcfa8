package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jh125486/cpusched/internal/config"
	"github.com/jh125486/cpusched/internal/process"
	"github.com/jh125486/cpusched/internal/scheduler"
	"github.com/jh125486/cpusched/internal/store"
)

const (
	// maxBodyBytes bounds a simulation request body.
	maxBodyBytes = 1 << 20
	// maxTotalService bounds the simulated work of one request.
	maxTotalService = 10_000_000
)

type healthResponse struct {
	Status    string `json:"status"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Store     string `json:"store"`
}

type simulationResponse struct {
	RunID  string            `json:"run_id,omitempty"`
	Result *scheduler.Result `json:"result"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storeState := "disabled"
	if s.store != nil {
		storeState = "sqlite"
	}
	respondOK(w, r, http.StatusOK, healthResponse{
		Status:    "healthy",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Store:     storeState,
	})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var file config.File
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, codeValidation, fmt.Sprintf("request body exceeds %d bytes", maxBodyBytes))
			return
		}
		respondError(w, r, http.StatusBadRequest, codeValidation, "invalid JSON body: "+err.Error())
		return
	}

	sim, err := file.Simulation()
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if total := totalService(sim.Processes); total > maxTotalService {
		respondError(w, r, http.StatusBadRequest, codeValidation, fmt.Sprintf("total service time %d exceeds the limit of %d", total, maxTotalService))
		return
	}
	res, err := scheduler.Simulate(sim, scheduler.WithLogger(s.logger))
	if err != nil {
		status := http.StatusInternalServerError
		if isValidationError(err) {
			status = http.StatusBadRequest
		}
		respondError(w, r, status, codeValidation, err.Error())
		return
	}

	resp := simulationResponse{Result: res}
	if s.store != nil {
		run := store.NewRun(sim, res)
		if err := s.store.SaveRun(r.Context(), run); err != nil {
			s.logger.Error("save run", "error", err)
			respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to save run")
			return
		}
		resp.RunID = run.ID
	}
	respondOK(w, r, http.StatusCreated, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "run history is disabled")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			respondError(w, r, http.StatusBadRequest, codeValidation, "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("list runs", "error", err)
		respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	respondOK(w, r, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "run history is disabled")
		return
	}
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, codeNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("get run", "error", err)
		respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to load run")
		return
	}
	respondOK(w, r, http.StatusOK, run)
}

// totalService sums service times, saturating instead of overflowing.
func totalService(descriptors []process.Descriptor) int64 {
	var total int64
	for _, d := range descriptors {
		if d.ServiceTime > math.MaxInt64-total {
			return math.MaxInt64
		}
		total += d.ServiceTime
	}
	return total
}

func isValidationError(err error) bool {
	return errors.Is(err, config.ErrInvalidConfiguration) ||
		errors.Is(err, process.ErrInvalidProcess) ||
		errors.Is(err, process.ErrInvalidPriority)
}
