package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"go.uber.org/zap"
)

const defaultClosedLimit = 50

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

type closeFailure struct {
	PositionID string `json:"position_id"`
	Symbol     string `json:"symbol"`
	Error      string `json:"error"`
}

type closeAllResponse struct {
	Closed   []types.ClosedPosition `json:"closed"`
	Failures []closeFailure         `json:"failures"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("Failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Code: int(errors.GetCode(err))})
}

func statusFor(err error) int {
	switch {
	case errors.HasCode(err, errors.ErrCodePositionNotFound):
		return http.StatusNotFound
	case errors.HasCode(err, errors.ErrCodeInvalidTransition):
		return http.StatusConflict
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.IsPersistence(err):
		return http.StatusServiceUnavailable
	}

	if _, ok := errors.AsExecutionError(err); ok {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.HealthCheck(r.Context()) {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "ledger unavailable"})

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.ledger.OpenPositions(r.Context())
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleClosedPositions(w http.ResponseWriter, r *http.Request) {
	limit := uint64(defaultClosedLimit)

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			s.writeError(w, errors.Newf(errors.ErrCodeInvalidParameter, "invalid limit %q", raw))

			return
		}

		limit = parsed
	}

	positions, err := s.ledger.ClosedPositions(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleClosePosition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	closed, err := s.coordinator.ClosePosition(r.Context(), id, types.TradeReasonManual)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, closed)
}

func (s *Server) handleCloseAll(w http.ResponseWriter, r *http.Request) {
	result, err := s.coordinator.Executor().CloseAll(r.Context(), types.TradeReasonManual)
	if err != nil {
		s.writeError(w, err)

		return
	}

	response := closeAllResponse{
		Closed:   result.Closed,
		Failures: make([]closeFailure, 0, len(result.Failures)),
	}

	for _, f := range result.Failures {
		response.Failures = append(response.Failures, closeFailure{PositionID: f.PositionID, Symbol: f.Symbol, Error: f.Err.Error()})
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := s.coordinator.Budget(r.Context())
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC()

	if raw := r.URL.Query().Get("day"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			s.writeError(w, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid day %q", raw))

			return
		}

		day = parsed
	}

	summary, err := s.ledger.DailySummary(r.Context(), day)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}
