// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hylla/workboard/internal/adapters/server/common"
	"github.com/hylla/workboard/internal/app"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// ActorHeader optionally names the user behind an HTTP mutation.
const ActorHeader = "X-Workboard-Actor"

// defaultActorID attributes HTTP mutations that do not name an actor.
const defaultActorID = "http"

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	board common.BoardService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter over the board service.
func NewHandler(board common.BoardService) *Handler {
	return &Handler{board: board}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.board == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "board service is not configured",
		})
		return
	}
	path := normalizePath(r.URL.Path)
	switch path {
	case "work_centers":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListWorkCenters(w, r)
	case "work_orders":
		switch r.Method {
		case http.MethodGet:
			h.handleListWorkOrders(w, r)
		case http.MethodPost:
			h.handleCreateWorkOrder(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case "timeline":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleTimeline(w, r)
	case "audit":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleAudit(w, r)
	default:
		orderID, ok := resolveWorkOrderID(path)
		if !ok {
			writeJSONError(w, http.StatusNotFound, APIError{
				Code:    "not_found",
				Message: "endpoint not found",
			})
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleGetWorkOrder(w, r, orderID)
		case http.MethodPut, http.MethodPatch:
			h.handleUpdateWorkOrder(w, r, orderID)
		case http.MethodDelete:
			h.handleDeleteWorkOrder(w, r, orderID)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
		}
	}
}

// handleListWorkCenters serves GET `/work_centers`.
func (h *Handler) handleListWorkCenters(w http.ResponseWriter, r *http.Request) {
	centers, err := h.board.ListWorkCenters(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"work_centers": centers})
}

// handleListWorkOrders serves GET `/work_orders`.
func (h *Handler) handleListWorkOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.board.ListWorkOrders(r.Context(), common.ListWorkOrdersRequest{
		WorkCenterID: strings.TrimSpace(r.URL.Query().Get("work_center_id")),
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"work_orders": orders})
}

// handleCreateWorkOrder serves POST `/work_orders`.
func (h *Handler) handleCreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	var req common.SaveWorkOrderRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	order, err := h.board.CreateWorkOrder(withActor(r), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.Header().Set("Location", "work_orders/"+order.ID)
	writeJSON(w, http.StatusCreated, order)
}

// handleGetWorkOrder serves GET `/work_orders/{id}`.
func (h *Handler) handleGetWorkOrder(w http.ResponseWriter, r *http.Request, orderID string) {
	order, err := h.board.GetWorkOrder(r.Context(), orderID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// handleUpdateWorkOrder serves PUT `/work_orders/{id}`.
func (h *Handler) handleUpdateWorkOrder(w http.ResponseWriter, r *http.Request, orderID string) {
	var req common.SaveWorkOrderRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if id := strings.TrimSpace(req.ID); id != "" && id != orderID {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: fmt.Sprintf("body id %q does not match path id %q", id, orderID),
		})
		return
	}
	req.ID = orderID
	order, err := h.board.UpdateWorkOrder(withActor(r), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// handleDeleteWorkOrder serves DELETE `/work_orders/{id}`.
func (h *Handler) handleDeleteWorkOrder(w http.ResponseWriter, r *http.Request, orderID string) {
	if err := h.board.DeleteWorkOrder(withActor(r), orderID); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTimeline serves GET `/timeline`.
func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	view, err := h.board.Timeline(r.Context(), common.TimelineRequest{
		Zoom:  r.URL.Query().Get("zoom"),
		Today: r.URL.Query().Get("today"),
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleAudit serves GET `/audit`.
func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	report, err := h.board.Audit(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// withActor attributes one mutation to the requesting user.
func withActor(r *http.Request) context.Context {
	actorID := strings.TrimSpace(r.Header.Get(ActorHeader))
	if actorID == "" {
		actorID = defaultActorID
	}
	return app.WithMutationActor(r.Context(), app.MutationActor{
		ActorID:   actorID,
		ActorType: app.ActorTypeUser,
	})
}

// resolveWorkOrderID parses `work_orders/{id}` and returns `{id}`.
func resolveWorkOrderID(path string) (string, bool) {
	const prefix = "work_orders/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimPrefix(path, prefix))
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrConflict):
		apiErr := APIError{
			Code:    "overlap",
			Message: err.Error(),
			Hint:    app.UserMessage(err),
		}
		var overlap *app.OverlapError
		if errors.As(err, &overlap) {
			apiErr.Context = map[string]any{"conflict_ids": overlap.ConflictIDs()}
		}
		writeJSONError(w, http.StatusConflict, apiErr)
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrUnknownWorkCenter):
		writeJSONError(w, http.StatusUnprocessableEntity, APIError{
			Code:    "unknown_work_center",
			Message: err.Error(),
			Hint:    app.MessageUnknownCenter,
		})
	case errors.Is(err, common.ErrInvalidRequest):
		apiErr := APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		}
		if hint := app.UserMessage(err); hint != app.MessageUnexpected {
			apiErr.Hint = hint
		}
		writeJSONError(w, http.StatusBadRequest, apiErr)
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
