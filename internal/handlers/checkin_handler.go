package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"attune/internal/models"
	"attune/internal/service"
	"attune/internal/validation"
)

// CheckinHandler handles check-in record HTTP requests
type CheckinHandler struct {
	checkinService *service.CheckinService
	middleware     *Middleware
}

// NewCheckinHandler creates a new check-in handler
func NewCheckinHandler(checkinService *service.CheckinService, middleware *Middleware) *CheckinHandler {
	return &CheckinHandler{
		checkinService: checkinService,
		middleware:     middleware,
	}
}

// Checkins dispatches /checkins by method: GET lists, POST creates
func (h *CheckinHandler) Checkins(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "", nil)
	}
}

// list handles GET /checkins. The childEmail query parameter is mandatory:
// a listing across all children is never produced.
func (h *CheckinHandler) list(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.middleware.ResolveScope(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := models.CheckinFilter{
		ChildEmail: query.Get("childEmail"),
		Goal:       query.Get("goal"),
		Since:      query.Get("since"),
		Until:      query.Get("until"),
	}

	records, err := h.checkinService.ListCheckins(scope, filter)
	if err != nil {
		var validationErr validation.ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, http.StatusBadRequest, validationErr.Message, "", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error", "list checkins failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"rows": records})
}

// create handles POST /checkins
func (h *CheckinHandler) create(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.middleware.ResolveScope(w, r)
	if !ok {
		return
	}

	var input service.CheckinInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body", "", nil)
		return
	}

	record, err := h.checkinService.CreateCheckin(scope, input)
	if err != nil {
		var validationErr validation.ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, http.StatusBadRequest, validationErr.Message, "", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error", "create checkin failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":        true,
		"id":        record.ID,
		"createdAt": record.CreatedAt,
	})
}

type batchRequest struct {
	Rows []service.CheckinInput `json:"rows"`
}

// CreateBatch handles POST /checkins/batch: inserts several records in one
// transaction. Validation is all-or-nothing; one bad row rejects the batch.
func (h *CheckinHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	scope, ok := h.middleware.ResolveScope(w, r)
	if !ok {
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body", "", nil)
		return
	}
	if len(req.Rows) == 0 {
		respondError(w, http.StatusBadRequest, "rows is required", "", nil)
		return
	}

	records, err := h.checkinService.CreateCheckinBatch(scope, req.Rows)
	if err != nil {
		var validationErr validation.ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, http.StatusBadRequest, validationErr.Message, "", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error", "create checkin batch failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"count": len(records),
	})
}
