package handlers

import (
	"net/http"
	"strconv"
	"time"

	"worklog/apperr"
	"worklog/ledger"
	"worklog/middleware"
	"worklog/models"
)

type EntryHandler struct {
	ledger *ledger.Ledger
}

func NewEntryHandler(l *ledger.Ledger) *EntryHandler {
	return &EntryHandler{ledger: l}
}

// List returns entries matching the query filters: user_id, days (last N
// days), date (exact day) and day_of_week.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter models.EntryFilter
	q := r.URL.Query()

	if raw := q.Get("user_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, apperr.Validation("invalid user_id"))
			return
		}
		id := uint(n)
		filter.UserID = &id
	}
	if raw := q.Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, apperr.Validation("invalid days"))
			return
		}
		since := time.Now().AddDate(0, 0, -n)
		filter.Since = &since
	}
	if raw := q.Get("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Date = &date
	}
	if raw := q.Get("day_of_week"); raw != "" {
		day, err := parseWeekday(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Weekday = &day
	}

	entries, err := h.ledger.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type createEntryRequest struct {
	UserID      *uint  `json:"user_id"`
	TaskID      uint   `json:"task_id" validate:"required"`
	Date        string `json:"date"`
	DurationMin int64  `json:"duration_min" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=500"`
}

// Create records an entry. Without an explicit user_id the entry is
// logged for the caller; the date defaults to today.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetUserFromContext(r.Context())
	if caller == nil {
		writeError(w, apperr.ErrUnauthorized)
		return
	}

	var req createEntryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID := caller.ID
	if req.UserID != nil {
		userID = *req.UserID
	}
	var date *time.Time
	if req.Date != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			writeError(w, err)
			return
		}
		date = &d
	}
	duration := time.Duration(req.DurationMin) * time.Minute

	entry, err := h.ledger.Add(r.Context(), userID, req.TaskID, date, duration, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := paramUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	entry, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type updateEntryRequest struct {
	TaskID      *uint   `json:"task_id"`
	Date        *string `json:"date"`
	DurationMin *int64  `json:"duration_min"`
	Description *string `json:"description"`
}

// Update applies a partial patch. Absent fields stay unchanged. The
// ledger enforces ownership and re-checks the quota.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetUserFromContext(r.Context())
	if caller == nil {
		writeError(w, apperr.ErrUnauthorized)
		return
	}

	id, err := paramUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateEntryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	patch := models.EntryPatch{
		TaskID:      req.TaskID,
		Description: req.Description,
	}
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, err)
			return
		}
		patch.Date = &d
	}
	if req.DurationMin != nil {
		d := time.Duration(*req.DurationMin) * time.Minute
		patch.Duration = &d
	}

	if err := h.ledger.Update(r.Context(), id, caller.ID, caller.Permission(), patch); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := paramUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.ledger.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
