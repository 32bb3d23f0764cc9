package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"playlater/internal/entity"
	"playlater/internal/httpx"
	"playlater/internal/library"
)

type LibraryService interface {
	AddEntry(ctx context.Context, in library.AddEntryInput) (library.AddEntryResult, error)
	UpdateStatus(ctx context.Context, userID string, itemID int64, in library.UpdateStatusInput) (entity.LibraryItem, error)
	UpdateStatusByIGDB(ctx context.Context, userID string, igdbID int64, status entity.LibraryStatus) (entity.LibraryItem, error)
	ListEntries(ctx context.Context, p library.ListParams) ([]entity.LibraryItem, int, error)
	CountEntries(ctx context.Context, userID string, status *entity.LibraryStatus) (int, error)
	DeleteEntry(ctx context.Context, userID string, itemID int64) error
}

type LibraryHandler struct {
	svc LibraryService
}

func NewLibraryHandler(svc LibraryService) *LibraryHandler {
	return &LibraryHandler{svc: svc}
}

type addEntryRequest struct {
	IGDBID          int64      `json:"igdb_id" validate:"required,gt=0"`
	Status          string     `json:"status" validate:"omitempty,libstatus"`
	Platform        *string    `json:"platform"`
	AcquisitionType string     `json:"acquisition_type" validate:"omitempty,acquisition"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
}

// validDateRange rejects a completion date that precedes the start date. This
// is an input-boundary invariant; the orchestrator never re-checks it.
func validDateRange(startedAt, completedAt *time.Time) bool {
	if startedAt == nil || completedAt == nil {
		return true
	}
	return !completedAt.Before(*startedAt)
}

// @Summary Add a game to the library
// @Description Add a game to the authenticated user's library, resolving catalog metadata from IGDB on first reference
// @Tags library
// @Accept json
// @Produce json
// @Security Bearer
// @Param entry body addEntryRequest true "Entry to add"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /library [post]
func (h *LibraryHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(r, w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}
	if !validDateRange(req.StartedAt, req.CompletedAt) {
		httpx.JSONError(r, w, http.StatusBadRequest, "VALIDATION_ERROR", "Completion date cannot be before start date", nil)
		return
	}

	status := entity.StatusCuriousAbout
	if req.Status != "" {
		status, _ = entity.ParseLibraryStatus(req.Status)
	}

	result, err := h.svc.AddEntry(r.Context(), library.AddEntryInput{
		UserID:          httpx.UserIDFrom(r),
		IGDBID:          req.IGDBID,
		Status:          status,
		Platform:        req.Platform,
		AcquisitionType: req.AcquisitionType,
		StartedAt:       req.StartedAt,
		CompletedAt:     req.CompletedAt,
	})
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.JSONSuccessCreated(r, w, map[string]any{
		"item":      result.Item,
		"game_slug": result.GameSlug,
	})
}

type updateStatusRequest struct {
	Status      string     `json:"status" validate:"required,libstatus"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// @Summary Update a library entry's status
// @Description Move an existing entry to a new status; the wishlist guard applies
// @Tags library
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Library item ID"
// @Param update body updateStatusRequest true "New status"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /library/{id} [patch]
func (h *LibraryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(r.URL.Path)
	if !ok {
		httpx.JSONError(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid library item id", nil)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(r, w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}
	if !validDateRange(req.StartedAt, req.CompletedAt) {
		httpx.JSONError(r, w, http.StatusBadRequest, "VALIDATION_ERROR", "Completion date cannot be before start date", nil)
		return
	}

	status, _ := entity.ParseLibraryStatus(req.Status)
	item, err := h.svc.UpdateStatus(r.Context(), httpx.UserIDFrom(r), itemID, library.UpdateStatusInput{
		Status:      status,
		StartedAt:   req.StartedAt,
		CompletedAt: req.CompletedAt,
	})
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.JSONSuccess(r, w, item, nil)
}

type updateStatusByIGDBRequest struct {
	IGDBID int64  `json:"igdb_id" validate:"required,gt=0"`
	Status string `json:"status" validate:"required,libstatus"`
}

// @Summary Update status by IGDB id
// @Description Convenience path keyed by catalog id: adds the game when absent, otherwise moves the most recently modified entry
// @Tags library
// @Accept json
// @Produce json
// @Security Bearer
// @Param update body updateStatusByIGDBRequest true "Game and new status"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /library/status [put]
func (h *LibraryHandler) UpdateStatusByIGDB(w http.ResponseWriter, r *http.Request) {
	var req updateStatusByIGDBRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(r, w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	status, _ := entity.ParseLibraryStatus(req.Status)
	item, err := h.svc.UpdateStatusByIGDB(r.Context(), httpx.UserIDFrom(r), req.IGDBID, status)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.JSONSuccess(r, w, item, nil)
}

// @Summary List library entries
// @Description Page through the authenticated user's library, optionally filtered by status and platform
// @Tags library
// @Produce json
// @Security Bearer
// @Param status query string false "Status filter"
// @Param platform query string false "Platform filter"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} httpx.SuccessResponse
// @Router /library [get]
func (h *LibraryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	params := library.ListParams{UserID: httpx.UserIDFrom(r)}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := entity.ParseLibraryStatus(strings.ToUpper(raw))
		if err != nil {
			httpx.JSONError(r, w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status filter", nil)
			return
		}
		params.Status = &status
	}
	if platform := r.URL.Query().Get("platform"); platform != "" {
		params.Platform = &platform
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	params.Limit = pageSize
	params.Offset = (page - 1) * pageSize

	items, total, err := h.svc.ListEntries(r.Context(), params)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	httpx.JSONSuccess(r, w, items, map[string]interface{}{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": totalPages,
	})
}

// @Summary Count library entries
// @Description Total of the authenticated user's entries, optionally filtered by status
// @Tags library
// @Produce json
// @Security Bearer
// @Param status query string false "Status filter"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /library/count [get]
func (h *LibraryHandler) CountEntries(w http.ResponseWriter, r *http.Request) {
	var status *entity.LibraryStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := entity.ParseLibraryStatus(strings.ToUpper(raw))
		if err != nil {
			httpx.JSONError(r, w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status filter", nil)
			return
		}
		status = &parsed
	}

	total, err := h.svc.CountEntries(r.Context(), httpx.UserIDFrom(r), status)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.JSONSuccess(r, w, map[string]any{"count": total}, nil)
}

// @Summary Delete a library entry
// @Tags library
// @Security Bearer
// @Param id path int true "Library item ID"
// @Success 204
// @Failure 404 {object} httpx.ErrorResponse
// @Router /library/{id} [delete]
func (h *LibraryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(r.URL.Path)
	if !ok {
		httpx.JSONError(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid library item id", nil)
		return
	}

	if err := h.svc.DeleteEntry(r.Context(), httpx.UserIDFrom(r), itemID); err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

func parseItemID(path string) (int64, bool) {
	trimmed := strings.TrimPrefix(strings.Trim(path, "/"), "library/")
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
