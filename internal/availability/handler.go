package availability

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func parseItemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err == nil {
		err = ValidateMenuItemID(id)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid menu item id"})
		return 0, false
	}
	return id, true
}

// isBadInput reports errors caused by the request rather than the store.
func isBadInput(err error) bool {
	return errors.Is(err, ErrMissingMenuItemID) ||
		errors.Is(err, ErrInvalidMenuItemID) ||
		errors.Is(err, ErrEmptyBatch) ||
		errors.Is(err, ErrTooManyIDs)
}

// --------------------------------------------------
// GET /menu-items/:id/availability
// --------------------------------------------------
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}

	entry, rec, err := h.service.Lookup(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("menu_item_id", id).Msg("availability lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch availability"})
		return
	}

	c.JSON(http.StatusOK, NewView(entry, rec))
}

// --------------------------------------------------
// GET /menu-items/availability?state=
// --------------------------------------------------
func (h *Handler) List(c *gin.Context) {
	var filter *State
	if raw := c.Query("state"); raw != "" {
		st, ok := ParseState(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "state must be available, unavailable or unknown"})
			return
		}
		filter = &st
	}

	records, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("availability list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch availability"})
		return
	}

	views := make([]View, 0, len(records))
	for i := range records {
		views = append(views, NewView(records[i].Entry, &records[i]))
	}

	c.JSON(http.StatusOK, gin.H{"items": views})
}

// --------------------------------------------------
// POST /menu-items/availability/check
// --------------------------------------------------
func (h *Handler) Check(c *gin.Context) {
	var req struct {
		MenuItemIDs []int64 `json:"menuItemIds"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.MenuItemIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "menuItemIds is required"})
		return
	}

	entries, err := h.service.Check(c.Request.Context(), req.MenuItemIDs)
	if err != nil {
		if isBadInput(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("availability check failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check availability"})
		return
	}

	views := make([]View, 0, len(entries))
	for _, e := range entries {
		views = append(views, NewView(e, nil))
	}

	c.JSON(http.StatusOK, gin.H{"items": views})
}

// --------------------------------------------------
// PUT /menu-items/:id/availability
// --------------------------------------------------
func (h *Handler) Put(c *gin.Context) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}

	var req Entry
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// path id wins over any id in the body
	req.SetMenuItemID(ItemID(id))

	rec, err := h.service.Update(c.Request.Context(), req, c.GetString("staffID"))
	if err != nil {
		if isBadInput(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Int64("menu_item_id", id).Msg("availability update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update availability"})
		return
	}

	c.JSON(http.StatusOK, NewView(rec.Entry, rec))
}

// --------------------------------------------------
// POST /menu-items/availability/batch
// --------------------------------------------------
func (h *Handler) PutBatch(c *gin.Context) {
	var entries []Entry
	if err := c.ShouldBindJSON(&entries); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	records, err := h.service.UpdateBatch(c.Request.Context(), entries, c.GetString("staffID"))
	if err != nil {
		if isBadInput(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("availability batch update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update availability"})
		return
	}

	views := make([]View, 0, len(records))
	for i := range records {
		views = append(views, NewView(records[i].Entry, &records[i]))
	}

	c.JSON(http.StatusOK, gin.H{"items": views})
}

// --------------------------------------------------
// DELETE /menu-items/:id/availability (ADMIN)
// --------------------------------------------------
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}

	if err := h.service.Clear(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Int64("menu_item_id", id).Msg("availability clear failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear availability"})
		return
	}

	c.Status(http.StatusNoContent)
}

// --------------------------------------------------
// POST /admin/availability/snapshot (ADMIN)
// --------------------------------------------------
func (h *Handler) Snapshot(c *gin.Context) {
	res, err := h.service.ExportSnapshot(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrSnapshotDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("availability snapshot failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export snapshot"})
		return
	}

	c.JSON(http.StatusCreated, res)
}
