package handler

import (
	"net/http"
	"time"

	"github.com/vuhoangviet271/packing-video-app/internal/apierror"
	"github.com/vuhoangviet271/packing-video-app/internal/dto"
	"github.com/vuhoangviet271/packing-video-app/internal/model"
	"github.com/vuhoangviet271/packing-video-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionHandler exposes the recording engine over HTTP for the operator UI.
type SessionHandler struct {
	engine  *service.RecordingEngine
	ledger  *service.Ledger
	gun     *service.ScannerGun
	deduper *service.QRDeduper
	prompt  *DuplicatePrompt
}

func NewSessionHandler(
	engine *service.RecordingEngine,
	ledger *service.Ledger,
	gun *service.ScannerGun,
	deduper *service.QRDeduper,
	prompt *DuplicatePrompt,
) *SessionHandler {
	return &SessionHandler{engine: engine, ledger: ledger, gun: gun, deduper: deduper, prompt: prompt}
}

// Scan handles POST /session/scan — the single entry point for decoded codes.
func (h *SessionHandler) Scan(c *gin.Context) {
	var req dto.ScanRequest
	if !bindAndValidate(c, &req) {
		return
	}

	// Camera decoders re-emit the same value every frame while the code stays
	// in view; filter those before they even reach the engine.
	if req.Source == "qr" && !h.deduper.Accept(req.Code, time.Now()) {
		c.JSON(http.StatusOK, dto.ScanResponse{Outcome: "ignored"})
		return
	}

	resp := h.engine.SubmitCode(c.Request.Context(), req.Code)
	c.JSON(http.StatusOK, resp)
}

// Stop handles POST /session/stop — manual stop with the completeness gate.
func (h *SessionHandler) Stop(c *gin.Context) {
	resp := h.engine.RequestManualStop(c.Request.Context())
	c.JSON(http.StatusOK, resp)
}

// Snapshot handles GET /session.
func (h *SessionHandler) Snapshot(c *gin.Context) {
	snap := h.engine.Snapshot()
	snap.PendingDuplicate = h.prompt.Pending()
	c.JSON(http.StatusOK, snap)
}

// Completeness handles GET /session/completeness.
func (h *SessionHandler) Completeness(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Completeness())
}

// ResolveDuplicate handles POST /session/duplicate.
func (h *SessionHandler) ResolveDuplicate(c *gin.Context) {
	var req dto.DuplicateDecisionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if !h.prompt.Resolve(req.Proceed) {
		c.JSON(http.StatusConflict, apierror.New("no duplicate decision pending"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": true, "proceed": req.Proceed})
}

// SetType handles POST /session/type — switch PACKING/RETURN while idle.
func (h *SessionHandler) SetType(c *gin.Context) {
	var req struct {
		Type string `json:"type" validate:"required,oneof=PACKING RETURN"`
	}
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.engine.SetType(model.VideoType(req.Type)); err != nil {
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": req.Type})
}

// DecrementScan handles POST /session/scans/:productId/decrement.
func (h *SessionHandler) DecrementScan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product id"))
		return
	}
	h.engine.DecrementScan(id)
	c.JSON(http.StatusOK, h.engine.Snapshot())
}

// RemoveScan handles DELETE /session/scans/:productId.
func (h *SessionHandler) RemoveScan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product id"))
		return
	}
	h.engine.RemoveScan(id)
	c.JSON(http.StatusOK, h.engine.Snapshot())
}

// SetReturnQuality handles PUT /session/returns/:entryId/quality.
func (h *SessionHandler) SetReturnQuality(c *gin.Context) {
	id, err := uuid.Parse(c.Param("entryId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid entry id"))
		return
	}
	var req dto.UpdateReturnQualityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if !h.engine.SetReturnEntryQuality(id, model.ReturnQuality(req.Quality)) {
		c.JSON(http.StatusNotFound, apierror.New("return entry not found"))
		return
	}
	c.JSON(http.StatusOK, h.engine.Snapshot())
}

// RemoveReturnEntry handles DELETE /session/returns/:entryId.
func (h *SessionHandler) RemoveReturnEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("entryId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid entry id"))
		return
	}
	if !h.engine.RemoveReturnEntry(id) {
		c.JSON(http.StatusNotFound, apierror.New("return entry not found"))
		return
	}
	c.JSON(http.StatusOK, h.engine.Snapshot())
}

// DismissAlert handles POST /session/alert/dismiss.
func (h *SessionHandler) DismissAlert(c *gin.Context) {
	h.engine.DismissAlert()
	c.Status(http.StatusNoContent)
}

// History handles GET /session/history.
func (h *SessionHandler) History(c *gin.Context) {
	entries := h.ledger.Entries()
	views := make([]dto.HistoryEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, dto.HistoryEntryView{
			Seq:             e.Seq,
			ShippingCode:    e.ShippingCode,
			Outcome:         string(e.Outcome),
			DurationSeconds: e.DurationSeconds,
			Type:            string(e.Type),
			Time:            e.At.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": views, "total": len(views)})
}

// ClearHistory handles DELETE /session/history.
func (h *SessionHandler) ClearHistory(c *gin.Context) {
	h.ledger.Clear()
	c.Status(http.StatusNoContent)
}

// FeedKeys handles POST /input/keys — a burst of raw keypresses forwarded by
// the host shell, reassembled into codes by the scanner gun.
func (h *SessionHandler) FeedKeys(c *gin.Context) {
	var req dto.KeyBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	for _, ev := range req.Events {
		h.gun.Feed(service.KeyEvent{
			Key:          ev.Key,
			At:           time.UnixMilli(ev.TimestampMS),
			FieldFocused: ev.FieldFocused,
		})
	}
	c.JSON(http.StatusOK, gin.H{"accepted": len(req.Events)})
}
