package http

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yumikyo/proposal-g/internal/domain"
	"github.com/yumikyo/proposal-g/internal/infrastructure/export"
	"github.com/yumikyo/proposal-g/internal/usecase"
)

// maxImageBytes bounds menu photo uploads.
const maxImageBytes = 8 << 20

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service *usecase.ProposalService
}

// NewHandler creates a new HTTP handler
func NewHandler(service *usecase.ProposalService) *Handler {
	return &Handler{service: service}
}

// reconcileRequest carries caller-supplied items for a stateless run.
// Threshold is optional; absent means the service default.
type reconcileRequest struct {
	Items     []domain.ExtractedItem `json:"items"`
	Threshold *int                   `json:"threshold"`
}

// replaceRowsRequest carries the reviewer's full edited row sequence.
// An empty or absent list deletes every row.
type replaceRowsRequest struct {
	Rows []domain.ReconciledRow `json:"rows"`
}

// proposalResponse is the wire shape of a stored proposal. Totals are
// recomputed from the current rows on every read, never stored.
type proposalResponse struct {
	ID           string                 `json:"id"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
	Threshold    int                    `json:"threshold"`
	SkippedItems int                    `json:"skippedItems"`
	Rows         []domain.ReconciledRow `json:"rows"`
	Totals       domain.AggregateTotals `json:"totals"`
}

type reconcileResponse struct {
	Rows         []domain.ReconciledRow `json:"rows"`
	SkippedItems int                    `json:"skippedItems"`
	Totals       domain.AggregateTotals `json:"totals"`
}

type catalogResponse struct {
	Source   string                `json:"source"`
	LoadedAt time.Time             `json:"loadedAt"`
	Count    int                   `json:"count"`
	Entries  []domain.CatalogEntry `json:"entries"`
}

func toProposalResponse(p *domain.Proposal) proposalResponse {
	return proposalResponse{
		ID:           p.ID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Threshold:    p.Threshold,
		SkippedItems: p.SkippedItems,
		Rows:         p.Rows,
		Totals:       usecase.Totals(p.Rows),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "proposal-g",
		"version": "1.0.0",
	})
}

// CreateProposal handles menu photo uploads: recognize ingredients, match
// them against the current catalog snapshot and store the resulting proposal.
func (h *Handler) CreateProposal(c *gin.Context) {
	threshold, err := h.thresholdFromForm(c.PostForm("threshold"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'image' is required"})
		return
	}
	if fileHeader.Size > maxImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image exceeds the 8MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded image"})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded image"})
		return
	}

	mimeType := http.DetectContentType(image)
	if !strings.HasPrefix(mimeType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uploaded file is not an image"})
		return
	}

	proposal, err := h.service.CreateFromImage(c.Request.Context(), image, mimeType, threshold)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toProposalResponse(proposal))
}

// ReconcileItems runs the stateless pipeline on caller-supplied items.
// Nothing is stored.
func (h *Handler) ReconcileItems(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	threshold, err := h.resolveThreshold(req.Threshold)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, skipped := h.service.Reconcile(req.Items, threshold)
	c.JSON(http.StatusOK, reconcileResponse{
		Rows:         rows,
		SkippedItems: skipped,
		Totals:       usecase.Totals(rows),
	})
}

// GetProposal returns a stored proposal in its current reviewer state.
func (h *Handler) GetProposal(c *gin.Context) {
	proposal, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProposalResponse(proposal))
}

// ReplaceRows swaps in the reviewer's edited row sequence and returns the
// proposal with totals recomputed from the new rows.
func (h *Handler) ReplaceRows(c *gin.Context) {
	var req replaceRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	proposal, err := h.service.ReplaceRows(c.Request.Context(), c.Param("id"), req.Rows)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProposalResponse(proposal))
}

// DiscardProposal removes a stored proposal.
func (h *Handler) DiscardProposal(c *gin.Context) {
	if err := h.service.Discard(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ExportProposal streams the proposal table as a UTF-8 CSV download with a
// BOM so Excel renders the Japanese columns correctly.
func (h *Handler) ExportProposal(c *gin.Context) {
	proposal, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("proposal-%s.csv", proposal.ID)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	if err := export.WriteProposalCSV(c.Writer, proposal.Rows); err != nil {
		// Headers are already out; all we can do is log.
		log.Printf("[HTTP] CSV export failed for %s: %v", proposal.ID, err)
	}
}

// GetCatalog returns the snapshot new reconciliation runs would use.
func (h *Handler) GetCatalog(c *gin.Context) {
	snapshot := h.service.CatalogSnapshot()

	c.JSON(http.StatusOK, catalogResponse{
		Source:   snapshot.Source,
		LoadedAt: snapshot.LoadedAt,
		Count:    snapshot.Len(),
		Entries:  snapshot.Entries,
	})
}

// ReloadCatalog installs a freshly parsed snapshot. A failed parse installs
// an empty snapshot; the service stays up and the failure shows up as a
// warning in the response body.
func (h *Handler) ReloadCatalog(c *gin.Context) {
	snapshot, err := h.service.ReloadCatalog()

	resp := gin.H{
		"count":    snapshot.Len(),
		"source":   snapshot.Source,
		"loadedAt": snapshot.LoadedAt,
	}
	if err != nil {
		resp["warning"] = "catalog reload failed, serving an empty catalog: " + err.Error()
	}

	c.JSON(http.StatusOK, resp)
}

// resolveThreshold applies the service default when the caller sent none
// and validates the 0-100 range otherwise.
func (h *Handler) resolveThreshold(v *int) (int, error) {
	if v == nil {
		return h.service.DefaultThreshold(), nil
	}
	if *v < 0 || *v > 100 {
		return 0, fmt.Errorf("%w: threshold must be between 0 and 100", domain.ErrInvalidRequest)
	}
	return *v, nil
}

// thresholdFromForm parses the optional multipart threshold field.
func (h *Handler) thresholdFromForm(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h.resolveThreshold(nil)
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: threshold must be an integer", domain.ErrInvalidRequest)
	}
	return h.resolveThreshold(&v)
}

// respondError maps domain errors onto HTTP statuses with a one-field
// error envelope.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProposalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
	case errors.Is(err, domain.ErrNegativeRowValue):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRecognizerNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image recognition is not configured"})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "recognition service rate limit exceeded, try again later"})
	case errors.Is(err, domain.ErrRecognitionPayload):
		c.JSON(http.StatusBadGateway, gin.H{"error": "recognition service returned an unusable response"})
	case errors.Is(err, domain.ErrRecognitionUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "recognition service temporarily unavailable"})
	default:
		log.Printf("[HTTP] Unhandled error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
