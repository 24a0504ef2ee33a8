package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dandcg/emailarchive/internal/analytics"
	"github.com/dandcg/emailarchive/internal/export"
	"github.com/dandcg/emailarchive/internal/search"
	"github.com/dandcg/emailarchive/internal/store"
	"github.com/gin-gonic/gin"
)

// Handler serves the read-only archive endpoints
type Handler struct {
	store     *store.Store
	search    *search.Engine
	analytics *analytics.Engine
	export    *export.Engine
}

// NewHandler creates a Handler
func NewHandler(st *store.Store, se *search.Engine, ae *analytics.Engine, ee *export.Engine) *Handler {
	return &Handler{store: st, search: se, analytics: ae, export: ee}
}

// GetStatus returns archive population counts by tier
func (h *Handler) GetStatus(c *gin.Context) {
	counts, err := h.store.GetStatusCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	attachments, err := h.store.GetAttachmentCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	withText, err := h.store.GetAttachmentsWithTextCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	attEmbedded, err := h.store.GetAttachmentsEmbeddedCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"emails": counts,
		"attachments": gin.H{
			"total":     attachments,
			"with_text": withText,
			"embedded":  attEmbedded,
		},
	})
}

// Search runs a text similarity query over emails and attachments:
// GET /api/search?q=...&limit=10&start=2024-01-01&end=2024-12-31&sender=alice
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	limit := intQuery(c, "limit", 10)

	filters := search.Filters{Sender: c.Query("sender")}
	if val := c.Query("start"); val != "" {
		start, err := time.Parse("2006-01-02", val)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date, want YYYY-MM-DD"})
			return
		}
		filters.Start = &start
	}
	if val := c.Query("end"); val != "" {
		end, err := time.Parse("2006-01-02", val)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date, want YYYY-MM-DD"})
			return
		}
		end = end.Add(24*time.Hour - time.Nanosecond)
		filters.End = &end
	}

	results, attResults, err := h.search.SearchAllText(c.Request.Context(), query, limit, filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results":            results,
		"attachment_results": attResults,
	})
}

// GetTimeline returns activity buckets: GET /api/timeline?by_month=true
func (h *Handler) GetTimeline(c *gin.Context) {
	byMonth := c.Query("by_month") == "true"

	points, err := h.analytics.Timeline(byMonth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeline": points})
}

// GetTopContacts returns the busiest counterparts: GET /api/contacts?limit=20
func (h *Handler) GetTopContacts(c *gin.Context) {
	limit := intQuery(c, "limit", 20)

	contacts, err := h.analytics.TopContacts(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

// GetSummary returns the whole-archive aggregate
func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.analytics.Summary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetReview returns the review summary for a period:
// GET /api/review?start=2024-01-01&end=2024-12-31&top=5
func (h *Handler) GetReview(c *gin.Context) {
	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date, want YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date, want YYYY-MM-DD"})
		return
	}
	// Make the end date inclusive for the whole day
	end = end.Add(24*time.Hour - time.Nanosecond)
	topN := intQuery(c, "top", 5)

	review, err := h.export.ReviewData(start, end, topN)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, review)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	if val := c.Query(name); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
