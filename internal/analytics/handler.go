package analytics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/analytics/dashboard", h.Dashboard)
	r.GET("/analytics/most-borrowed", h.MostBorrowed)
	r.GET("/analytics/user-categories", h.UserCategories)
	r.GET("/analytics/reading-patterns", h.ReadingPatterns)
	r.GET("/analytics/monthly-report", h.MonthlyReport)
}

// Dashboard godoc
// @Summary  Library dashboard snapshot
// @Produce  json
// @Router   /analytics/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, d)
}

// MostBorrowed godoc
// @Summary  Top borrowed titles
// @Produce  json
// @Param    period query string false "all | week | month | year"
// @Param    limit  query int    false "max entries (default 10)"
// @Router   /analytics/most-borrowed [get]
func (h *Handler) MostBorrowed(c *gin.Context) {
	limit := atoiDef(c.Query("limit"), 10)
	entries, err := h.svc.MostBorrowed(c.Request.Context(), c.Query("period"), limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, entries)
}

func (h *Handler) UserCategories(c *gin.Context) {
	stats, err := h.svc.UserCategories(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, stats)
}

func (h *Handler) ReadingPatterns(c *gin.Context) {
	patterns, err := h.svc.ReadingPatterns(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, patterns)
}

// MonthlyReport godoc
// @Summary  Per-month lending report for one year
// @Produce  json
// @Param    year query int false "calendar year (default current)"
// @Router   /analytics/monthly-report [get]
func (h *Handler) MonthlyReport(c *gin.Context) {
	year := atoiDef(c.Query("year"), 0)
	report, err := h.svc.MonthlyReport(c.Request.Context(), year)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, report)
}

func atoiDef(s string, d int) int {
	if s == "" {
		return d
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return n
}

func respond(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondErr(c *gin.Context, err error) {
	body := gin.H{"success": false}
	if api, ok := err.(*APIError); ok {
		body["error"] = api
	} else {
		body["error"] = &APIError{Code: CodeInternal, Message: "internal error"}
	}
	c.JSON(toHTTPStatus(err), body)
}
