package lending

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/transactions/borrow", h.Borrow)
	r.POST("/transactions/return", h.Return)
	r.POST("/transactions/renew", h.Renew)
	r.POST("/transactions/sweep-overdue", h.SweepOverdue)

	r.GET("/transactions", h.List)
	r.GET("/transactions/overdue", h.ListOverdue)
	r.GET("/transactions/:transaction_id", h.Get)
}

// Borrow godoc
// @Summary  Borrow a book
// @Accept   json
// @Produce  json
// @Param    request body BorrowRequest true "borrow request"
// @Router   /transactions/borrow [post]
func (h *Handler) Borrow(c *gin.Context) {
	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, ErrValidation([]string{"invalid json body"}))
		return
	}
	res, err := h.svc.Borrow(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Header("Location", "/transactions/"+res.TransactionID)
	respond(c, http.StatusCreated, res)
}

// Return godoc
// @Summary  Return a borrowed book
// @Accept   json
// @Produce  json
// @Param    request body ReturnRequest true "return request"
// @Router   /transactions/return [post]
func (h *Handler) Return(c *gin.Context) {
	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, ErrValidation([]string{"invalid json body"}))
		return
	}
	res, err := h.svc.Return(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

// Renew godoc
// @Summary  Renew an active loan
// @Accept   json
// @Produce  json
// @Param    request body RenewRequest true "renew request"
// @Router   /transactions/renew [post]
func (h *Handler) Renew(c *gin.Context) {
	var req RenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, ErrValidation([]string{"invalid json body"}))
		return
	}
	res, err := h.svc.Renew(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

// SweepOverdue godoc
// @Summary  Mark stale borrowed transactions as overdue
// @Produce  json
// @Router   /transactions/sweep-overdue [post]
func (h *Handler) SweepOverdue(c *gin.Context) {
	n, err := h.svc.SweepOverdue(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, SweepResponse{Updated: n})
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("transaction_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

// List godoc
// @Summary  List transactions
// @Produce  json
// @Param    status query string false "borrowed | returned | overdue"
// @Param    page   query int    false "page (1-based)"
// @Param    limit  query int    false "page size"
// @Router   /transactions [get]
func (h *Handler) List(c *gin.Context) {
	page := atoiDef(c.Query("page"), 1)
	limit := atoiDef(c.Query("limit"), 50)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	p := Page{
		Limit:  limit,
		Offset: (page - 1) * limit,
		Order:  c.DefaultQuery("order", "desc"),
	}

	items, total, err := h.svc.List(c.Request.Context(), c.Query("status"), p)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondPaged(c, items, page, limit, total)
}

func (h *Handler) ListOverdue(c *gin.Context) {
	items, err := h.svc.ListOverdue(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, items)
}

// ===== helpers =====

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

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondPaged(c *gin.Context, data any, page, limit int, total int64) {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": pages,
		},
	})
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
