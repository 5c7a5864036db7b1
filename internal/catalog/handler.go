package catalog

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/books", h.Create)
	r.GET("/books", h.List)
	r.GET("/books/categories", h.Categories)
	r.GET("/books/:book_id", h.Get)
	r.PUT("/books/:book_id", h.Update)
	r.DELETE("/books/:book_id", h.Delete)
}

// Create godoc
// @Summary  Add a book to the catalog
// @Accept   json
// @Produce  json
// @Param    request body CreateBookRequest true "book"
// @Router   /books [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, ErrValidation([]string{"invalid json body"}))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Header("Location", "/books/"+strconv.FormatInt(res.BookID, 10))
	respond(c, http.StatusCreated, res)
}

// List godoc
// @Summary  List books with search and category filter
// @Produce  json
// @Param    search   query string false "matches title, author or category"
// @Param    category query string false "exact category"
// @Param    page     query int    false "page (1-based)"
// @Param    limit    query int    false "page size"
// @Router   /books [get]
func (h *Handler) List(c *gin.Context) {
	q := SearchQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}
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
		Order:  strings.ToLower(c.DefaultQuery("order", "desc")),
	}

	items, total, err := h.svc.List(c.Request.Context(), q, p)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondPaged(c, items, page, limit, total)
}

func (h *Handler) Categories(c *gin.Context) {
	res, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("book_id"), 10, 64)
	if err != nil {
		respondErr(c, ErrValidation([]string{"book_id must be a number"}))
		return
	}
	res, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("book_id"), 10, 64)
	if err != nil {
		respondErr(c, ErrValidation([]string{"book_id must be a number"}))
		return
	}
	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, ErrValidation([]string{"invalid json body"}))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("book_id"), 10, 64)
	if err != nil {
		respondErr(c, ErrValidation([]string{"book_id must be a number"}))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": true})
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
