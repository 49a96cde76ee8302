package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storecatalog/internal/domain"
	"storecatalog/internal/logger"
	catalogsvc "storecatalog/internal/service/catalog"
)

// listingRequest binds every scalar as a string so a malformed value is
// reported against its parameter name.
type listingRequest struct {
	Page     string   `form:"page" binding:"omitempty,number"`
	Limit    string   `form:"limit" binding:"omitempty,number"`
	Q        string   `form:"q" binding:"max=200"`
	Brand    []string `form:"brand"`
	Category []string `form:"category"`
	Strain   []string `form:"strain"`
	PriceMin string   `form:"priceMin" binding:"omitempty,numeric"`
	PriceMax string   `form:"priceMax" binding:"omitempty,numeric"`
	THCMin   string   `form:"thcMin" binding:"omitempty,numeric"`
	THCMax   string   `form:"thcMax" binding:"omitempty,numeric"`
	CBDMin   string   `form:"cbdMin" binding:"omitempty,numeric"`
	CBDMax   string   `form:"cbdMax" binding:"omitempty,numeric"`
	InStock  string   `form:"inStock" binding:"omitempty,boolean"`
	Sort     string   `form:"sort"`
}

func (r listingRequest) toQuery() (catalogsvc.ListingQuery, error) {
	q := catalogsvc.ListingQuery{
		Q:          r.Q,
		Brands:     splitValues(r.Brand),
		Categories: splitValues(r.Category),
		Strains:    splitValues(r.Strain),
		Sort:       domain.Sort(r.Sort),
	}
	var err error
	if q.Page, err = parseCount("page", r.Page, 0); err != nil {
		return q, err
	}
	if q.Limit, err = parseCount("limit", r.Limit, catalogsvc.MaxLimit); err != nil {
		return q, err
	}
	if q.PriceMin, err = parseAmount("priceMin", r.PriceMin); err != nil {
		return q, err
	}
	if q.PriceMax, err = parseAmount("priceMax", r.PriceMax); err != nil {
		return q, err
	}
	for _, p := range []struct {
		field string
		raw   string
		dst   **float64
	}{
		{"thcMin", r.THCMin, &q.THCMin},
		{"thcMax", r.THCMax, &q.THCMax},
		{"cbdMin", r.CBDMin, &q.CBDMin},
		{"cbdMax", r.CBDMax, &q.CBDMax},
	} {
		if *p.dst, err = parsePercent(p.field, p.raw); err != nil {
			return q, err
		}
	}
	if r.InStock != "" {
		if q.InStock, err = strconv.ParseBool(r.InStock); err != nil {
			return q, domain.NewValidationError("inStock", "must be true or false")
		}
	}
	return q, nil
}

// parseCount reads a positive integer. Zero and empty mean unset; max 0 means
// unbounded.
func parseCount(field, raw string, max int) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(field, "must be a whole number")
	}
	if max > 0 && n > max {
		return 0, domain.NewValidationError(field, "must be at most "+strconv.Itoa(max))
	}
	return n, nil
}

func parsePercent(field, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be a number")
	}
	if v < 0 || v > 100 {
		return nil, domain.NewValidationError(field, "must be between 0 and 100")
	}
	return &v, nil
}

func parseAmount(field, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be a number")
	}
	return &d, nil
}

// splitValues accepts both repeated and comma separated parameters.
func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

type catalogHandler struct {
	resolver catalogResolver
	logger   *logger.Logger
}

func (h *catalogHandler) listings(c *gin.Context) {
	store, ok := mustStore(c, h.logger)
	if !ok {
		return
	}
	var req listingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.bindError(c, err)
		return
	}
	q, err := req.toQuery()
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	page, err := h.resolver.ResolveListings(c.Request.Context(), store.ID, q)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *catalogHandler) productDetail(c *gin.Context) {
	store, ok := mustStore(c, h.logger)
	if !ok {
		return
	}
	detail, err := h.resolver.ResolveProductDetail(c.Request.Context(), c.Param("productId"), store.ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *catalogHandler) facets(c *gin.Context) {
	store, ok := mustStore(c, h.logger)
	if !ok {
		return
	}
	f, err := h.resolver.Facets(c.Request.Context(), store.ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// bindError reports binding failures that are not validator errors as a
// generic bad request.
func (h *catalogHandler) bindError(c *gin.Context, err error) {
	if isValidationErr(err) {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusBadRequest, errorBody{Error: errorDetail{Code: "validation_failed", Message: "malformed query parameters"}})
}
