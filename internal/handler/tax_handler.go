package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"reviewledger/internal/service"
	"reviewledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxHandler struct {
	taxService service.TaxService
	now        func() time.Time
}

func NewTaxHandler(taxService service.TaxService) *TaxHandler {
	return &TaxHandler{taxService: taxService, now: time.Now}
}

func (h *TaxHandler) RegisterRoutes(router *gin.RouterGroup) {
	tax := router.Group("/api/tax")
	{
		tax.GET("/summary", h.GetSummary)
		tax.GET("/summary/pdf", h.GetSummaryPDF)
		tax.GET("/brackets", h.GetBrackets)
	}
}

// GetSummary estimates the year's personal income tax
// @Summary      Tax summary
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Param        year  query  int  false  "Year (default: current)"
// @Success      200  {object}  response.Response{data=service.TaxSummaryResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/tax/summary [get]
func (h *TaxHandler) GetSummary(c *gin.Context) {
	year, _, ok := periodQuery(c, h.now())
	if !ok {
		return
	}

	summary, err := h.taxService.GetSummary(c.Request.Context(), year)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// GetSummaryPDF downloads the tax summary as a PDF
// @Summary      Tax summary PDF
// @Tags         tax
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        year  query  int  false  "Year (default: current)"
// @Success      200  {file}  file
// @Failure      400  {object}  response.Response
// @Router       /api/tax/summary/pdf [get]
func (h *TaxHandler) GetSummaryPDF(c *gin.Context) {
	year, _, ok := periodQuery(c, h.now())
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.taxService.RenderSummaryPDF(c.Request.Context(), year, &buf); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="tax-summary-%d.pdf"`, year))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// GetBrackets lists the bracket schedule applied to a year
// @Summary      Tax brackets
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Param        year  query  int  false  "Year (default: current)"
// @Success      200  {object}  response.Response{data=service.TaxBracketsResponse}
// @Router       /api/tax/brackets [get]
func (h *TaxHandler) GetBrackets(c *gin.Context) {
	year, _, ok := periodQuery(c, h.now())
	if !ok {
		return
	}

	brackets, err := h.taxService.GetBrackets(year)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, brackets))
}
