package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"reviewledger/internal/report"
	"reviewledger/internal/service"
	"reviewledger/pkg/pagination"
	"reviewledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type IncomeHandler struct {
	incomeService service.IncomeService
	now           func() time.Time
}

func NewIncomeHandler(incomeService service.IncomeService) *IncomeHandler {
	return &IncomeHandler{incomeService: incomeService, now: time.Now}
}

func (h *IncomeHandler) RegisterRoutes(router *gin.RouterGroup) {
	income := router.Group("/api/income")
	{
		income.GET("", h.ListIncomes)
		income.POST("", h.CreateIncome)
		income.GET("/summary", h.GetSummary)
		income.GET("/export.csv", h.ExportCSV)
		income.GET("/:id", h.GetIncome)
		income.PUT("/:id", h.UpdateIncome)
		income.DELETE("/:id", h.DeleteIncome)
	}
}

// ListIncomes returns paginated incomes, newest payment first
// @Summary      List incomes
// @Tags         income
// @Security     BearerAuth
// @Produce      json
// @Param        page               query  int     false  "Page number (default: 1)"
// @Param        limit              query  int     false  "Items per page (default: 10)"
// @Param        search             query  string  false  "Search by job title"
// @Param        review_job_id      query  string  false  "Job ID"
// @Param        payment_date_from  query  string  false  "YYYY-MM-DD"
// @Param        payment_date_to    query  string  false  "YYYY-MM-DD"
// @Param        currency           query  string  false  "ISO currency code"
// @Success      200  {object}  response.Response
// @Router       /api/income [get]
func (h *IncomeHandler) ListIncomes(c *gin.Context) {
	p := pagination.Parse(c)
	q := service.IncomeQuery{
		Search:          c.Query("search"),
		ReviewJobID:     c.Query("review_job_id"),
		PaymentDateFrom: c.Query("payment_date_from"),
		PaymentDateTo:   c.Query("payment_date_to"),
		Currency:        c.Query("currency"),
	}

	incomes, total, err := h.incomeService.GetIncomes(c.Request.Context(), q, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, incomes, p.Page, p.Limit, total))
}

// CreateIncome records a payment against a job
// @Summary      Create income
// @Tags         income
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateIncomeRequest  true  "Income payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/income [post]
func (h *IncomeHandler) CreateIncome(c *gin.Context) {
	var req service.CreateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	income, err := h.incomeService.CreateIncome(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, income))
}

// GetSummary returns monthly, yearly and per-month totals
// @Summary      Income summary
// @Tags         income
// @Security     BearerAuth
// @Produce      json
// @Param        year   query  int  false  "Year (default: current)"
// @Param        month  query  int  false  "Month 1-12 (default: current)"
// @Success      200  {object}  response.Response
// @Router       /api/income/summary [get]
func (h *IncomeHandler) GetSummary(c *gin.Context) {
	year, month, ok := periodQuery(c, h.now())
	if !ok {
		return
	}

	summary, err := h.incomeService.Summary(c.Request.Context(), year, month)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// ExportCSV downloads the year's incomes
// @Summary      Export incomes as CSV
// @Tags         income
// @Security     BearerAuth
// @Produce      text/csv
// @Param        year      query  int     false  "Year (default: current)"
// @Param        encoding  query  string  false  "utf-8 (default) or windows-874"
// @Success      200  {string}  string
// @Failure      400  {object}  response.Response
// @Router       /api/income/export.csv [get]
func (h *IncomeHandler) ExportCSV(c *gin.Context) {
	year, _, ok := periodQuery(c, h.now())
	if !ok {
		return
	}

	var buf bytes.Buffer
	encoding := c.Query("encoding")
	if err := h.incomeService.ExportCSV(c.Request.Context(), year, encoding, &buf); err != nil {
		respondError(c, err)
		return
	}

	charset := "utf-8"
	if enc, _ := report.ParseEncoding(encoding); enc == report.EncodingWindows874 {
		charset = "windows-874"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="income-%d.csv"`, year))
	c.Data(http.StatusOK, "text/csv; charset="+charset, buf.Bytes())
}

// GetIncome returns a single income
// @Summary      Get income
// @Tags         income
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Income ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/income/{id} [get]
func (h *IncomeHandler) GetIncome(c *gin.Context) {
	income, err := h.incomeService.GetIncome(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, income))
}

// UpdateIncome applies a partial update
// @Summary      Update income
// @Tags         income
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                       true  "Income ID"
// @Param        payload  body  service.UpdateIncomeRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/income/{id} [put]
func (h *IncomeHandler) UpdateIncome(c *gin.Context) {
	var req service.UpdateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	income, err := h.incomeService.UpdateIncome(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, income))
}

// DeleteIncome deletes an income
// @Summary      Delete income
// @Tags         income
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Income ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/income/{id} [delete]
func (h *IncomeHandler) DeleteIncome(c *gin.Context) {
	if err := h.incomeService.DeleteIncome(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Income deleted successfully"}))
}
