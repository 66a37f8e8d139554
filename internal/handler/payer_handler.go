package handler

import (
	"net/http"

	"reviewledger/internal/service"
	"reviewledger/pkg/pagination"
	"reviewledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type PayerHandler struct {
	payerService service.PayerService
}

func NewPayerHandler(payerService service.PayerService) *PayerHandler {
	return &PayerHandler{payerService: payerService}
}

func (h *PayerHandler) RegisterRoutes(router *gin.RouterGroup) {
	payers := router.Group("/api/payers")
	{
		payers.GET("", h.ListPayers)
		payers.POST("", h.CreatePayer)
		payers.GET("/:id", h.GetPayer)
		payers.PUT("/:id", h.UpdatePayer)
		payers.DELETE("/:id", h.DeletePayer)
	}
}

// ListPayers returns paginated payers, optionally filtered by name or tax id
// @Summary      List payers
// @Tags         payers
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 10)"
// @Param        search  query     string  false  "Search by name or tax id"
// @Success      200     {object}  response.Response
// @Router       /api/payers [get]
func (h *PayerHandler) ListPayers(c *gin.Context) {
	p := pagination.Parse(c)

	payers, total, err := h.payerService.GetPayers(c.Request.Context(), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, payers, p.Page, p.Limit, total))
}

// CreatePayer creates a new payer
// @Summary      Create payer
// @Tags         payers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreatePayerRequest  true  "Payer payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/payers [post]
func (h *PayerHandler) CreatePayer(c *gin.Context) {
	var req service.CreatePayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	payer, err := h.payerService.CreatePayer(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payer))
}

// GetPayer returns a single payer
// @Summary      Get payer
// @Tags         payers
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Payer ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/payers/{id} [get]
func (h *PayerHandler) GetPayer(c *gin.Context) {
	payer, err := h.payerService.GetPayer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payer))
}

// UpdatePayer applies a partial update
// @Summary      Update payer
// @Tags         payers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                      true  "Payer ID"
// @Param        payload  body  service.UpdatePayerRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/payers/{id} [put]
func (h *PayerHandler) UpdatePayer(c *gin.Context) {
	var req service.UpdatePayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	payer, err := h.payerService.UpdatePayer(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payer))
}

// DeletePayer deletes a payer
// @Summary      Delete payer
// @Tags         payers
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Payer ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/payers/{id} [delete]
func (h *PayerHandler) DeletePayer(c *gin.Context) {
	if err := h.payerService.DeletePayer(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Payer deleted successfully"}))
}
