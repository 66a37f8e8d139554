package handler

import (
	"net/http"

	"reviewledger/internal/service"
	"reviewledger/pkg/pagination"
	"reviewledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	jobService service.ReviewJobService
}

func NewJobHandler(jobService service.ReviewJobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

func (h *JobHandler) RegisterRoutes(router *gin.RouterGroup) {
	jobs := router.Group("/api/jobs")
	{
		jobs.GET("", h.ListJobs)
		jobs.POST("", h.CreateJob)
		jobs.GET("/board", h.GetBoard)
		jobs.GET("/payer-names", h.GetPayerNames)
		jobs.GET("/:id", h.GetJob)
		jobs.PUT("/:id", h.UpdateJob)
		jobs.PATCH("/:id/status", h.ChangeStatus)
		jobs.DELETE("/:id", h.DeleteJob)
		jobs.GET("/:id/calendar.ics", h.CalendarICS)
		jobs.GET("/:id/calendar/links", h.CalendarLinks)
	}
}

// ListJobs returns paginated review jobs, newest received first
// @Summary      List review jobs
// @Tags         jobs
// @Security     BearerAuth
// @Produce      json
// @Param        page          query  int     false  "Page number (default: 1)"
// @Param        limit         query  int     false  "Items per page (default: 10)"
// @Param        search        query  string  false  "Search title, platforms, content type"
// @Param        payer_name    query  string  false  "Exact payer name"
// @Param        platform      query  string  false  "Platform"
// @Param        content_type  query  string  false  "Content type"
// @Param        year          query  int     false  "Received year"
// @Param        month         query  int     false  "Received month (needs year)"
// @Success      200  {object}  response.Response
// @Router       /api/jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	p := pagination.Parse(c)
	year, ok := intQuery(c, "year")
	if !ok {
		return
	}
	month, ok := intQuery(c, "month")
	if !ok {
		return
	}

	q := service.JobQuery{
		Search:      c.Query("search"),
		PayerName:   c.Query("payer_name"),
		Platform:    c.Query("platform"),
		ContentType: c.Query("content_type"),
		Year:        year,
		Month:       month,
	}
	jobs, total, err := h.jobService.GetJobs(c.Request.Context(), q, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, jobs, p.Page, p.Limit, total))
}

// CreateJob creates a review job and its income entry
// @Summary      Create review job
// @Tags         jobs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateJobRequest  true  "Job payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/jobs [post]
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req service.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	job, err := h.jobService.CreateJob(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, job))
}

// GetBoard returns jobs grouped by status
// @Summary      Job board
// @Tags         jobs
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query  int  false  "Max jobs (default and max: 500)"
// @Success      200  {object}  response.Response
// @Router       /api/jobs/board [get]
func (h *JobHandler) GetBoard(c *gin.Context) {
	p := pagination.ParseWithMax(c, pagination.BoardLimit, pagination.BoardLimit)

	columns, total, err := h.jobService.GetBoard(c.Request.Context(), p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"columns": columns,
		"total":   total,
	}))
}

// GetPayerNames lists distinct payer names used on jobs
// @Summary      Payer names
// @Tags         jobs
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/jobs/payer-names [get]
func (h *JobHandler) GetPayerNames(c *gin.Context) {
	names, err := h.jobService.GetPayerNames(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, names))
}

// GetJob returns a job with its incomes
// @Summary      Get review job
// @Tags         jobs
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Job ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobService.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, job))
}

// UpdateJob applies a partial update and re-syncs income
// @Summary      Update review job
// @Tags         jobs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                    true  "Job ID"
// @Param        payload  body  service.UpdateJobRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/jobs/{id} [put]
func (h *JobHandler) UpdateJob(c *gin.Context) {
	var req service.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	job, err := h.jobService.UpdateJob(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, job))
}

// ChangeStatus moves a job to another board column
// @Summary      Change job status
// @Tags         jobs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                       true  "Job ID"
// @Param        payload  body  service.ChangeStatusRequest  true  "New status"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/jobs/{id}/status [patch]
func (h *JobHandler) ChangeStatus(c *gin.Context) {
	var req service.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	job, err := h.jobService.ChangeStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, job))
}

// DeleteJob deletes a job with its incomes and documents
// @Summary      Delete review job
// @Tags         jobs
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Job ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/jobs/{id} [delete]
func (h *JobHandler) DeleteJob(c *gin.Context) {
	if err := h.jobService.DeleteJob(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Job deleted successfully"}))
}

// CalendarICS downloads the job's deadlines as an iCalendar file
// @Summary      Job calendar (ICS)
// @Tags         jobs
// @Security     BearerAuth
// @Produce      text/calendar
// @Param        id  path  string  true  "Job ID"
// @Success      200  {string}  string
// @Failure      404  {object}  response.Response
// @Router       /api/jobs/{id}/calendar.ics [get]
func (h *JobHandler) CalendarICS(c *gin.Context) {
	ics, err := h.jobService.CalendarICS(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="review-job-`+c.Param("id")+`.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}

// CalendarLinks returns Google Calendar links for the job's deadlines
// @Summary      Job calendar links
// @Tags         jobs
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Job ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/jobs/{id}/calendar/links [get]
func (h *JobHandler) CalendarLinks(c *gin.Context) {
	links, err := h.jobService.CalendarLinks(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, links))
}
