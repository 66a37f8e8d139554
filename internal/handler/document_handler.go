package handler

import (
	"errors"
	"net/http"

	"reviewledger/internal/service"
	"reviewledger/internal/storage"
	"reviewledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// multipartSlack covers boundaries and headers around the file part.
const multipartSlack = 1 << 20

type DocumentHandler struct {
	docService service.DocumentService
	maxBytes   int64
}

func NewDocumentHandler(docService service.DocumentService, maxBytes int64) *DocumentHandler {
	return &DocumentHandler{docService: docService, maxBytes: maxBytes}
}

func (h *DocumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/upload", h.Upload)

	docs := router.Group("/api/documents")
	{
		docs.GET("", h.ListDocuments)
		docs.POST("", h.CreateDocument)
		docs.DELETE("/:id", h.DeleteDocument)
	}
}

// Upload stores a single multipart file
// @Summary      Upload file
// @Tags         documents
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "File to upload"
// @Success      201  {object}  response.Response{data=storage.Stored}
// @Failure      400  {object}  response.Response
// @Failure      413  {object}  response.Response
// @Router       /api/upload [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartSlack)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, response.Error(http.StatusRequestEntityTooLarge, storage.ErrTooLarge.Error()))
			return
		}
		badRequest(c, "file is required")
		return
	}

	f, err := fh.Open()
	if err != nil {
		badRequest(c, "failed to read upload: "+err.Error())
		return
	}
	defer f.Close()

	stored, err := h.docService.Upload(c.Request.Context(), storage.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, response.Error(http.StatusRequestEntityTooLarge, err.Error()))
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, stored))
}

// ListDocuments lists documents attached to a job
// @Summary      List documents
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        review_job_id  query  string  true  "Job ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/documents [get]
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	docs, err := h.docService.ListByJob(c.Request.Context(), c.Query("review_job_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, docs))
}

// CreateDocument attaches an uploaded file to a job or income
// @Summary      Create document
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateDocumentRequest  true  "Document payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/documents [post]
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	var req service.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	doc, err := h.docService.CreateDocument(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// DeleteDocument deletes a document and its stored file
// @Summary      Delete document
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Document ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/documents/{id} [delete]
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	if err := h.docService.DeleteDocument(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Document deleted successfully"}))
}
