package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"reviewledger/internal/logger"
	"reviewledger/internal/service"
	"reviewledger/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors onto status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case service.IsValidation(err):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	default:
		logger.FromContext(c.Request.Context()).Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}

// periodQuery reads year and month, defaulting each to the current one.
// ok is false once a 400 has been written.
func periodQuery(c *gin.Context, now time.Time) (year, month int, ok bool) {
	year, month = now.Year(), int(now.Month())
	if v := c.Query("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "year must be a number")
			return 0, 0, false
		}
		year = y
	}
	if v := c.Query("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			badRequest(c, "month must be between 1 and 12")
			return 0, 0, false
		}
		month = m
	}
	return year, month, true
}

func intQuery(c *gin.Context, key string) (int, bool) {
	v := c.Query(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		badRequest(c, key+" must be a number")
		return 0, false
	}
	return n, true
}
