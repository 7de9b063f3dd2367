package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/trainboard/internal/domain"
	"github.com/oksasatya/trainboard/pkg/response"
)

// statusFor maps a domain error to its HTTP status and public message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, "resource already exists"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid argument"
	}
	return http.StatusInternalServerError, "internal server error"
}

// writeError renders err. Domain errors carry their own description; anything
// else is logged and answered with a generic 500.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("unhandled error")
		response.Error(c, status, msg, nil)
		return
	}
	response.Error(c, status, msg, err.Error())
}
