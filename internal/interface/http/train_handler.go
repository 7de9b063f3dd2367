package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/trainboard/internal/application"
	"github.com/oksasatya/trainboard/internal/domain/entity"
	"github.com/oksasatya/trainboard/internal/interface/middleware"
	"github.com/oksasatya/trainboard/pkg/response"
	"github.com/oksasatya/trainboard/pkg/validation"
)

// TrainUseCase is the part of application.TrainService the handler needs.
type TrainUseCase interface {
	Create(ctx context.Context, in application.CreateTrainInput, ownerID int64) (*entity.Train, error)
	FindAll(ctx context.Context) ([]*entity.Train, error)
	FindOne(ctx context.Context, id int64) (*entity.Train, error)
	FindByUserID(ctx context.Context, ownerID int64) ([]*entity.Train, error)
	Update(ctx context.Context, id int64, patch entity.TrainPatch, callerID int64) (*entity.Train, error)
	Remove(ctx context.Context, id int64, callerID int64) (*entity.Train, error)
	Search(ctx context.Context, query string, ownerID *int64, page, limit int) ([]*entity.Train, error)
}

type TrainHandler struct {
	Svc    TrainUseCase
	Logger *logrus.Logger
}

func NewTrainHandler(svc TrainUseCase, logger *logrus.Logger) *TrainHandler {
	return &TrainHandler{Svc: svc, Logger: logger}
}

type createTrainRequest struct {
	Name        string    `json:"name" binding:"required,notblank,max=255"`
	Departure   time.Time `json:"departure" binding:"required"`
	Arrival     time.Time `json:"arrival" binding:"required"`
	Origin      string    `json:"origin" binding:"required,notblank,max=255"`
	Destination string    `json:"destination" binding:"required,notblank,max=255"`
}

// updateTrainRequest is a partial update; absent fields are left unchanged.
type updateTrainRequest struct {
	Name        *string    `json:"name" binding:"omitempty,notblank,max=255"`
	Departure   *time.Time `json:"departure"`
	Arrival     *time.Time `json:"arrival"`
	Origin      *string    `json:"origin" binding:"omitempty,notblank,max=255"`
	Destination *string    `json:"destination" binding:"omitempty,notblank,max=255"`
}

func (r updateTrainRequest) patch() entity.TrainPatch {
	return entity.TrainPatch{
		Name:        r.Name,
		Departure:   r.Departure,
		Arrival:     r.Arrival,
		Origin:      r.Origin,
		Destination: r.Destination,
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid id", map[string]string{"id": "must be a positive integer"})
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query", map[string]string{key: "must be an integer"})
		return 0, false
	}
	return n, true
}

// caller reads the identity Auth put on the request context.
func caller(c *gin.Context) (int64, bool) {
	id, ok := middleware.IdentityFromContext(c.Request.Context())
	if !ok {
		response.Error(c, http.StatusUnauthorized, "missing identity", nil)
		return 0, false
	}
	return id.ID, true
}

func (h *TrainHandler) Create(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	var req createTrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	t, err := h.Svc.Create(c.Request.Context(), application.CreateTrainInput{
		Name:        req.Name,
		Departure:   req.Departure,
		Arrival:     req.Arrival,
		Origin:      req.Origin,
		Destination: req.Destination,
	}, uid)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, t, "train created", nil)
}

func (h *TrainHandler) FindAll(c *gin.Context) {
	trains, err := h.Svc.FindAll(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, trains, "ok", nil)
}

func (h *TrainHandler) FindOne(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	t, err := h.Svc.FindOne(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, t, "ok", nil)
}

func (h *TrainHandler) FindByUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	trains, err := h.Svc.FindByUserID(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, trains, "ok", nil)
}

// Search matches the caller's trains against ?query= with ?page= and ?limit=.
func (h *TrainHandler) Search(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	trains, err := h.Svc.Search(c.Request.Context(), c.Query("query"), &uid, page, limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	page = max(page, 1)
	if limit < 1 {
		limit = application.DefaultSearchLimit
	}
	limit = min(limit, application.MaxSearchLimit)
	response.Success(c, http.StatusOK, trains, "ok", response.PageMeta{Page: page, Limit: limit, Count: len(trains)})
}

func (h *TrainHandler) Update(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateTrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	t, err := h.Svc.Update(c.Request.Context(), id, req.patch(), uid)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, t, "train updated", nil)
}

func (h *TrainHandler) Remove(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	t, err := h.Svc.Remove(c.Request.Context(), id, uid)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, t, "train deleted", nil)
}
