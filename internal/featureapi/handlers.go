// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package featureapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cardinalhq/featurestore/internal/features"
	"github.com/cardinalhq/featurestore/internal/idgen"
	"github.com/cardinalhq/featurestore/internal/logctx"
	"github.com/cardinalhq/featurestore/internal/serving"
)

const BasePath = "/api/v1/features"

type Handler struct {
	svc  Service
	runs RunHistory
}

// NewHandler builds the API. runs may be nil when run history is not kept.
func NewHandler(svc Service, runs RunHistory) *Handler {
	return &Handler{svc: svc, runs: runs}
}

// Router returns a gin engine serving the feature API.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(), gin.Recovery())

	api := router.Group(BasePath)
	api.GET("/discovery", h.discovery)
	api.POST("/inference", h.inference)
	api.POST("/training", h.training)
	api.POST("/extract", h.extract)
	api.GET("/extract/runs", h.extractRuns)
	api.GET("/stats", h.stats)
	return router
}

func (h *Handler) discovery(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Discovery())
}

func (h *Handler) inference(c *gin.Context) {
	var req inferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.FeatureType == "" || req.EntityID == "" {
		badRequest(c, fmt.Errorf("%w: feature_type and entity_id are required", errMissingField))
		return
	}

	var opts []serving.Option
	if req.ForceRecompute {
		opts = append(opts, serving.WithForceRecompute())
	}
	res := h.svc.Inference(c.Request.Context(), serving.Request{
		FeatureType: req.FeatureType,
		EntityID:    string(req.EntityID),
	}, opts...)

	if features.IsValidation(res.Err()) {
		badRequest(c, res.Err())
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) training(c *gin.Context) {
	var req trainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(req.Features) == 0 {
		badRequest(c, errors.New("features list cannot be empty"))
		return
	}

	reqs := make([]serving.Request, len(req.Features))
	for i, f := range req.Features {
		reqs[i] = serving.Request{FeatureType: f.FeatureType, EntityID: string(f.EntityID)}
	}
	c.JSON(http.StatusOK, h.svc.Training(c.Request.Context(), reqs))
}

func (h *Handler) extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, fmt.Errorf("invalid request body: %w", err))
		return
	}

	summary, err := h.svc.TriggerExtraction(c.Request.Context(), req.FeatureTypes...)
	switch {
	case errors.Is(err, features.ErrUnknownFeatureType):
		badRequest(c, err)
		return
	case errors.Is(err, serving.ErrExtractionUnavailable):
		c.JSON(http.StatusServiceUnavailable, extractErrorResponse{Message: "Feature extraction unavailable", Error: err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, extractErrorResponse{Message: "Feature extraction failed", Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, extractResponse{
		Message:           "Feature extraction completed",
		RunID:             summary.RunID.String(),
		FeaturesExtracted: summary.Extracted(),
		Failures:          summary.Failures(),
		TotalFeatures:     summary.TotalSucceeded,
	})
}

func (h *Handler) extractRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "extraction history is not configured"})
		return
	}
	limit := 20
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			badRequest(c, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}
	runs, err := h.runs.Recent(c.Request.Context(), limit)
	if err != nil {
		logctx.FromContext(c.Request.Context()).Error("Failed to list extraction runs", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to list extraction runs"})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (h *Handler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats())
}

func badRequest(c *gin.Context, err error) {
	msg := err.Error()
	if features.IsValidation(err) {
		msg = features.Reason(err)
	}
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

// requestLogger attaches a request-scoped logger to the context and logs
// each request once it completes.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = idgen.GenerateShortBase32ID()
		}
		c.Header("X-Request-ID", requestID)

		ctx, ll := logctx.With(c.Request.Context(), slog.String("requestID", requestID))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		ll.Log(c.Request.Context(), level, "HTTP request",
			slog.String("method", c.Request.Method),
			slog.String("path", strings.TrimPrefix(c.Request.URL.Path, BasePath)),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)))
	}
}
