package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/surojit-ghosh/url-shortener/internal/analytics"
	"github.com/surojit-ghosh/url-shortener/internal/model"
	"github.com/surojit-ghosh/url-shortener/internal/reqinfo"
	"github.com/surojit-ghosh/url-shortener/internal/service"
)

// Handler holds HTTP handlers and dependencies.
// It follows the dependency injection pattern, receiving
// interfaces rather than concrete implementations for testability.
type Handler struct {
	links    service.LinkServiceInterface
	redirect service.RedirectServiceInterface
	stats    StatsProvider
	tracker  ClickTracker
	geo      *reqinfo.GeoResolver
	db       DBInterface
	cache    CacheInterface
	logger   *slog.Logger
}

// DBInterface defines the database operations needed by the handler.
// This interface allows for easy mocking in unit tests without
// requiring a real database connection.
type DBInterface interface {
	Ping(ctx context.Context) error
	Close()
}

// CacheInterface defines the cache operations needed by the handler.
type CacheInterface interface {
	Ping(ctx context.Context) error
}

// ClickTracker ingests a resolution snapshot directly, bypassing the
// queue. Backs the internal track endpoint.
type ClickTracker interface {
	Record(ctx context.Context, ev analytics.ClickEvent) error
}

// StatsProvider serves per-link click summaries and the per-user
// dashboard aggregate.
type StatsProvider interface {
	Stats(ctx context.Context, key string) (*model.LinkStatsResponse, error)
	Dashboard(ctx context.Context, userID string) (*model.DashboardResponse, error)
}

// NewHandler creates a new handler instance with the provided dependencies.
func NewHandler(links service.LinkServiceInterface, redirect service.RedirectServiceInterface, stats StatsProvider, tracker ClickTracker, geo *reqinfo.GeoResolver, db DBInterface, cache CacheInterface, logger *slog.Logger) *Handler {
	return &Handler{
		links:    links,
		redirect: redirect,
		stats:    stats,
		tracker:  tracker,
		geo:      geo,
		db:       db,
		cache:    cache,
		logger:   logger,
	}
}

// RegisterRoutes registers all route definitions on the given Gin engine.
// The caller is responsible for creating the engine and adding middleware
// before calling this method, so middleware runs in the correct order.
// Routes are organized into:
//   - Health check endpoint for monitoring
//   - API v1 endpoints for link management (grouped under /api/v1)
//   - Internal analytics ingestion
//   - Public redirect and password verification — registered last so the
//     wildcard does not shadow the API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/links", RequireUser(), h.createLink)
		v1.GET("/links", RequireUser(), h.listLinks)
		v1.GET("/links/:key", h.getLink)
		v1.PATCH("/links/:key", RequireUser(), h.updateLink)
		v1.DELETE("/links/:key", RequireUser(), h.deleteLink)
		v1.GET("/links/:key/stats", h.linkStats)
		v1.GET("/analytics/dashboard", RequireUser(), h.dashboard)
		v1.POST("/analytics/track", h.trackClick)
	}

	r.GET("/:key", h.redirectLink)
	r.POST("/:key/verify-password", h.verifyPassword)
}

// healthCheck handles GET /health
// Response codes:
//   - 200 OK: All dependencies are healthy
//   - 503 Service Unavailable: One or more dependencies are down
func (h *Handler) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	cacheErr := h.cache.Ping(ctx)
	dbErr := h.db.Ping(ctx)

	status := "ok"
	code := http.StatusOK
	deps := gin.H{"cache": "up", "database": "up"}

	if cacheErr != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
		deps["cache"] = "down"
	}
	if dbErr != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
		deps["database"] = "down"
	}

	c.JSON(code, gin.H{"status": status, "dependencies": deps})
}

// createLink handles POST /api/v1/links
// Response codes:
//   - 201 Created: Link successfully created
//   - 400 Bad Request: Invalid request body, URL, or key
//   - 409 Conflict: Key already exists
//   - 500 Internal Server Error: Unexpected error
func (h *Handler) createLink(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.CreateLinkRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid request body",
			slog.String("error", err.Error()),
			slog.String("path", c.Request.URL.Path))
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.links.Create(ctx, userID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			h.errorResponse(c, http.StatusBadRequest, "Invalid URL")
		case errors.Is(err, service.ErrInvalidKey):
			h.errorResponse(c, http.StatusBadRequest, "Invalid key")
		case errors.Is(err, service.ErrKeyExists):
			h.errorResponse(c, http.StatusConflict, "Key already exists")
		default:
			h.logger.ErrorContext(ctx, "unexpected error creating link",
				slog.String("error", err.Error()))
			h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// listLinks handles GET /api/v1/links
func (h *Handler) listLinks(c *gin.Context) {
	ctx := c.Request.Context()

	links, err := h.links.List(ctx, userID(c))
	if err != nil {
		h.logger.ErrorContext(ctx, "unexpected error listing links",
			slog.String("error", err.Error()))
		h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": links})
}

// getLink handles GET /api/v1/links/:key
// Retrieves metadata for a link without recording a click.
// Response codes:
//   - 200 OK | 404 Not Found | 410 Gone | 500 Internal Server Error
func (h *Handler) getLink(c *gin.Context) {
	ctx := c.Request.Context()
	key := c.Param("key")

	resp, err := h.links.Get(ctx, key)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			h.errorResponse(c, http.StatusNotFound, "Link not found")
		case errors.Is(err, service.ErrLinkExpired):
			h.errorResponse(c, http.StatusGone, "Link has expired")
		default:
			h.logger.ErrorContext(ctx, "unexpected error fetching link",
				slog.String("error", err.Error()),
				slog.String("key", key))
			h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// updateLink handles PATCH /api/v1/links/:key
// Owner-scoped partial update; the key itself is immutable.
func (h *Handler) updateLink(c *gin.Context) {
	ctx := c.Request.Context()
	key := c.Param("key")
	var req model.UpdateLinkRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.links.Update(ctx, userID(c), key, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			h.errorResponse(c, http.StatusNotFound, "Link not found")
		case errors.Is(err, service.ErrInvalidURL):
			h.errorResponse(c, http.StatusBadRequest, "Invalid URL")
		default:
			h.logger.ErrorContext(ctx, "unexpected error updating link",
				slog.String("error", err.Error()),
				slog.String("key", key))
			h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// deleteLink handles DELETE /api/v1/links/:key
// Response codes:
//   - 204 No Content | 404 Not Found | 500 Internal Server Error
func (h *Handler) deleteLink(c *gin.Context) {
	ctx := c.Request.Context()
	key := c.Param("key")

	if err := h.links.Delete(ctx, userID(c), key); err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			h.errorResponse(c, http.StatusNotFound, "Link not found")
		default:
			h.logger.ErrorContext(ctx, "unexpected error deleting link",
				slog.String("error", err.Error()),
				slog.String("key", key))
			h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// linkStats handles GET /api/v1/links/:key/stats
func (h *Handler) linkStats(c *gin.Context) {
	ctx := c.Request.Context()
	key := c.Param("key")

	resp, err := h.stats.Stats(ctx, key)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			h.errorResponse(c, http.StatusNotFound, "Link not found")
		default:
			h.logger.ErrorContext(ctx, "unexpected error fetching stats",
				slog.String("error", err.Error()),
				slog.String("key", key))
			h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// dashboard handles GET /api/v1/analytics/dashboard
// Aggregates click activity across all of the caller's links.
func (h *Handler) dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	resp, err := h.stats.Dashboard(ctx, userID(c))
	if err != nil {
		h.logger.ErrorContext(ctx, "unexpected error fetching dashboard",
			slog.String("error", err.Error()))
		h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// trackClick handles POST /api/v1/analytics/track
// Internal ingestion of a resolution snapshot. Idempotency is not
// required; duplicates are acceptable.
// Response codes:
//   - 202 Accepted | 400 Bad Request | 500 Internal Server Error
func (h *Handler) trackClick(c *gin.Context) {
	ctx := c.Request.Context()
	var ev analytics.ClickEvent

	if err := c.ShouldBindJSON(&ev); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if ev.Key == "" || ev.TargetURL == "" {
		h.errorResponse(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	if err := h.tracker.Record(ctx, ev); err != nil {
		h.logger.ErrorContext(ctx, "unexpected error recording click",
			slog.String("error", err.Error()),
			slog.String("key", ev.Key))
		h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

// redirectLink handles GET /:key
// Resolves the short key and redirects; the click event is dispatched
// asynchronously by the service and never delays this response.
// Response codes:
//   - 307 Temporary Redirect: resolved target
//   - 404 Not Found: key absent (or store failure, collapsed)
//   - 410 Gone: link expired
//   - 401 Unauthorized: password challenge
func (h *Handler) redirectLink(c *gin.Context) {
	ctx := c.Request.Context()
	key := c.Param("key")

	info := reqinfo.FromRequest(c.Request, h.geo)

	target, err := h.redirect.Redirect(ctx, key, info)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			h.errorResponse(c, http.StatusNotFound, "Link not found")
		case errors.Is(err, service.ErrLinkExpired):
			h.errorResponse(c, http.StatusGone, "Link has expired")
		case errors.Is(err, service.ErrPasswordRequired):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":             "Unauthorized",
				"password_required": true,
			})
		default:
			h.logger.ErrorContext(ctx, "unexpected error during redirect",
				slog.String("error", err.Error()),
				slog.String("key", key))
			h.errorResponse(c, http.StatusNotFound, "Link not found")
		}
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, target)
}

// verifyPassword handles POST /:key/verify-password
// Response codes:
//   - 200 OK: {success, redirect_url} with targeting applied
//   - 401 Unauthorized: wrong password
//   - 404 Not Found | 410 Gone | 400 Bad Request (not protected)
func (h *Handler) verifyPassword(c *gin.Context) {
	ctx := c.Request.Context()
	key := c.Param("key")
	var req model.VerifyPasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	info := reqinfo.FromRequest(c.Request, h.geo)

	target, err := h.redirect.VerifyPassword(ctx, key, req.Password, info)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			h.errorResponse(c, http.StatusNotFound, "Link not found")
		case errors.Is(err, service.ErrLinkExpired):
			h.errorResponse(c, http.StatusGone, "Link has expired")
		case errors.Is(err, service.ErrNotPasswordProtected):
			h.errorResponse(c, http.StatusBadRequest, "Link is not password protected")
		case errors.Is(err, service.ErrInvalidPassword):
			h.errorResponse(c, http.StatusUnauthorized, "Invalid password")
		default:
			h.logger.ErrorContext(ctx, "unexpected error verifying password",
				slog.String("error", err.Error()),
				slog.String("key", key))
			h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusOK, model.VerifyPasswordResponse{
		Success:     true,
		RedirectURL: target,
	})
}

// errorResponse sends a standardized JSON error response.
func (h *Handler) errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, model.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
