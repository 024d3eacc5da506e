package http

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"liggs/internal/domain"
	"liggs/internal/service"
	"liggs/internal/session"
)

// Options tunes transport details that do not belong to the services.
type Options struct {
	// CookieSecure marks the session cookie Secure (HTTPS only).
	CookieSecure bool
	// StaticDir, when set, serves index.html at "/" and the directory under /static.
	StaticDir string
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	notes    service.NoteService
	exports  service.ExportService
	sessions *session.Manager
	logger   logrus.FieldLogger
	opts     Options
}

func NewHandler(
	users service.UserService,
	notes service.NoteService,
	exports service.ExportService,
	sessions *session.Manager,
	logger logrus.FieldLogger,
	opts Options,
) *Handler {
	return &Handler{
		users:    users,
		notes:    notes,
		exports:  exports,
		sessions: sessions,
		logger:   logger,
		opts:     opts,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestIDMiddleware())
	router.Use(accessLogMiddleware(h.logger))
	router.Use(corsMiddleware())
	router.Use(h.sessionMiddleware())

	api := router.Group("/api")
	{
		api.POST("/register", h.register)
		api.POST("/login", h.login)
		api.GET("/me", h.me)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}

	authed := api.Group("", requireAuth())
	{
		authed.POST("/logout", h.logout)
		authed.GET("/notes", h.listNotes)
		authed.POST("/notes", h.createNote)
		authed.GET("/notes/:id", h.getNote)
		authed.PUT("/notes/:id", h.updateNote)
		authed.DELETE("/notes/:id", h.deleteNote)
		authed.GET("/notes/:id/export", h.exportNote)
		authed.GET("/exports", h.listExports)
	}

	if h.opts.StaticDir != "" {
		router.StaticFile("/", filepath.Join(h.opts.StaticDir, "index.html"))
		router.Static("/static", h.opts.StaticDir)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Archive-Warning, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// respondError maps service errors onto status codes. Unknown errors are
// logged and reported as a generic 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, service.ErrNoteNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, service.ErrArchiveDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Export archive is not configured"})
	default:
		requestLogger(c, h.logger).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func invalidBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
}

// noteIDParam treats anything but a positive integer as a missing note.
func noteIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return 0, false
	}
	return id, true
}

type NoteResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type NoteSummaryResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Preview   string `json:"preview"`
	UpdatedAt string `json:"updated_at"`
}

type ArchivedExportResponse struct {
	Key          string  `json:"key"`
	NoteID       int64   `json:"note_id"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
	URL          string  `json:"url"`
}

func noteToResponse(note domain.Note) NoteResponse {
	return NoteResponse{
		ID:        note.ID,
		UserID:    note.UserID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: note.CreatedAt.Format(time.RFC3339),
		UpdatedAt: note.UpdatedAt.Format(time.RFC3339),
	}
}

func summaryToResponse(note domain.NoteSummary) NoteSummaryResponse {
	return NoteSummaryResponse{
		ID:        note.ID,
		Title:     note.Title,
		Preview:   note.Preview,
		UpdatedAt: note.UpdatedAt.Format(time.RFC3339),
	}
}

func archiveToResponse(archive domain.ArchivedExport) ArchivedExportResponse {
	resp := ArchivedExportResponse{
		Key:    archive.Key,
		NoteID: archive.NoteID,
		Size:   archive.Size,
		URL:    archive.URL,
	}
	if archive.LastModified != nil && !archive.LastModified.IsZero() {
		v := archive.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
