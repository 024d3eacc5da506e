package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"liggs/internal/service"
	"liggs/internal/session"
)

const (
	sessionCookieName = "liggs_session"
	identityKey       = "identity"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// sessionMiddleware resolves the session cookie (or a bearer token) into an
// identity on the context. Missing or invalid credentials, or a token whose
// account no longer exists, leave the request anonymous; requireAuth decides
// whether that is acceptable.
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(sessionCookieName)
		if err != nil || raw == "" {
			raw = bearerToken(c.GetHeader("Authorization"))
		}
		if raw == "" {
			c.Next()
			return
		}

		id, err := h.sessions.Parse(raw)
		if err != nil {
			c.Next()
			return
		}

		user, err := h.users.GetByID(c.Request.Context(), id.UserID)
		switch {
		case err == nil:
			c.Set(identityKey, session.Identity{UserID: user.ID, Username: user.Username})
		case errors.Is(err, service.ErrUserNotFound):
			requestLogger(c, h.logger).WithField("user_id", id.UserID).Info("session for unknown user ignored")
		default:
			h.respondError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireAuth short-circuits anonymous requests with 401.
func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentIdentity(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		c.Next()
	}
}

func currentIdentity(c *gin.Context) (session.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return session.Identity{}, false
	}
	id, ok := v.(session.Identity)
	return id, ok
}

// mustIdentity is only valid behind requireAuth.
func mustIdentity(c *gin.Context) session.Identity {
	id, _ := currentIdentity(c)
	return id
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		invalidBody(c)
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if !h.startSession(c, session.Identity{UserID: user.ID, Username: user.Username}) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "username": user.Username})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		invalidBody(c)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if !h.startSession(c, session.Identity{UserID: user.ID, Username: user.Username}) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "username": user.Username})
}

func (h *Handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", h.opts.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) me(c *gin.Context) {
	id, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "username": id.Username})
}

func (h *Handler) startSession(c *gin.Context, id session.Identity) bool {
	token, err := h.sessions.Issue(id)
	if err != nil {
		h.respondError(c, err)
		return false
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, int(h.sessions.TTL().Seconds()), "/", "", h.opts.CookieSecure, true)
	c.Set(identityKey, id)
	return true
}
