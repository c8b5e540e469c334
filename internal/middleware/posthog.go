package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/utils"
)

// PosthogMiddleware reports every successful authenticated request as an
// event named after its route, e.g. POST /api/v1/memos/:memoID/approve
// becomes "post_memos_approve".
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !posthogClient.IsInitialized() {
			c.Next()
			return
		}

		c.Next()

		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		userID, ok := GetUserIDFromContext(c)
		if !ok {
			return
		}
		eventName := routeEventName(c.Request.Method, c.FullPath())
		if eventName == "" {
			return
		}

		props := map[string]any{
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
		}
		for _, p := range c.Params {
			props[p.Key] = p.Value
		}
		if user, ok := GetCurrentUser(c); ok {
			props["role"] = string(user.Role)
		}
		posthogClient.Enqueue(userID, eventName, props)
	}
}

func routeEventName(method, fullPath string) string {
	if fullPath == "" {
		return ""
	}
	parts := []string{strings.ToLower(method)}
	for _, seg := range strings.Split(strings.TrimPrefix(fullPath, "/api/v1"), "/") {
		if seg == "" || strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") {
			continue
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, "_")
}
