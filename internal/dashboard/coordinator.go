package dashboard

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zulandar/segdash/internal/api"
)

// LoginRoute is where expired or anonymous sessions are sent.
const LoginRoute = "/login"

// partialHeader marks requests made by app.js to fetch a fragment. Those
// get a 401 with X-Redirect instead of a 303, so the script can navigate
// the whole page.
const partialHeader = "X-Segdash-Partial"

func isPartial(c *gin.Context) bool {
	return c.GetHeader(partialHeader) != ""
}

// toLogin aborts the request and sends the browser to the login page.
func toLogin(c *gin.Context) {
	if isPartial(c) {
		c.Header("X-Redirect", LoginRoute)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	target := LoginRoute
	if c.Request.Method == http.MethodGet && c.Request.URL.Path != "/" {
		target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	}
	c.Redirect(http.StatusSeeOther, target)
	c.Abort()
}

// safeNext returns next if it is a local path, else "/".
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	if strings.HasPrefix(next, LoginRoute) {
		return "/"
	}
	return next
}

// coordinate turns session-expired events from the API client into a
// broadcast that every open page follows to the login screen.
func (a *app) coordinate() {
	a.api.OnSessionExpired(func(e api.SessionExpired) {
		a.log.Info("session expired, redirecting to login", zap.String("op", e.Op))
		a.hub.publish(sseEvent{Event: "expired", Data: map[string]string{
			"op":       e.Op,
			"redirect": LoginRoute,
		}})
	})
}

// unauthorized reports whether err means the session is gone, in which case
// the request has already been redirected.
func unauthorized(c *gin.Context, err error) bool {
	if errors.Is(err, api.ErrUnauthorized) {
		toLogin(c)
		return true
	}
	return false
}
