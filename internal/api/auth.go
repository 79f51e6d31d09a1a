package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/zulandar/segdash/internal/models"
	"github.com/zulandar/segdash/internal/session"
)

// Login exchanges credentials for a session and stores it. A 401 means the
// credentials were rejected; KindNetwork means the backend was unreachable.
func (c *Client) Login(ctx context.Context, email, password string) (session.Session, error) {
	var out models.Envelope[models.LoginResponse]
	req := request{
		op: "login", method: http.MethodPost, path: "/auth/login",
		body:     models.LoginRequest{Email: email, Password: password},
		fallback: "Login failed",
	}
	if err := c.doJSON(ctx, req, &out); err != nil {
		return session.Session{}, err
	}
	sess := session.Session{
		AccessToken:  out.Data.AccessToken,
		RefreshToken: out.Data.RefreshToken,
		UserID:       out.Data.UserID,
	}
	if !sess.Authenticated() {
		return session.Session{}, &Error{Kind: KindDecode, Op: req.op, Message: "Login response is missing credentials"}
	}
	if err := c.store.Set(sess); err != nil {
		return session.Session{}, err
	}
	c.log.Info("logged in", zap.Int("user_id", sess.UserID))
	return sess, nil
}

// Logout tells the backend the session is over and clears it locally. The
// backend call is best effort: its failure is logged, and the local session
// is cleared regardless. Only a failure to persist the clear is returned.
func (c *Client) Logout(ctx context.Context) error {
	if c.store.Current().AccessToken != "" {
		err := c.doJSON(ctx, request{
			op: "logout", method: http.MethodPost, path: "/auth/logout",
			fallback: "Logout failed",
		}, nil)
		if err != nil && KindOf(err) != KindAuthentication {
			c.log.Warn("backend logout failed", zap.Error(err))
		}
	}
	return c.store.Clear()
}

// RefreshToken rotates the token pair using the stored refresh token.
func (c *Client) RefreshToken(ctx context.Context) (session.Session, error) {
	cur := c.store.Current()
	if !cur.Authenticated() {
		return session.Session{}, session.ErrNoSession
	}
	var out models.Envelope[models.TokenRefreshResponse]
	req := request{
		op: "refreshToken", method: http.MethodPost, path: "/auth/refreshtoken",
		body:     models.TokenRefreshRequest{RefreshToken: cur.RefreshToken},
		fallback: "Failed to refresh token",
	}
	if err := c.doJSON(ctx, req, &out); err != nil {
		return session.Session{}, err
	}
	if out.Data.AccessToken == "" || out.Data.RefreshToken == "" {
		return session.Session{}, &Error{Kind: KindDecode, Op: req.op, Message: "Refresh response is missing tokens"}
	}
	if err := c.store.Rotate(out.Data.AccessToken, out.Data.RefreshToken); err != nil {
		return session.Session{}, err
	}
	c.log.Debug("token refreshed")
	return c.store.Current(), nil
}

// EnsureFresh refreshes the session when the access token expires within
// skew. Tokens without an exp claim are left alone. It reports whether a
// refresh happened.
func (c *Client) EnsureFresh(ctx context.Context, skew time.Duration) (bool, error) {
	cur := c.store.Current()
	if !cur.Authenticated() {
		return false, nil
	}
	exp := cur.Expiry()
	if exp.IsZero() || time.Until(exp) > skew {
		return false, nil
	}
	if _, err := c.RefreshToken(ctx); err != nil {
		return false, err
	}
	return true, nil
}
