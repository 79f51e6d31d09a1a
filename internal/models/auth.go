package models

// Envelope is the {message, data} wrapper the auth and ML routes use.
type Envelope[T any] struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the credentials issued on login.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       int    `json:"userId"`
}

// TokenRefreshRequest is the body of POST /auth/refreshtoken.
type TokenRefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenRefreshResponse carries the rotated token pair.
type TokenRefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
