package model

import "time"

// User is the authenticated user's profile
type User struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	Profession string `json:"profession,omitempty"` // lawyer, student, judge, ...
	Plan       string `json:"plan,omitempty"`
}

// Tokens is the access/refresh token pair issued by the auth endpoints
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// LoginResponse is returned by login and signup
type LoginResponse struct {
	Tokens
	User *User `json:"user,omitempty"`
}

// SignupRequest carries the fields of the signup form
type SignupRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Profession string `json:"profession,omitempty"`
}

// SessionInfo describes one of the user's active sessions on the backend
type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen,omitempty"`
	Current   bool      `json:"current,omitempty"`
}
