package dto

// AuthRequest describes login/password payload.
type AuthRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthResponse carries the issued token; it is also set as a cookie.
type AuthResponse struct {
	Token string `json:"token"`
}
