package domain

// Identity is the authenticated principal acting on a request.
type Identity struct {
	UserID  string
	Name    string
	Email   string
	IsAdmin bool
}
