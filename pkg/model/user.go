package model

// User is the minimal recipient directory entry. Everything else about a
// user (contact preferences, locale, profile) belongs to the platform.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}
