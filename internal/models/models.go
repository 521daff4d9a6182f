// Package models provides canonical type definitions for mindtalk API entities.
// JSON field names follow the backend's camelCase wire format.
package models

// User is the authenticated member's profile.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	Provider  string `json:"provider,omitempty"` // "local", "google" or "kakao"
	CreatedAt string `json:"createdAt,omitempty"`
}

// Character is an AI persona a user can chat with.
type Character struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Personality string `json:"personality,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Counselor is an AI counselor profile with a specialty.
type Counselor struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Specialty   string `json:"specialty,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Session is one chat conversation between the user and a character or counselor.
type Session struct {
	ID          int64  `json:"id"`
	Title       string `json:"title,omitempty"`
	CharacterID int64  `json:"characterId,omitempty"`
	CounselorID int64  `json:"counselorId,omitempty"`
	LastMessage string `json:"lastMessage,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message inside a session.
type Message struct {
	ID        int64  `json:"id"`
	SessionID int64  `json:"sessionId"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Exchange is the result of sending a message: the stored user message and
// the counselor's reply.
type Exchange struct {
	UserMessage Message  `json:"userMessage"`
	Reply       *Message `json:"reply,omitempty"`
}

// AuthResult is returned by login and OAuth exchange endpoints.
type AuthResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// Home bundles everything the home screen shows.
type Home struct {
	Characters []Character `json:"characters"`
	Counselors []Counselor `json:"counselors"`
	Sessions   []Session   `json:"sessions"`
}
