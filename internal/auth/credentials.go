// Package auth holds the authenticated session: the credential store that
// persists it and the coordinator that refreshes it.
package auth

// User is the identity snapshot returned at login.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// Credentials is the complete authenticated session.
// Either every field is set or the session does not exist.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// Complete reports whether every required field is present.
func (c *Credentials) Complete() bool {
	return c != nil &&
		c.AccessToken != "" &&
		c.RefreshToken != "" &&
		c.User.ID != "" &&
		c.User.Email != "" &&
		c.User.Nickname != ""
}

func (c *Credentials) clone() *Credentials {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// TokenPair is the result of exchanging a refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
