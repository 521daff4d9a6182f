package completion

import (
	"strconv"
	"time"

	"github.com/drmind/mindtalk-cli/internal/models"
)

// FromCharacters converts API characters into cache items.
func FromCharacters(characters []models.Character) []CachedItem {
	items := make([]CachedItem, len(characters))
	for i, c := range characters {
		items[i] = CachedItem{ID: c.ID, Name: c.Name}
	}
	return items
}

// FromCounselors converts API counselors into cache items.
func FromCounselors(counselors []models.Counselor) []CachedItem {
	items := make([]CachedItem, len(counselors))
	for i, c := range counselors {
		items[i] = CachedItem{ID: c.ID, Name: c.Name, Detail: c.Specialty}
	}
	return items
}

// FromSessions converts API sessions into cache items. Untitled sessions
// are named by ID.
func FromSessions(sessions []models.Session) []CachedItem {
	items := make([]CachedItem, len(sessions))
	for i, s := range sessions {
		name := s.Title
		if name == "" {
			name = "Session " + strconv.FormatInt(s.ID, 10)
		}
		items[i] = CachedItem{
			ID:        s.ID,
			Name:      name,
			Detail:    s.LastMessage,
			UpdatedAt: parseTime(s.UpdatedAt),
		}
	}
	return items
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
