package stores

import (
	"strings"

	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

// DefaultCity is used when a new store is added without one.
const DefaultCity = "Bangalore"

// AddStoreInput carries admin-entered fields for a new store.
type AddStoreInput struct {
	Name     string `json:"name" validate:"required"`
	Area     string `json:"area" validate:"required"`
	City     string `json:"city"`
	WhatsApp string `json:"whatsapp" validate:"required"`
}

func (in AddStoreInput) normalized() AddStoreInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Area = strings.TrimSpace(in.Area)
	in.City = strings.TrimSpace(in.City)
	in.WhatsApp = strings.TrimSpace(in.WhatsApp)
	if in.City == "" {
		in.City = DefaultCity
	}
	return in
}

// newStore applies the defaults every admin-created store starts with.
func newStore(id int, in AddStoreInput) models.Store {
	return models.Store{
		ID:              id,
		Name:            in.Name,
		Area:            in.Area,
		City:            in.City,
		IsOpen:          true,
		IsVerified:      false,
		DeliveringToday: false,
		WhatsApp:        in.WhatsApp,
		Rating:          0,
	}
}

// matches reports a case-insensitive substring hit on name, area or city.
func matches(s models.Store, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s.Name), lowerQuery) ||
		strings.Contains(strings.ToLower(s.Area), lowerQuery) ||
		strings.Contains(strings.ToLower(s.City), lowerQuery)
}
