package models

// Store is a pharmacy customers order from. The JSON shape matches the
// medicare_stores cache entry.
type Store struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Area            string  `json:"area"`
	City            string  `json:"city"`
	IsOpen          bool    `json:"isOpen"`
	IsVerified      bool    `json:"isVerified"`
	DeliveringToday bool    `json:"deliveringToday"`
	WhatsApp        string  `json:"whatsapp"`
	Rating          float64 `json:"rating"`
}

// StorePatch lists the mutable store fields; nil fields are left untouched.
type StorePatch struct {
	Name            *string  `json:"name,omitempty"`
	Area            *string  `json:"area,omitempty"`
	City            *string  `json:"city,omitempty"`
	IsOpen          *bool    `json:"isOpen,omitempty"`
	IsVerified      *bool    `json:"isVerified,omitempty"`
	DeliveringToday *bool    `json:"deliveringToday,omitempty"`
	WhatsApp        *string  `json:"whatsapp,omitempty"`
	Rating          *float64 `json:"rating,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p StorePatch) IsEmpty() bool {
	return p.Name == nil && p.Area == nil && p.City == nil && p.IsOpen == nil &&
		p.IsVerified == nil && p.DeliveringToday == nil && p.WhatsApp == nil && p.Rating == nil
}

// Apply returns a copy of s with every non-nil patch field applied.
func (p StorePatch) Apply(s Store) Store {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Area != nil {
		s.Area = *p.Area
	}
	if p.City != nil {
		s.City = *p.City
	}
	if p.IsOpen != nil {
		s.IsOpen = *p.IsOpen
	}
	if p.IsVerified != nil {
		s.IsVerified = *p.IsVerified
	}
	if p.DeliveringToday != nil {
		s.DeliveringToday = *p.DeliveringToday
	}
	if p.WhatsApp != nil {
		s.WhatsApp = *p.WhatsApp
	}
	if p.Rating != nil {
		s.Rating = *p.Rating
	}
	return s
}
