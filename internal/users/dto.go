package users

import "strings"

// RegisterInput is the customer sign-up form.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
	Address  string `json:"address"`
}

func (in RegisterInput) normalized() RegisterInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = normalizePhone(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	return in
}

func normalizePhone(phone string) string {
	return strings.TrimSpace(phone)
}
