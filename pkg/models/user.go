package models

import "time"

// GuestName is assigned to customers created implicitly from an order phone number.
const GuestName = "Valued Customer"

// User is a customer, either registered or created as a guest.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Password  string    `json:"password"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsGuest reports whether the account was created without a password.
func (u User) IsGuest() bool {
	return u.Password == ""
}

// Public strips the password before a user leaves the data layer boundary.
func (u User) Public() User {
	u.Password = ""
	return u
}
