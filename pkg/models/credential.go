package models

// StoreCredential is rotated independently from the Store record.
type StoreCredential struct {
	StoreID  int    `json:"storeId"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminCredential is the singleton platform admin login.
type AdminCredential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
