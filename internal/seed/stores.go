package seed

import "github.com/angelmondragon/medicarehub-backend/pkg/models"

// SampleStores is the pharmacy catalog a fresh install starts with.
func SampleStores() []models.Store {
	stores := []models.Store{
		{ID: 1, Name: "Raja Medicals", Area: "High Road", WhatsApp: "918148993165", Rating: 4.8},
		{ID: 2, Name: "Royal Pharmacy", Area: "Pernambut", WhatsApp: "919876543211", Rating: 4.7},
		{ID: 3, Name: "Alaghu Pharmacy", Area: "Achari Street", WhatsApp: "919876543212", Rating: 4.6},
		{ID: 4, Name: "Bharath Medicals", Area: "Veerasamy Street", WhatsApp: "919876543213", Rating: 4.5},
		{ID: 5, Name: "Zakir Medicals", Area: "High Road", WhatsApp: "919876543214", Rating: 4.7},
		{ID: 6, Name: "Nobel Medicals", Area: "High Road", WhatsApp: "919876543215", Rating: 4.6},
		{ID: 7, Name: "Shifa Health Solution", Area: "High Road", WhatsApp: "919876543216", Rating: 4.8},
		{ID: 8, Name: "Vaseem Medical Shop", Area: "High Road", WhatsApp: "919876543217", Rating: 4.5},
	}
	for i := range stores {
		stores[i].City = "Pernambut"
		stores[i].IsOpen = true
		stores[i].IsVerified = true
		stores[i].DeliveringToday = true
	}
	return stores
}
