package model

// Address role keys as emitted by the addresses instruction prompt.
const (
	RolePickup   = "pickup"
	RoleDelivery = "delivery"
)

// Address holds one pickup or delivery address. The model returns free JSON;
// unknown fields are ignored on decode, every known field is optional.
type Address struct {
	Company    string `json:"company,omitempty"`
	Street     string `json:"street,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
	Contact    string `json:"contact,omitempty"`
	Notes      string `json:"notes,omitempty"`
}
