package models

import "time"

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

type Contact struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

type OperatingHours struct {
	Monday    string `json:"monday,omitempty"`
	Tuesday   string `json:"tuesday,omitempty"`
	Wednesday string `json:"wednesday,omitempty"`
	Thursday  string `json:"thursday,omitempty"`
	Friday    string `json:"friday,omitempty"`
	Saturday  string `json:"saturday,omitempty"`
	Sunday    string `json:"sunday,omitempty"`
}

type RecyclingCenter struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"not null" json:"name"`
	Address        Address        `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Longitude      float64        `gorm:"not null" json:"longitude"`
	Latitude       float64        `gorm:"not null" json:"latitude"`
	Contact        Contact        `gorm:"embedded;embeddedPrefix:contact_" json:"contact"`
	OperatingHours OperatingHours `gorm:"embedded;embeddedPrefix:hours_" json:"operating_hours"`
	AcceptedItems  StringArray    `gorm:"type:jsonb" json:"accepted_items"` // waste category names
	Description    string         `json:"description,omitempty"`
	ImageURL       string         `json:"image_url,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	DistanceMeters *float64 `gorm:"-" json:"distance_meters,omitempty"`
}

// Accepts reports whether the center takes items of the named category.
func (c *RecyclingCenter) Accepts(category string) bool {
	for _, item := range c.AcceptedItems {
		if item == category {
			return true
		}
	}
	return false
}
