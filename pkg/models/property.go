package models

import "time"

// Property is a single listing record. The repository owns it; caches only
// ever hold copies.
type Property struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       Price     `json:"price"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
}

// String returns "<title> - <location>".
func (p Property) String() string {
	return p.Title + " - " + p.Location
}

// PropertyInput carries the caller-supplied fields for create and update.
type PropertyInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	Price       Price  `json:"price" validate:"gte=0,lte=9999999999"`
	Location    string `json:"location" validate:"required,max=100"`
}

// PropertyList is the body of the public list endpoint.
type PropertyList struct {
	Properties []Property `json:"properties"`
}
