package model

import "time"

// Product represents a purchasable item in the catalog.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Img       string    `json:"img"`
	Desc      string    `json:"desc,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductInput is the payload for admin create/update actions.
type ProductInput struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Img   string  `json:"img"`
	Desc  string  `json:"desc"`
}

// Validate checks the input before it reaches the store.
func (p *ProductInput) Validate() []string {
	var problems []string
	if p.Name == "" {
		problems = append(problems, "name is required")
	}
	if p.Price < 0 {
		problems = append(problems, "price must be non-negative")
	}
	return problems
}
