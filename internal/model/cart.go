package model

// CartLine is one entry in a cart. In the remote variant the line ID equals
// the product ID (one line per product, quantities merged). In the local
// variant the ID is a positional index and duplicates are allowed.
type CartLine struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Img      string  `json:"img,omitempty"`
	Quantity int     `json:"quantity"`
}

// CartSummary is the live badge state: total item count and total price.
type CartSummary struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// Summarize computes the summary for a set of cart lines.
func Summarize(lines []CartLine) CartSummary {
	var s CartSummary
	for _, l := range lines {
		s.Count += l.Quantity
		s.Total += l.Price * float64(l.Quantity)
	}
	return s
}
