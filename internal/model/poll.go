package model

// PollOption is a fixed voting choice with its display metadata.
type PollOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Poll holds the vote counters, keyed by option ID.
type Poll struct {
	Votes map[string]int64 `json:"votes"`
}

// PollResult is one option with its current tally and display percentage.
type PollResult struct {
	Option     PollOption `json:"option"`
	Votes      int64      `json:"votes"`
	Percentage float64    `json:"percentage"`
}

// TotalVotes sums all counters.
func (p *Poll) TotalVotes() int64 {
	var total int64
	for _, v := range p.Votes {
		total += v
	}
	return total
}
