package service

import (
	"context"
	"log"

	"ninelives-store-api/internal/model"
	"ninelives-store-api/internal/store"
)

// Poll storage location.
const (
	PollsCollection = "polls"
	PollID          = "next-colorway"
)

// ErrUnknownPollOption indicates a vote for an option that does not exist.
const ErrUnknownPollOption ServiceError = "unknown poll option"

// pollOptions is the fixed option set with display metadata.
var pollOptions = []model.PollOption{
	{ID: "cyber-pink", Name: "Cyber Pink", Color: "bg-pink-500"},
	{ID: "toxic-green", Name: "Toxic Green", Color: "bg-lime-400"},
	{ID: "glacier-blue", Name: "Glacier Blue", Color: "bg-sky-400"},
	{ID: "solar-orange", Name: "Solar Orange", Color: "bg-orange-500"},
}

// PollService maintains the colorway poll: a single document holding one
// counter per option. Votes go through the store's atomic increment, so
// concurrent voters never lose updates and no transaction is needed.
// There is no per-voter uniqueness; any client may vote repeatedly.
type PollService struct {
	store store.Store
}

// NewPollService creates a new poll service.
func NewPollService(st store.Store) *PollService {
	return &PollService{store: st}
}

// Options returns the fixed option set.
func (s *PollService) Options() []model.PollOption {
	return pollOptions
}

func (s *PollService) validOption(optionID string) bool {
	for _, o := range pollOptions {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// EnsurePoll creates the poll document with all options at zero if it does
// not exist yet. Runs in a transaction so racing first accesses cannot
// clobber votes that landed in between.
func (s *PollService) EnsurePoll(ctx context.Context) error {
	return s.store.RunTransaction(ctx, func(tx store.Tx) error {
		_, err := tx.Get(PollsCollection, PollID)
		if err == nil {
			return nil
		}
		if err != store.ErrNotFound {
			return err
		}

		votes := make(map[string]int64, len(pollOptions))
		for _, o := range pollOptions {
			votes[o.ID] = 0
		}
		log.Printf("[PollService] Initializing poll %s", PollID)
		return tx.Set(PollsCollection, PollID, model.Poll{Votes: votes})
	})
}

// demoVotes is the mock tally shown when the service runs against the
// in-memory fallback store, so the poll widget is not all zeros.
var demoVotes = map[string]int64{
	"cyber-pink":   42,
	"toxic-green":  78,
	"glacier-blue": 55,
	"solar-orange": 23,
}

// SeedDemoVotes writes the mock tally into a fresh or untouched poll
// document. A poll that already holds votes is left alone.
func (s *PollService) SeedDemoVotes(ctx context.Context) error {
	return s.store.RunTransaction(ctx, func(tx store.Tx) error {
		doc, err := tx.Get(PollsCollection, PollID)
		if err != nil && err != store.ErrNotFound {
			return err
		}
		if err == nil {
			var poll model.Poll
			if derr := doc.Decode(&poll); derr == nil && poll.TotalVotes() > 0 {
				return nil
			}
		}

		votes := make(map[string]int64, len(pollOptions))
		for _, o := range pollOptions {
			votes[o.ID] = demoVotes[o.ID]
		}
		log.Printf("[PollService] Seeding demo tallies into poll %s", PollID)
		return tx.Set(PollsCollection, PollID, model.Poll{Votes: votes})
	})
}

// Vote increments exactly one counter by exactly 1.
func (s *PollService) Vote(ctx context.Context, optionID string) error {
	if !s.validOption(optionID) {
		return ErrUnknownPollOption
	}
	if err := s.EnsurePoll(ctx); err != nil {
		return err
	}
	return s.store.Increment(ctx, PollsCollection, PollID, "votes."+optionID, 1)
}

// Tally returns the option-to-count mapping.
func (s *PollService) Tally(ctx context.Context) (model.Poll, error) {
	if err := s.EnsurePoll(ctx); err != nil {
		return model.Poll{}, err
	}

	doc, err := s.store.Get(ctx, PollsCollection, PollID)
	if err != nil {
		return model.Poll{}, err
	}

	var poll model.Poll
	if err := doc.Decode(&poll); err != nil {
		return model.Poll{}, err
	}
	return poll, nil
}

// Results returns every option with its tally and display percentage.
// Percentages are votes/max(total,1)*100, so an empty poll shows 0% on every
// option and a non-empty poll's percentages sum to 100 up to rounding.
func (s *PollService) Results(ctx context.Context) ([]model.PollResult, error) {
	poll, err := s.Tally(ctx)
	if err != nil {
		return nil, err
	}
	return resultsFromPoll(poll), nil
}

func resultsFromPoll(poll model.Poll) []model.PollResult {
	total := poll.TotalVotes()
	divisor := total
	if divisor < 1 {
		divisor = 1
	}

	results := make([]model.PollResult, 0, len(pollOptions))
	for _, o := range pollOptions {
		votes := poll.Votes[o.ID]
		results = append(results, model.PollResult{
			Option:     o,
			Votes:      votes,
			Percentage: float64(votes) / float64(divisor) * 100,
		})
	}
	return results
}

// Watch subscribes to the poll document, delivering full results on every
// committed vote.
func (s *PollService) Watch(ctx context.Context) (<-chan []model.PollResult, func(), error) {
	if err := s.EnsurePoll(ctx); err != nil {
		return nil, nil, err
	}

	docs, stop := s.store.WatchDoc(ctx, PollsCollection, PollID)
	out := make(chan []model.PollResult, 1)

	go func() {
		defer close(out)
		for doc := range docs {
			if doc == nil {
				continue
			}
			var poll model.Poll
			if err := doc.Decode(&poll); err != nil {
				log.Printf("[PollService] Dropping bad snapshot: %v", err)
				continue
			}
			out <- resultsFromPoll(poll)
		}
	}()

	return out, stop, nil
}
