package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsurePollCreatesZeroedCounters(t *testing.T) {
	s := NewPollService(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, s.EnsurePoll(ctx))

	poll, err := s.Tally(ctx)
	require.NoError(t, err)
	require.Len(t, poll.Votes, len(s.Options()))
	for _, o := range s.Options() {
		require.Zero(t, poll.Votes[o.ID])
	}
}

func TestEnsurePollDoesNotClobberVotes(t *testing.T) {
	s := NewPollService(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, s.Vote(ctx, "cyber-pink"))
	require.NoError(t, s.EnsurePoll(ctx))

	poll, err := s.Tally(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), poll.Votes["cyber-pink"])
}

func TestSeedDemoVotesLoadsMockTallies(t *testing.T) {
	s := NewPollService(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, s.SeedDemoVotes(ctx))

	poll, err := s.Tally(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(42), poll.Votes["cyber-pink"])
	require.Equal(t, int64(78), poll.Votes["toxic-green"])
	require.Equal(t, int64(55), poll.Votes["glacier-blue"])
	require.Equal(t, int64(23), poll.Votes["solar-orange"])
}

func TestSeedDemoVotesOverwritesZeroedPoll(t *testing.T) {
	s := NewPollService(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, s.EnsurePoll(ctx))
	require.NoError(t, s.SeedDemoVotes(ctx))

	poll, err := s.Tally(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(42), poll.Votes["cyber-pink"])
}

func TestSeedDemoVotesDoesNotClobberRealVotes(t *testing.T) {
	s := NewPollService(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, s.Vote(ctx, "cyber-pink"))
	require.NoError(t, s.SeedDemoVotes(ctx))

	poll, err := s.Tally(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), poll.Votes["cyber-pink"])
	require.Zero(t, poll.Votes["toxic-green"])
}

func TestVoteUnknownOption(t *testing.T) {
	s := NewPollService(newTestStore(t))

	err := s.Vote(context.Background(), "neon-mauve")
	require.ErrorIs(t, err, ErrUnknownPollOption)
}

func TestVoteIncrementsExactlyOne(t *testing.T) {
	s := NewPollService(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, s.Vote(ctx, "toxic-green"))
	require.NoError(t, s.Vote(ctx, "toxic-green"))
	require.NoError(t, s.Vote(ctx, "glacier-blue"))

	poll, err := s.Tally(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), poll.Votes["toxic-green"])
	require.Equal(t, int64(1), poll.Votes["glacier-blue"])
	require.Zero(t, poll.Votes["cyber-pink"])
}

func TestConcurrentVotesAllCounted(t *testing.T) {
	s := NewPollService(newTestStore(t))
	ctx := context.Background()

	const n = 30
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			require.NoError(t, s.Vote(ctx, "solar-orange"))
		}()
	}
	wg.Wait()

	poll, err := s.Tally(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(n), poll.Votes["solar-orange"])
}

func TestResultsEmptyPollShowsZeroPercent(t *testing.T) {
	s := NewPollService(newTestStore(t))

	results, err := s.Results(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, r := range results {
		require.Zero(t, r.Votes)
		require.Zero(t, r.Percentage)
	}
}

func TestResultsPercentagesSumToHundred(t *testing.T) {
	s := NewPollService(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, s.Vote(ctx, "cyber-pink"))
	require.NoError(t, s.Vote(ctx, "cyber-pink"))
	require.NoError(t, s.Vote(ctx, "cyber-pink"))
	require.NoError(t, s.Vote(ctx, "toxic-green"))

	results, err := s.Results(ctx)
	require.NoError(t, err)

	byOption := make(map[string]float64)
	var sum float64
	for _, r := range results {
		byOption[r.Option.ID] = r.Percentage
		sum += r.Percentage
	}
	require.InDelta(t, 75.0, byOption["cyber-pink"], 0.001)
	require.InDelta(t, 25.0, byOption["toxic-green"], 0.001)
	require.InDelta(t, 100.0, sum, 0.001)
}

func TestPollWatchDeliversUpdatedResults(t *testing.T) {
	s := NewPollService(newTestStore(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, stop, err := s.Watch(ctx)
	require.NoError(t, err)
	defer stop()

	// initial snapshot: zeroed poll
	initial := <-ch
	require.Len(t, initial, 4)

	require.NoError(t, s.Vote(ctx, "cyber-pink"))

	update := <-ch
	for _, r := range update {
		if r.Option.ID == "cyber-pink" {
			require.Equal(t, int64(1), r.Votes)
			require.InDelta(t, 100.0, r.Percentage, 0.001)
		}
	}
}
