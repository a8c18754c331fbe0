package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"ninelives-store-api/internal/model"

	"github.com/stretchr/testify/require"
)

func testFeedConfig() FeedConfig {
	return FeedConfig{
		Limit:     50,
		MaxLength: 280,
		Blocklist: []string{"spam", "scam"},
		Mask:      "****",
	}
}

func testAuthor() model.Identity {
	return model.Identity{UID: "guest-1", DisplayName: "whiskers"}
}

func TestPostRejectsEmptyText(t *testing.T) {
	s := NewFeedService(newTestStore(t), testFeedConfig())
	ctx := context.Background()

	_, err := s.Post(ctx, testAuthor(), "")
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, err = s.Post(ctx, testAuthor(), "   \n\t ")
	require.ErrorIs(t, err, ErrEmptyMessage)

	// nothing reached the store
	msgs, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestPostMasksBlocklistedWords(t *testing.T) {
	s := NewFeedService(newTestStore(t), testFeedConfig())

	msg, err := s.Post(context.Background(), testAuthor(), "this is SPAM and a scam, no doubt")
	require.NoError(t, err)
	require.Equal(t, "this is **** and a ****, no doubt", msg.Text)
}

func TestPostMasksWholeWordsOnly(t *testing.T) {
	s := NewFeedService(newTestStore(t), testFeedConfig())

	// "spammy" contains a blocklisted word but is not a whole-word match
	msg, err := s.Post(context.Background(), testAuthor(), "feeling spammy today")
	require.NoError(t, err)
	require.Equal(t, "feeling spammy today", msg.Text)
}

func TestPostTruncatesLongText(t *testing.T) {
	s := NewFeedService(newTestStore(t), testFeedConfig())

	long := strings.Repeat("meow ", 100) // 500 chars
	msg, err := s.Post(context.Background(), testAuthor(), long)
	require.NoError(t, err)
	require.Len(t, []rune(msg.Text), 280)
}

func TestPostTruncatesByRunesNotBytes(t *testing.T) {
	s := NewFeedService(newTestStore(t), testFeedConfig())

	long := strings.Repeat("猫", 300)
	msg, err := s.Post(context.Background(), testAuthor(), long)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("猫", 280), msg.Text)
}

func TestPostDefaultsDisplayName(t *testing.T) {
	s := NewFeedService(newTestStore(t), testFeedConfig())

	msg, err := s.Post(context.Background(), model.Identity{UID: "guest-2"}, "hello")
	require.NoError(t, err)
	require.Equal(t, "anon-cat", msg.User)
	require.Equal(t, model.MessageTypeUser, msg.Type)
}

func TestBroadcastSkipsWordFilter(t *testing.T) {
	s := NewFeedService(newTestStore(t), testFeedConfig())

	msg, err := s.Broadcast(context.Background(), "our anti-spam rules changed")
	require.NoError(t, err)
	require.Equal(t, "our anti-spam rules changed", msg.Text)
	require.Equal(t, model.MessageTypeAnnouncement, msg.Type)
	require.Equal(t, "NINE LIVES", msg.User)
}

func TestBroadcastStillCapsLength(t *testing.T) {
	s := NewFeedService(newTestStore(t), testFeedConfig())

	msg, err := s.Broadcast(context.Background(), strings.Repeat("x", 400))
	require.NoError(t, err)
	require.Len(t, []rune(msg.Text), 280)
}

func TestBroadcastRejectsEmpty(t *testing.T) {
	s := NewFeedService(newTestStore(t), testFeedConfig())

	_, err := s.Broadcast(context.Background(), "  ")
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestRecentNewestFirstAndCapped(t *testing.T) {
	cfg := testFeedConfig()
	cfg.Limit = 5
	s := NewFeedService(newTestStore(t), cfg)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := s.Post(ctx, testAuthor(), fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	msgs, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	require.Equal(t, "message 7", msgs[0].Text)
	require.Equal(t, "message 3", msgs[4].Text)

	// an explicit limit below the cap is honored
	msgs, err = s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "message 7", msgs[0].Text)

	// a limit above the cap is clamped
	msgs, err = s.Recent(ctx, 100)
	require.NoError(t, err)
	require.Len(t, msgs, 5)
}

func TestFeedWatchRedeliversWindow(t *testing.T) {
	s := NewFeedService(newTestStore(t), testFeedConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, stop := s.Watch(ctx, 10)
	defer stop()

	initial := <-ch
	require.Empty(t, initial)

	_, err := s.Post(ctx, testAuthor(), "first")
	require.NoError(t, err)

	update := <-ch
	require.Len(t, update, 1)
	require.Equal(t, "first", update[0].Text)
}
