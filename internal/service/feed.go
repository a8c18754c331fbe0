package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"ninelives-store-api/internal/model"
	"ninelives-store-api/internal/store"
)

// MessagesCollection is the feed's store collection.
const MessagesCollection = "messages"

// ErrEmptyMessage indicates the message text was empty after trimming.
const ErrEmptyMessage ServiceError = "message text is empty"

// FeedConfig holds moderation settings for the community feed.
type FeedConfig struct {
	Limit     int
	MaxLength int
	Blocklist []string
	Mask      string
}

// FeedService is the append-only community message log: time-ordered, capped
// at the most recent N, with blocklist filtering and length truncation on
// user posts. Announcements are operator broadcasts and skip the word filter.
type FeedService struct {
	store    store.Store
	cfg      FeedConfig
	patterns []*regexp.Regexp
}

// NewFeedService creates a new feed service, compiling the blocklist into
// case-insensitive whole-word patterns.
func NewFeedService(st store.Store, cfg FeedConfig) *FeedService {
	if cfg.Limit <= 0 {
		cfg.Limit = 50
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = 280
	}
	if cfg.Mask == "" {
		cfg.Mask = "****"
	}

	patterns := make([]*regexp.Regexp, 0, len(cfg.Blocklist))
	for _, word := range cfg.Blocklist {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(word)+`\b`))
	}

	return &FeedService{store: st, cfg: cfg, patterns: patterns}
}

// moderate applies the blocklist filter and truncates to the length cap.
func (s *FeedService) moderate(text string) string {
	for _, p := range s.patterns {
		text = p.ReplaceAllString(text, s.cfg.Mask)
	}
	if runes := []rune(text); len(runes) > s.cfg.MaxLength {
		text = string(runes[:s.cfg.MaxLength])
	}
	return text
}

// Post appends a user message. Empty text after trimming is rejected before
// any backend call is made.
func (s *FeedService) Post(ctx context.Context, author model.Identity, text string) (model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Message{}, ErrEmptyMessage
	}

	displayName := author.DisplayName
	if displayName == "" {
		displayName = "anon-cat"
	}

	msg := model.Message{
		Text:  s.moderate(text),
		User:  displayName,
		UID:   author.UID,
		Photo: author.Photo,
		Type:  model.MessageTypeUser,
	}

	id, err := s.store.Add(ctx, MessagesCollection, msg)
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to post message: %w", err)
	}
	msg.ID = id
	return msg, nil
}

// Broadcast appends a privileged announcement. Bypasses the word filter but
// not the length cap.
func (s *FeedService) Broadcast(ctx context.Context, text string) (model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Message{}, ErrEmptyMessage
	}

	if runes := []rune(text); len(runes) > s.cfg.MaxLength {
		text = string(runes[:s.cfg.MaxLength])
	}

	msg := model.Message{
		Text: text,
		User: "NINE LIVES",
		Type: model.MessageTypeAnnouncement,
	}

	id, err := s.store.Add(ctx, MessagesCollection, msg)
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to broadcast: %w", err)
	}
	msg.ID = id

	log.Printf("[FeedService] Announcement broadcast (%d chars)", len(text))
	return msg, nil
}

func messagesFromDocuments(docs []store.Document) ([]model.Message, error) {
	msgs := make([]model.Message, 0, len(docs))
	for _, doc := range docs {
		var m model.Message
		if err := doc.Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode message %s: %w", doc.ID, err)
		}
		m.ID = doc.ID
		m.CreatedAt = doc.CreatedAt
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *FeedService) capLimit(limit int) int {
	if limit <= 0 || limit > s.cfg.Limit {
		return s.cfg.Limit
	}
	return limit
}

// Window returns the effective window size for a requested limit: the
// configured cap when the request asks for zero, a negative, or more than
// the cap.
func (s *FeedService) Window(limit int) int {
	return s.capLimit(limit)
}

// Recent returns the most recent messages, newest first.
func (s *FeedService) Recent(ctx context.Context, limit int) ([]model.Message, error) {
	docs, err := s.store.List(ctx, MessagesCollection,
		store.OrderByCreatedDesc(), store.WithLimit(s.capLimit(limit)))
	if err != nil {
		return nil, err
	}
	return messagesFromDocuments(docs)
}

// Watch subscribes to the feed. Every committed message redelivers the full
// capped window, newest first.
func (s *FeedService) Watch(ctx context.Context, limit int) (<-chan []model.Message, func()) {
	docs, stop := s.store.Watch(ctx, MessagesCollection,
		store.OrderByCreatedDesc(), store.WithLimit(s.capLimit(limit)))
	out := make(chan []model.Message, 1)

	go func() {
		defer close(out)
		for batch := range docs {
			msgs, err := messagesFromDocuments(batch)
			if err != nil {
				log.Printf("[FeedService] Dropping bad snapshot: %v", err)
				continue
			}
			out <- msgs
		}
	}()

	return out, stop
}
