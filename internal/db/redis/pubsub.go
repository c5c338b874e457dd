package redis

import (
	"context"
	"errors"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/talentmatch/internal/db"
)

// Publish sends a message to a channel.
func (s *Store) Publish(ctx context.Context, channel, message string) error {
	cmd := s.b().Publish().Channel(channel).Message(message).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPublish, Err: err}
	}
	return nil
}

// Subscribe receives channel messages until ctx is cancelled.
// Returns nil on cancellation.
func (s *Store) Subscribe(ctx context.Context, channel string, fn func(message string)) error {
	cmd := s.b().Subscribe().Channel(channel).Build()
	err := s.client.Receive(ctx, cmd, func(msg rueidis.PubSubMessage) {
		fn(msg.Message)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil
		}
		return &db.Error{Op: db.OpSubscribe, Err: err}
	}
	return nil
}
