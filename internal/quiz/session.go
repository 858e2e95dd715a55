package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/quizprep/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// SessionTTL is the lifetime of an active quiz session. Submissions after
// this window are rejected, and Redis evicts the key on its own so abandoned
// sessions never need a sweeper.
const SessionTTL = 6000 * time.Second

// consumeScript deletes the session key only if its payload is still the one
// we scored against. A plain DEL could wipe a newer session started between
// scoring and cleanup.
var consumeScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// SessionStore keeps active quiz sessions in Redis, one key per user. A new
// session overwrites whatever key is there, which is exactly the restart
// semantics we want.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client, ttl: SessionTTL}
}

func sessionKey(userID int64) string {
	return "quiz:active:" + strconv.FormatInt(userID, 10)
}

// Put stores the session under the user's key, replacing any previous one,
// and resets the TTL clock.
func (s *SessionStore) Put(ctx context.Context, session *models.ActiveQuiz) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.UserID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get returns the user's live session, or ErrNoActiveQuiz when none exists
// (never started, already consumed, or evicted by TTL).
func (s *SessionStore) Get(ctx context.Context, userID int64) (*models.ActiveQuiz, error) {
	payload, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNoActiveQuiz
	}
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}

	var session models.ActiveQuiz
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// Delete removes the user's session unconditionally. Returns whether a key
// was actually removed.
func (s *SessionStore) Delete(ctx context.Context, userID int64) (bool, error) {
	n, err := s.client.Del(ctx, sessionKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return n > 0, nil
}

// Consume removes the session only if it is still the given one. Returns
// false when the key already holds a different session or is gone.
func (s *SessionStore) Consume(ctx context.Context, session *models.ActiveQuiz) (bool, error) {
	payload, err := json.Marshal(session)
	if err != nil {
		return false, fmt.Errorf("marshal session: %w", err)
	}
	n, err := consumeScript.Run(ctx, s.client, []string{sessionKey(session.UserID)}, string(payload)).Int()
	if err != nil {
		return false, fmt.Errorf("consume session: %w", err)
	}
	return n > 0, nil
}

// TTL exposes the configured session lifetime.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}
