package session

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"
	"github.com/m-mizutani/goerr/v2"

	"github.com/movetics/transflow/errs"
)

const (
	sessionKeyPrefix = "transflow:session:"
	lockKeyPrefix    = "transflow:lock:"

	// Lock lease; a crashed holder frees the session after this long.
	defaultLockTTL = 30 * time.Second
)

// RedisStore persists sessions in Redis so conversations survive a process
// restart. Eviction is Redis TTL; per-session mutual exclusion is a SetNX
// lease keyed by session id, which also excludes callers in other processes.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

type RedisOption func(*RedisStore)

// WithSessionTTL sets the persistence window for idle sessions. Zero keeps
// sessions until explicitly deleted.
func WithSessionTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithLockTTL overrides the lock lease duration.
func WithLockTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.lockTTL = ttl
	}
}

func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client:  client,
		lockTTL: defaultLockTTL,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisStore) Create(ctx context.Context, id, senderID string) (*Session, error) {
	exists, err := s.client.Exists(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return nil, goerr.Wrap(err, "check session existence", goerr.TV(errs.SessionIDKey, id))
	}
	if exists > 0 {
		return nil, goerr.New("session already exists",
			goerr.Tag(errs.TagDuplicateSession),
			goerr.TV(errs.SessionIDKey, id),
		)
	}
	sess := New(id, senderID)
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, goerr.New("session not found",
			goerr.Tag(errs.TagSessionNotFound),
			goerr.TV(errs.SessionIDKey, id),
		)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "fetch session", goerr.TV(errs.SessionIDKey, id))
	}
	var sess Session
	if err := sonic.UnmarshalString(raw, &sess); err != nil {
		return nil, goerr.Wrap(err, "decode stored session", goerr.TV(errs.SessionIDKey, id))
	}
	return &sess, nil
}

func (s *RedisStore) Resume(ctx context.Context, id, senderID string) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err == nil {
		return sess, nil
	}
	if !goerr.HasTag(err, errs.TagSessionNotFound) {
		return nil, err
	}
	sess = New(id, senderID)
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	raw, err := sonic.MarshalString(sess)
	if err != nil {
		return goerr.Wrap(err, "encode session", goerr.TV(errs.SessionIDKey, sess.ID))
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+sess.ID, raw, s.ttl).Err(); err != nil {
		return goerr.Wrap(err, "store session", goerr.TV(errs.SessionIDKey, sess.ID))
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return goerr.Wrap(err, "delete session", goerr.TV(errs.SessionIDKey, id))
	}
	return nil
}

func (s *RedisStore) Acquire(ctx context.Context, id string) (func(), error) {
	lockKey := lockKeyPrefix + id
	ok, err := s.client.SetNX(ctx, lockKey, "1", s.lockTTL).Result()
	if err != nil {
		return nil, goerr.Wrap(err, "acquire session lock", goerr.TV(errs.SessionIDKey, id))
	}
	if !ok {
		return nil, goerr.New("session is busy",
			goerr.Tag(errs.TagSessionBusy),
			goerr.TV(errs.SessionIDKey, id),
		)
	}
	return func() {
		// Release is best-effort; the lease expires on its own otherwise.
		s.client.Del(context.Background(), lockKey)
	}, nil
}
