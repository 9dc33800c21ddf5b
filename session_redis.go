package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisSessionConfig holds connection settings for the Redis session registry
type RedisSessionConfig struct {
	Addr      string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
	// TTL bounds how long a session outlives its token. Zero keeps sessions
	// until they are deleted.
	TTL time.Duration

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisSessions is a SessionRegistry kept in Redis. The token key is the
// authority; id and per user keys are indexes used for deletion.
type RedisSessions struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	now       func() time.Time
}

var _ SessionRegistry = (*RedisSessions)(nil)

type storedSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRedisSessions connects to Redis and returns a session registry
func NewRedisSessions(ctx context.Context, cfg RedisSessionConfig) (*RedisSessions, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 3 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 3 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisSessionsWithClient(client, cfg.KeyPrefix, cfg.TTL), nil
}

// NewRedisSessionsWithClient wraps a pre-configured client, used with miniredis in tests
func NewRedisSessionsWithClient(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisSessions {
	return &RedisSessions{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Close closes the Redis client connection.
func (s *RedisSessions) Close() error {
	return s.client.Close()
}

// Ping checks Redis connectivity.
func (s *RedisSessions) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSessions) tokenKey(token string) string {
	return s.keyPrefix + "session:token:" + token
}

func (s *RedisSessions) idKey(id string) string {
	return s.keyPrefix + "session:id:" + id
}

func (s *RedisSessions) userKey(userID string) string {
	return s.keyPrefix + "session:user:" + userID
}

func (s *RedisSessions) Create(ctx context.Context, userID uuid.UUID, token string) (uuid.UUID, error) {
	record := storedSession{
		ID:        uuid.NewString(),
		UserID:    userID.String(),
		Token:     token,
		CreatedAt: s.now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return uuid.Nil, StorageError("sessions.create", err)
	}

	// SetNX keeps token strings unique the way the sql constraint does
	ok, err := s.client.SetNX(ctx, s.tokenKey(token), data, s.ttl).Result()
	if err != nil {
		return uuid.Nil, StorageError("sessions.create", err)
	}
	if !ok {
		return uuid.Nil, ErrUniqueConstraint.WithMessage("session token already registered")
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.idKey(record.ID), token, s.ttl)
		pipe.SAdd(ctx, s.userKey(record.UserID), record.ID)
		return nil
	})
	if err != nil {
		// EXEC does not roll back, drop whatever part of the session landed
		if cerr := s.client.Del(ctx, s.tokenKey(token), s.idKey(record.ID)).Err(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return uuid.Nil, StorageError("sessions.create", err)
	}

	return uuid.MustParse(record.ID), nil
}

func (s *RedisSessions) FindByToken(ctx context.Context, token string) (*Session, error) {
	record, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	return record.session()
}

func (s *RedisSessions) load(ctx context.Context, token string) (*storedSession, error) {
	data, err := s.client.Get(ctx, s.tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, StorageError("sessions.find_by_token", err)
	}

	record := &storedSession{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, StorageError("sessions.decode", err)
	}
	return record, nil
}

func (s *RedisSessions) DeleteByToken(ctx context.Context, token string) (int64, error) {
	record, err := s.load(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return s.remove(ctx, record)
}

func (s *RedisSessions) DeleteByID(ctx context.Context, id uuid.UUID) error {
	token, err := s.client.Get(ctx, s.idKey(id.String())).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return StorageError("sessions.delete_by_id", err)
	}

	record, err := s.load(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return StorageError("sessions.delete_by_id", s.client.Del(ctx, s.idKey(id.String())).Err())
		}
		return err
	}

	_, err = s.remove(ctx, record)
	return err
}

func (s *RedisSessions) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	ids, err := s.client.SMembers(ctx, s.userKey(userID.String())).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, StorageError("sessions.delete_by_user", err)
	}

	var total int64
	for _, id := range ids {
		token, err := s.client.Get(ctx, s.idKey(id)).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return total, StorageError("sessions.delete_by_user", err)
		}
		n, err := s.client.Del(ctx, s.tokenKey(token), s.idKey(id)).Result()
		if err != nil {
			return total, StorageError("sessions.delete_by_user", err)
		}
		if n > 0 {
			total++
		}
	}

	if err := s.client.Del(ctx, s.userKey(userID.String())).Err(); err != nil {
		return total, StorageError("sessions.delete_by_user", err)
	}
	return total, nil
}

// CountByUser returns the number of live sessions for userID
func (s *RedisSessions) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	ids, err := s.client.SMembers(ctx, s.userKey(userID.String())).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, StorageError("sessions.count_by_user", err)
	}

	count := 0
	for _, id := range ids {
		n, err := s.client.Exists(ctx, s.idKey(id)).Result()
		if err != nil {
			return 0, StorageError("sessions.count_by_user", err)
		}
		count += int(n)
	}
	return count, nil
}

func (s *RedisSessions) remove(ctx context.Context, record *storedSession) (int64, error) {
	var deleted *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, s.tokenKey(record.Token))
		pipe.Del(ctx, s.idKey(record.ID))
		pipe.SRem(ctx, s.userKey(record.UserID), record.ID)
		return nil
	})
	if err != nil {
		return 0, StorageError("sessions.delete", err)
	}
	return deleted.Val(), nil
}

func (r *storedSession) session() (*Session, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, StorageError("sessions.decode", err)
	}
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, StorageError("sessions.decode", err)
	}
	return &Session{
		ID:        id,
		UserID:    userID,
		Token:     r.Token,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.CreatedAt,
	}, nil
}
