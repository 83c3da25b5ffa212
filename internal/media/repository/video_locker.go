package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"catalog_media_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const videoLockPrefix = "media:video-lock:"

// ErrLockTimeout 等不到 video lock
var ErrLockTimeout = errors.New("video lock timeout")

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// LocalVideoLocker in-process keyed mutex, 單一 instance 部署時使用
type LocalVideoLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

// NewLocalVideoLocker create LocalVideoLocker
func NewLocalVideoLocker() *LocalVideoLocker {
	return &LocalVideoLocker{locks: make(map[string]*lockEntry)}
}

func (l *LocalVideoLocker) Lock(ctx context.Context, videoID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[videoID]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		l.locks[videoID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(videoID, e)
		return nil, fmt.Errorf("video[%s]: %w: %v", videoID, ErrLockTimeout, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(videoID, e)
		})
	}, nil
}

func (l *LocalVideoLocker) release(videoID string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, videoID)
	}
}

// 只刪除自己持有的 lock
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

type redisVideoLocker struct {
	client     *redis.Client
	ttl        time.Duration
	retryDelay time.Duration
}

// NewRedisVideoLocker create VideoLocker shared across instances (SET NX PX)
func NewRedisVideoLocker(client *redis.Client, ttl time.Duration) VideoLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisVideoLocker{
		client:     client,
		ttl:        ttl,
		retryDelay: 50 * time.Millisecond,
	}
}

func (l *redisVideoLocker) Lock(ctx context.Context, videoID string) (func(), error) {
	key := videoLockPrefix + videoID
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("video[%s]: %w: %v", videoID, ErrLockTimeout, ctx.Err())
			}
			return nil, fmt.Errorf("redis lock video[%s]: %w", videoID, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("video[%s]: %w: %v", videoID, ErrLockTimeout, ctx.Err())
		case <-time.After(l.retryDelay):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 呼叫端的 ctx 可能已取消, 釋放用獨立的 timeout
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
				logger.Log.Warn("redis unlock failed", zap.String("video_id", videoID), zap.Error(err))
			}
		})
	}, nil
}
