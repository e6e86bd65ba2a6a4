package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plastics-backend/internal/apierror"
	"plastics-backend/internal/config"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// lockClient is the part of *redislock.Client the locker uses.
type lockClient interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error)
}

// BillLocker serialises HTTP edits of one bill across server instances.
// It is best effort: the database row locks stay the source of truth.
type BillLocker struct {
	client lockClient
	ttl    time.Duration
}

// NewBillLocker returns a no-op locker when client is nil.
func NewBillLocker(rdb *redis.Client, ttl time.Duration) *BillLocker {
	l := &BillLocker{ttl: ttl}
	if rdb != nil {
		l.client = redislock.New(rdb)
	}
	return l
}

// Lock returns a release func. A bill already locked by another request is a conflict;
// any other Redis failure is logged and the request proceeds unlocked.
func (l *BillLocker) Lock(ctx context.Context, kind string, id uint) (func(), error) {
	noop := func() {}
	if l == nil || l.client == nil {
		return noop, nil
	}

	key := fmt.Sprintf("lock:bill:%s:%d", kind, id)
	lock, err := l.client.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, apierror.Conflict(fmt.Sprintf("bill %d is being edited by another request, retry shortly", id))
	}
	if err != nil {
		config.GetLogger().WithFields(logrus.Fields{
			"key": key,
		}).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
		return noop, nil
	}

	return func() {
		// the request context may already be done
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			config.GetLogger().WithField("key", key).Warn("failed to release redis lock: " + err.Error())
		}
	}, nil
}
