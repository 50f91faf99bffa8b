package repo

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/grocer-core-poc/server/internal/core/error"
)

// listCmdable implements the list commands the repository uses over a map.
type listCmdable struct {
	redis.Cmdable
	lists   map[string][]string
	ttls    map[string]time.Duration
	pushErr error
}

func newListCmdable() *listCmdable {
	return &listCmdable{lists: map[string][]string{}, ttls: map[string]time.Duration{}}
}

func (l *listCmdable) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	if l.pushErr != nil {
		return redis.NewIntResult(0, l.pushErr)
	}
	for _, v := range values {
		switch t := v.(type) {
		case []byte:
			l.lists[key] = append(l.lists[key], string(t))
		case string:
			l.lists[key] = append(l.lists[key], t)
		}
	}
	return redis.NewIntResult(int64(len(l.lists[key])), nil)
}

func (l *listCmdable) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	_, ok := l.lists[key]
	if ok {
		l.ttls[key] = ttl
	}
	return redis.NewBoolResult(ok, nil)
}

func (l *listCmdable) LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	return redis.NewStringSliceResult(append([]string(nil), l.lists[key]...), nil)
}

func (l *listCmdable) LLen(ctx context.Context, key string) *redis.IntCmd {
	return redis.NewIntResult(int64(len(l.lists[key])), nil)
}

func (l *listCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(l.lists, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisRepository(t *testing.T) {
	rdb := newListCmdable()
	r := NewRedisConversationRepository(rdb, 24*time.Hour)
	exerciseRepository(t, r)
	assert.Equal(t, 24*time.Hour, rdb.ttls["conversation:t2:messages"])
}

func TestRedisRepositoryWrapsErrors(t *testing.T) {
	rdb := newListCmdable()
	rdb.pushErr = errors.New("connection refused")
	r := NewRedisConversationRepository(rdb, 0)

	err := r.AddMessage(context.Background(), "t", schema.UserMessage("hi"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))
}
