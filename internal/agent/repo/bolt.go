package repo

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"

	"github.com/grocer-core-poc/server/internal/agent/model"
	errx "github.com/grocer-core-poc/server/internal/core/error"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

var (
	bucketThreads     = []byte("threads")
	bucketThreadTouch = []byte("thread_touched")
)

// BoltConversationRepository keeps one nested bucket of messages per thread,
// keyed by an increasing sequence.
type BoltConversationRepository struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

// OpenBolt opens or creates the checkpoint file at path.
func OpenBolt(path string, ttl time.Duration) (*BoltConversationRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketThreads, bucketThreadTouch} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %q: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltConversationRepository{db: db, ttl: ttl, now: time.Now}, nil
}

func (r *BoltConversationRepository) Close() error {
	return r.db.Close()
}

func (r *BoltConversationRepository) AddMessage(_ context.Context, threadID string, message *schema.Message) error {
	data, err := sonic.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	err = r.db.Update(func(tx *bolt.Tx) error {
		if r.expired(tx, threadID) {
			if err := tx.Bucket(bucketThreads).DeleteBucket([]byte(threadID)); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
		}
		b, err := tx.Bucket(bucketThreads).CreateBucketIfNotExists([]byte(threadID))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		if err := b.Put(seqKey(seq), data); err != nil {
			return err
		}
		return r.touch(tx, threadID)
	})
	if err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to append message to bolt")
		return errx.WrapStore(err)
	}
	return nil
}

func (r *BoltConversationRepository) LoadHistory(_ context.Context, threadID string) (*model.ConversationHistory, error) {
	msgs := []*schema.Message{}
	err := r.db.View(func(tx *bolt.Tx) error {
		if r.expired(tx, threadID) {
			return nil
		}
		b := tx.Bucket(bucketThreads).Bucket([]byte(threadID))
		if b == nil {
			return nil
		}
		i := 0
		return b.ForEach(func(_, v []byte) error {
			var m schema.Message
			if err := sonic.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("unmarshal message at index %d: %w", i, err)
			}
			msgs = append(msgs, &m)
			i++
			return nil
		})
	})
	if err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to load conversation history from bolt")
		return nil, errx.WrapStore(err)
	}
	return &model.ConversationHistory{ThreadID: threadID, Messages: msgs}, nil
}

func (r *BoltConversationRepository) ClearHistory(_ context.Context, threadID string) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketThreads).DeleteBucket([]byte(threadID)); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		return tx.Bucket(bucketThreadTouch).Delete([]byte(threadID))
	})
	if err != nil {
		return errx.WrapStore(err)
	}
	return nil
}

func (r *BoltConversationRepository) GetMessageCount(_ context.Context, threadID string) (int, error) {
	n := 0
	err := r.db.View(func(tx *bolt.Tx) error {
		if r.expired(tx, threadID) {
			return nil
		}
		if b := tx.Bucket(bucketThreads).Bucket([]byte(threadID)); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	if err != nil {
		return 0, errx.WrapStore(err)
	}
	return n, nil
}

func (r *BoltConversationRepository) touch(tx *bolt.Tx, threadID string) error {
	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(r.now().UnixNano()))
	return tx.Bucket(bucketThreadTouch).Put([]byte(threadID), ts)
}

// expired reports whether the thread was last touched more than ttl ago.
func (r *BoltConversationRepository) expired(tx *bolt.Tx, threadID string) bool {
	if r.ttl <= 0 {
		return false
	}
	v := tx.Bucket(bucketThreadTouch).Get([]byte(threadID))
	if len(v) != 8 {
		return false
	}
	touched := time.Unix(0, int64(binary.BigEndian.Uint64(v)))
	return r.now().Sub(touched) > r.ttl
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

var _ model.ConversationRepository = (*BoltConversationRepository)(nil)
