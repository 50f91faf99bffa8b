package repo

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/grocer-core-poc/server/internal/agent/model"
)

// MemoryConversationRepository keeps checkpoints in process memory.
type MemoryConversationRepository struct {
	mu      sync.RWMutex
	threads map[string]*memoryThread
	ttl     time.Duration
	now     func() time.Time
}

type memoryThread struct {
	messages []*schema.Message
	touched  time.Time
}

func NewMemoryConversationRepository(ttl time.Duration) *MemoryConversationRepository {
	return &MemoryConversationRepository{threads: map[string]*memoryThread{}, ttl: ttl, now: time.Now}
}

func (r *MemoryConversationRepository) AddMessage(_ context.Context, threadID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.threads[threadID]
	if !ok || r.expired(t) {
		t = &memoryThread{}
		r.threads[threadID] = t
	}
	cp := *message
	t.messages = append(t.messages, &cp)
	t.touched = r.now()
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, threadID string) (*model.ConversationHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := []*schema.Message{}
	if t, ok := r.threads[threadID]; ok && !r.expired(t) {
		for _, m := range t.messages {
			cp := *m
			msgs = append(msgs, &cp)
		}
	}
	return &model.ConversationHistory{ThreadID: threadID, Messages: msgs}, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, threadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, threadID)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(_ context.Context, threadID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.threads[threadID]; ok && !r.expired(t) {
		return len(t.messages), nil
	}
	return 0, nil
}

func (r *MemoryConversationRepository) expired(t *memoryThread) bool {
	return r.ttl > 0 && r.now().Sub(t.touched) > r.ttl
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
