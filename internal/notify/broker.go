package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Event 推送给在线用户的一条事件
type Event struct {
	Name      string          `json:"name"` // 如 notification
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEvent 序列化 v 作为事件数据
func NewEvent(name string, v interface{}) (Event, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, Data: data, CreatedAt: time.Now()}, nil
}

// Broker 按用户 ID 的发布订阅
// 业务侧只调用 Publish，投递失败不影响业务结果
type Broker interface {
	Publish(ctx context.Context, userID int64, ev Event) error
	// Subscribe 返回事件通道与取消函数，取消后通道关闭
	Subscribe(userID int64) (<-chan Event, func())
	Close() error
}

// ==================== 进程内实现 ====================

const subscriberBuffer = 16

// MemoryBroker 单实例：每个订阅一个带缓冲通道，慢消费者丢弃事件
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[int64]map[uint64]chan Event
	nextID uint64
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[int64]map[uint64]chan Event)}
}

func (b *MemoryBroker) Publish(ctx context.Context, userID int64, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[userID] {
		select {
		case ch <- ev:
		default:
			log.Printf("[Notify] 用户 %d 订阅通道已满，丢弃事件 %s", userID, ev.Name)
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(userID int64) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.nextID++
	id := b.nextID
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[uint64]chan Event)
	}
	b.subs[userID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if subs, ok := b.subs[userID]; ok {
				if c, ok := subs[id]; ok {
					delete(subs, id)
					close(c)
				}
				if len(subs) == 0 {
					delete(b.subs, userID)
				}
			}
		})
	}
	return ch, cancel
}

// Subscribers 当前用户的订阅数
func (b *MemoryBroker) Subscribers(userID int64) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for userID, subs := range b.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(b.subs, userID)
	}
	return nil
}
