package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// envelope Kafka 消息体
type envelope struct {
	UserID int64 `json:"user_id"`
	Event  Event `json:"event"`
}

// KafkaBroker 多实例：发布写入 topic（按用户 ID 分区），
// 每个实例用独立消费组读取全量消息，再扇出给本地订阅者
type KafkaBroker struct {
	writer *kafka.Writer
	reader *kafka.Reader
	local  *MemoryBroker

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewKafkaBroker(cfg KafkaConfig) (*KafkaBroker, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka brokers/topic 未配置")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     "hualang-notify-" + uuid.NewString(),
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    1 << 20,
	})

	return &KafkaBroker{writer: w, reader: r, local: NewMemoryBroker()}, nil
}

// Start 启动消费循环
func (b *KafkaBroker) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(ctx)
	}()
	log.Printf("[Notify] Kafka 消费已启动 topic=%s", b.reader.Config().Topic)
}

func (b *KafkaBroker) consume(ctx context.Context) {
	for {
		msg, err := b.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("[Notify] 读取 Kafka 消息失败: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		userID, ev, err := decodeEnvelope(msg.Value)
		if err != nil {
			log.Printf("[Notify] 消息解析失败 offset=%d: %v", msg.Offset, err)
			continue
		}
		_ = b.local.Publish(ctx, userID, ev)
	}
}

func (b *KafkaBroker) Publish(ctx context.Context, userID int64, ev Event) error {
	value, err := encodeEnvelope(userID, ev)
	if err != nil {
		return err
	}
	return b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(userID, 10)),
		Value: value,
	})
}

func (b *KafkaBroker) Subscribe(userID int64) (<-chan Event, func()) {
	return b.local.Subscribe(userID)
}

func (b *KafkaBroker) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()

	var errs []error
	if err := b.writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("关闭 writer: %w", err))
	}
	if err := b.reader.Close(); err != nil {
		errs = append(errs, fmt.Errorf("关闭 reader: %w", err))
	}
	_ = b.local.Close()
	return errors.Join(errs...)
}

func encodeEnvelope(userID int64, ev Event) ([]byte, error) {
	return json.Marshal(envelope{UserID: userID, Event: ev})
}

func decodeEnvelope(value []byte) (int64, Event, error) {
	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return 0, Event{}, err
	}
	if env.UserID <= 0 {
		return 0, Event{}, fmt.Errorf("无效的用户 ID: %d", env.UserID)
	}
	return env.UserID, env.Event, nil
}
