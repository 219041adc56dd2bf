// Package events publica los movimientos confirmados del libro hacia Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-fefo/internal/application/inventory"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
)

var _ inventory.MovePublisher = (*KafkaPublisher)(nil)

// MoveEvent payload publicado por cada movimiento confirmado.
type MoveEvent struct {
	MoveID    string          `json:"move_id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	MoveType  string          `json:"move_type"`
	Reference string          `json:"reference"`
	BatchID   *int64          `json:"batch_id,omitempty"`
	CreatedBy string          `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// kafkaMessageWriter abstrae kafka.Writer para tests.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher escribe un mensaje por movimiento, con el producto como clave
// para conservar el orden por producto dentro de la partición.
type KafkaPublisher struct {
	writer  kafkaMessageWriter
	timeout time.Duration
}

const publishBatchTimeout = 10 * time.Millisecond

// NewKafkaPublisher crea el publicador sobre la lista de brokers host:port.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			// PublishMove es síncrono tras cada commit: no esperar a llenar un lote.
			BatchTimeout: publishBatchTimeout,
		},
		timeout: 5 * time.Second,
	}
}

// NewKafkaPublisherWith solo para tests: inyecta un writer falso.
func NewKafkaPublisherWith(w kafkaMessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: time.Second}
}

// PublishMove serializa el movimiento y lo escribe de forma síncrona.
func (p *KafkaPublisher) PublishMove(ctx context.Context, move *entity.StockMove) error {
	if move == nil {
		return nil
	}
	b, err := json.Marshal(toEvent(move))
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}
	// Un broker lento no debe retener la respuesta HTTP más allá del timeout.
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(move.ProductID),
		Value: b,
		Headers: []kafka.Header{
			{Key: "move_type", Value: []byte(move.MoveType)},
		},
	})
	if err != nil {
		return fmt.Errorf("events: publicar movimiento %s: %w", move.ID, err)
	}
	return nil
}

// Close vacía y cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func toEvent(m *entity.StockMove) MoveEvent {
	return MoveEvent{
		MoveID:    m.ID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		MoveType:  m.MoveType,
		Reference: m.Reference,
		BatchID:   m.BatchID,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt.UTC(),
	}
}
