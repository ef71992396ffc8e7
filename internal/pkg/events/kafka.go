package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"gosupply/internal/domain"
)

// messageWriter é a parte de *kafka.Writer usada aqui.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica eventos de item em um tópico, com o ID do item como chave
// (todos os eventos de um item caem na mesma partição, em ordem).
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

// NewKafkaPublisher cria o producer para os brokers e tópico informados.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}
	return &KafkaPublisher{writer: writer, timeout: 5 * time.Second}
}

// Publish serializa o evento em JSON e grava no tópico.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.SupplyEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("falha ao serializar evento %s: %w", event.Type, err)
	}

	message := kafka.Message{
		Key:   []byte(event.ItemID),
		Value: payload,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("falha ao gravar evento %s no kafka: %w", event.Type, err)
	}
	return nil
}

// Close faz flush das mensagens pendentes.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
