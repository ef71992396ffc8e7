package events

import (
	"context"
	"errors"

	"gosupply/internal/domain"
	"gosupply/internal/pkg/logger"
)

// Publisher entrega eventos de item a um destino (Kafka, WebSocket, ...).
type Publisher interface {
	Publish(ctx context.Context, event domain.SupplyEvent) error
	Close() error
}

// Recorder recebe o resultado de cada publicação (implementado por metrics.Metrics).
type Recorder interface {
	EventPublished(sink string, err error)
}

type sink struct {
	name string
	pub  Publisher
}

// Fanout publica cada evento em todos os destinos registrados.
// Falha de um destino não impede os demais.
type Fanout struct {
	sinks    []sink
	recorder Recorder
	logger   logger.Logger
}

// NewFanout cria um Fanout vazio; recorder pode ser nil.
func NewFanout(recorder Recorder, log logger.Logger) *Fanout {
	return &Fanout{recorder: recorder, logger: log}
}

// Add registra um destino com um nome usado nos logs e métricas.
func (f *Fanout) Add(name string, pub Publisher) {
	f.sinks = append(f.sinks, sink{name: name, pub: pub})
}

// Publish entrega o evento a todos os destinos e junta os erros.
func (f *Fanout) Publish(ctx context.Context, event domain.SupplyEvent) error {
	var errs []error
	for _, s := range f.sinks {
		err := s.pub.Publish(ctx, event)
		if f.recorder != nil {
			f.recorder.EventPublished(s.name, err)
		}
		if err != nil {
			f.logger.Warn("Falha ao publicar evento.", map[string]interface{}{
				"sink": s.name, "type": event.Type, "item_id": event.ItemID, "error": err.Error(),
			})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close fecha todos os destinos.
func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.pub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
