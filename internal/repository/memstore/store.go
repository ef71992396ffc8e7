// Package memstore é o armazenamento em processo (STORAGE_DRIVER=memory).
// Uma única goroutine é dona do estado; todo acesso chega a ela por canal,
// então não há mutex e as mutações de um mesmo item nunca se sobrepõem.
package memstore

import (
	"context"
	"errors"
	"time"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
)

// ErrClosed é devolvido após Close.
var ErrClosed = errors.New("armazenamento em memória encerrado")

type state struct {
	items         map[string]domain.SupplyItem
	notifications map[string]domain.ScheduledNotification
	notifyVer     map[string]int // última versão de item aplicada aos alertas
	users         map[string]domain.User // por e-mail
}

type command struct {
	run  func(st *state)
	done chan struct{}
}

// Store possui a goroutine dona do estado.
type Store struct {
	commands  chan command
	quit      chan struct{}
	stopped   chan struct{}
	queueWait time.Duration
	now       func() time.Time
}

// New inicia a goroutine imediatamente.
func New() *Store {
	s := &Store{
		commands:  make(chan command),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
		queueWait: 2 * time.Second,
		now:       time.Now,
	}
	go s.loop()
	return s
}

func (s *Store) loop() {
	defer close(s.stopped)
	st := &state{
		items:         make(map[string]domain.SupplyItem),
		notifications: make(map[string]domain.ScheduledNotification),
		notifyVer:     make(map[string]int),
		users:         make(map[string]domain.User),
	}
	for {
		select {
		case cmd := <-s.commands:
			cmd.run(st)
			close(cmd.done)
		case <-s.quit:
			return
		}
	}
}

// exec envia fn à goroutine dona e espera a execução.
// Depois de aceito, o comando sempre termina, para que o chamador nunca veja meia mutação.
func (s *Store) exec(ctx context.Context, fn func(st *state)) error {
	cmd := command{run: fn, done: make(chan struct{})}

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.quit:
		return ErrClosed
	case <-time.After(s.queueWait):
		return apperror.NewInternalError("fila do armazenamento em memória ocupada", nil)
	}

	<-cmd.done
	return nil
}

// Close encerra a goroutine. Chamadas posteriores devolvem ErrClosed.
func (s *Store) Close() error {
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
	<-s.stopped
	return nil
}

// Items devolve a visão de itens (contrato do repositório de itens).
func (s *Store) Items() *ItemStore { return &ItemStore{s: s} }

// Notifications devolve a visão de alertas agendados.
func (s *Store) Notifications() *NotificationStore { return &NotificationStore{s: s} }

// Users devolve a visão de usuários.
func (s *Store) Users() *UserStore { return &UserStore{s: s} }
