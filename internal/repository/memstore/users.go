package memstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
)

// UserStore guarda usuários no Store, indexados por e-mail.
type UserStore struct {
	s *Store
}

func (r *UserStore) Save(ctx context.Context, user domain.User) (domain.User, error) {
	var opErr error
	err := r.s.exec(ctx, func(st *state) {
		if _, exists := st.users[user.Email]; exists {
			opErr = apperror.NewConflictError(fmt.Sprintf("O email '%s' já está em uso.", user.Email))
			return
		}
		user.ID = uuid.NewString()
		user.CreatedAt = r.s.now()
		user.UpdatedAt = user.CreatedAt
		st.users[user.Email] = user
	})
	if err != nil {
		return domain.User{}, err
	}
	if opErr != nil {
		return domain.User{}, opErr
	}
	return user, nil
}

func (r *UserStore) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	var (
		user domain.User
		ok   bool
	)
	err := r.s.exec(ctx, func(st *state) {
		user, ok = st.users[email]
	})
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com email '%s' não encontrado", email))
	}
	return user, nil
}
