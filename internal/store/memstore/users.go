package memstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/models"
	"marketplace/internal/store"
)

type UserRepo struct{ s *Store }

func (r *UserRepo) Insert(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users.rows {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	assignID(&user.ID)
	stamp(&user.CreatedAt)
	stamp(&user.UpdatedAt)
	r.s.users.put(user.ID, *user)
	return nil
}

func (r *UserRepo) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users.rows[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (r *UserRepo) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.users.rows[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, u := range r.s.users.rows {
		if id != user.ID && u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = now()
	r.s.users.put(user.ID, *user)
	return nil
}

func (r *UserRepo) UsernamesByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	names := make(map[primitive.ObjectID]string, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users.rows[id]; ok {
			names[id] = u.Username
		}
	}
	return names, nil
}
