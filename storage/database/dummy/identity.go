package dummydb

import (
	"context"
	"strings"

	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/profile"
)

func (repo *IdentityRepository) CreateUser(_ context.Context, usr identity.User) (identity.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, u := range repo.db.users {
		if strings.EqualFold(u.Email, usr.Email) {
			return identity.User{}, identity.ErrEmailExists
		}
	}
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo *IdentityRepository) GetUserByID(_ context.Context, id string) (identity.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return usr, nil
	}
	return identity.User{}, identity.ErrNotFound
}

func (repo *IdentityRepository) GetUserByEmail(_ context.Context, email string) (identity.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.users {
		if strings.EqualFold(usr.Email, email) {
			return usr, nil
		}
	}
	return identity.User{}, identity.ErrNotFound
}

func (repo *IdentityRepository) UpdateUser(_ context.Context, usr identity.User) (identity.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return identity.User{}, identity.ErrNotFound
	}
	orig.PasswordHash = usr.PasswordHash
	orig.Metadata = usr.Metadata
	orig.UpdatedAt = usr.UpdatedAt
	orig.LastSignInAt = usr.LastSignInAt
	repo.db.users[usr.ID] = orig
	return orig, nil
}

func (repo *IdentityRepository) CreateSession(_ context.Context, sess identity.Session) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.users[sess.UserID]; !ok {
		return identity.ErrNotFound
	}
	repo.db.sessions[sess.ID] = sess
	return nil
}

func (repo *IdentityRepository) GetSession(_ context.Context, id string) (identity.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sess, ok := repo.db.sessions[id]; ok {
		return sess, nil
	}
	return identity.Session{}, identity.ErrNotFound
}

func (repo *IdentityRepository) DeleteSession(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.sessions[id]; !ok {
		return identity.ErrNotFound
	}
	delete(repo.db.sessions, id)
	return nil
}

func (repo *ProfileRepository) CreateTag(_ context.Context, tag profile.Tag) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.profiles[tag.UserID]; ok {
		return profile.ErrExists
	}
	repo.db.profiles[tag.UserID] = tag
	return nil
}

func (repo *ProfileRepository) GetTag(_ context.Context, userID string) (profile.Tag, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if tag, ok := repo.db.profiles[userID]; ok {
		return tag, nil
	}
	return profile.Tag{}, profile.ErrNotFound
}
