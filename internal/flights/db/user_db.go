package db

import (
	"context"
	"fmt"

	"ms-bookings/internal/kv"
	"ms-bookings/internal/models"
	"ms-bookings/internal/repository"
)

type UserDB struct {
	Users *repository.Repository[models.User]
}

func NewUserDB(store kv.Store) *UserDB {
	return &UserDB{Users: repository.New[models.User](store, "user")}
}

func (d *UserDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, ok, err := d.Users.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (d *UserDB) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := d.Users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (d *UserDB) SaveUser(ctx context.Context, user models.User) error {
	if _, _, err := d.Users.Save(ctx, user.ID, user); err != nil {
		return fmt.Errorf("save user %s: %w", user.ID, err)
	}
	return nil
}

func (d *UserDB) DeleteUser(ctx context.Context, id string) (*models.User, error) {
	user, existed, err := d.Users.Erase(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete user %s: %w", id, err)
	}
	if !existed {
		return nil, nil
	}
	return &user, nil
}
