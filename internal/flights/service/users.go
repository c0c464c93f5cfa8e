package flights

import (
	"context"
	"fmt"

	"ms-bookings/internal/events"
	"ms-bookings/internal/models"
)

func userNotFound(id string) error {
	return fmt.Errorf("%w: id=%s", models.ErrUserNotFound, id)
}

func (s *FlightService) loadUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.Users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, userNotFound(id)
	}
	return user, nil
}

func (s *FlightService) CreateUser(ctx context.Context, payload models.UserPayload) (*models.User, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var user models.User
	err := s.withLock(ctx, func() error {
		user = models.User{
			ID:        s.IDs.NewID(),
			Name:      payload.Name,
			Email:     payload.Email,
			Age:       payload.Age,
			CreatedAt: s.Clock.Now(),
		}
		return s.Users.SaveUser(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.Logger.Info("USER", fmt.Sprintf("User %s created", user.ID))
	s.publish(ctx, events.UserCreated, user.ID, &user)
	return &user, nil
}

func (s *FlightService) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user *models.User
	err := s.withLock(ctx, func() (err error) {
		user, err = s.loadUser(ctx, id)
		return err
	})
	return user, err
}

func (s *FlightService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.withLock(ctx, func() (err error) {
		users, err = s.Users.ListUsers(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// UpdateUser changes the user record only. Copies already embedded in
// flights keep the values they were booked with.
func (s *FlightService) UpdateUser(ctx context.Context, id string, payload models.UserPayload) (*models.User, error) {
	var user *models.User
	err := s.withLock(ctx, func() (err error) {
		user, err = s.loadUser(ctx, id)
		if err != nil {
			return err
		}
		if err := payload.Validate(); err != nil {
			return err
		}
		now := s.Clock.Now()
		user.Name = payload.Name
		user.Email = payload.Email
		user.Age = payload.Age
		user.UpdatedAt = &now
		return s.Users.SaveUser(ctx, *user)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("USER", fmt.Sprintf("User %s updated", id))
	s.publish(ctx, events.UserUpdated, id, user)
	return user, nil
}

// DeleteUser does not touch flights the user is booked on.
func (s *FlightService) DeleteUser(ctx context.Context, id string) (*models.User, error) {
	var removed *models.User
	err := s.withLock(ctx, func() (err error) {
		removed, err = s.Users.DeleteUser(ctx, id)
		if err == nil && removed == nil {
			err = userNotFound(id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("USER", fmt.Sprintf("User %s deleted", id))
	s.publish(ctx, events.UserDeleted, id, removed)
	return removed, nil
}
