package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
)

// UserStore keeps candidate profiles. SaveUser inserts a profile or updates
// the one with the same email; empty fields leave the stored values alone.
type UserStore interface {
	SaveUser(ctx context.Context, user *models.User) (*models.User, error)
	ListUsers(ctx context.Context, limit int) ([]models.User, error)
}

type UserService struct {
	store UserStore
	now   func() time.Time
	newID func() string
}

func NewUserService(store UserStore) *UserService {
	return &UserService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func (s *UserService) SaveUser(ctx context.Context, user models.User) (*models.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.FullName = strings.TrimSpace(user.FullName)
	user.Number = strings.TrimSpace(user.Number)
	user.Address = strings.TrimSpace(user.Address)
	if user.Email == "" {
		return nil, invalid("email", "is required")
	}
	if at := strings.Index(user.Email, "@"); at <= 0 || at == len(user.Email)-1 {
		return nil, invalid("email", "is not a valid address")
	}

	now := s.now()
	user.ID = s.newID()
	user.CreatedAt = now
	user.UpdatedAt = now

	saved, err := s.store.SaveUser(ctx, &user)
	if err != nil {
		log.Printf("[statusd] failed to save user %s: %v", maskEmail(user.Email), err)
		return nil, errors.Wrap(err, "save user")
	}
	log.Printf("[statusd] user %s saved", maskEmail(saved.Email))
	return saved, nil
}

func (s *UserService) UserList(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	users, err := s.store.ListUsers(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}
