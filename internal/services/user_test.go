package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
)

func TestUserService_SaveUser(t *testing.T) {
	store := newMemoryUsers()
	svc := NewUserService(store)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	svc.newID = func() string { return "user-1" }

	saved, err := svc.SaveUser(context.Background(), models.User{
		FullName: "  Jane Doe ",
		Email:    " Jane@Example.COM ",
		Number:   " 01812345678",
	})
	if err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}
	if saved.ID != "user-1" || saved.Email != "jane@example.com" || saved.FullName != "Jane Doe" || saved.Number != "01812345678" {
		t.Errorf("saved = %+v", saved)
	}
	if !saved.CreatedAt.Equal(fixed) || !saved.UpdatedAt.Equal(fixed) {
		t.Errorf("timestamps = %v / %v", saved.CreatedAt, saved.UpdatedAt)
	}
}

func TestUserService_SaveUserValidation(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{"missing", ""},
		{"blank", "   "},
		{"no at", "jane.example.com"},
		{"no local part", "@example.com"},
		{"no domain", "jane@"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryUsers()
			_, err := NewUserService(store).SaveUser(context.Background(), models.User{Email: tt.email})

			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != "email" {
				t.Fatalf("expected an email ValidationError, got %v", err)
			}
			if HTTPStatus(err) != http.StatusBadRequest {
				t.Errorf("HTTPStatus = %d, want 400", HTTPStatus(err))
			}
			if len(store.byEmail) != 0 {
				t.Errorf("store written: %+v", store.byEmail)
			}
		})
	}
}

func TestUserService_SaveUserStoreError(t *testing.T) {
	store := newMemoryUsers()
	store.SaveErr = errors.New("disk full")

	_, err := NewUserService(store).SaveUser(context.Background(), models.User{Email: "jane@example.com"})
	if err == nil || HTTPStatus(err) != http.StatusInternalServerError {
		t.Fatalf("expected an internal error, got %v", err)
	}
}

func TestUserService_UserList(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, 100},
		{-1, 100},
		{25, 25},
		{500, 500},
		{501, 100},
	}
	for _, tt := range tests {
		store := newMemoryUsers()
		users, err := NewUserService(store).UserList(context.Background(), tt.limit)
		if err != nil {
			t.Fatalf("UserList(%d) failed: %v", tt.limit, err)
		}
		if users == nil {
			t.Errorf("UserList(%d) returned nil, want an empty slice", tt.limit)
		}
		if len(store.Limits) != 1 || store.Limits[0] != tt.want {
			t.Errorf("UserList(%d) used limit %v, want %d", tt.limit, store.Limits, tt.want)
		}
	}
}
