package services

import (
	"context"
	"log"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
)

var ErrProfileUpdate = errors.New("user update failed")

// ProfileService forwards profile updates from the web app to the store.
type ProfileService struct {
	backend *BackendClient
}

func NewProfileService(backend *BackendClient) *ProfileService {
	return &ProfileService{backend: backend}
}

func (s *ProfileService) UpdateUser(ctx context.Context, user models.User) (*models.User, error) {
	code, body, err := s.backend.call(ctx, http.MethodPost, "/users", user)
	if err != nil {
		log.Printf("[profile] update request failed: %v", err)
		return nil, upstream(ErrProfileUpdate, "update user", err)
	}
	if !isSuccess(code) {
		log.Printf("[profile] update failed with status %d: %s", code, snippet(body))
		return nil, &UpstreamError{Kind: ErrProfileUpdate, Op: "update user", StatusCode: code}
	}

	var saved models.User
	if err := json.Unmarshal(body, &saved); err != nil {
		return nil, upstream(ErrProfileUpdate, "update user", errors.Wrap(err, "decode response"))
	}
	return &saved, nil
}
