package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"authsvc/internal/cache"
	"authsvc/internal/model"
	"authsvc/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService reads user profiles.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type userService struct {
	repo         repository.UserRepository
	cache        *cache.Client
	storeTimeout time.Duration
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client, storeTimeout time.Duration) UserService {
	return &userService{repo: repo, cache: cache, storeTimeout: storeTimeout}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()
	user, err := s.repo.FindByID(storeCtx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}
