package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"authsvc/internal/model"
)

// CredentialRepository persists password secrets keyed by user id.
type CredentialRepository interface {
	Create(ctx context.Context, credential *model.Credential) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Credential, error)
}

type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository builds a GORM-backed repository.
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Create(ctx context.Context, credential *model.Credential) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(credential).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *credentialRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Credential, error) {
	var credential model.Credential
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&credential).Error; err != nil {
		return nil, translate(err)
	}
	return &credential, nil
}
