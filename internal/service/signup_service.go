package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "authsvc/internal/errors"
	"authsvc/internal/hasher"
	"authsvc/internal/metrics"
	"authsvc/internal/model"
	"authsvc/internal/repository"
)

// SignupInput carries profile fields and the plaintext password of a new user.
type SignupInput struct {
	Email          string
	Password       string
	Username       string
	Realm          string
	CustomProperty string
}

func (in SignupInput) user(email string) *model.User {
	user := &model.User{
		Email:    email,
		Username: in.Username,
		Realm:    in.Realm,
	}
	if in.CustomProperty != "" {
		user.Extension = &model.UserExtension{CustomProperty: in.CustomProperty}
	}
	return user
}

// SignupService registers users.
type SignupService interface {
	Register(ctx context.Context, in SignupInput) (*model.User, error)
}

type signupService struct {
	users        repository.UserRepository
	credentials  repository.CredentialRepository
	tx           repository.Transactor
	hasher       hasher.Hasher
	logger       *logrus.Logger
	storeTimeout time.Duration
}

// NewSignupService creates a signup service. With a non-nil tx the user and
// credential writes commit together; with nil they are independent writes
// and a failed credential write yields *apperrors.PartialSignupError.
func NewSignupService(
	users repository.UserRepository,
	credentials repository.CredentialRepository,
	tx repository.Transactor,
	h hasher.Hasher,
	logger *logrus.Logger,
	storeTimeout time.Duration,
) SignupService {
	return &signupService{
		users:        users,
		credentials:  credentials,
		tx:           tx,
		hasher:       h,
		logger:       logger,
		storeTimeout: storeTimeout,
	}
}

// Register checks the email is free, hashes the password and writes the
// user and its credential. The returned user never carries secret material.
func (s *signupService) Register(ctx context.Context, in SignupInput) (*model.User, error) {
	email := NormalizeEmail(in.Email)

	taken, err := s.emailTaken(ctx, email)
	if err != nil {
		return nil, s.fail(metrics.OutcomeError, fmt.Errorf("check email: %w", err))
	}
	if taken {
		return nil, s.fail(metrics.OutcomeDuplicate, apperrors.ErrDuplicateIdentity)
	}

	// hash before any write so a crypto failure cannot leave an orphan
	secret, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, s.fail(metrics.OutcomeError, fmt.Errorf("hash password: %w", err))
	}

	user := in.user(email)
	if s.tx != nil {
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context, users repository.UserRepository, credentials repository.CredentialRepository) error {
			return s.write(ctx, users, credentials, user, secret)
		})
	} else {
		err = s.write(ctx, s.users, s.credentials, user, secret)
	}
	if err != nil {
		var partial *apperrors.PartialSignupError
		switch {
		case errors.As(err, &partial):
			s.logger.WithFields(logrus.Fields{
				"user_id": partial.UserID.String(),
				"outcome": metrics.OutcomePartial,
			}).WithError(partial.Err).Error("user created without credential, needs reconciliation")
			metrics.SignupsTotal.WithLabelValues(metrics.OutcomePartial).Inc()
			return nil, err
		case errors.Is(err, apperrors.ErrDuplicateIdentity):
			return nil, s.fail(metrics.OutcomeDuplicate, apperrors.ErrDuplicateIdentity)
		default:
			return nil, s.fail(metrics.OutcomeError, err)
		}
	}

	metrics.SignupsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID.String(),
		"outcome": metrics.OutcomeSuccess,
	}).Info("user registered")
	return user, nil
}

func (s *signupService) emailTaken(ctx context.Context, email string) (bool, error) {
	ctx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return existing != nil, nil
}

func (s *signupService) write(ctx context.Context, users repository.UserRepository, credentials repository.CredentialRepository, user *model.User, secret string) error {
	userCtx, cancel := storeContext(ctx, s.storeTimeout)
	err := users.Create(userCtx, user)
	cancel()
	if err != nil {
		// the unique index catches signups racing past emailTaken
		if errors.Is(err, apperrors.ErrDuplicateIdentity) {
			return apperrors.ErrDuplicateIdentity
		}
		return fmt.Errorf("create user: %w", err)
	}

	credCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()
	credential := &model.Credential{UserID: user.ID, PasswordHash: secret}
	if err := credentials.Create(credCtx, credential); err != nil {
		if s.tx != nil {
			return fmt.Errorf("create credential: %w", err)
		}
		return &apperrors.PartialSignupError{UserID: user.ID, Err: err}
	}
	return nil
}

func (s *signupService) fail(outcome string, err error) error {
	metrics.SignupsTotal.WithLabelValues(outcome).Inc()
	entry := s.logger.WithField("outcome", outcome)
	if apperrors.IsInternal(err) {
		entry.WithError(err).Error("signup failed")
	} else {
		entry.WithError(err).Info("signup rejected")
	}
	return err
}
