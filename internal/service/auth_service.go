package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"authsvc/internal/auth"
	apperrors "authsvc/internal/errors"
	"authsvc/internal/hasher"
	"authsvc/internal/metrics"
	"authsvc/internal/model"
	"authsvc/internal/repository"
)

// AuthService verifies credentials and issues tokens.
type AuthService interface {
	VerifyCredentials(ctx context.Context, email, password string) (*model.User, error)
	ProjectPrincipal(user *model.User) auth.Principal
	Login(ctx context.Context, email, password string) (token string, err error)
}

type authService struct {
	users        repository.UserRepository
	credentials  repository.CredentialRepository
	hasher       hasher.Hasher
	issuer       auth.TokenIssuer
	throttle     *auth.Throttle
	logger       *logrus.Logger
	storeTimeout time.Duration

	decoyMu     sync.Mutex
	decoySecret string
}

// NewAuthService creates a new authentication service. throttle may be nil.
func NewAuthService(
	users repository.UserRepository,
	credentials repository.CredentialRepository,
	h hasher.Hasher,
	issuer auth.TokenIssuer,
	throttle *auth.Throttle,
	logger *logrus.Logger,
	storeTimeout time.Duration,
) AuthService {
	return &authService{
		users:        users,
		credentials:  credentials,
		hasher:       h,
		issuer:       issuer,
		throttle:     throttle,
		logger:       logger,
		storeTimeout: storeTimeout,
	}
}

// VerifyCredentials returns the user owning email when password matches its
// stored secret. Unknown email, missing credential and wrong password all
// return apperrors.ErrInvalidCredentials.
func (s *authService) VerifyCredentials(ctx context.Context, email, password string) (*model.User, error) {
	email = NormalizeEmail(email)

	user, err := s.findUser(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.decoyVerify(ctx, password)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	credential, err := s.findCredential(ctx, user.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WithField("user_id", user.ID.String()).Warn("login for account without credential")
			s.decoyVerify(ctx, password)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, password, credential.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// ProjectPrincipal reduces a user to the identity carried in tokens.
func (s *authService) ProjectPrincipal(user *model.User) auth.Principal {
	return auth.Principal{ID: user.ID.String()}
}

// Login verifies credentials and returns a signed token for the user.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)

	if !s.throttle.Allowed(ctx, email) {
		return "", s.fail(metrics.OutcomeThrottled, apperrors.ErrTooManyAttempts)
	}

	user, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			s.throttle.Failed(ctx, email)
			return "", s.fail(metrics.OutcomeInvalid, err)
		}
		return "", s.fail(metrics.OutcomeError, err)
	}
	s.throttle.Succeeded(ctx, email)

	token, err := s.issuer.Issue(s.ProjectPrincipal(user))
	if err != nil {
		return "", s.fail(metrics.OutcomeError, fmt.Errorf("issue token: %w", err))
	}

	metrics.LoginsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID.String(),
		"outcome": metrics.OutcomeSuccess,
	}).Info("login succeeded")
	return token, nil
}

func (s *authService) findUser(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()
	return s.users.FindByEmail(ctx, email)
}

func (s *authService) findCredential(ctx context.Context, userID uuid.UUID) (*model.Credential, error) {
	ctx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()
	return s.credentials.FindByUserID(ctx, userID)
}

// decoyVerify spends one verification on a throwaway secret so that unknown
// emails take as long as wrong passwords.
func (s *authService) decoyVerify(ctx context.Context, password string) {
	secret, err := s.decoy(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("decoy secret unavailable")
		return
	}
	if _, err := s.hasher.Verify(ctx, password, secret); err != nil {
		s.logger.WithError(err).Warn("decoy verification failed")
	}
}

// decoy returns the cached decoy secret, hashing it on first use. A failed
// hash is not cached, so the next call tries again.
func (s *authService) decoy(ctx context.Context) (string, error) {
	s.decoyMu.Lock()
	defer s.decoyMu.Unlock()
	if s.decoySecret != "" {
		return s.decoySecret, nil
	}
	secret, err := s.hasher.Hash(context.WithoutCancel(ctx), uuid.NewString())
	if err != nil {
		return "", err
	}
	s.decoySecret = secret
	return secret, nil
}

func (s *authService) fail(outcome string, err error) error {
	metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	entry := s.logger.WithField("outcome", outcome)
	if apperrors.IsInternal(err) {
		entry.WithError(err).Error("login failed")
	} else {
		entry.Info("login rejected")
	}
	return err
}
