package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"authsvc/internal/config"
	"authsvc/internal/db"
	apperrors "authsvc/internal/errors"
	"authsvc/internal/hasher"
	"authsvc/internal/logging"
	"authsvc/internal/repository"
	"authsvc/internal/service"
)

// SeedUser is one entry of the seed file.
type SeedUser struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Username       string `json:"username"`
	Realm          string `json:"realm"`
	CustomProperty string `json:"customProperty"`
}

// seedResult counts outcomes of a seed run.
type seedResult struct {
	Created    int
	Duplicates int
	Failed     int
}

func main() {
	file := flag.String("file", "users.json", "path to a JSON array of users")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatalf("open seed file: %v", err)
	}
	defer f.Close()

	users, err := readSeedUsers(f)
	if err != nil {
		logger.Fatalf("read seed file: %v", err)
	}
	logger.Infof("loaded %d users from %s", len(users), *file)

	gormDB, err := db.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		logger.Fatalf("database init: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatalf("%v", err)
	}

	passwordHasher, err := hasher.New(hasher.Options{
		Algorithm:   cfg.HashAlgorithm,
		BcryptCost:  cfg.BcryptCost,
		Concurrency: cfg.HashConcurrency,
		Argon2: hasher.Argon2Params{
			MemoryKiB:   cfg.Argon2MemoryKiB,
			Iterations:  cfg.Argon2Iterations,
			Parallelism: cfg.Argon2Parallelism,
		},
	})
	if err != nil {
		logger.Fatalf("hasher init: %v", err)
	}

	signup := service.NewSignupService(
		repository.NewUserRepository(gormDB),
		repository.NewCredentialRepository(gormDB),
		repository.NewTransactor(gormDB),
		passwordHasher,
		logging.Discard(),
		cfg.StoreTimeout,
	)

	res := seedUsers(context.Background(), signup, users, logger)
	logger.WithFields(logrus.Fields{
		"created":    res.Created,
		"duplicates": res.Duplicates,
		"failed":     res.Failed,
	}).Info("seed completed")
	if res.Failed > 0 {
		os.Exit(1)
	}
}

func readSeedUsers(r io.Reader) ([]SeedUser, error) {
	var users []SeedUser
	if err := json.NewDecoder(r).Decode(&users); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return users, nil
}

// seedUsers registers every entry through the signup service so duplicate
// detection and hashing apply exactly as for HTTP signups.
func seedUsers(ctx context.Context, signup service.SignupService, users []SeedUser, logger *logrus.Logger) seedResult {
	var res seedResult
	for _, u := range users {
		_, err := signup.Register(ctx, service.SignupInput{
			Email:          u.Email,
			Password:       u.Password,
			Username:       u.Username,
			Realm:          u.Realm,
			CustomProperty: u.CustomProperty,
		})
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, apperrors.ErrDuplicateIdentity):
			res.Duplicates++
		default:
			logger.WithField("email", u.Email).WithError(err).Error("seed user failed")
			res.Failed++
		}
	}
	return res
}
