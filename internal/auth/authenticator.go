package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"college/internal/apperr"
	"college/internal/domain"
	"college/internal/repository"
)

// Authenticator checks credentials against stored accounts.
type Authenticator struct {
	txManager repository.TxManager
}

func NewAuthenticator(txManager repository.TxManager) *Authenticator {
	return &Authenticator{txManager: txManager}
}

// Authenticate reports whether password matches the account's bcrypt hash.
// An unknown username is not an error; it simply does not authenticate.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (domain.Account, bool, error) {
	var account domain.Account
	err := a.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		account, err = repos.Accounts.GetByUsername(ctx, username)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, false, nil
	}
	if err != nil {
		return domain.Account{}, false, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.Account{}, false, nil
		}
		return domain.Account{}, false, err
	}
	return account, true, nil
}

// Register stores a new account with a hashed password.
func (a *Authenticator) Register(ctx context.Context, username, password, role string) (domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.Account{}, fmt.Errorf("username and password are required: %w", apperr.ErrInvalidField)
	}
	if role != RoleFaculty && role != RoleAdmin {
		return domain.Account{}, fmt.Errorf("role %q: %w", role, apperr.ErrInvalidField)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return domain.Account{}, err
	}

	var created domain.Account
	err = a.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		created, err = repos.Accounts.Create(ctx, domain.Account{
			Username:     username,
			PasswordHash: hash,
			Role:         role,
		})
		return err
	})
	return created, err
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
