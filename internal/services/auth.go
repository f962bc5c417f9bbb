package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"confcentral/internal/datastore"
	"confcentral/internal/domain"
)

const (
	loginCodeLength = 6
	loginCodeTTL    = 10 * time.Minute
	tokenExpiry     = 24 * time.Hour
)

type authService struct {
	store          datastore.Store
	emailService   domain.EmailService
	hasher         domain.CodeHasher
	issuer         domain.TokenIssuer
	contextTimeout time.Duration
}

// NewAuthService creates the passwordless login flow service.
func NewAuthService(store datastore.Store, emailService domain.EmailService, hasher domain.CodeHasher, issuer domain.TokenIssuer, timeout time.Duration) domain.AuthService {
	return &authService{
		store:          store,
		emailService:   emailService,
		hasher:         hasher,
		issuer:         issuer,
		contextTimeout: timeout,
	}
}

func generateLoginCode() (string, error) {
	max := big.NewInt(10)
	b := make([]byte, loginCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = byte('0' + n.Int64())
	}
	return string(b), nil
}

func loginCodeKey(email string) *datastore.Key {
	return datastore.NameKey(domain.KindLoginCode, email, nil)
}

func (s *authService) RequestLoginCode(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: valid email required", domain.ErrInvalidInput)
	}

	code, err := generateLoginCode()
	if err != nil {
		return fmt.Errorf("generate login code: %w", err)
	}
	hash, err := s.hasher.Hash(code)
	if err != nil {
		return fmt.Errorf("hash login code: %w", err)
	}

	e := datastore.NewEntity(loginCodeKey(email))
	e.Props["codeHash"] = hash
	e.Props["expiresAt"] = time.Now().Add(loginCodeTTL).Unix()
	if err := s.store.Put(ctx, e); err != nil {
		return fmt.Errorf("store login code: %w", err)
	}

	return s.emailService.SendLoginCode(ctx, &domain.LoginCodeEmailData{Email: email, Code: code})
}

func (s *authService) VerifyLoginCode(ctx context.Context, email, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = strings.ToLower(strings.TrimSpace(email))
	e, err := s.store.Get(ctx, loginCodeKey(email))
	if err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return "", domain.ErrUnauthorized
		}
		return "", fmt.Errorf("get login code: %w", err)
	}
	expiresAt, _ := e.Props["expiresAt"].(int64)
	hash, _ := e.Props["codeHash"].(string)
	if time.Now().Unix() > expiresAt {
		return "", domain.ErrUnauthorized
	}
	if err := s.hasher.Compare(hash, code); err != nil {
		return "", domain.ErrUnauthorized
	}

	// Codes are single use.
	if err := s.store.Delete(ctx, loginCodeKey(email)); err != nil {
		return "", fmt.Errorf("consume login code: %w", err)
	}

	// The email doubles as the stable user id.
	token, err := s.issuer.Issue(email, email, tokenExpiry)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
