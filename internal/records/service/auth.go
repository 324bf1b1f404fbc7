package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/store"
	"github.com/folioworks/folio/pkg/cryptox"
	"github.com/folioworks/folio/pkg/jwtx"
	"github.com/folioworks/folio/pkg/slogx"
)

// CredentialHasher is the outbound hashing collaborator. The service layer
// never sees hash internals; it only asks for an opaque encoding and a
// match/no-match verdict.
type CredentialHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encoded string) error
}

// argonHasher adapts pkg/cryptox to the CredentialHasher contract.
type argonHasher struct{}

func (argonHasher) Hash(plain string) (string, error) { return cryptox.HashPassword(plain) }

func (argonHasher) Verify(plain, encoded string) error {
	return cryptox.VerifyPassword(plain, encoded)
}

// DefaultHasher returns the Argon2id hasher backed by pkg/cryptox.
func DefaultHasher() CredentialHasher { return argonHasher{} }

// AuthService authenticates credential pairs against stored accounts and
// mints access tokens for the transport layer.
type AuthService struct {
	Store    store.Store
	Hasher   CredentialHasher
	Signer   jwtx.Signer
	Issuer   string
	TokenTTL time.Duration
}

func NewAuth(st store.Store, signer jwtx.Signer, issuer string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}
	return &AuthService{
		Store:    st,
		Hasher:   DefaultHasher(),
		Signer:   signer,
		Issuer:   issuer,
		TokenTTL: ttl,
	}
}

// Authenticate verifies the credential pair and returns the sanitized
// account: the credential hash never leaves this method. Misses and
// mismatches are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, email, credential string) (domain.Account, error) {
	log := slogx.FromContext(ctx)

	email = strings.TrimSpace(email)
	if email == "" || credential == "" {
		return domain.Account{}, ErrInvalidCredentials
	}

	// The lookup deliberately spans all lifecycle states: a soft-deleted
	// account can still authenticate.
	account, err := s.Store.Accounts().GetByEmail(ctx, email, domain.IncludeDeleted)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("authentication attempt for unknown email")
			return domain.Account{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch account for authentication", slog.Any("error", err))
		return domain.Account{}, err
	}

	if err := s.Hasher.Verify(credential, account.CredentialHash); err != nil {
		log.Warn("authentication failed",
			slog.Int64("account_id", account.ID),
			slog.Any("error", err),
		)
		return domain.Account{}, ErrInvalidCredentials
	}

	account.CredentialHash = ""
	return account, nil
}

// Token is a minted access token plus the metadata the transport layer
// serializes alongside it.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int // seconds
}

// Login authenticates the credential pair and mints an access token carrying
// the account id, handle, and role.
func (s *AuthService) Login(ctx context.Context, email, credential string) (domain.Account, Token, error) {
	log := slogx.FromContext(ctx)

	account, err := s.Authenticate(ctx, email, credential)
	if err != nil {
		return domain.Account{}, Token{}, err
	}

	claims := jwtx.NewAccessClaims(
		strconv.FormatInt(account.ID, 10),
		account.Handle,
		account.Role.String(),
		s.TokenTTL,
		s.Issuer,
		time.Now(),
	)
	raw, err := s.Signer.Sign(claims)
	if err != nil {
		log.Error("failed to sign access token", slog.Any("error", err))
		return domain.Account{}, Token{}, err
	}

	log.Info("account logged in", slog.Int64("account_id", account.ID))
	return account, Token{
		AccessToken: raw,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.TokenTTL.Seconds()),
	}, nil
}
