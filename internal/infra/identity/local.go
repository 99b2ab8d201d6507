package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bryanwahyu/design-alchemist/internal/application"
	"github.com/bryanwahyu/design-alchemist/internal/domain/account"
	domain "github.com/bryanwahyu/design-alchemist/internal/domain/identity"
)

const (
	issuer            = "design-alchemist"
	defaultTTL        = 24 * time.Hour
	minPasswordLength = 6
)

// LocalProvider signs users in against the account repository and issues HS256 session tokens.
type LocalProvider struct {
	accounts account.Repository
	revoked  domain.RevocationList
	secret   []byte
	ttl      time.Duration
	clock    application.Clock
}

// NewLocalProvider builds a provider; secret must be non-empty.
func NewLocalProvider(accounts account.Repository, revoked domain.RevocationList, secret string, ttl time.Duration) (*LocalProvider, error) {
	if secret == "" {
		return nil, errors.New("jwt secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &LocalProvider{
		accounts: accounts,
		revoked:  revoked,
		secret:   []byte(secret),
		ttl:      ttl,
		clock:    application.SystemClock{},
	}, nil
}

// WithClock overrides the time source (tests).
func (p *LocalProvider) WithClock(c application.Clock) *LocalProvider {
	if c != nil {
		p.clock = c
	}
	return p
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.Session{}, domain.ErrMissingCredentials
	}
	if len(password) < minPasswordLength {
		return domain.Session{}, fmt.Errorf("%w: at least %d characters", domain.ErrWeakPassword, minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Session{}, fmt.Errorf("hash password: %w", err)
	}
	acc := &account.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    p.clock.Now(),
	}
	if err := p.accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			return domain.Session{}, domain.ErrEmailTaken
		}
		return domain.Session{}, fmt.Errorf("create account: %w", err)
	}
	return p.issue(acc)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.Session{}, domain.ErrMissingCredentials
	}
	acc, err := p.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return domain.Session{}, domain.ErrInvalidCredentials
		}
		return domain.Session{}, fmt.Errorf("find account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	return p.issue(acc)
}

func (p *LocalProvider) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	c, err := p.parse(token)
	if err != nil {
		return nil, err
	}
	if p.revoked != nil {
		revoked, err := p.revoked.IsRevoked(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, domain.ErrUnauthenticated
		}
	}
	acc, err := p.accounts.FindByID(ctx, c.Subject)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return toUser(acc), nil
}

func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	c, err := p.parse(token)
	if err != nil {
		return err
	}
	if p.revoked == nil {
		return nil
	}
	until := p.clock.Now().Add(p.ttl)
	if c.ExpiresAt != nil {
		until = c.ExpiresAt.Time
	}
	return p.revoked.Revoke(ctx, c.ID, until)
}

func (p *LocalProvider) issue(acc *account.Account) (domain.Session, error) {
	now := p.clock.Now()
	exp := now.Add(p.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: acc.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   acc.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(p.secret)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return domain.Session{Token: signed, ExpiresAt: exp, User: *toUser(acc)}, nil
}

func (p *LocalProvider) parse(token string) (*claims, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(p.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	return &c, nil
}

func toUser(acc *account.Account) *domain.User {
	return &domain.User{ID: acc.ID, Email: acc.Email, CreatedAt: acc.CreatedAt}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
