package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	accountdomain "github.com/filmdoms/community/internal/account/domain"
	"github.com/filmdoms/community/internal/common/clock"
	"github.com/filmdoms/community/internal/common/constants"
	commoncrypto "github.com/filmdoms/community/internal/common/crypto"
	commonerrors "github.com/filmdoms/community/internal/common/errors"
	"github.com/filmdoms/community/internal/common/jwtverify"
	"github.com/filmdoms/community/internal/observability/metrics"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
}

type Claims struct {
	jwt.RegisteredClaims
	Type      string             `json:"typ"`
	Role      accountdomain.Role `json:"role,omitempty"`
	AccountID int64              `json:"aid,omitempty"`
}

// Codec mints and verifies HS256 tokens. It holds no mutable state.
type Codec struct {
	cfg         Config
	clock       clock.Clock
	idGenerator commoncrypto.IDGenerator
	parser      *jwt.Parser
}

func NewCodec(cfg Config, c clock.Clock, idGenerator commoncrypto.IDGenerator) (*Codec, error) {
	if len(cfg.Secret) < constants.JWTSecretMinLength {
		return nil, commonerrors.ErrInvalidJWTSecret.WithCause(fmt.Errorf("got %d bytes", len(cfg.Secret)))
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, commonerrors.ErrInvalidConfig.WithCause(
			fmt.Errorf("token TTLs must be positive: access=%s refresh=%s", cfg.AccessTTL, cfg.RefreshTTL))
	}
	if c == nil {
		c = clock.NewRealClock()
	}
	if idGenerator == nil {
		idGenerator = commoncrypto.NewUUIDGenerator()
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	cfg.Secret = secret

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.Now),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Codec{
		cfg:         cfg,
		clock:       c,
		idGenerator: idGenerator,
		parser:      jwt.NewParser(opts...),
	}, nil
}

func (c *Codec) RefreshTTL() time.Duration {
	return c.cfg.RefreshTTL
}

func (c *Codec) CreateAccessToken(subject string, role accountdomain.Role) (string, error) {
	tok, err := c.sign(subject, TypeAccess, role, 0, c.cfg.AccessTTL)
	if err != nil {
		return "", err
	}
	metrics.AccessTokensIssued.Inc()
	return tok, nil
}

func (c *Codec) CreateRefreshToken(subject string, accountID int64, role accountdomain.Role) (string, error) {
	tok, err := c.sign(subject, TypeRefresh, role, accountID, c.cfg.RefreshTTL)
	if err != nil {
		return "", err
	}
	metrics.RefreshTokensIssued.Inc()
	return tok, nil
}

func (c *Codec) sign(subject, typ string, role accountdomain.Role, accountID int64, ttl time.Duration) (string, error) {
	jti, err := c.idGenerator.NewID()
	if err != nil {
		return "", fmt.Errorf("failed to generate token id: %w", err)
	}

	now := c.clock.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type:      typ,
		Role:      role,
		AccountID: accountID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Parse verifies signature, algorithm and expiry and returns the claims.
func (c *Codec) Parse(tokenString string) (Claims, error) {
	metrics.JWTValidationsTotal.Inc()

	var claims Claims
	parsed, err := c.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return c.cfg.Secret, nil
	})
	if err != nil {
		metrics.JWTValidationsFailed.Inc()
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken.WithCause(err)
		}
		return Claims{}, ErrInvalidToken.WithCause(err)
	}
	if !parsed.Valid || claims.Subject == "" {
		metrics.JWTValidationsFailed.Inc()
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (c *Codec) GetSubject(tokenString string) (string, error) {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (c *Codec) ParseAccess(tokenString string) (Claims, error) {
	return c.parseTyped(tokenString, TypeAccess)
}

func (c *Codec) ParseRefresh(tokenString string) (Claims, error) {
	claims, err := c.parseTyped(tokenString, TypeRefresh)
	if err != nil {
		return Claims{}, err
	}
	if claims.AccountID <= 0 {
		return Claims{}, ErrInvalidToken.WithCause(errors.New("refresh token carries no account id"))
	}
	return claims, nil
}

func (c *Codec) parseTyped(tokenString, typ string) (Claims, error) {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return Claims{}, err
	}
	if claims.Type != typ {
		return Claims{}, ErrInvalidToken.WithCause(fmt.Errorf("expected %s token, got %q", typ, claims.Type))
	}
	return claims, nil
}

// VerifyAccessToken adapts the codec to the request authentication middleware.
func (c *Codec) VerifyAccessToken(tokenString string) (jwtverify.Claims, error) {
	claims, err := c.ParseAccess(tokenString)
	if err != nil {
		return jwtverify.Claims{}, err
	}
	accountID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || accountID <= 0 {
		return jwtverify.Claims{}, ErrInvalidToken.WithCause(fmt.Errorf("access token subject %q is not an account id", claims.Subject))
	}
	return jwtverify.Claims{
		AccountID: accountID,
		Role:      string(claims.Role),
	}, nil
}
