package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-oauth2/oauth2/v4"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of login and client credential tokens
const DefaultTokenTTL = 2 * time.Hour

// TokenIssuer signs and verifies bearer tokens. The "uid" claim carries the
// user id. It also acts as the access token generator of the OAuth2 server, so
// client credential tokens resolve exactly like login tokens.
type TokenIssuer struct {
	SignedKey    []byte
	SignedMethod jwt.SigningMethod
	TTL          time.Duration
	now          func() time.Time
}

// NewTokenIssuer creates an HMAC token issuer
func NewTokenIssuer(key []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		SignedKey:    key,
		SignedMethod: jwt.SigningMethodHS512,
		TTL:          ttl,
		now:          time.Now,
	}
}

// Issue signs a token for userID and returns it with its expiry
func (g *TokenIssuer) Issue(userID uint) (string, time.Time, error) {
	if userID == 0 {
		return "", time.Time{}, fmt.Errorf("cannot issue token: no user ID")
	}
	now := g.now()
	expiresAt := now.Add(g.TTL)
	claims := jwt.MapClaims{
		"uid": strconv.FormatUint(uint64(userID), 10),
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(g.SignedMethod, claims).SignedString(g.SignedKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Token generates access tokens for the OAuth2 manager. Client credential
// grants carry no user, so the owning user of the client is used.
func (g *TokenIssuer) Token(ctx context.Context, data *oauth2.GenerateBasic, isGenRefresh bool) (string, string, error) {
	userID := data.UserID
	if userID == "" {
		userID = data.Client.GetUserID()
	}
	if userID == "" {
		return "", "", fmt.Errorf("cannot generate token: no user ID available")
	}

	claims := jwt.MapClaims{
		"aud": data.Client.GetID(),
		"uid": userID,
		"iat": data.TokenInfo.GetAccessCreateAt().Unix(),
		"exp": data.TokenInfo.GetAccessCreateAt().Add(data.TokenInfo.GetAccessExpiresIn()).Unix(),
	}
	if scope := data.TokenInfo.GetScope(); scope != "" {
		claims["scope"] = scope
	}

	access, err := jwt.NewWithClaims(g.SignedMethod, claims).SignedString(g.SignedKey)
	if err != nil {
		return "", "", err
	}

	refresh := ""
	if isGenRefresh {
		refreshClaims := jwt.MapClaims{
			"id":  access,
			"exp": data.TokenInfo.GetRefreshCreateAt().Add(data.TokenInfo.GetRefreshExpiresIn()).Unix(),
		}
		refresh, err = jwt.NewWithClaims(g.SignedMethod, refreshClaims).SignedString(g.SignedKey)
		if err != nil {
			return "", "", err
		}
	}

	return access, refresh, nil
}

// TokenClaims is what a verified bearer token says about its holder.
// ClientID is set for tokens issued through the client credentials grant.
type TokenClaims struct {
	UserID   uint
	ClientID string
}

// Parse verifies the signature and time claims and extracts the user id
func (g *TokenIssuer) Parse(tokenString string) (uint, error) {
	claims, err := g.ParseClaims(tokenString)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// ParseClaims verifies the token and returns its user and client
func (g *TokenIssuer) ParseClaims(tokenString string) (TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v. Expected HMAC", token.Header["alg"])
		}
		return g.SignedKey, nil
	}, jwt.WithTimeFunc(g.now), jwt.WithIssuedAt())
	if err != nil {
		return TokenClaims{}, fmt.Errorf("token parsing failed: %w", err)
	}
	if !token.Valid {
		return TokenClaims{}, fmt.Errorf("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, fmt.Errorf("invalid token claims format")
	}
	userID, err := extractUserID(claims)
	if err != nil {
		return TokenClaims{}, err
	}
	clientID, _ := claims["aud"].(string)
	return TokenClaims{UserID: userID, ClientID: clientID}, nil
}

// extractUserID reads "uid" as a numeric string or a JSON number
func extractUserID(claims jwt.MapClaims) (uint, error) {
	switch uid := claims["uid"].(type) {
	case string:
		parsed, err := strconv.ParseUint(uid, 10, 32)
		if err != nil || parsed == 0 {
			return 0, fmt.Errorf("invalid uid claim: %q", uid)
		}
		return uint(parsed), nil
	case float64:
		if uid < 1 {
			return 0, fmt.Errorf("invalid uid claim: must be positive, got: %f", uid)
		}
		return uint(uid), nil
	default:
		return 0, fmt.Errorf("token missing required 'uid' claim")
	}
}
