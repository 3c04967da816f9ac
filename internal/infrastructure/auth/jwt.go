package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
)

// ErrNoToken request carries neither the token cookie nor a bearer header
var ErrNoToken = errors.New("no identity token in request")

// IdentityClaims claims issued by the identity provider, UID is the stable user identifier
type IdentityClaims struct {
	UID     string `json:"uid"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`

	jwt.StandardClaims
}

// Valid implements jwt.Claims, a token without uid identifies nobody
func (ic *IdentityClaims) Valid() error {
	if err := ic.StandardClaims.Valid(); err != nil {
		return err
	}
	if ic.UID == "" {
		return errors.New("token has no uid")
	}
	return nil
}

// TimeRemaining remaining time before the token get expired
func (ic *IdentityClaims) TimeRemaining() time.Duration {
	if ic.ExpiresAt == 0 {
		return 0
	}
	exp := time.Unix(ic.ExpiresAt, 0)
	now := time.Now()

	if exp.Before(now) {
		return 0
	}
	return exp.Sub(now)
}

// JWTUtil .
type JWTUtil struct {
	secret    []byte
	tokenName string
	method    jwt.SigningMethod
}

// NewJWTUtil create a JWTUtil instance
func NewJWTUtil(method, secret, tokenName string) *JWTUtil {
	var signMethod jwt.SigningMethod
	switch method {
	case "HS384":
		signMethod = jwt.SigningMethodHS384
	case "HS512":
		signMethod = jwt.SigningMethodHS512
	default:
		signMethod = jwt.SigningMethodHS256
	}
	return &JWTUtil{
		method:    signMethod,
		secret:    []byte(secret),
		tokenName: tokenName,
	}
}

// Sign sign token
func (ju *JWTUtil) Sign(claims *IdentityClaims) (string, error) {
	token := jwt.NewWithClaims(ju.method, claims)
	return token.SignedString(ju.secret)
}

// Validate validate token string with secret and return IdentityClaims
func (ju *JWTUtil) Validate(tokenStr string) (*IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != ju.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return ju.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return token.Claims.(*IdentityClaims), nil
}

// SetContextToken set token in App context
func (ju *JWTUtil) SetContextToken(c echo.Context, token *IdentityClaims) {
	c.Set(ju.tokenName, token)
}

// GetContextToken get token from App context
func (ju *JWTUtil) GetContextToken(c echo.Context) *IdentityClaims {
	v, ok := c.Get(ju.tokenName).(*IdentityClaims)
	if ok {
		return v
	}
	return nil
}

// ExtractToken get token string from request, the cookie wins over the Authorization header
func (ju *JWTUtil) ExtractToken(c echo.Context) (string, error) {
	if cookie, err := c.Cookie(ju.tokenName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	} else if err != nil && err != http.ErrNoCookie {
		return "", err
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:]), nil
	}
	return "", ErrNoToken
}
