package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

const ScopePlayer = "player"

// Claims bind a token to one seat in one room.
type Claims struct {
	PlayerID string `json:"playerId"`
	RoomID   string `json:"roomId"`
	Scope    string `json:"scope"`
	jwt.RegisteredClaims
}

// Issuer signs and parses HS256 player tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds an issuer; expireHours <= 0 falls back to one day.
func NewIssuer(secret string, expireHours int) *Issuer {
	if expireHours <= 0 {
		expireHours = 24
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    time.Duration(expireHours) * time.Hour,
		now:    time.Now,
	}
}

func (i *Issuer) GeneratePlayerToken(playerID, roomID string) (string, error) {
	now := i.now()
	claims := Claims{
		PlayerID: playerID,
		RoomID:   roomID,
		Scope:    ScopePlayer,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   playerID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *Issuer) ParsePlayerToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Scope != ScopePlayer || claims.PlayerID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
