package transport

import (
	"os"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// tokenPassword builds a signed JWT to use as the MQTT password, for brokers
// that authenticate devices with per-connection tokens.
func tokenPassword(cfg Config) (string, error) {
	keyData, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return "", errors.Wrap(err, "read private key")
	}

	var key interface{}
	switch cfg.Algorithm {
	case "RS256":
		key, err = jwt.ParseRSAPrivateKeyFromPEM(keyData)
	case "ES256":
		key, err = jwt.ParseECPrivateKeyFromPEM(keyData)
	default:
		return "", errors.Errorf("unknown algorithm: %s", cfg.Algorithm)
	}
	if err != nil {
		return "", errors.Wrap(err, "parse private key")
	}

	audience := cfg.TokenAudience
	if audience == "" {
		audience = cfg.DeviceID
	}

	t := time.Now()
	token := jwt.NewWithClaims(jwt.GetSigningMethod(cfg.Algorithm), &jwt.StandardClaims{
		IssuedAt:  t.Unix(),
		ExpiresAt: t.Add(24 * time.Hour).Unix(),
		Audience:  audience,
	})
	return token.SignedString(key)
}
