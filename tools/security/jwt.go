package security

import (
	"strconv"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Options controls signing and token lifetime.
type Options struct {
	Secret []byte
	Alg    string // HS256/HS384/HS512, default HS256
	TTL    time.Duration
}

func DefaultOptions(secret []byte, ttl time.Duration) Options {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return Options{Secret: secret, Alg: "HS256", TTL: ttl}
}

// Generate signs a token whose subject is the user id.
func Generate(opts Options, userID int64) (token string, expireAt time.Time, err error) {
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return "", time.Time{}, err
	}
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	now := time.Now()
	exp := now.Add(opts.TTL)

	claims := jwtlib.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
	}
	signed, err := jwtlib.NewWithClaims(method, claims).SignedString(opts.Secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return signed, exp, nil
}

// ResolveUserID verifies the token and returns the user identity it was
// issued for. Used once per connection at handshake time.
func ResolveUserID(opts Options, token string) (int64, error) {
	if strings.TrimSpace(token) == "" {
		return 0, errors.New("empty token")
	}
	parsed, err := jwtlib.Parse(token, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return opts.Secret, nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "parse token")
	}
	if !parsed.Valid {
		return 0, errors.New("invalid token")
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return 0, errors.New("claims type mismatch")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, errors.Wrap(err, "token subject")
	}
	uid, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "token subject is not a user id")
	}
	return uid, nil
}

func signingMethod(alg string) (jwtlib.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwtlib.SigningMethodHS256, nil
	case "HS384":
		return jwtlib.SigningMethodHS384, nil
	case "HS512":
		return jwtlib.SigningMethodHS512, nil
	default:
		return nil, errors.Errorf("unsupported alg: %s", alg)
	}
}
