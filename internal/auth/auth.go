package auth

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// claims is the payload embedded in every issued token. version lets a
// future incompatible change to the claim set be rejected cleanly instead
// of silently misparsed.
type claims struct {
	Version int `json:"version"`
	jwt.RegisteredClaims
}

const currentVersion = 1

var (
	secretOnce sync.Once
	secret     []byte
)

// Secret lazily derives the HMAC signing secret from the host's hostid and
// hostname, matching the original project's behavior of deriving a stable
// per-host secret instead of requiring one to be provisioned out of band.
// Set NLPIPE_SECRET to override it, e.g. in multi-host deployments that
// must share one secret across REST facade instances.
func Secret() []byte {
	secretOnce.Do(func() {
		if v := os.Getenv("NLPIPE_SECRET"); v != "" {
			secret = []byte(v)
			return
		}
		secret = []byte("__" + hostid() + "_" + hostname())
	})
	return secret
}

func hostid() string {
	out, err := exec.Command("hostid").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}

// Issue mints a bearer token valid for ttl.
func Issue(ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Version: currentVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(Secret())
}

// Verify checks that raw is a validly-signed, unexpired token carrying the
// current claim-set version.
func Verify(raw string) error {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		return Secret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return err
	}
	if c.Version != currentVersion {
		return fmt.Errorf("auth.Verify: unsupported token version %d", c.Version)
	}
	return nil
}
