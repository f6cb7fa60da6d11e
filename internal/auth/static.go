package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dlux/internal/types"

	"github.com/tredoe/osutil/user/crypt/sha512_crypt"
	"golang.org/x/crypto/bcrypt"
)

const MsgInvalidCredentials = "Invalid user name or password."

// StaticAuthenticator checks credentials against a fixed user list. Hashes
// are bcrypt ($2a$, $2b$, $2y$) or sha512-crypt ($6$).
type StaticAuthenticator struct {
	users map[string]string
}

var errUnsupportedHash = errors.New("unsupported password hash")

// ParseStaticUsers reads "user:hash,user:hash".
func ParseStaticUsers(raw string) (*StaticAuthenticator, error) {
	a := &StaticAuthenticator{users: make(map[string]string)}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, hash, ok := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		hash = strings.TrimSpace(hash)
		if !ok || name == "" || hash == "" {
			return nil, fmt.Errorf("static users: malformed entry for %q", name)
		}
		if hashScheme(hash) == "" {
			return nil, fmt.Errorf("static users: %s: %w", name, errUnsupportedHash)
		}
		a.users[name] = hash
	}
	if len(a.users) == 0 {
		return nil, errors.New("static users: no users configured")
	}
	return a, nil
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, username, password, controller string) (*types.User, error) {
	hash, ok := a.users[username]
	if !ok {
		return nil, NewError(MsgInvalidCredentials, fmt.Errorf("unknown user %q", username))
	}
	if err := verifyPassword(hash, password); err != nil {
		return nil, NewError(MsgInvalidCredentials, err)
	}
	return types.NewUser(username, controller, ""), nil
}

func hashScheme(hash string) string {
	switch {
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return "bcrypt"
	case strings.HasPrefix(hash, "$6$"):
		return "sha512"
	default:
		return ""
	}
}

func verifyPassword(hash, password string) error {
	switch hashScheme(hash) {
	case "bcrypt":
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	case "sha512":
		return sha512_crypt.New().Verify(hash, []byte(password))
	default:
		return errUnsupportedHash
	}
}

// HashPassword produces a hash accepted by StaticAuthenticator.
func HashPassword(password, scheme string) (string, error) {
	switch scheme {
	case "", "bcrypt":
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case "sha512":
		saltGen := sha512_crypt.GetSalt()
		salt := saltGen.GenerateWRounds(16, 5000)
		return sha512_crypt.New().Generate([]byte(password), salt)
	default:
		return "", fmt.Errorf("%w: %s", errUnsupportedHash, scheme)
	}
}
