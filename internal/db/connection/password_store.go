package connection

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "querybuilder"

// ErrPasswordNotFound is returned when no password is stored for a database
var ErrPasswordNotFound = errors.New("password not found in keyring")

// PasswordStore keeps database passwords in the OS keyring
type PasswordStore struct {
	service string
}

// NewPasswordStore creates a password store under the application service name
func NewPasswordStore() *PasswordStore {
	return &PasswordStore{service: serviceName}
}

// Save stores a password securely in the keyring.
// Key format: "host:port:database:user".
func (ps *PasswordStore) Save(host string, port int, database, user, password string) error {
	if password == "" {
		// Don't save empty passwords
		return nil
	}
	if err := keyring.Set(ps.service, makeKey(host, port, database, user), password); err != nil {
		return fmt.Errorf("failed to save password to keyring: %w", err)
	}
	return nil
}

// Get retrieves a password from the keyring
func (ps *PasswordStore) Get(host string, port int, database, user string) (string, error) {
	password, err := keyring.Get(ps.service, makeKey(host, port, database, user))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrPasswordNotFound
		}
		return "", fmt.Errorf("failed to read password from keyring: %w", err)
	}
	return password, nil
}

// Delete removes a password from the keyring
func (ps *PasswordStore) Delete(host string, port int, database, user string) error {
	err := keyring.Delete(ps.service, makeKey(host, port, database, user))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete password from keyring: %w", err)
	}
	return nil
}

func makeKey(host string, port int, database, user string) string {
	return fmt.Sprintf("%s:%d:%s:%s", host, port, database, user)
}
