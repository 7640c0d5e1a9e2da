package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"
)

const keyringService = "welfaredesk"

// KeyringStore keeps the session in the operating system keyring.
type KeyringStore struct {
	account string
	now     func() time.Time
}

// NewKeyringStore creates a keyring-backed store. The account distinguishes
// sessions for different backends.
func NewKeyringStore(account string) *KeyringStore {
	return &KeyringStore{account: account, now: time.Now}
}

func (k *KeyringStore) Load() (*Session, error) {
	raw, err := keyring.Get(keyringService, k.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		_ = keyring.Delete(keyringService, k.account)
		return nil, nil
	}
	if s.Expired(k.now()) {
		_ = keyring.Delete(keyringService, k.account)
		return nil, nil
	}
	return &s, nil
}

func (k *KeyringStore) Save(s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := keyring.Set(keyringService, k.account, string(data)); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) Clear() error {
	if err := keyring.Delete(keyringService, k.account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to clear keyring: %w", err)
	}
	return nil
}
