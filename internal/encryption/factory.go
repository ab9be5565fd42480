package encryption

import (
	"fmt"

	"hrestore/internal/config"
	"hrestore/internal/hr"
)

// NewEncryptorFromConfig returns the Encryptor named by cfg.Type. An empty
// type selects age.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (hr.Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("%w: unknown encryption type %q", hr.ErrConfiguration, cfg.Type)
	}
}
