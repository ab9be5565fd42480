package encryption

import (
	"errors"
	"testing"

	"hrestore/internal/config"
	"hrestore/internal/hr"
)

func TestNewEncryptorFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ     string
		want    string
		wantErr bool
	}{
		{typ: "", want: "*encryption.AgeEncryptor"},
		{typ: "age", want: "*encryption.AgeEncryptor"},
		{typ: "test", want: "*encryption.TestEncryptor"},
		{typ: "rot13", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			t.Parallel()
			enc, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: tt.typ})
			if tt.wantErr {
				if !errors.Is(err, hr.ErrConfiguration) {
					t.Fatalf("error = %v, want ErrConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEncryptorFromConfig() error = %v", err)
			}
			switch enc.(type) {
			case *AgeEncryptor:
				if tt.want != "*encryption.AgeEncryptor" {
					t.Errorf("got AgeEncryptor, want %s", tt.want)
				}
			case *TestEncryptor:
				if tt.want != "*encryption.TestEncryptor" {
					t.Errorf("got TestEncryptor, want %s", tt.want)
				}
			}
		})
	}
}
