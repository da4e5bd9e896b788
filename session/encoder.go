package session

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
)

const (
	identityFormatVersionCurrent = 1
	maxFieldLen                  = 255
)

// CurrentSchemaVersion is the identity record version written by EncodeIdentity.
const CurrentSchemaVersion = identityFormatVersionCurrent

// ErrIdentityCorrupt is returned when a stored identity cannot be decoded.
var ErrIdentityCorrupt = errors.New("stored identity corrupt")

// Identity is the user record persisted alongside the credential.
type Identity struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// legacyIdentity matches the JSON object earlier web clients stored under the user key.
type legacyIdentity struct {
	UserName string `json:"userName"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// EncodeIdentity serializes id into a string safe for every driver.
func EncodeIdentity(id Identity) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte(identityFormatVersionCurrent)

	for _, field := range []struct {
		name  string
		value string
	}{
		{"username", id.Username},
		{"email", id.Email},
		{"role", id.Role},
	} {
		if len(field.value) > maxFieldLen {
			return "", fmt.Errorf("%s too long", field.name)
		}
		buf.WriteByte(byte(len(field.value)))
		buf.WriteString(field.value)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeIdentity reverses EncodeIdentity, migrating legacy JSON records.
func DecodeIdentity(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrIdentityCorrupt
	}
	if raw[0] == '{' {
		return decodeLegacyIdentity(raw)
	}

	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrIdentityCorrupt, err)
	}
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrIdentityCorrupt, err)
	}
	if version != identityFormatVersionCurrent {
		return Identity{}, fmt.Errorf("%w: unsupported identity schema version %d", ErrIdentityCorrupt, version)
	}

	var id Identity
	for _, dst := range []*string{&id.Username, &id.Email, &id.Role} {
		n, err := reader.ReadByte()
		if err != nil {
			return Identity{}, fmt.Errorf("%w: %v", ErrIdentityCorrupt, err)
		}
		field := make([]byte, n)
		if _, err := io.ReadFull(reader, field); err != nil {
			return Identity{}, fmt.Errorf("%w: %v", ErrIdentityCorrupt, err)
		}
		*dst = string(field)
	}
	if reader.Len() != 0 {
		return Identity{}, fmt.Errorf("%w: trailing bytes", ErrIdentityCorrupt)
	}
	return id, nil
}

func decodeLegacyIdentity(raw string) (Identity, error) {
	var legacy legacyIdentity
	if err := sonic.UnmarshalString(raw, &legacy); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrIdentityCorrupt, err)
	}
	name := legacy.UserName
	if name == "" {
		name = legacy.Username
	}
	return Identity{Username: name, Email: legacy.Email, Role: legacy.Role}, nil
}
