package user

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

// credentialMagic tags the salted SHA-256 layout.
const credentialMagic int32 = 0x35A256

// ErrCredentialFormat is wrapped when stored credential text cannot be
// decoded.
var ErrCredentialFormat = errors.New("malformed credential")

// Credential is a salted SHA-256 digest of a login secret.
//
// It is stored as base64 text of: a big-endian int32 magic number, the
// u32 salt length, the salt, the u32 digest length and the digest.
type Credential struct {
	salt []byte
	hash []byte
}

// NewCredential hashes plain with salt.
func NewCredential(plain, salt []byte) Credential {
	return Credential{salt: bytes.Clone(salt), hash: digest(plain, salt)}
}

// Validate reports whether plain is the secret the credential was made from.
func (c Credential) Validate(plain []byte) bool {
	return subtle.ConstantTimeCompare(digest(plain, c.salt), c.hash) == 1
}

// MarshalText implements encoding.TextMarshaler.
func (c Credential) MarshalText() ([]byte, error) {
	buf := make([]byte, 0, 12+len(c.salt)+len(c.hash))
	buf = binary.BigEndian.AppendUint32(buf, uint32(credentialMagic))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.salt)))
	buf = append(buf, c.salt...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.hash)))
	buf = append(buf, c.hash...)

	out := make([]byte, base64.StdEncoding.EncodedLen(len(buf)))
	base64.StdEncoding.Encode(out, buf)
	return out, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Credential) UnmarshalText(text []byte) error {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(raw, text)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCredentialFormat, err)
	}
	raw = raw[:n]

	magic, raw, err := readUint32(raw)
	if err != nil {
		return err
	}
	if int32(magic) != credentialMagic {
		return fmt.Errorf("%w: unsupported hash type %#x", ErrCredentialFormat, magic)
	}
	salt, raw, err := readChunk(raw)
	if err != nil {
		return err
	}
	hash, raw, err := readChunk(raw)
	if err != nil {
		return err
	}
	if len(raw) != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrCredentialFormat, len(raw))
	}
	c.salt, c.hash = salt, hash
	return nil
}

func digest(plain, salt []byte) []byte {
	h := sha256.New()
	h.Write(plain)
	h.Write(salt)
	return h.Sum(nil)
}

func readUint32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, fmt.Errorf("%w: truncated length", ErrCredentialFormat)
	}
	return binary.BigEndian.Uint32(b), b[4:], nil
}

func readChunk(b []byte) ([]byte, []byte, error) {
	n, rest, err := readUint32(b)
	if err != nil {
		return nil, nil, err
	}
	if uint64(n) > uint64(len(rest)) {
		return nil, nil, fmt.Errorf("%w: chunk of %d bytes exceeds %d remaining", ErrCredentialFormat, n, len(rest))
	}
	return bytes.Clone(rest[:n]), rest[n:], nil
}
