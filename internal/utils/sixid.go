package utils

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/base32"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// SixIDHookFunc defines the signature for the NewSixID test hook.
// It returns a SixID and a boolean indicating whether to override the default generation.
type SixIDHookFunc func() (id SixID, override bool)

// NewSixIDHook is a package-level variable that tests can set to override NewSixID behavior.
var NewSixIDHook SixIDHookFunc

// SixID is a short 6-byte identifier rendered as 10 Crockford Base32 characters.
// It is used for order numbers that people read over the phone.
type SixID [6]byte

// bsonSubtype marks SixID values inside BSON binaries.
const bsonSubtype = 0x80

const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var crockford = base32.NewEncoding(crockfordAlphabet).WithPadding(base32.NoPadding)

// Crockford decoding is lenient about case and the commonly confused letters.
var crockfordReplacer = strings.NewReplacer("O", "0", "I", "1", "L", "1", "-", "", " ", "")

// NewSixID creates a new random SixID.
func NewSixID() SixID {
	if NewSixIDHook != nil {
		if id, override := NewSixIDHook(); override {
			return id
		}
	}

	var id SixID
	_, _ = rand.Read(id[:])
	return id
}

// IsZero reports whether the id is unset.
func (u SixID) IsZero() bool {
	return u == SixID{}
}

// String returns the Crockford Base32 representation.
func (u SixID) String() string {
	return crockford.EncodeToString(u[:])
}

// ParseSixID parses the Crockford Base32 representation produced by String.
func ParseSixID(s string) (SixID, error) {
	s = crockfordReplacer.Replace(strings.ToUpper(strings.TrimSpace(s)))
	if len(s) != 10 {
		return SixID{}, errors.New("invalid SixID: string length must be 10")
	}

	raw, err := crockford.DecodeString(s)
	if err != nil {
		return SixID{}, fmt.Errorf("invalid SixID: %w", err)
	}
	if len(raw) != 6 {
		return SixID{}, errors.New("invalid SixID: couldn't decode 6 bytes")
	}

	var id SixID
	copy(id[:], raw)
	return id, nil
}

// MarshalJSON marshals the SixID as its Crockford Base32 string.
func (u SixID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON unmarshals a SixID from its Crockford Base32 string.
func (u *SixID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSixID(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// MarshalBSONValue stores the SixID as BSON binary with subtype 0x80.
func (u SixID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bsontype.Binary, bsoncore.AppendBinary(nil, bsonSubtype, u[:]), nil
}

// UnmarshalBSONValue reads a SixID written by MarshalBSONValue.
func (u *SixID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t != bsontype.Binary {
		return fmt.Errorf("invalid BSON type for SixID: %s", t)
	}
	subtype, bin, _, ok := bsoncore.ReadBinary(data)
	if !ok {
		return errors.New("invalid BSON binary data for SixID")
	}
	if subtype != bsonSubtype || len(bin) != 6 {
		return fmt.Errorf("invalid BSON binary data for SixID: %v", primitive.Binary{Subtype: subtype, Data: bin})
	}
	copy(u[:], bin)
	return nil
}

// Value stores the SixID as text in SQL databases.
func (u SixID) Value() (driver.Value, error) {
	return u.String(), nil
}

// Scan reads a SixID stored by Value.
func (u *SixID) Scan(src any) error {
	switch v := src.(type) {
	case string:
		id, err := ParseSixID(v)
		if err != nil {
			return err
		}
		*u = id
		return nil
	case []byte:
		return u.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into SixID", src)
	}
}
