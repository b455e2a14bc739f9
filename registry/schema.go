// Package registry maintains the versioned registration history of
// service instance types. It is the only gate preventing two incompatible
// revisions of the same logical service from running side-by-side, which
// would corrupt durable state referencing that service.
package registry

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/twmb/murmur3"
)

// FieldType is the wire type of a schema field.
type FieldType string

const (
	TypeBool   FieldType = "bool"
	TypeInt    FieldType = "int"
	TypeLong   FieldType = "long"
	TypeFloat  FieldType = "float"
	TypeDouble FieldType = "double"
	TypeString FieldType = "string"
	TypeBytes  FieldType = "bytes"
)

// Field is one field of a key definition or contract.
type Field struct {
	Name       string    `json:"name"`
	Type       FieldType `json:"type"`
	Required   bool      `json:"required,omitempty"`
	HasDefault bool      `json:"has_default,omitempty"`
}

// KeyDefinition describes the key under which instances of a service are
// addressed. Field order is significant.
type KeyDefinition struct {
	Fields []Field `json:"fields"`
}

// Contract is the versioned message-schema descriptor of a service.
type Contract struct {
	Fields []Field `json:"fields"`
}

// Equal reports structural identity: same fields, same types, same order.
func (k KeyDefinition) Equal(other KeyDefinition) bool {
	if len(k.Fields) != len(other.Fields) {
		return false
	}

	for i, f := range k.Fields {
		if f.Name != other.Fields[i].Name || f.Type != other.Fields[i].Type {
			return false
		}
	}

	return true
}

// Fingerprint is a murmur3 digest of the canonical field encoding, used
// as a cheap first-pass identity check before the structural comparison.
func (k KeyDefinition) Fingerprint() uint64 {
	return fingerprintFields(k.Fields)
}

func (c Contract) Fingerprint() uint64 {
	return fingerprintFields(c.Fields)
}

func fingerprintFields(fields []Field) uint64 {
	h := murmur3.New64()
	buf := make([]byte, 2)

	for _, f := range fields {
		_, _ = h.Write([]byte(f.Name))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(f.Type))

		binary.LittleEndian.PutUint16(buf, flagBits(f))
		_, _ = h.Write(buf)
	}

	return h.Sum64()
}

func flagBits(f Field) uint16 {
	var bits uint16
	if f.Required {
		bits |= 1
	}

	if f.HasDefault {
		bits |= 2
	}

	return bits
}

// ParseKeyDefinition parses the compact "name:type, name:type" notation
// used by tooling and tests.
func ParseKeyDefinition(s string) (KeyDefinition, error) {
	var def KeyDefinition

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, typ, ok := strings.Cut(part, ":")
		if !ok {
			return KeyDefinition{}, fmt.Errorf("malformed key field %q", part)
		}

		def.Fields = append(def.Fields, Field{
			Name: strings.TrimSpace(name),
			Type: FieldType(strings.TrimSpace(typ)),
		})
	}

	if len(def.Fields) == 0 {
		return KeyDefinition{}, fmt.Errorf("empty key definition")
	}

	return def, nil
}

func cloneFields(fields []Field) []Field {
	out := make([]Field, len(fields))
	copy(out, fields)

	return out
}
