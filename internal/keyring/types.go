// Package keyring stores, derives, persists and reloads the fixed taxonomy of
// symmetric keys used to decrypt Switch content. Keys are either loaded from
// line-oriented key files (prod.keys / dev.keys / title.keys plus their
// autogenerated counterparts) or derived from other keys through AES-ECB
// unwrap chains mirroring the console's key hierarchy.
package keyring

import "encoding/binary"

// Key128 is a 128-bit key or key source.
type Key128 [16]byte

// Key256 is a 256-bit key, used as a pair of AES-128 keys.
type Key256 [32]byte

// IsZero reports whether every byte of the key is zero.
func (k Key128) IsZero() bool { return k == Key128{} }

// S128KeyType is the category of a 128-bit key slot.
type S128KeyType uint64

const (
	S128Master        S128KeyType = iota // master_key_xx
	S128Package1                         // package1_key_xx
	S128Package2                         // package2_key_xx
	S128Titlekey                         // fields are the two halves of the rights ID
	S128Titlekek                         // titlekek_xx
	S128ETicketRSAKek                    // eticket_rsa_kek
	S128KeyArea                          // key_area_key_{application,ocean,system}_xx
	S128Source                           // fixed derivation sources, field1 = SourceKeyType
	S128SDSeed                           // sd_seed
)

// S256KeyType is the category of a 256-bit key slot.
type S256KeyType uint64

const (
	S256Header      S256KeyType = iota // header_key
	S256SDKeySource                    // sd_card_{save,nca}_key_source, field1 = SDKeyType
)

// KeyAreaKeyType selects the purpose of a key area key.
type KeyAreaKeyType uint64

const (
	KeyAreaApplication KeyAreaKeyType = iota
	KeyAreaOcean
	KeyAreaSystem
)

// SourceKeyType selects one of the fixed derivation source keys.
type SourceKeyType uint64

const (
	SourceSDKEK SourceKeyType = iota
	SourceAESKEKGeneration
	SourceAESKeyGeneration
)

// SDKeyType selects which SD card key a 256-bit source feeds.
type SDKeyType uint64

const (
	SDKeySave SDKeyType = iota
	SDKeyNCA
)

// Key128Index is the identity of one 128-bit key slot. Field1 and Field2
// disambiguate generations and sub-purposes; their meaning depends on Type.
// The triple is the unique map key, at most one value is ever held per index.
type Key128Index struct {
	Type   S128KeyType
	Field1 uint64
	Field2 uint64
}

// Key256Index is the identity of one 256-bit key slot.
type Key256Index struct {
	Type   S256KeyType
	Field1 uint64
	Field2 uint64
}

// titleKeyIndex builds the index for a per-content title key. The 16-byte
// rights ID is split into two little-endian uint64 halves, high half in
// Field1, low half in Field2.
func titleKeyIndex(rightsID [16]byte) Key128Index {
	return Key128Index{
		Type:   S128Titlekey,
		Field1: binary.LittleEndian.Uint64(rightsID[8:]),
		Field2: binary.LittleEndian.Uint64(rightsID[:8]),
	}
}

// rightsIDBytes reverses titleKeyIndex: Field2 supplies the low 8 bytes,
// Field1 the high 8 bytes, reconstructing the rights ID byte-for-byte.
func rightsIDBytes(field1, field2 uint64) [16]byte {
	var out [16]byte
	binary.LittleEndian.PutUint64(out[:8], field2)
	binary.LittleEndian.PutUint64(out[8:], field1)
	return out
}
