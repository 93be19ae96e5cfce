package keyring

import (
	"bytes"
	"errors"
	"path/filepath"

	"github.com/deploymenttheory/go-nx-keyring/internal/common/fsutil"
	"github.com/deploymenttheory/go-nx-keyring/internal/crypto"
	"github.com/deploymenttheory/go-nx-keyring/internal/logger"
)

// One sentinel per required-but-absent derivation operand, so callers can
// report exactly which key material is missing instead of a generic failure.
var (
	ErrMissingSDKEKSource            = errors.New("sd card kek source is not present")
	ErrMissingAESKEKGenerationSource = errors.New("aes kek generation source is not present")
	ErrMissingAESKeyGenerationSource = errors.New("aes key generation source is not present")
	ErrMissingSDSeed                 = errors.New("sd seed is not present")
	ErrMissingSDSaveKeySource        = errors.New("sd card save key source is not present")
	ErrMissingSDNCAKeySource         = errors.New("sd card nca key source is not present")
)

// unwrap128 is one ECB unwrap stage: a 16-byte block decrypt of data under
// key. With fixed-width inputs the cipher construction cannot fail.
func unwrap128(key, data Key128) Key128 {
	out, _ := crypto.DecryptECB(key[:], data[:])
	var result Key128
	copy(result[:], out)
	return result
}

// GenerateKeyEncryptionKey derives a key encryption key through the
// console's unwrap chain: kekSeed is unwrapped under master, source under
// that intermediate, and keySeed (when nonzero) under the result. Each stage
// keys the cipher with the previous output, so stage order and the
// key-versus-data role in every stage are load-bearing.
func GenerateKeyEncryptionKey(source, master, kekSeed, keySeed Key128) Key128 {
	kek := unwrap128(master, kekSeed)
	key := unwrap128(kek, source)

	if keySeed.IsZero() {
		return key
	}
	return unwrap128(key, keySeed)
}

// ScanSeed slides a 16-byte window over systemSave at stride one looking for
// marker; on the first match it returns the 16 bytes following the window.
// The loop bound requires the seed bytes to exist past the match, so a
// marker at the very end of the blob is rejected.
func ScanSeed(systemSave, marker []byte) (Key128, bool) {
	if len(marker) != 0x10 {
		return Key128{}, false
	}

	for offset := 0; offset+0x10 < len(systemSave); offset++ {
		if !bytes.Equal(systemSave[offset:offset+0x10], marker) {
			continue
		}
		if offset+0x20 > len(systemSave) {
			return Key128{}, false
		}
		var seed Key128
		copy(seed[:], systemSave[offset+0x10:offset+0x20])
		return seed, true
	}

	return Key128{}, false
}

// DeriveSDSeed discovers the per-device SD seed: the first 16 bytes of the
// SD card's private file are the marker, and the seed is whatever follows
// the marker's first occurrence inside the system save. A missing file or a
// failed scan means "cannot derive yet", not an error.
func (k *KeyManager) DeriveSDSeed() (Key128, bool) {
	savePath := filepath.Join(k.cfg.NANDDir, "system", "save", "8000000000000043")
	privatePath := filepath.Join(k.cfg.SDMCDir, "Nintendo", "Contents", "private")

	systemSave, err := fsutil.ReadFile(savePath)
	if err != nil {
		return Key128{}, false
	}
	private, err := fsutil.ReadFile(privatePath)
	if err != nil || len(private) < 0x10 {
		return Key128{}, false
	}

	return ScanSeed(systemSave, private[:0x10])
}

// DeriveSDSeedLazy derives and persists the SD seed unless the store already
// holds one. Idempotent; the persisted seed reloads on the next run.
func (k *KeyManager) DeriveSDSeedLazy() {
	idx := Key128Index{Type: S128SDSeed}
	if k.HasKey128(idx) {
		return
	}

	seed, ok := k.DeriveSDSeed()
	if !ok {
		logger.LogDebug("SD seed not derivable", nil)
		return
	}
	k.SetKey128(idx, seed)
}

// DeriveSDKeys derives the two 256-bit SD card storage keys. Every operand
// is checked before any key material is read; the first absent operand
// aborts with its own sentinel. On success the save key is returned first,
// the content archive (NCA) key second. The seed-combined intermediates are
// never stored, only their starting sources and the returned keys exist.
func (k *KeyManager) DeriveSDKeys() ([2]Key256, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	sdKEKSourceIdx := Key128Index{Type: S128Source, Field1: uint64(SourceSDKEK)}
	kekGenSourceIdx := Key128Index{Type: S128Source, Field1: uint64(SourceAESKEKGeneration)}
	keyGenSourceIdx := Key128Index{Type: S128Source, Field1: uint64(SourceAESKeyGeneration)}

	if !k.store.has128(sdKEKSourceIdx) {
		return [2]Key256{}, ErrMissingSDKEKSource
	}
	if !k.store.has128(kekGenSourceIdx) {
		return [2]Key256{}, ErrMissingAESKEKGenerationSource
	}
	if !k.store.has128(keyGenSourceIdx) {
		return [2]Key256{}, ErrMissingAESKeyGenerationSource
	}

	sdKEKSource, _ := k.store.lookup128(sdKEKSourceIdx)
	kekGenSource, _ := k.store.lookup128(kekGenSourceIdx)
	keyGenSource, _ := k.store.lookup128(keyGenSourceIdx)
	master00, _ := k.store.lookup128(Key128Index{Type: S128Master})
	sdKEK := GenerateKeyEncryptionKey(sdKEKSource, master00, kekGenSource, keyGenSource)

	seedIdx := Key128Index{Type: S128SDSeed}
	if !k.store.has128(seedIdx) {
		return [2]Key256{}, ErrMissingSDSeed
	}
	seed, _ := k.store.lookup128(seedIdx)

	saveSourceIdx := Key256Index{Type: S256SDKeySource, Field1: uint64(SDKeySave)}
	ncaSourceIdx := Key256Index{Type: S256SDKeySource, Field1: uint64(SDKeyNCA)}
	if !k.store.has256(saveSourceIdx) {
		return [2]Key256{}, ErrMissingSDSaveKeySource
	}
	if !k.store.has256(ncaSourceIdx) {
		return [2]Key256{}, ErrMissingSDNCAKeySource
	}

	saveSource, _ := k.store.lookup256(saveSourceIdx)
	ncaSource, _ := k.store.lookup256(ncaSourceIdx)
	sources := [2]Key256{saveSource, ncaSource}

	// Combine sources and seed; the seed repeats every 16 bytes.
	for si := range sources {
		for i := range sources[si] {
			sources[si][i] ^= seed[i&0xF]
		}
	}

	var sdKeys [2]Key256
	for si := range sources {
		out, err := crypto.DecryptECB(sdKEK[:], sources[si][:])
		if err != nil {
			return [2]Key256{}, err
		}
		copy(sdKeys[si][:], out)
	}

	return sdKeys, nil
}
