package keyring

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deploymenttheory/go-nx-keyring/internal/crypto"
	"github.com/stretchr/testify/require"
)

// Reference vectors computed independently with OpenSSL (aes-128-ecb
// decrypt, no padding).
const (
	vecMaster  = "2b7e151628aed2a6abf7158809cf4f3c"
	vecKEKSeed = "000102030405060708090a0b0c0d0e0f"
	vecSource  = "101112131415161718191a1b1c1d1e1f"
	vecKeySeed = "202122232425262728292a2b2c2d2e2f"

	// master -> kekSeed -> source chain without the final keySeed stage
	vecKekOnly = "86660c7844b7a2045d57d4f076a4ff40"
	// full three-stage chain
	vecFull = "1608a16292ea5f87111c3acae3b38d13"

	vecSDKEKSource = "6e04c8e6efb4b8b25fe7c6b2b7c3f2a1"
	vecSDSeed      = "fedcba98765432100123456789abcdef"
	vecSaveSource  = "d4a1f3c2b5e6978811223344556677889900aabbccddeeff0102030405060708"
	vecNCASource   = "5a5b5c5d5e5f60616263646566676869707172737475767778797a7b7c7d7e7f"
	vecSaveKey     = "6ac647685decea8f1bf94bb564eae69c5040aed3977c0325de8edb0d158d5acf"
	vecNCAKey      = "fac941b0c098ddf4a2b51e8012e305351881d7e6be609abc3f9a91b7f1261f38"
)

func key256(t *testing.T, hexStr string) Key256 {
	t.Helper()
	raw, err := hex.DecodeString(hexStr)
	require.NoError(t, err)
	require.Len(t, raw, 32)
	var k Key256
	copy(k[:], raw)
	return k
}

func TestGenerateKeyEncryptionKey(t *testing.T) {
	got := GenerateKeyEncryptionKey(
		key128(t, vecSource), key128(t, vecMaster),
		key128(t, vecKEKSeed), key128(t, vecKeySeed))
	require.Equal(t, key128(t, vecFull), got)
}

func TestGenerateKeyEncryptionKeyZeroKeySeed(t *testing.T) {
	// A zero keySeed skips the third unwrap stage.
	got := GenerateKeyEncryptionKey(
		key128(t, vecSource), key128(t, vecMaster),
		key128(t, vecKEKSeed), Key128{})
	require.Equal(t, key128(t, vecKekOnly), got)
}

func TestGenerateKeyEncryptionKeyIsDeterministic(t *testing.T) {
	a := GenerateKeyEncryptionKey(
		key128(t, vecSource), key128(t, vecMaster),
		key128(t, vecKEKSeed), key128(t, vecKeySeed))
	b := GenerateKeyEncryptionKey(
		key128(t, vecSource), key128(t, vecMaster),
		key128(t, vecKEKSeed), key128(t, vecKeySeed))
	require.Equal(t, a, b)
}

func TestGenerateKeyEncryptionKeyStageOrderMatters(t *testing.T) {
	// Build the chain with stages 1 and 2 swapped (source unwrapped under
	// master first) and check it does not reproduce the reference output.
	// The composition must not be order-independent.
	master := key128(t, vecMaster)
	source := key128(t, vecSource)
	kekSeed := key128(t, vecKEKSeed)
	keySeed := key128(t, vecKeySeed)

	step1, err := crypto.DecryptECB(master[:], source[:])
	require.NoError(t, err)
	step2, err := crypto.DecryptECB(step1, kekSeed[:])
	require.NoError(t, err)
	swapped, err := crypto.DecryptECB(step2, keySeed[:])
	require.NoError(t, err)

	var swappedKey Key128
	copy(swappedKey[:], swapped)
	require.NotEqual(t, key128(t, vecFull), swappedKey)
}

func TestScanSeed(t *testing.T) {
	marker := key128(t, "aabbccddeeff00112233445566778899")
	seed := key128(t, vecSDSeed)

	t.Run("marker mid blob", func(t *testing.T) {
		blob := append([]byte{1, 2, 3, 4, 5}, marker[:]...)
		blob = append(blob, seed[:]...)
		blob = append(blob, 9, 9, 9)

		got, ok := ScanSeed(blob, marker[:])
		require.True(t, ok)
		require.Equal(t, seed, got)
	})

	t.Run("first match wins", func(t *testing.T) {
		blob := append([]byte{}, marker[:]...)
		blob = append(blob, seed[:]...)
		blob = append(blob, marker[:]...)
		blob = append(blob, make([]byte, 16)...)

		got, ok := ScanSeed(blob, marker[:])
		require.True(t, ok)
		require.Equal(t, seed, got)
	})

	t.Run("marker at end has no seed", func(t *testing.T) {
		// The matching 16 bytes end exactly at the end of the blob; the
		// scan bound must reject it.
		blob := append(make([]byte, 40), marker[:]...)
		_, ok := ScanSeed(blob, marker[:])
		require.False(t, ok)
	})

	t.Run("seed truncated", func(t *testing.T) {
		blob := append(make([]byte, 8), marker[:]...)
		blob = append(blob, seed[:8]...) // only half the seed present
		_, ok := ScanSeed(blob, marker[:])
		require.False(t, ok)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := ScanSeed(make([]byte, 256), marker[:])
		require.False(t, ok)
	})

	t.Run("short marker", func(t *testing.T) {
		_, ok := ScanSeed(make([]byte, 256), marker[:8])
		require.False(t, ok)
	})
}

// sdKeyFixtureLines returns the complete key file content for SD key
// derivation, as name -> line, so tests can drop single operands.
func sdKeyFixtureLines() map[string]string {
	return map[string]string{
		"master_key_00":             "master_key_00 = " + vecMaster,
		"sd_card_kek_source":        "sd_card_kek_source = " + vecSDKEKSource,
		"aes_kek_generation_source": "aes_kek_generation_source = " + vecKEKSeed,
		"aes_key_generation_source": "aes_key_generation_source = " + vecKeySeed,
		"sd_seed":                   "sd_seed = " + vecSDSeed,
		"sd_card_save_key_source":   "sd_card_save_key_source = " + vecSaveSource,
		"sd_card_nca_key_source":    "sd_card_nca_key_source = " + vecNCASource,
	}
}

func newSDKeyManager(t *testing.T, omit string) *KeyManager {
	t.Helper()
	cfg := testConfig(t)
	var lines []string
	for name, line := range sdKeyFixtureLines() {
		if name == omit {
			continue
		}
		lines = append(lines, line)
	}
	writeFile(t, cfg.KeysDir, "prod.keys", strings.Join(lines, "\n"))
	return NewKeyManager(cfg)
}

func TestDeriveSDKeys(t *testing.T) {
	keys := newSDKeyManager(t, "")

	sdKeys, err := keys.DeriveSDKeys()
	require.NoError(t, err)
	require.Equal(t, key256(t, vecSaveKey), sdKeys[0])
	require.Equal(t, key256(t, vecNCAKey), sdKeys[1])

	// The XORed intermediates must not leak into the store.
	require.Equal(t, key256(t, vecSaveSource),
		keys.GetKey256(Key256Index{Type: S256SDKeySource, Field1: uint64(SDKeySave)}))
}

func TestDeriveSDKeysMissingOperands(t *testing.T) {
	testCases := []struct {
		omit string
		want error
	}{
		{"sd_card_kek_source", ErrMissingSDKEKSource},
		{"aes_kek_generation_source", ErrMissingAESKEKGenerationSource},
		{"aes_key_generation_source", ErrMissingAESKeyGenerationSource},
		{"sd_seed", ErrMissingSDSeed},
		{"sd_card_save_key_source", ErrMissingSDSaveKeySource},
		{"sd_card_nca_key_source", ErrMissingSDNCAKeySource},
	}

	for _, tc := range testCases {
		t.Run(tc.omit, func(t *testing.T) {
			keys := newSDKeyManager(t, tc.omit)
			_, err := keys.DeriveSDKeys()
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDeriveSDSeed(t *testing.T) {
	cfg := testConfig(t)
	marker := key128(t, "aabbccddeeff00112233445566778899")
	seed := key128(t, vecSDSeed)

	saveDir := filepath.Join(cfg.NANDDir, "system", "save")
	require.NoError(t, os.MkdirAll(saveDir, 0755))
	blob := append(make([]byte, 100), marker[:]...)
	blob = append(blob, seed[:]...)
	blob = append(blob, make([]byte, 50)...)
	require.NoError(t, os.WriteFile(filepath.Join(saveDir, "8000000000000043"), blob, 0644))

	privateDir := filepath.Join(cfg.SDMCDir, "Nintendo", "Contents")
	require.NoError(t, os.MkdirAll(privateDir, 0755))
	private := append(append([]byte{}, marker[:]...), 0xde, 0xad) // trailing bytes ignored
	require.NoError(t, os.WriteFile(filepath.Join(privateDir, "private"), private, 0644))

	keys := NewKeyManager(cfg)
	got, ok := keys.DeriveSDSeed()
	require.True(t, ok)
	require.Equal(t, seed, got)

	// Lazy derivation stores and persists the seed.
	keys.DeriveSDSeedLazy()
	require.True(t, keys.HasKey128(Key128Index{Type: S128SDSeed}))
	require.Equal(t, seed, keys.GetKey128(Key128Index{Type: S128SDSeed}))

	data, err := os.ReadFile(filepath.Join(cfg.KeysDir, "prod.keys_autogenerated"))
	require.NoError(t, err)
	require.Contains(t, string(data), "sd_seed = "+vecSDSeed)

	// A second call is a no-op: no duplicate entry is appended.
	keys.DeriveSDSeedLazy()
	data2, err := os.ReadFile(filepath.Join(cfg.KeysDir, "prod.keys_autogenerated"))
	require.NoError(t, err)
	require.Equal(t, data, data2)

	// The persisted seed reloads on the next run.
	reloaded := NewKeyManager(cfg)
	require.Equal(t, seed, reloaded.GetKey128(Key128Index{Type: S128SDSeed}))
}

func TestDeriveSDSeedMissingFiles(t *testing.T) {
	keys := NewKeyManager(testConfig(t))
	_, ok := keys.DeriveSDSeed()
	require.False(t, ok)
	keys.DeriveSDSeedLazy()
	require.False(t, keys.HasKey128(Key128Index{Type: S128SDSeed}))
}
