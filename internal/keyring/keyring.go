package keyring

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/deploymenttheory/go-nx-keyring/internal/common/fsutil"
	"github.com/deploymenttheory/go-nx-keyring/internal/common/hexutil"
	"github.com/deploymenttheory/go-nx-keyring/internal/logger"
)

// Config fixes everything that determines keyring behaviour. Callers build
// it from their own configuration layer; the keyring reads no globals.
type Config struct {
	KeysDir         string // primary key directory, also receives autogenerated files
	FallbackKeysDir string // external-tool compatible key directory
	UseDevKeys      bool   // load dev.keys instead of prod.keys
	NANDDir         string // system save data root, consumed by seed derivation
	SDMCDir         string // SD card contents root, consumed by seed derivation
}

// baseKeyFile returns the general key file name for the active key set.
func (c Config) baseKeyFile() string {
	if c.UseDevKeys {
		return "dev.keys"
	}
	return "prod.keys"
}

// Header written once to each autogenerated key file, before the first entry.
const autogeneratedHeader = "# This file is autogenerated by nx-keyring\n" +
	"# It serves to store keys that were automatically derived from the normal keys\n" +
	"# If you are experiencing issues involving keys, it may help to delete this file\n"

// KeyManager owns the key store for one keyring instance. Concurrent reads
// are safe; SetKey and the derive-then-persist paths take the write lock so
// the check-insert-append-reload sequence never interleaves with another
// writer.
//
// GetKey128/GetKey256 return the all-zero key when the slot is absent rather
// than failing. That contract is kept for compatibility with the consumers of
// the original key manager; every security-sensitive decision must check
// HasKey first, as all internal call sites do.
type KeyManager struct {
	mu    sync.RWMutex
	store *keyStore
	cfg   Config
}

// NewKeyManager builds a keyring and populates it from the candidate key
// files. Load order is fixed: the base key file for the active key set, its
// autogenerated counterpart, then the title key file and its autogenerated
// counterpart. Base files load first so that, with first-writer-wins inserts,
// hand-provided keys always win over previously cached derivations.
func NewKeyManager(cfg Config) *KeyManager {
	k := &KeyManager{store: newKeyStore(), cfg: cfg}

	base := cfg.baseKeyFile()
	k.attemptLoadKeyFile(cfg.KeysDir, cfg.FallbackKeysDir, base, false)
	k.attemptLoadKeyFile(cfg.KeysDir, cfg.KeysDir, base+"_autogenerated", false)
	k.attemptLoadKeyFile(cfg.KeysDir, cfg.FallbackKeysDir, "title.keys", true)
	k.attemptLoadKeyFile(cfg.KeysDir, cfg.KeysDir, "title.keys_autogenerated", true)

	return k
}

// HasKey128 reports whether the 128-bit slot holds a key.
func (k *KeyManager) HasKey128(idx Key128Index) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.store.has128(idx)
}

// HasKey256 reports whether the 256-bit slot holds a key.
func (k *KeyManager) HasKey256(idx Key256Index) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.store.has256(idx)
}

// GetKey128 returns the stored key, or the all-zero key when the slot is
// absent. Check HasKey128 first.
func (k *KeyManager) GetKey128(idx Key128Index) Key128 {
	k.mu.RLock()
	defer k.mu.RUnlock()
	key, _ := k.store.lookup128(idx)
	return key
}

// GetKey256 returns the stored key, or the all-zero key when the slot is
// absent. Check HasKey256 first.
func (k *KeyManager) GetKey256(idx Key256Index) Key256 {
	k.mu.RLock()
	defer k.mu.RUnlock()
	key, _ := k.store.lookup256(idx)
	return key
}

// SetKey128 stores key at idx unless the slot is already occupied. Title
// keys and any slot with a name table entry are appended to the matching
// autogenerated key file before the in-memory insert completes.
func (k *KeyManager) SetKey128(idx Key128Index, key Key128) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.setKey128(idx, key)
}

// SetKey256 is the 256-bit counterpart of SetKey128.
func (k *KeyManager) SetKey256(idx Key256Index, key Key256) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.setKey256(idx, key)
}

func (k *KeyManager) setKey128(idx Key128Index, key Key128) {
	if k.store.has128(idx) {
		return
	}
	if idx.Type == S128Titlekey {
		rightsID := rightsIDBytes(idx.Field1, idx.Field2)
		k.writeKeyToFile(true, hexutil.Encode(rightsID[:]), key[:])
	}
	if name, ok := NameForKey128Index(idx); ok {
		k.writeKeyToFile(false, name, key[:])
	}
	k.store.insert128(idx, key)
}

func (k *KeyManager) setKey256(idx Key256Index, key Key256) {
	if k.store.has256(idx) {
		return
	}
	if name, ok := NameForKey256Index(idx); ok {
		k.writeKeyToFile(false, name, key[:])
	}
	k.store.insert256(idx, key)
}

// LoadFromFile parses a key file into the store. Each line is split on '=';
// lines that do not split into exactly two pieces are ignored, spaces are
// stripped from both pieces. In general mode the name is lowercased and
// resolved through the 128-bit then 256-bit name tables; unrecognized names
// and malformed values skip the line only, never the file. In title-key mode
// the name is itself a 32-hex-digit rights ID and every well-formed line is
// accepted. Inserts are first writer wins and never trigger write-back.
func (k *KeyManager) LoadFromFile(path string, isTitleKeys bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.loadFromFile(path, isTitleKeys)
}

func (k *KeyManager) loadFromFile(path string, isTitleKeys bool) {
	lines, err := fsutil.ReadLines(path)
	if err != nil {
		return
	}

	for _, line := range lines {
		parts := strings.Split(line, "=")
		if len(parts) != 2 {
			continue
		}
		name := strings.ReplaceAll(parts[0], " ", "")
		value := strings.ReplaceAll(parts[1], " ", "")

		if isTitleKeys {
			rightsIDRaw, err := hexutil.DecodeFixed(name, 16)
			if err != nil {
				logger.LogDebug("Skipping malformed title key line", map[string]interface{}{
					"file": path, "name": name,
				})
				continue
			}
			keyRaw, err := hexutil.DecodeFixed(value, 16)
			if err != nil {
				continue
			}
			var rightsID [16]byte
			var key Key128
			copy(rightsID[:], rightsIDRaw)
			copy(key[:], keyRaw)
			k.store.insert128(titleKeyIndex(rightsID), key)
			continue
		}

		name = strings.ToLower(name)
		if idx, ok := s128FileID[name]; ok {
			keyRaw, err := hexutil.DecodeFixed(value, 16)
			if err != nil {
				logger.LogDebug("Skipping malformed key line", map[string]interface{}{
					"file": path, "name": name,
				})
				continue
			}
			var key Key128
			copy(key[:], keyRaw)
			k.store.insert128(idx, key)
		} else if idx, ok := s256FileID[name]; ok {
			keyRaw, err := hexutil.DecodeFixed(value, 32)
			if err != nil {
				continue
			}
			var key Key256
			copy(key[:], keyRaw)
			k.store.insert256(idx, key)
		}
		// Unknown names are silently skipped so newer key files keep loading.
	}
}

// attemptLoadKeyFile loads filename from dir1, falling back to dir2. Missing
// key files are not an error; the keys simply stay absent until a consumer
// reports them missing.
func (k *KeyManager) attemptLoadKeyFile(dir1, dir2, filename string, isTitleKeys bool) {
	if path := filepath.Join(dir1, filename); fsutil.FileExists(path) {
		logger.LogDebug("Loading key file", map[string]interface{}{"path": path})
		k.loadFromFile(path, isTitleKeys)
		return
	}
	if path := filepath.Join(dir2, filename); fsutil.FileExists(path) {
		logger.LogDebug("Loading key file", map[string]interface{}{"path": path})
		k.loadFromFile(path, isTitleKeys)
	}
}

// writeKeyToFile appends one entry to the matching autogenerated key file,
// prepending the explanatory header when the file is new, then reloads the
// file so the in-memory store reflects exactly what is on disk. Callers hold
// the write lock; this sequence must not interleave with another writer.
func (k *KeyManager) writeKeyToFile(titleKey bool, name string, key []byte) {
	filename := "title.keys_autogenerated"
	if !titleKey {
		if k.cfg.UseDevKeys {
			filename = "dev.keys_autogenerated"
		} else {
			filename = "prod.keys_autogenerated"
		}
	}

	path := filepath.Join(k.cfg.KeysDir, filename)
	var entry strings.Builder
	if !fsutil.FileExists(path) {
		entry.WriteString(autogeneratedHeader)
	}
	entry.WriteString(fmt.Sprintf("\n%s = %s", name, hexutil.Encode(key)))

	if err := fsutil.AppendStringToFile(path, entry.String()); err != nil {
		logger.LogError("Failed to persist derived key", err, map[string]interface{}{
			"path": path, "name": name,
		})
		return
	}
	logger.LogInfo("Persisted derived key", map[string]interface{}{
		"file": filename, "name": name,
	})

	k.attemptLoadKeyFile(k.cfg.KeysDir, k.cfg.KeysDir, filename, titleKey)
}

// KeyFileExists reports whether the relevant base key file is present in
// either key directory: title.keys for title queries, otherwise the general
// key file of the active key set. Container loaders treat a false result for
// general keys as "cannot attempt decryption".
func (k *KeyManager) KeyFileExists(isTitleQuery bool) bool {
	filename := "title.keys"
	if !isTitleQuery {
		filename = k.cfg.baseKeyFile()
	}
	return fsutil.FileExists(filepath.Join(k.cfg.FallbackKeysDir, filename)) ||
		fsutil.FileExists(filepath.Join(k.cfg.KeysDir, filename))
}

// LoadedKeyNames returns the sorted canonical names of the named keys the
// store currently holds, per size class.
func (k *KeyManager) LoadedKeyNames() (s128, s256 []string) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	all128, all256 := KnownKeyNames()
	for _, name := range all128 {
		if k.store.has128(s128FileID[name]) {
			s128 = append(s128, name)
		}
	}
	for _, name := range all256 {
		if k.store.has256(s256FileID[name]) {
			s256 = append(s256, name)
		}
	}
	return s128, s256
}

// TitleKeyCount reports how many per-content title keys are loaded.
func (k *KeyManager) TitleKeyCount() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.store.countTitleKeys()
}
