package keyring

// keyStore is the authoritative in-memory key state: two independent maps
// keyed by the full (type, field1, field2) triple. Inserts are first writer
// wins, there is no delete, keys accumulate for the lifetime of the owner.
type keyStore struct {
	s128 map[Key128Index]Key128
	s256 map[Key256Index]Key256
}

func newKeyStore() *keyStore {
	return &keyStore{
		s128: make(map[Key128Index]Key128),
		s256: make(map[Key256Index]Key256),
	}
}

func (s *keyStore) has128(idx Key128Index) bool {
	_, ok := s.s128[idx]
	return ok
}

func (s *keyStore) has256(idx Key256Index) bool {
	_, ok := s.s256[idx]
	return ok
}

// lookup128 is the absence-aware accessor internal code uses instead of the
// zero-on-miss GetKey contract.
func (s *keyStore) lookup128(idx Key128Index) (Key128, bool) {
	k, ok := s.s128[idx]
	return k, ok
}

func (s *keyStore) lookup256(idx Key256Index) (Key256, bool) {
	k, ok := s.s256[idx]
	return k, ok
}

// insert128 stores key at idx unless the slot is already occupied and
// reports whether the key was stored. The no-op on collision is what lets
// autogenerated files reload without clobbering hand-provided keys.
func (s *keyStore) insert128(idx Key128Index, key Key128) bool {
	if _, ok := s.s128[idx]; ok {
		return false
	}
	s.s128[idx] = key
	return true
}

func (s *keyStore) insert256(idx Key256Index, key Key256) bool {
	if _, ok := s.s256[idx]; ok {
		return false
	}
	s.s256[idx] = key
	return true
}

// countTitleKeys reports how many per-content title keys are held.
func (s *keyStore) countTitleKeys() int {
	n := 0
	for idx := range s.s128 {
		if idx.Type == S128Titlekey {
			n++
		}
	}
	return n
}
