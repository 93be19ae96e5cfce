package keyring

import "sort"

// The name tables map the canonical lowercase names used in key files to key
// slot indices. They are built once at package init and never mutated; an
// index without a name entry can still be set and read programmatically but
// can never be loaded from or persisted to a key file.

var s128FileID = map[string]Key128Index{
	"master_key_00":               {S128Master, 0, 0},
	"master_key_01":               {S128Master, 1, 0},
	"master_key_02":               {S128Master, 2, 0},
	"master_key_03":               {S128Master, 3, 0},
	"master_key_04":               {S128Master, 4, 0},
	"package1_key_00":             {S128Package1, 0, 0},
	"package1_key_01":             {S128Package1, 1, 0},
	"package1_key_02":             {S128Package1, 2, 0},
	"package1_key_03":             {S128Package1, 3, 0},
	"package1_key_04":             {S128Package1, 4, 0},
	"package2_key_00":             {S128Package2, 0, 0},
	"package2_key_01":             {S128Package2, 1, 0},
	"package2_key_02":             {S128Package2, 2, 0},
	"package2_key_03":             {S128Package2, 3, 0},
	"package2_key_04":             {S128Package2, 4, 0},
	"titlekek_00":                 {S128Titlekek, 0, 0},
	"titlekek_01":                 {S128Titlekek, 1, 0},
	"titlekek_02":                 {S128Titlekek, 2, 0},
	"titlekek_03":                 {S128Titlekek, 3, 0},
	"titlekek_04":                 {S128Titlekek, 4, 0},
	"eticket_rsa_kek":             {S128ETicketRSAKek, 0, 0},
	"key_area_key_application_00": {S128KeyArea, 0, uint64(KeyAreaApplication)},
	"key_area_key_application_01": {S128KeyArea, 1, uint64(KeyAreaApplication)},
	"key_area_key_application_02": {S128KeyArea, 2, uint64(KeyAreaApplication)},
	"key_area_key_application_03": {S128KeyArea, 3, uint64(KeyAreaApplication)},
	"key_area_key_application_04": {S128KeyArea, 4, uint64(KeyAreaApplication)},
	"key_area_key_ocean_00":       {S128KeyArea, 0, uint64(KeyAreaOcean)},
	"key_area_key_ocean_01":       {S128KeyArea, 1, uint64(KeyAreaOcean)},
	"key_area_key_ocean_02":       {S128KeyArea, 2, uint64(KeyAreaOcean)},
	"key_area_key_ocean_03":       {S128KeyArea, 3, uint64(KeyAreaOcean)},
	"key_area_key_ocean_04":       {S128KeyArea, 4, uint64(KeyAreaOcean)},
	"key_area_key_system_00":      {S128KeyArea, 0, uint64(KeyAreaSystem)},
	"key_area_key_system_01":      {S128KeyArea, 1, uint64(KeyAreaSystem)},
	"key_area_key_system_02":      {S128KeyArea, 2, uint64(KeyAreaSystem)},
	"key_area_key_system_03":      {S128KeyArea, 3, uint64(KeyAreaSystem)},
	"key_area_key_system_04":      {S128KeyArea, 4, uint64(KeyAreaSystem)},
	"sd_card_kek_source":          {S128Source, uint64(SourceSDKEK), 0},
	"aes_kek_generation_source":   {S128Source, uint64(SourceAESKEKGeneration), 0},
	"aes_key_generation_source":   {S128Source, uint64(SourceAESKeyGeneration), 0},
	"sd_seed":                     {S128SDSeed, 0, 0},
}

var s256FileID = map[string]Key256Index{
	"header_key":              {S256Header, 0, 0},
	"sd_card_save_key_source": {S256SDKeySource, uint64(SDKeySave), 0},
	"sd_card_nca_key_source":  {S256SDKeySource, uint64(SDKeyNCA), 0},
}

// Key128IndexForName resolves a canonical key file name to its 128-bit slot.
func Key128IndexForName(name string) (Key128Index, bool) {
	idx, ok := s128FileID[name]
	return idx, ok
}

// Key256IndexForName resolves a canonical key file name to its 256-bit slot.
func Key256IndexForName(name string) (Key256Index, bool) {
	idx, ok := s256FileID[name]
	return idx, ok
}

// NameForKey128Index is the reverse lookup, a linear scan over the table.
// Indices are unique per table so at most one name matches.
func NameForKey128Index(idx Key128Index) (string, bool) {
	for name, i := range s128FileID {
		if i == idx {
			return name, true
		}
	}
	return "", false
}

// NameForKey256Index is the 256-bit reverse lookup.
func NameForKey256Index(idx Key256Index) (string, bool) {
	for name, i := range s256FileID {
		if i == idx {
			return name, true
		}
	}
	return "", false
}

// KnownKeyNames returns the sorted canonical names of every slot that can
// appear in a general key file, 128-bit table first.
func KnownKeyNames() (s128, s256 []string) {
	for name := range s128FileID {
		s128 = append(s128, name)
	}
	for name := range s256FileID {
		s256 = append(s256, name)
	}
	sort.Strings(s128)
	sort.Strings(s256)
	return s128, s256
}
