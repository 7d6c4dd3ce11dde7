package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/Wikid82/pokedex/backend/internal/models"
)

// Sealer derives the integrity hash attached to every Pokemon returned by the API.
// The hash is a read-time annotation over the base stats and is never stored.
type Sealer struct {
	secret []byte
}

// SealedPokemon is the outgoing representation of a record.
type SealedPokemon struct {
	models.Pokemon
	IntegrityHash string `json:"integrityHash"`
}

func NewSealer(secret string) *Sealer {
	return &Sealer{secret: []byte(secret)}
}

// Seal returns the lowercase hex HMAC-SHA256 of the canonical form of base:
// a JSON object with keys in lexicographic order, e.g. {"Attack":49,"HP":45}.
func (s *Sealer) Seal(base models.Stats) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(canonicalStats(base))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Sealer) SealPokemon(p models.Pokemon) SealedPokemon {
	return SealedPokemon{Pokemon: p, IntegrityHash: s.Seal(p.Base)}
}

func (s *Sealer) SealAll(list []models.Pokemon) []SealedPokemon {
	out := make([]SealedPokemon, 0, len(list))
	for _, p := range list {
		out = append(out, s.SealPokemon(p))
	}
	return out
}

func canonicalStats(base models.Stats) []byte {
	keys := make([]string, 0, len(base))
	for k := range base {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		// Marshalling a string cannot fail.
		quoted, _ := json.Marshal(k)
		buf = append(buf, quoted...)
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(base[k]), 10)
	}
	return append(buf, '}')
}
