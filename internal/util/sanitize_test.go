package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeForLog_PokemonNames(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"plain english":         {"Bulbasaur", "Bulbasaur"},
		"accents kept":          {"Salamèche", "Salamèche"},
		"symbols kept":          {"Nidoran♀ & Mr. Mime", "Nidoran♀ & Mr. Mime"},
		"forged log line":       {"Pikachu\nlevel=info msg=\"admin login\"", "Pikachu level=info msg=\"admin login\""},
		"windows line ending":   {"Évoli\r\nRaichu", "Évoli Raichu"},
		"lone carriage return":  {"Mew\rMewtwo", "Mew Mewtwo"},
		"tab between locales":   {"Eevee\tÉvoli", "Eevee Évoli"},
		"control run collapses": {"Ditto\x00\x01\x1b[31mMétamorph", "Ditto [31mMétamorph"},
		"trailing delete":       {"Snorlax\x7f", "Snorlax "},
		"only control bytes":    {"\x02\x03\x7f", " "},
		"empty stays empty":     {"", ""},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := SanitizeForLog(tc.in)
			assert.Equal(t, tc.want, got)
			assert.False(t, controlChars.MatchString(got), "control characters left in %q", got)
		})
	}
}

func TestSanitizeForLog_NotificationMessage(t *testing.T) {
	msg := "#25 " + SanitizeForLog("Pikachu\n") + " (" + SanitizeForLog("Pika\r\nchu") + ")"
	assert.Equal(t, "#25 Pikachu  (Pika chu)", msg)
}
