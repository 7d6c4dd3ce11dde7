package services

import (
	"testing"

	"github.com/Wikid82/pokedex/backend/internal/models"
)

func BenchmarkSeal(b *testing.B) {
	s := NewSealer("bench-secret")
	base := models.Stats{"HP": 45, "Attack": 49, "Defense": 49, "Sp. Attack": 65, "Sp. Defense": 65, "Speed": 45}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Seal(base)
	}
}

func BenchmarkUnwrap(b *testing.B) {
	s := NewImageService(0)
	raw := "https://www.google.com/imgres?imgurl=https%3A%2F%2Fimg.example%2Fpikachu.png&imgrefurl=x"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Unwrap(raw)
	}
}

func BenchmarkParseCreateInput(b *testing.B) {
	body := []byte(`{"name":{"english":"Bulbasaur","french":"Bulbizarre"},"type":["Grass","Poison"],"base":{"HP":45,"Attack":49},"imageUrl":"https://img.example/1.png"}`)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseCreateInput(body); err != nil {
			b.Fatal(err)
		}
	}
}
