package cache

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func BenchmarkMemoryStore_Get(b *testing.B) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	for i := 0; i < 1000; i++ {
		s.Set(ctx, "/api/sager?page="+strconv.Itoa(i), []byte(`{"success":true,"data":[]}`))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Get(ctx, "/api/sager?page=500")
	}
}

func BenchmarkMemoryStore_Set(b *testing.B) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	value := []byte(`{"success":true,"data":[]}`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Set(ctx, "/api/sager?page=1", value)
	}
}

func BenchmarkQueryKeyer_Key(b *testing.B) {
	k := NewQueryKeyer()
	params := map[string]any{
		"page":     3,
		"per_page": 20,
		"q":        "separering",
		"type":     "case",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k.Key("/api/sager", params)
	}
}
