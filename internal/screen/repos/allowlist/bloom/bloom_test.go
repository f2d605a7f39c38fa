package bloom

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFactory_New_Basic(t *testing.T) {
	bf := NewFactory().New(128, 0.01)
	if bf == nil {
		t.Fatalf("expected non-nil bloom filter")
	}

	key := []byte("5551234567")
	if bf.MightContain(key) {
		t.Fatalf("unexpected positive before add")
	}
	bf.Add(key)
	if !bf.MightContain(key) {
		t.Fatalf("expected maybe after add")
	}
}

func TestFactory_New_Defaults(t *testing.T) {
	// capacity=0 and invalid fp fall back to internal defaults
	bf := NewFactory().New(0, 0)
	key := []byte("5550100")
	bf.Add(key)
	assert.True(t, bf.MightContain(key))
}

func TestFilter_ConcurrentReadsDuringWrites(t *testing.T) {
	f := NewFactory().New(256, 0.01)

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5_000; i++ {
			f.Add([]byte(fmt.Sprintf("555%07d", i%100)))
		}
		close(done)
	}()
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					_ = f.MightContain([]byte("0000000000"))
				}
			}
		}()
	}
	wg.Wait()
}

func TestSizer_CommonCases(t *testing.T) {
	s := NewSizer()

	m, k := s.Size(1, 0.01)
	if m < 10 || k != 7 {
		t.Fatalf("n=1,p=0.01: got m=%d k=%d; want m>=10 k=7", m, k)
	}

	m, k = s.Size(1_000_000, 0.01)
	if m < 9_500_000 || m > 9_700_000 {
		t.Fatalf("n=1e6,p=0.01: unexpected m=%d (expected around 9.6e6)", m)
	}
	if k != 7 {
		t.Fatalf("n=1e6,p=0.01: k=%d; want 7", k)
	}

	_, k = s.Size(10_000, 0.5)
	if k != 1 {
		t.Fatalf("p=0.5: k=%d; want 1", k)
	}
}

func TestSizer_ClampingAndDefaults(t *testing.T) {
	s := NewSizer()

	m, k := s.Size(0, 0)
	assert.NotZero(t, m)
	assert.NotZero(t, k)

	m2, k2 := s.Size(100, 1.0)
	m3, k3 := s.Size(100, 0.01)
	assert.Equal(t, m3, m2, "p>=1 falls back to the default rate")
	assert.Equal(t, k3, k2)
}

func BenchmarkBloom_Negative(b *testing.B) {
	bf := NewFactory().New(1000, 0.01)
	for i := 0; i < 1000; i++ {
		bf.Add([]byte(fmt.Sprintf("555%07d", i)))
	}
	absent := []byte("4440000000")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bf.MightContain(absent)
	}
}
