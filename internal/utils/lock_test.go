package utils

import (
	"sync"
	"testing"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex(8)
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("e1|2025-01-10")
			counter++
			km.Unlock("e1|2025-01-10")
		}()
	}
	wg.Wait()
	if counter != 100 {
		t.Fatalf("expected 100 increments, got %d", counter)
	}
}

func TestKeyedMutexStableStripe(t *testing.T) {
	km := NewKeyedMutex(4)
	km.Lock("a")
	done := make(chan struct{})
	go func() {
		km.Lock("a")
		km.Unlock("a")
		close(done)
	}()
	select {
	case <-done:
		t.Fatalf("second lock on same key acquired while held")
	default:
	}
	km.Unlock("a")
	<-done
}
