package state

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type counter struct {
	N int
}

func TestStoreCreatesLazily(t *testing.T) {
	s := NewStore(func() counter { return counter{N: 10} })
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
	if got := s.Load(7); got.N != 10 {
		t.Fatalf("Load = %+v, want N=10", got)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestStoreDoPropagatesError(t *testing.T) {
	s := NewStore[counter](nil)
	boom := errors.New("boom")
	err := s.Do(1, func(c *counter) error {
		c.N = 5
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if got := s.Load(1).N; got != 5 {
		t.Fatalf("mutation before error should persist, got %d", got)
	}
}

func TestStoreSerializesSameKey(t *testing.T) {
	s := NewStoreShards[counter](4, nil)
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(42, func(c *counter) error {
				n := c.N
				time.Sleep(time.Microsecond)
				c.N = n + 1
				return nil
			})
		}()
	}
	wg.Wait()
	if got := s.Load(42).N; got != 200 {
		t.Fatalf("N = %d, want 200 (lost updates)", got)
	}
}

func TestStoreDifferentKeysDoNotBlock(t *testing.T) {
	s := NewStoreShards[counter](1, nil)
	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.Do(1, func(c *counter) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	done := make(chan struct{})
	go func() {
		_ = s.Do(2, func(c *counter) error {
			c.N++
			return nil
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("key 2 blocked while key 1 was held")
	}
	close(release)
}

func TestStoreLoadReturnsCopy(t *testing.T) {
	s := NewStore[counter](nil)
	c := s.Load(3)
	c.N = 99
	if got := s.Load(3).N; got != 0 {
		t.Fatalf("Load leaked a reference, N = %d", got)
	}
}
