package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dvloznov/pharmainsight/internal/domain"
	"github.com/dvloznov/pharmainsight/internal/session"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.Put(ctx, &session.Session{}); err == nil {
		t.Error("Put() without ID error = nil")
	}
	if _, err := s.Get(ctx, "nope"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrNotFound", err)
	}

	if err := s.Put(ctx, &session.Session{ID: "a", Filename: "sales.csv"}); err != nil {
		t.Fatalf("Put() unexpected error: %v", err)
	}
	if !s.Exists(ctx, "a") || s.Exists(ctx, "b") {
		t.Error("Exists() reported wrong membership")
	}

	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	got.Table = &domain.Table{}
	again, _ := s.Get(ctx, "a")
	if again.Table != nil {
		t.Error("Get() returned a shared session; mutation leaked into the store")
	}
	if _, err := again.Data(); !errors.Is(err, session.ErrNotProcessed) {
		t.Errorf("Data() error = %v, want ErrNotProcessed", err)
	}
}

func TestStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := fmt.Sprintf("s%d", i)
		go func() {
			defer wg.Done()
			_ = s.Put(ctx, &session.Session{ID: id})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Get(ctx, id)
			_ = s.Len()
		}()
	}
	wg.Wait()

	if s.Len() != 50 {
		t.Errorf("Len() = %d, want 50", s.Len())
	}
}
