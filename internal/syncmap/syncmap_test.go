package syncmap

import (
	"sync"
	"testing"
)

func TestMap_BasicOperations(t *testing.T) {
	sm := New[string, int]()
	sm.Store("one", 1)

	if val, ok := sm.Load("one"); !ok || val != 1 {
		t.Errorf("Load(one) = %v, %v; want 1, true", val, ok)
	}
	if val, ok := sm.Load("two"); ok {
		t.Errorf("Load(two) = %v, %v; want 0, false", val, ok)
	}

	if actual, loaded := sm.LoadOrStore("one", 5); actual != 1 || !loaded {
		t.Errorf("LoadOrStore(one, 5) = %v, %v; want 1, true", actual, loaded)
	}
	if actual, loaded := sm.LoadOrStore("two", 2); actual != 2 || loaded {
		t.Errorf("LoadOrStore(two, 2) = %v, %v; want 2, false", actual, loaded)
	}

	if val, ok := sm.LoadAndDelete("two"); !ok || val != 2 {
		t.Errorf("LoadAndDelete(two) = %v, %v; want 2, true", val, ok)
	}
	if sm.Len() != 1 {
		t.Errorf("Len() = %d; want 1", sm.Len())
	}

	snap := sm.Snapshot()
	snap["three"] = 3
	if _, ok := sm.Load("three"); ok {
		t.Error("Snapshot must not alias the map")
	}

	sm.Clear()
	if sm.Len() != 0 {
		t.Errorf("Len() after Clear = %d; want 0", sm.Len())
	}
}

func TestMap_UpdateIsAtomic(t *testing.T) {
	sm := New[string, int]()
	if _, ok := sm.Update("n", func(cur int) int { return cur + 1 }); ok {
		t.Fatal("Update must not create missing keys")
	}
	sm.Store("n", 0)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				sm.Update("n", func(cur int) int { return cur + 1 })
			}
		}()
	}
	wg.Wait()

	if val, _ := sm.Load("n"); val != 5000 {
		t.Errorf("Load(n) = %d; want 5000", val)
	}
}

func TestMap_Compute(t *testing.T) {
	sm := New[string, int]()

	got := sm.Compute("k", func(cur int, ok bool) int {
		if ok {
			t.Errorf("Compute on missing key reported present with %d", cur)
		}
		return 1
	})
	if got != 1 {
		t.Errorf("Compute(k) = %d; want 1", got)
	}

	got = sm.Compute("k", func(cur int, ok bool) int {
		if !ok || cur != 1 {
			t.Errorf("Compute saw %d, %v; want 1, true", cur, ok)
		}
		return cur + 1
	})
	if val, _ := sm.Load("k"); got != 2 || val != 2 {
		t.Errorf("Compute(k) = %d, stored %d; want 2", got, val)
	}
}
