package state

import (
	"testing"
	"time"
)

func testState(id, value string) EntityState {
	return EntityState{
		Entity:    Entity{ID: id, Name: "Sensor " + id, Kind: "sensor"},
		State:     value,
		Available: true,
		UpdatedAt: time.Now().UTC(),
	}
}

func TestRegistrySetGet(t *testing.T) {
	r := NewRegistry()

	r.Set(testState("a", "21.5"))

	got, ok := r.Get("a")
	if !ok {
		t.Fatal("Get() ok = false after Set")
	}
	if got.State != "21.5" || !got.Available {
		t.Errorf("Get() = %+v", got)
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("Get() ok = true for unknown id")
	}
}

func TestRegistryMarkUnavailableRetainsValue(t *testing.T) {
	r := NewRegistry()
	r.Set(testState("a", "21.5"))

	at := time.Now().UTC()
	r.MarkUnavailable(Entity{ID: "a"}, "timeout", at)

	got, ok := r.Get("a")
	if !ok {
		t.Fatal("record removed by MarkUnavailable")
	}
	if got.Available {
		t.Error("Available = true after MarkUnavailable")
	}
	if got.State != "21.5" {
		t.Errorf("State = %q, want last-known value retained", got.State)
	}
	if got.ErrorKind != "timeout" {
		t.Errorf("ErrorKind = %q, want timeout", got.ErrorKind)
	}
	if !got.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, at)
	}
}

func TestRegistryMarkUnavailableCreatesRecord(t *testing.T) {
	r := NewRegistry()

	// an entity that has never produced a value still becomes visible
	r.MarkUnavailable(Entity{ID: "new", Name: "New"}, "connection", time.Now())

	got, ok := r.Get("new")
	if !ok {
		t.Fatal("no record created for never-seen entity")
	}
	if got.State != "" || got.Available {
		t.Errorf("record = %+v, want empty unavailable", got)
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	r.Set(testState("a", "1"))
	r.Set(testState("b", "2"))

	r.Remove("a")

	if _, ok := r.Get("a"); ok {
		t.Error("record still present after Remove")
	}
	if _, ok := r.Get("b"); !ok {
		t.Error("Remove deleted an unrelated record")
	}
}

func TestRegistryAll(t *testing.T) {
	r := NewRegistry()
	r.Set(testState("a", "1"))
	r.Set(testState("b", "2"))

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("All() length = %d, want 2", len(all))
	}

	// All returns a snapshot; mutating it must not touch the registry
	all[0].State = "mutated"
	for _, id := range []string{"a", "b"} {
		got, _ := r.Get(id)
		if got.State == "mutated" {
			t.Error("All() did not return a copy")
		}
	}
}

func TestRegistrySubscribe(t *testing.T) {
	r := NewRegistry()
	ch := r.Subscribe()
	defer r.Unsubscribe(ch)

	r.Set(testState("a", "1"))

	select {
	case got := <-ch:
		if got.Entity.ID != "a" {
			t.Errorf("received update for %q, want a", got.Entity.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}

	r.MarkUnavailable(Entity{ID: "a"}, "timeout", time.Now())
	select {
	case got := <-ch:
		if got.Available {
			t.Error("expected unavailable update")
		}
	case <-time.After(time.Second):
		t.Fatal("no unavailable update received")
	}
}

func TestRegistryUnsubscribeClosesChannel(t *testing.T) {
	r := NewRegistry()
	ch := r.Subscribe()

	r.Unsubscribe(ch)

	select {
	case _, open := <-ch:
		if open {
			t.Error("channel still open after Unsubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}

	// double unsubscribe is safe
	r.Unsubscribe(ch)

	// publishing after unsubscribe must not panic
	r.Set(testState("a", "1"))
}

func TestRegistrySlowSubscriberDropsUpdates(t *testing.T) {
	r := NewRegistry()
	ch := r.Subscribe()
	defer r.Unsubscribe(ch)

	// overflow the buffer; the publisher must never block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 250; i++ {
			r.Set(testState("a", "v"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publishing blocked on a slow subscriber")
	}
}
