package state

import (
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func TestDeduplicator(t *testing.T) {
	d := NewDeduplicator(100)

	if d.HasSeen("/page1") {
		t.Error("fresh deduplicator reported /page1 as seen")
	}

	d.Add("/page1")
	if !d.HasSeen("/page1") {
		t.Error("/page1 not seen after Add")
	}

	// Idempotent
	d.Add("/page1")
	if d.Count() != 1 {
		t.Errorf("Count() = %d after duplicate Add, want 1", d.Count())
	}

	d.AddBatch([]string{"/page2", "/page3"})
	if d.Count() != 3 {
		t.Errorf("Count() = %d, want 3", d.Count())
	}

	all := d.GetAll()
	sort.Strings(all)
	want := []string{"/page1", "/page2", "/page3"}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("GetAll()[%d] = %q, want %q", i, all[i], want[i])
		}
	}
}

func TestManager_SeedAndSeen(t *testing.T) {
	m := NewManager(100, 5)
	m.SeedExplored("/", "/accounts/logout/")

	if !m.IsExplored("/") {
		t.Error("root not pre-marked explored")
	}
	if !m.IsExplored("/accounts/logout/") {
		t.Error("logout not pre-marked explored")
	}
	if !m.Seen("/") {
		t.Error("Seen must cover the explored set")
	}

	m.ReplaceFrontier([]string{"/page1"})
	if !m.Seen("/page1") {
		t.Error("Seen must cover the frontier")
	}
	if m.IsExplored("/page1") {
		t.Error("frontier membership is not exploration")
	}
}

func TestManager_ReplaceFrontier(t *testing.T) {
	m := NewManager(100, 5)

	if m.Level() != 0 {
		t.Errorf("initial Level() = %d, want 0", m.Level())
	}

	m.ReplaceFrontier([]string{"/a", "/b"})
	if m.FrontierLen() != 2 || m.Level() != 1 {
		t.Errorf("after first replace: len=%d level=%d, want 2/1", m.FrontierLen(), m.Level())
	}

	// Replacement is wholesale: /a and /b are gone.
	m.ReplaceFrontier([]string{"/c"})
	if m.InFrontier("/a") || m.InFrontier("/b") {
		t.Error("old frontier entries survived replacement")
	}
	if !m.InFrontier("/c") {
		t.Error("/c missing from new frontier")
	}
	if m.Level() != 2 {
		t.Errorf("Level() = %d, want 2", m.Level())
	}

	m.ReplaceFrontier(nil)
	if m.FrontierLen() != 0 {
		t.Errorf("FrontierLen() = %d after empty replacement, want 0", m.FrontierLen())
	}
}

func TestManager_Flags(t *testing.T) {
	m := NewManager(100, 2)

	fresh := m.AddFlags([]string{"flagA", "flagB", "flagA"})
	if len(fresh) != 2 {
		t.Errorf("AddFlags returned %d fresh flags, want 2", len(fresh))
	}
	if !m.QuotaReached() {
		t.Error("quota 2 should be reached with 2 flags")
	}

	// Re-adding returns nothing new and the set only grows.
	fresh = m.AddFlags([]string{"flagA"})
	if len(fresh) != 0 {
		t.Errorf("AddFlags returned %d for a duplicate, want 0", len(fresh))
	}
	if m.FlagCount() != 2 {
		t.Errorf("FlagCount() = %d, want 2", m.FlagCount())
	}
}

func TestManager_QuotaNotReached(t *testing.T) {
	m := NewManager(100, 5)
	m.AddFlags([]string{"only"})
	if m.QuotaReached() {
		t.Error("quota 5 reported reached with 1 flag")
	}
}

func TestManager_SnapshotRestore(t *testing.T) {
	m := NewManager(100, 5)
	m.SeedExplored("/", "/accounts/logout/")
	m.MarkExplored("/page1")
	m.ReplaceFrontier([]string{"/page2", "/page3"})
	m.AddFlags([]string{"flagA"})

	snap := m.Snapshot("app.example.com")
	if snap.Target != "app.example.com" {
		t.Errorf("Target = %q", snap.Target)
	}
	if snap.Level != 1 || len(snap.Frontier) != 2 || len(snap.Flags) != 1 {
		t.Errorf("snapshot = level %d, %d frontier, %d flags", snap.Level, len(snap.Frontier), len(snap.Flags))
	}

	restored := NewManager(100, 5)
	restored.Restore(snap)

	if !restored.IsExplored("/page1") {
		t.Error("restored manager lost explored URL")
	}
	if !restored.InFrontier("/page2") || !restored.InFrontier("/page3") {
		t.Error("restored manager lost frontier")
	}
	if restored.FlagCount() != 1 {
		t.Errorf("restored FlagCount() = %d, want 1", restored.FlagCount())
	}
	if restored.Level() != 1 {
		t.Errorf("restored Level() = %d, want 1", restored.Level())
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	loaded, err := s.Load()
	if err != nil || loaded != nil {
		t.Fatalf("Load() on empty store = (%v, %v), want (nil, nil)", loaded, err)
	}

	if err := s.Save(&CrawlState{Target: "t", Level: 3, UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err = s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Target != "t" || loaded.Level != 3 {
		t.Errorf("Load() = %+v", loaded)
	}
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawl.db")

	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}
	defer s.Close()

	loaded, err := s.Load()
	if err != nil || loaded != nil {
		t.Fatalf("Load() before Save = (%v, %v), want (nil, nil)", loaded, err)
	}

	saved := &CrawlState{
		Target:    "app.example.com",
		Explored:  []string{"/", "/page1"},
		Frontier:  []string{"/page2"},
		Flags:     []string{"flagA"},
		Level:     2,
		UpdatedAt: time.Now(),
	}
	if err := s.Save(saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err = s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Target != saved.Target || loaded.Level != saved.Level {
		t.Errorf("Load() = %+v, want %+v", loaded, saved)
	}
	if len(loaded.Explored) != 2 || len(loaded.Frontier) != 1 || len(loaded.Flags) != 1 {
		t.Errorf("Load() sets = %d/%d/%d", len(loaded.Explored), len(loaded.Frontier), len(loaded.Flags))
	}
}
