package models

import (
	"sync"
	"testing"
)

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name   string
		conn   Connection
		expect string
	}{
		{"https default", Connection{Scheme: "https", Host: "tower.lab.local", Port: 443}, "https://tower.lab.local:443"},
		{"http custom port", Connection{Scheme: "http", Host: "awx.lab.local", Port: 32000}, "http://awx.lab.local:32000"},
		{"localhost", Connection{Scheme: "http", Host: "localhost", Port: 80}, "http://localhost:80"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.conn.BaseURL()
			if got != tc.expect {
				t.Errorf("BaseURL() = %q, want %q", got, tc.expect)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name       string
		conn       Connection
		wantScheme string
		wantPort   int
	}{
		{"empty", Connection{}, "https", 443},
		{"http", Connection{Scheme: "http"}, "http", 80},
		{"explicit port", Connection{Scheme: "http", Port: 8052}, "http", 8052},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.conn
			c.ApplyDefaults()
			if c.Scheme != tc.wantScheme || c.Port != tc.wantPort {
				t.Errorf("ApplyDefaults() = (%q, %d), want (%q, %d)", c.Scheme, c.Port, tc.wantScheme, tc.wantPort)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	c := &Connection{Name: "tower", Username: "admin", Password: "secret"}
	r := c.Redacted()
	if r.Password != "" {
		t.Errorf("Redacted().Password = %q, want empty", r.Password)
	}
	if c.Password != "secret" {
		t.Error("Redacted mutated the original connection")
	}
}

func TestConnectionStore_CRUD(t *testing.T) {
	store := NewConnectionStore()

	conn := &Connection{Name: "test-tower", Host: "localhost"}
	store.Create(conn)
	if conn.ID == "" {
		t.Fatal("Create did not assign an ID")
	}

	got := store.Get(conn.ID)
	if got == nil || got.Name != "test-tower" {
		t.Fatalf("Get(%s) returned %v", conn.ID, got)
	}
	if store.Get("nonexistent") != nil {
		t.Error("Get(nonexistent) should return nil")
	}

	if found := store.FindByName("test-tower"); found == nil || found.ID != conn.ID {
		t.Error("FindByName did not return the created connection")
	}
	if store.FindByName("other") != nil {
		t.Error("FindByName(other) should return nil")
	}

	if list := store.List(); len(list) != 1 {
		t.Fatalf("List() returned %d items, want 1", len(list))
	}

	store.SetVersion(conn.ID, "3.8.6", "/api/v2/")
	if got := store.Get(conn.ID); got.Version != "3.8.6" || got.APIPrefix != "/api/v2/" {
		t.Errorf("SetVersion = (%q, %q), want (3.8.6, /api/v2/)", got.Version, got.APIPrefix)
	}
	store.SetVersion(conn.ID, "3.8.7", "")
	if got := store.Get(conn.ID); got.APIPrefix != "/api/v2/" {
		t.Errorf("SetVersion with empty prefix overwrote APIPrefix: %q", got.APIPrefix)
	}
	// missing id must not panic
	store.SetVersion("nonexistent", "1.0", "")

	if !store.Delete(conn.ID) {
		t.Fatal("Delete returned false for existing connection")
	}
	if store.Get(conn.ID) != nil {
		t.Error("Get after Delete should return nil")
	}
	if store.Delete("missing") {
		t.Error("Delete should return false for missing ID")
	}
}

func TestConnectionStore_Concurrent(t *testing.T) {
	store := NewConnectionStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Create(&Connection{Name: "concurrent", Host: "localhost"})
		}()
	}
	wg.Wait()

	list := store.List()
	if len(list) != 50 {
		t.Fatalf("expected 50 connections, got %d", len(list))
	}

	for _, c := range list {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			store.Get(id)
		}(c.ID)
		go func(id string) {
			defer wg.Done()
			store.SetVersion(id, "2.1.1", "/api/v2/")
		}(c.ID)
	}
	wg.Wait()
}

func TestConnectionStore_ReturnsCopies(t *testing.T) {
	store := NewConnectionStore()
	conn := &Connection{Name: "tower", Host: "localhost"}
	store.Create(conn)

	list := store.List()
	list[0].Version = "mutated"
	if got := store.Get(conn.ID); got.Version != "" {
		t.Errorf("List exposed stored connection: Version = %q", got.Version)
	}
	got := store.Get(conn.ID)
	got.Name = "renamed"
	if again := store.Get(conn.ID); again.Name != "tower" {
		t.Errorf("Get exposed stored connection: Name = %q", again.Name)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.SetVersion(conn.ID, "4.0.0", "/api/controller/v2/")
		}()
		go func() {
			defer wg.Done()
			for _, c := range store.List() {
				_ = c.Redacted().Version
			}
		}()
	}
	wg.Wait()
}
