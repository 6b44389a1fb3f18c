package models

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Connection represents a user-configured AWX / Tower instance.
type Connection struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Scheme    string `json:"scheme"` // "http" or "https"
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"password,omitempty"`
	Insecure  bool   `json:"insecure"` // skip TLS verification
	CACert    string `json:"ca_cert,omitempty"`
	Version   string `json:"version,omitempty"`    // detected from the config endpoint
	APIPrefix string `json:"api_prefix,omitempty"` // e.g. "/api/v2/"
}

// BaseURL returns the full base URL for this connection.
func (c *Connection) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d", c.Scheme, c.Host, c.Port)
}

// ApplyDefaults fills in scheme and port when they were left empty.
func (c *Connection) ApplyDefaults() {
	if c.Scheme == "" {
		c.Scheme = "https"
	}
	if c.Port == 0 {
		if c.Scheme == "https" {
			c.Port = 443
		} else {
			c.Port = 80
		}
	}
}

// Redacted returns a copy safe to serialize to clients.
func (c *Connection) Redacted() Connection {
	out := *c
	out.Password = ""
	return out
}

// ConnectionStore is an in-memory thread-safe store for connections.
type ConnectionStore struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

// NewConnectionStore creates an empty connection store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{conns: make(map[string]*Connection)}
}

// Create adds a new connection, assigning it a UUID.
func (s *ConnectionStore) Create(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.New().String()
	s.conns[c.ID] = c
}

// Get returns a copy of the connection with the given ID, or nil if not found.
func (s *ConnectionStore) Get(id string) *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conns[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// FindByName returns a copy of the first connection with the given name, or nil.
func (s *ConnectionStore) FindByName(name string) *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conns {
		if c.Name == name {
			cp := *c
			return &cp
		}
	}
	return nil
}

// List returns copies of all connections, so callers may read them while
// SetVersion updates the store.
func (s *ConnectionStore) List() []Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Connection, 0, len(s.conns))
	for _, c := range s.conns {
		result = append(result, *c)
	}
	return result
}

// SetVersion records the discovered version and API prefix.
func (s *ConnectionStore) SetVersion(id, version, apiPrefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[id]
	if !ok {
		return
	}
	c.Version = version
	if apiPrefix != "" {
		c.APIPrefix = apiPrefix
	}
}

// Delete removes a connection by ID.
func (s *ConnectionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[id]; !ok {
		return false
	}
	delete(s.conns, id)
	return true
}
