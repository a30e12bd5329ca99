package connection

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chenqi92/inflowave-sub011/errors"
	"github.com/chenqi92/inflowave-sub011/metric"
)

// Profile holds the settings for one database connection.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`

	// Token authenticates against InfluxDB 2.x; Username and Password
	// against 1.x endpoints.
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// Org and Database are the default query scope for this connection.
	Org      string `json:"org,omitempty"`
	Database string `json:"database,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Invalidator is notified when a connection's cached state must be dropped:
// on removal and on any settings change.
type Invalidator func(connectionID string)

// Registry tracks connection profiles by ID. It owns ID assignment and tells
// its invalidator whenever a connection's cached results can no longer be
// trusted.
type Registry struct {
	mu          sync.RWMutex
	profiles    map[string]Profile
	invalidator Invalidator
	metrics     *metric.Metrics
	logger      *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithInvalidator sets the callback run when a connection is removed or updated.
func WithInvalidator(fn Invalidator) RegistryOption {
	return func(r *Registry) {
		r.invalidator = fn
	}
}

// WithMetrics keeps the active-connection gauge current.
func WithMetrics(m *metric.Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty connection registry.
func NewRegistry(options ...RegistryOption) *Registry {
	r := &Registry{
		profiles: make(map[string]Profile),
		logger:   slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Add registers a new connection profile and returns it with its assigned ID.
func (r *Registry) Add(profile Profile) (Profile, error) {
	if err := validateProfile(profile); err != nil {
		return Profile{}, err
	}

	now := time.Now()
	profile.ID = uuid.NewString()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	r.mu.Lock()
	r.profiles[profile.ID] = profile
	count := len(r.profiles)
	r.mu.Unlock()

	r.recordCount(count)
	r.logger.Info("connection registered",
		"connection_id", profile.ID,
		"name", profile.Name,
		"url", profile.URL)
	return profile, nil
}

// Get returns the profile for the given ID.
func (r *Registry) Get(id string) (Profile, error) {
	r.mu.RLock()
	profile, exists := r.profiles[id]
	r.mu.RUnlock()

	if !exists {
		return Profile{}, errors.WrapInvalid(errors.ErrConnectionNotFound,
			"Registry", "Get", "connection lookup")
	}
	return profile, nil
}

// Update replaces the stored settings for an existing connection. The ID and
// creation time are preserved. Cached results for the connection are
// invalidated: changed settings may point at a different server or scope.
func (r *Registry) Update(id string, profile Profile) (Profile, error) {
	if err := validateProfile(profile); err != nil {
		return Profile{}, err
	}

	r.mu.Lock()
	existing, exists := r.profiles[id]
	if !exists {
		r.mu.Unlock()
		return Profile{}, errors.WrapInvalid(errors.ErrConnectionNotFound,
			"Registry", "Update", "connection lookup")
	}

	profile.ID = existing.ID
	profile.CreatedAt = existing.CreatedAt
	profile.UpdatedAt = time.Now()
	r.profiles[id] = profile
	r.mu.Unlock()

	r.invalidate(id)
	r.logger.Info("connection updated", "connection_id", id, "name", profile.Name)
	return profile, nil
}

// Remove deletes a connection and invalidates its cached results.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	if _, exists := r.profiles[id]; !exists {
		r.mu.Unlock()
		return errors.WrapInvalid(errors.ErrConnectionNotFound,
			"Registry", "Remove", "connection lookup")
	}
	delete(r.profiles, id)
	count := len(r.profiles)
	r.mu.Unlock()

	r.recordCount(count)
	r.invalidate(id)
	r.logger.Info("connection removed", "connection_id", id)
	return nil
}

// List returns all profiles sorted by name, ties broken by ID.
func (r *Registry) List() []Profile {
	r.mu.RLock()
	profiles := make([]Profile, 0, len(r.profiles))
	for _, profile := range r.profiles {
		profiles = append(profiles, profile)
	}
	r.mu.RUnlock()

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].Name != profiles[j].Name {
			return profiles[i].Name < profiles[j].Name
		}
		return profiles[i].ID < profiles[j].ID
	})
	return profiles
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}

func (r *Registry) invalidate(id string) {
	if r.invalidator != nil {
		r.invalidator(id)
	}
}

func (r *Registry) recordCount(count int) {
	if r.metrics != nil {
		r.metrics.RecordConnectionCount(count)
	}
}

func validateProfile(profile Profile) error {
	if strings.TrimSpace(profile.Name) == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Registry", "validateProfile", "name check")
	}
	if strings.TrimSpace(profile.URL) == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Registry", "validateProfile", "URL check")
	}
	return nil
}
