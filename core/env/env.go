package env

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Store is the process-wide set of named string variables. It is mutated by
// the export and unset builtins and inherited in full by every launched
// child process.
type Store interface {
	// Getenv retrieves the value of the variable named by key. It returns
	// "" if the variable is not present.
	Getenv(key string) string
	// LookupEnv retrieves the value of the variable named by key and
	// whether it is present.
	LookupEnv(key string) (string, bool)
	// Setenv sets the value of the variable named by key, overwriting any
	// previous value.
	Setenv(key, value string) error
	// Unsetenv removes the variable named by key. Removing a variable
	// that doesn't exist is not an error.
	Unsetenv(key string) error
	// Environ returns all variables in "key=value" form, sorted by key.
	Environ() []string
}

// NewMapEnv creates a new empty Store backed by a map.
func NewMapEnv() *MapEnv {
	return &MapEnv{}
}

// NewMapEnvFromEnvList creates a Store holding a copy of the variables in
// environ, which must be in the "key=value" form returned by os.Environ.
// Entries without an "=" become variables with an empty value.
func NewMapEnvFromEnvList(environ []string) *MapEnv {
	out := &MapEnv{}

	for _, e := range environ {
		key, value, _ := strings.Cut(e, "=")
		// Ignore error, it will never be set for MapEnv.
		_ = out.Setenv(key, value)
	}

	return out
}

// MapEnv implements an in-memory Store.
type MapEnv struct {
	rw  sync.RWMutex
	env map[string]string
}

var _ Store = (*MapEnv)(nil)

// Unsetenv implements Store.Unsetenv.
func (m *MapEnv) Unsetenv(key string) error {
	m.rw.Lock()
	defer m.rw.Unlock()
	if m.env != nil {
		delete(m.env, key)
	}
	return nil
}

// Setenv implements Store.Setenv.
func (m *MapEnv) Setenv(key, value string) error {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
	return nil
}

// LookupEnv implements Store.LookupEnv.
func (m *MapEnv) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv implements Store.Getenv.
func (m *MapEnv) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// Environ implements Store.Environ.
func (m *MapEnv) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	var env []string
	for k, v := range m.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)

	return env
}
