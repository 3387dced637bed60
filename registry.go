package gsdb

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Registry holds the databases of a running program by name. Names are
// matched case-insensitively. A Registry is not safe for concurrent use.
type Registry struct {
	dbs map[string]*Database
}

func NewRegistry() *Registry {
	return &Registry{dbs: make(map[string]*Database)}
}

// Create makes a new database handle and registers it under name.
func (r *Registry) Create(name string, opt Options) (*Database, error) {
	k := strings.ToLower(name)
	if _, found := r.dbs[k]; found {
		return nil, fmt.Errorf("%s: %w", name, ErrDuplicateDatabase)
	}
	db := New(name, opt)
	r.dbs[k] = db
	return db, nil
}

// Lookup returns the registered database called name, or nil.
func (r *Registry) Lookup(name string) *Database {
	return r.dbs[strings.ToLower(name)]
}

// Delete unregisters a database and drops its in-memory tree. It reports
// whether the database was registered.
func (r *Registry) Delete(name string) bool {
	k := strings.ToLower(name)
	db, found := r.dbs[k]
	if !found {
		return false
	}
	db.Unload()
	delete(r.dbs, k)
	return true
}

func (r *Registry) Len() int {
	return len(r.dbs)
}

// Names returns the names of all registered databases, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.dbs))
	for db := range maps.Values(r.dbs) {
		names = append(names, db.name)
	}
	slices.Sort(names)
	return names
}

// WriteAll writes every registered database that has a write hook, in name
// order, and returns the joined errors.
func (r *Registry) WriteAll() error {
	var errs []error
	for _, name := range r.Names() {
		db := r.Lookup(name)
		if db.opt.Write == nil {
			continue
		}
		if err := db.Write(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close checks that every database has been deleted. Leftover databases
// mean some owner forgot its cleanup, so they are reported as an error
// and then dropped.
func (r *Registry) Close() error {
	if len(r.dbs) == 0 {
		return nil
	}
	names := r.Names()
	clear(r.dbs)
	return fmt.Errorf("gsdb: %d databases still registered at shutdown: %s", len(names), strings.Join(names, ", "))
}
