package schema

import (
	"slices"
)

// Database is a validated set of definitions and their dependency graph.
type Database struct {
	definitions []*Definition
	index       map[string]*Definition
}

// NewDatabase validates definitions. A name may be declared more than once
// only with identical definitions. Every dependency must be declared and the
// dependencies may not form a cycle.
func NewDatabase(definitions ...Definition) (*Database, error) {
	if len(definitions) == 0 {
		return nil, ErrNoDefinitions
	}

	db := &Database{index: make(map[string]*Definition, len(definitions))}

	var ambiguous []string
	for i := range definitions {
		def := &definitions[i]
		if err := def.validate(); err != nil {
			return nil, err
		}

		known, ok := db.index[def.Name]
		if ok {
			if !known.same(def) && !slices.Contains(ambiguous, def.Name) {
				ambiguous = append(ambiguous, def.Name)
			}
			continue
		}

		cp := def.clone()
		db.index[cp.Name] = &cp
		db.definitions = append(db.definitions, &cp)
	}
	if len(ambiguous) > 0 {
		return nil, ErrAmbiguousTable(ambiguous)
	}

	for _, def := range db.definitions {
		for _, dep := range def.DependsOn {
			if _, ok := db.index[dep]; !ok {
				return nil, ErrUnknownDependency(def.Name, dep)
			}
		}
	}

	if err := db.checkCycles(); err != nil {
		return nil, err
	}
	return db, nil
}

// checkCycles walks the graph depth first, reporting the first back edge.
func (db *Database) checkCycles() error {
	const (
		_ = iota
		visiting
		done
	)

	state := make(map[string]int, len(db.definitions))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			start := slices.Index(path, name)
			return ErrCycle(append(slices.Clone(path[start:]), name))
		}

		state[name] = visiting
		path = append(path, name)
		for _, dep := range db.index[name].DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	for _, def := range db.definitions {
		if err := visit(def.Name); err != nil {
			return err
		}
	}
	return nil
}

// Definitions returns every definition in declaration order.
func (db *Database) Definitions() []Definition {
	out := make([]Definition, len(db.definitions))
	for i, def := range db.definitions {
		out[i] = def.clone()
	}
	return out
}

func (db *Database) Definition(name string) (Definition, bool) {
	def, ok := db.index[name]
	if !ok {
		return Definition{}, false
	}
	return def.clone(), true
}

// Ancestors returns every table that name is built from, directly or not.
// Dependencies come before the tables that read them.
func (db *Database) Ancestors(name string) ([]string, error) {
	order, err := db.Order(name)
	if err != nil {
		return nil, err
	}
	return order[:len(order)-1], nil
}

// Order returns names and all their ancestors, each once, so that every
// table comes after its dependencies. Independent tables keep the order in
// which they were asked for.
func (db *Database) Order(names ...string) ([]string, error) {
	var (
		out  []string
		seen = make(map[string]bool)
	)

	var visit func(name string)
	visit = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		for _, dep := range db.index[name].DependsOn {
			visit(dep)
		}
		out = append(out, name)
	}

	for _, name := range names {
		if _, ok := db.index[name]; !ok {
			return nil, ErrUnknownTable(name)
		}
		visit(name)
	}
	return out, nil
}

// Levels groups names by their depth in the graph: definitions without
// dependencies are on level 1, every other one is one level below its
// deepest dependency. Names keep declaration order within a level.
func (db *Database) Levels() [][]string {
	depth := make(map[string]int, len(db.definitions))

	var level func(name string) int
	level = func(name string) int {
		if d, ok := depth[name]; ok {
			return d
		}
		d := 1
		for _, dep := range db.index[name].DependsOn {
			d = max(d, level(dep)+1)
		}
		depth[name] = d
		return d
	}

	var levels [][]string
	for _, def := range db.definitions {
		d := level(def.Name)
		for len(levels) < d {
			levels = append(levels, nil)
		}
		levels[d-1] = append(levels[d-1], def.Name)
	}
	return levels
}
