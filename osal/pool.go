package osal

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// PATH_ENV overrides the default operation module search path.
const PATH_ENV = "RVCUSTOM_OPSET_PATH"

// DEFAULT_PATH is searched when no path is configured.
const DEFAULT_PATH = "./data/opset"

// MODULE_EXT is the file extension of operation modules.
const MODULE_EXT = ".star"

// SearchPaths returns the operation module search path from the
// environment, or the default path.
func SearchPaths() (paths []string) {
	env := os.Getenv(PATH_ENV)
	for _, path := range filepath.SplitList(env) {
		if len(path) > 0 {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		paths = []string{DEFAULT_PATH}
	}
	return
}

// Pool is a registry of operations, indexed by case-insensitive name.
type Pool struct {
	Verbose bool

	ops map[string]*Operation
}

// NewPool returns a pool holding the base operation set.
func NewPool() (pool *Pool) {
	pool = &Pool{ops: map[string]*Operation{}}
	for _, op := range BaseOperations() {
		pool.ops[op.Name] = op
	}
	return
}

// Operation looks up an operation.
func (pool *Pool) Operation(name string) (op *Operation, ok bool) {
	op, ok = pool.ops[strings.ToLower(name)]
	return
}

// Names returns the sorted names of all operations.
func (pool *Pool) Names() (names []string) {
	for name := range pool.ops {
		names = append(names, name)
	}
	slices.Sort(names)
	return
}

// Add registers an operation.
//
// A module operation replaces a base operation of the same name. Between
// modules, the first definition wins and later ones are ignored.
func (pool *Pool) Add(op *Operation) (err error) {
	key := strings.ToLower(op.Name)
	prev, found := pool.ops[key]
	if found {
		switch {
		case prev.Base() && !op.Base():
			if pool.Verbose {
				log.Printf("osal: %v overrides base operation %v", op.Module, prev.Name)
			}
		case prev.Module == op.Module:
			err = ErrModule{Path: op.Module, Err: ErrOperationDuplicate}
			return
		default:
			if pool.Verbose {
				log.Printf("osal: %v ignored, already defined by %v", op.Name, prev.Module)
			}
			return
		}
	}

	pool.ops[key] = op
	return
}

// LoadSource registers the operations of a module held in memory.
func (pool *Pool) LoadSource(path string, src []byte) (err error) {
	ml := &moduleLoader{path: path}
	err = ml.exec(src)
	if err != nil {
		return
	}

	for _, op := range ml.ops {
		err = pool.Add(op)
		if err != nil {
			return
		}
	}

	if pool.Verbose {
		log.Printf("osal: %v: %d operations", path, len(ml.ops))
	}

	return
}

// LoadModule registers the operations of a module file.
func (pool *Pool) LoadModule(path string) (err error) {
	src, err := os.ReadFile(path)
	if err != nil {
		err = ErrModule{Path: path, Err: err}
		return
	}
	return pool.LoadSource(path, src)
}

// Load registers the operations of every module in the search path
// directories. Directories are searched in order, and the modules of a
// directory in name order. Missing directories are skipped.
func (pool *Pool) Load(paths ...string) (err error) {
	for _, dir := range paths {
		var matches []string
		matches, err = filepath.Glob(filepath.Join(dir, "*"+MODULE_EXT))
		if err != nil {
			return
		}
		if len(matches) == 0 {
			if _, serr := os.Stat(dir); errors.Is(serr, fs.ErrNotExist) && pool.Verbose {
				log.Printf("osal: %v: no such directory", dir)
			}
			continue
		}
		slices.Sort(matches)
		for _, path := range matches {
			err = pool.LoadModule(path)
			if err != nil {
				return
			}
		}
	}
	return
}
