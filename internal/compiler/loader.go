package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/description"
)

// DirLoader serves the description documents (*.yaml, *.yml) of a directory, keyed by
// description id. The directory is scanned on first use.
type DirLoader struct {
	dir    string
	parser *Parser

	once  sync.Once
	descs map[string]*description.Description
	err   error
}

// NewDirLoader creates a loader over dir.
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{dir: dir, parser: NewParser()}
}

func (l *DirLoader) scan() {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		l.err = fmt.Errorf("failed to read description directory: %w", err)
		return
	}
	l.descs = make(map[string]*description.Description)
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		d, err := l.parser.ParseDescriptionFile(filepath.Join(l.dir, e.Name()))
		if err != nil {
			l.err = err
			return
		}
		if _, dup := l.descs[d.ID]; dup {
			l.err = fmt.Errorf("description %q is declared twice in %s", d.ID, l.dir)
			return
		}
		l.descs[d.ID] = d
	}
}

// Load returns the description with the given id.
func (l *DirLoader) Load(ctx context.Context, id string) (*description.Description, error) {
	l.once.Do(l.scan)
	if l.err != nil {
		return nil, l.err
	}
	d, ok := l.descs[id]
	if !ok {
		return nil, fmt.Errorf("description not found: %s", id)
	}
	return d, nil
}

// List returns the ids of the descriptions found in the directory.
func (l *DirLoader) List(ctx context.Context) ([]string, error) {
	l.once.Do(l.scan)
	if l.err != nil {
		return nil, l.err
	}
	ids := make([]string, 0, len(l.descs))
	for id := range l.descs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
