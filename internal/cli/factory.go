// Package cli holds the wiring shared by the papyrus commands: kind resolution,
// engine construction over the configured store, validation reports and rendering.
package cli

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	papyrus "github.com/PapyGame/PapyrusWebBackend-sub011"
	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/compiler"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/adapters/memory"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/adapters/redis"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/adapters/sqlite"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/sequence"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/structure"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/observability"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/persistence/middleware"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports"
)

var builtins = map[string]func() *kinds.Kind{
	sequence.ID:  sequence.New,
	structure.ID: structure.New,
}

// KindNames returns the built-in kind names, sorted.
func KindNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options configure the engine built for a command.
type Options struct {
	Kind string
	// DescriptionPath replaces the kind description with a YAML document. Node and edge
	// names must match the ones the kind resolver knows.
	DescriptionPath string
	RedisAddr       string
	SQLitePath      string
	// EncryptionKey, hex encoded (32 bytes), encrypts stored sessions with AES-GCM.
	EncryptionKey string
	Hooks         domain.LifecycleHooks
}

// ResolveKind returns a built-in kind, with its description optionally loaded from a file.
func ResolveKind(name, descriptionPath string) (*kinds.Kind, error) {
	ctor, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q (available: %s)", name, strings.Join(KindNames(), ", "))
	}
	kind := ctor()
	if descriptionPath == "" {
		return kind, nil
	}
	d, err := compiler.NewParser().ParseDescriptionFile(descriptionPath)
	if err != nil {
		return nil, err
	}
	custom := *kind
	custom.Description = d
	return &custom, nil
}

// Closer releases the resources behind an engine.
type Closer func() error

// Store is the session persistence selected by Options.
type Store struct {
	Sessions ports.SessionStore
	// Locker is set when the store is shared by several processes.
	Locker ports.DistributedLocker
	Close  Closer
}

// CreateEngine builds an engine for opts. The returned Closer closes the session store.
func CreateEngine(opts Options, logger *slog.Logger) (*papyrus.Engine, Closer, error) {
	kind, err := ResolveKind(opts.Kind, opts.DescriptionPath)
	if err != nil {
		return nil, nil, err
	}
	st, err := OpenStore(opts)
	if err != nil {
		return nil, nil, err
	}
	engine, err := NewEngine(kind, st, opts, logger)
	if err != nil {
		return nil, nil, errors.Join(err, st.Close())
	}
	return engine, st.Close, nil
}

// NewEngine builds an engine for kind over an opened store.
func NewEngine(kind *kinds.Kind, st *Store, opts Options, logger *slog.Logger) (*papyrus.Engine, error) {
	engineOpts := []papyrus.Option{
		papyrus.WithLogger(logger),
		papyrus.WithStore(st.Sessions),
		papyrus.WithLifecycleHooks(observability.Combine(observability.LoggingHooks(logger), opts.Hooks)),
	}
	if st.Locker != nil {
		engineOpts = append(engineOpts, papyrus.WithLocker(st.Locker))
	}
	engine, err := papyrus.New(kind, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

// OpenStore opens the session store of opts, wrapped in encryption when a key is set.
func OpenStore(opts Options) (*Store, error) {
	st, err := createStore(opts)
	if err != nil {
		return nil, err
	}
	if opts.EncryptionKey == "" {
		return st, nil
	}
	key, err := hex.DecodeString(opts.EncryptionKey)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("encryption key must be hex encoded: %w", err), st.Close())
	}
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	if err != nil {
		return nil, errors.Join(err, st.Close())
	}
	st.Sessions = middleware.Chain(st.Sessions, mw)
	return st, nil
}

// Persistent reports whether opts select a store outliving the process.
func (o Options) Persistent() bool {
	return o.RedisAddr != "" || o.SQLitePath != ""
}

func createStore(opts Options) (*Store, error) {
	switch {
	case opts.RedisAddr != "" && opts.SQLitePath != "":
		return nil, errors.New("--redis and --sqlite are mutually exclusive")
	case opts.RedisAddr != "":
		store := redis.New(opts.RedisAddr, "", 0)
		return &Store{Sessions: store, Locker: redis.NewLocker(store.Client(), redis.DefaultPrefix), Close: store.Close}, nil
	case opts.SQLitePath != "":
		store, err := sqlite.New(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Store{Sessions: store, Close: store.Close}, nil
	default:
		return &Store{Sessions: memory.NewStore(), Close: func() error { return nil }}, nil
	}
}
