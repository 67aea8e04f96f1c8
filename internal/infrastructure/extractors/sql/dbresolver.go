package sql

import (
	"context"
	"database/sql"
	"sync"

	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

// ConnectionDBResolver opens one *sql.DB per connection code using the
// driver/dsn named in that connection's resolved settings, caching the
// handle for reuse across extract calls. It never imports a concrete
// driver package itself — callers register the driver(s) their
// deployment needs via the usual side-effect import, keeping this
// extractor genuinely driver-agnostic.
type ConnectionDBResolver struct {
	Connections ports.ConnectionResolver

	mu   sync.Mutex
	open map[string]*sql.DB
}

// NewConnectionDBResolver builds a resolver backed by connections.
func NewConnectionDBResolver(connections ports.ConnectionResolver) *ConnectionDBResolver {
	return &ConnectionDBResolver{Connections: connections, open: make(map[string]*sql.DB)}
}

func (r *ConnectionDBResolver) Open(connectionCode string) (*sql.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if db, ok := r.open[connectionCode]; ok {
		return db, nil
	}

	settings, err := r.Connections.Resolve(context.Background(), connectionCode)
	if err != nil {
		return nil, err
	}
	driver, _ := settings["driver"].(string)
	dsn, _ := settings["dsn"].(string)
	if driver == "" || dsn == "" {
		return nil, pipelineerr.Newf(pipelineerr.ConfigInvalid, "connection %q is missing driver/dsn settings", connectionCode)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "opening connection "+connectionCode)
	}
	r.open[connectionCode] = db
	return db, nil
}

var _ DBResolver = (*ConnectionDBResolver)(nil)
