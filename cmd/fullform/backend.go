package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/aretw0/fullform/internal/config"
	"github.com/aretw0/fullform/pkg/adapters/file"
	"github.com/aretw0/fullform/pkg/adapters/formplayer"
	"github.com/aretw0/fullform/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/fullform/pkg/adapters/redis"
	"github.com/aretw0/fullform/pkg/adapters/sqlite"
	"github.com/aretw0/fullform/pkg/formui"
	"github.com/aretw0/fullform/pkg/persistence/middleware"
	"github.com/aretw0/fullform/pkg/ports"
	"github.com/aretw0/fullform/pkg/session"
	"github.com/redis/go-redis/v9"
)

// backend bundles the stores selected by the configuration.
type backend struct {
	snapshots ports.SnapshotStore
	options   ports.OptionsStore
	locker    ports.DistributedLocker
	closers   []func() error
}

func (b *backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// openBackend builds the snapshot and options stores named by c.Store.Backend and wraps
// the snapshot store with the configured persistence middleware.
func openBackend(c *config.Config) (*backend, error) {
	b := &backend{}
	switch c.Store.Backend {
	case "memory":
		b.snapshots = memory.NewStore()
		b.options = memory.NewOptionsStore()
	case "file":
		b.snapshots = file.New(c.Store.Path)
		b.options = file.NewOptionsStore(filepath.Join(filepath.Dir(c.Store.Path), "options"))
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		b.snapshots = redisAdapter.NewFromClient(client,
			redisAdapter.WithPrefix(c.Redis.Prefix),
			redisAdapter.WithTTL(c.Redis.TTL()),
		)
		b.options = redisAdapter.NewOptionsStore(client, "")
		if c.Redis.Lock {
			b.locker = redisAdapter.NewLocker(client, c.Redis.Prefix)
		}
		b.closers = append(b.closers, client.Close)
	case "sqlite":
		db, err := sqlite.Open(c.Store.Path)
		if err != nil {
			return nil, err
		}
		b.snapshots = db.Snapshots()
		b.options = db.Options()
		b.closers = append(b.closers, db.Close)
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	var mws []middleware.Middleware
	if len(c.Encryption.PIIPatterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(c.Encryption.PIIPatterns)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		mws = append(mws, pii)
	}
	if c.Encryption.Secret != "" {
		enc, err := middleware.ConfigFromSecrets([]byte(c.Encryption.Salt), c.Encryption.Secret, c.Encryption.Fallbacks...)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("encryption: %w", err)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	b.snapshots = middleware.Chain(b.snapshots, mws...)
	return b, nil
}

// managerOptions returns the session options for the configured throttle, lock and
// answer transport.
func managerOptions(c *config.Config, b *backend) []session.Option {
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithFormOptions(
			formui.WithThrottle(c.Throttle.ThrottleInterval()),
			formui.WithLogger(logger),
		),
	}
	if b.locker != nil {
		opts = append(opts, session.WithLocker(b.locker))
	}
	if c.Formplayer.URL != "" {
		client := formplayer.New(c.Formplayer.URL,
			formplayer.WithAuthToken(c.Formplayer.AuthToken),
			formplayer.WithUser(c.Formplayer.Domain, c.Formplayer.Username),
			formplayer.WithLogger(logger),
		)
		opts = append(opts,
			session.WithTransport(client),
			session.WithSendTimeout(c.Formplayer.Timeout()),
		)
	}
	return opts
}

func newManager(c *config.Config, b *backend, extra ...session.Option) *session.Manager {
	return session.NewManager(b.snapshots, append(managerOptions(c, b), extra...)...)
}
