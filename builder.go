package goSession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Builder assembles a [Manager]. Collaborators that are not supplied are constructed from
// the configuration: a transport client bound to the session state, a store from the
// configured driver, and no-op notifier and navigator.
type Builder struct {
	config Config

	store     session.Store
	storeDeps session.Dependencies
	api       AuthAPI
	notifier  Notifier
	navigator Navigator
	logger    *slog.Logger
	clock     Clock
	auditSink AuditSink
	decoder   *jwt.Manager
	http      *http.Client

	built bool
}

// New returns a Builder with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore supplies the durable store. The Manager does not close it.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithRedis supplies the client used by the redis storage driver.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.storeDeps.Redis = client
	return b
}

// WithSQLite supplies the database used by the sqlite storage driver.
func (b *Builder) WithSQLite(db *gorm.DB) *Builder {
	b.storeDeps.SQLite = db
	return b
}

// WithAuthAPI supplies the auth backend. Without it an HTTP client is built from
// Config.Transport.
func (b *Builder) WithAuthAPI(api AuthAPI) *Builder {
	b.api = api
	return b
}

// WithHTTPClient sets the HTTP client used by the default transport.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.http = client
	return b
}

func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

func (b *Builder) WithNavigator(nav Navigator) *Builder {
	b.navigator = nav
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces the wall clock, for tests.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithDecoder supplies the credential decoder. The default decodes without verifying
// signatures, which is sufficient for reading expiry and role.
func (b *Builder) WithDecoder(decoder *jwt.Manager) *Builder {
	b.decoder = decoder
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Manager. A Builder can be used
// once.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = logging.New(cfg.Logging.internal(), "session")
	}
	clock := b.clock
	if clock == nil {
		clock = SystemClock{}
	}
	notifier := b.notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}

	decoder := b.decoder
	if decoder == nil {
		var err error
		decoder, err = jwt.NewManager(jwt.Config{})
		if err != nil {
			return nil, err
		}
	}

	// -------- STORE --------
	store := b.store
	ownsStore := false
	if store == nil {
		var err error
		store, err = session.New(cfg.Storage.driverConfig(), b.storeDeps)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		ownsStore = true
	}

	state := newState()

	// -------- TRANSPORT --------
	api := b.api
	if api == nil {
		client := transport.NewClient(transport.Config{
			BaseURL:      cfg.Transport.BaseURL,
			Timeout:      cfg.Transport.Timeout,
			HeaderName:   cfg.Transport.HeaderName,
			HeaderPrefix: cfg.Transport.HeaderPrefix,
			LoginPath:    cfg.Transport.LoginPath,
			RefreshPath:  cfg.Transport.RefreshPath,
			CheckPath:    cfg.Transport.CheckPath,
			HTTPClient:   b.http,
		}, state)
		if cfg.Transport.ForwardMessages {
			client.WithMessages(notifier)
		}
		api = client
	}

	m := &Manager{
		config:     cfg,
		state:      state,
		store:      store,
		ownsStore:  ownsStore,
		decoder:    decoder,
		classifier: permission.NewClassifier(cfg.Roles.PrivilegedMarker),
		notifier:   notifier,
		logger:     logger,
		clock:      clock,
		metrics:    NewMetrics(cfg.Metrics),
		scheduler:  newExpiryScheduler(clock),
	}
	m.SetNavigator(b.navigator)
	m.scope, m.scopeCancel = context.WithCancel(context.Background())
	m.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Now:        clock.Now,
	}, b.auditSink)
	m.flows = flows.New(m.flowDeps(api))

	b.built = true

	return m, nil
}

func (m *Manager) flowDeps(api AuthAPI) flows.Deps {
	metricInc := func(id int) { m.metrics.Inc(MetricID(id)) }
	emit := func(ctx context.Context, event string, success bool, identity session.Identity, err error) {
		m.emitAudit(ctx, event, success, identity, err, nil)
	}
	pickRole := flows.PreferPrivileged(m.classifier)

	return flows.Deps{
		Login: flows.LoginDeps{
			API:             api,
			PickRole:        pickRole,
			FallbackMessage: "Login failed",
			MetricInc:       metricInc,
			EmitAudit:       emit,
			Metrics: flows.LoginMetrics{
				LoginSuccess: int(MetricLoginSuccess),
				LoginFailure: int(MetricLoginFailure),
			},
			Events: flows.LoginEvents{
				LoginSuccess: EventLoginSuccess,
				LoginFailure: EventLoginFailure,
			},
			Errors: flows.LoginErrors{
				NotReady:           ErrManagerNotReady,
				InvalidCredentials: ErrInvalidCredentials,
				Transport:          ErrTransport,
			},
		},
		Refresh: flows.RefreshDeps{
			API:       api,
			PickRole:  pickRole,
			MetricInc: metricInc,
			EmitAudit: emit,
			Metrics: flows.RefreshMetrics{
				RefreshSuccess: int(MetricRefreshSuccess),
				RefreshFailure: int(MetricRefreshFailure),
			},
			Events: flows.RefreshEvents{
				RefreshSuccess: EventRefreshSuccess,
				RefreshFailure: EventRefreshFailure,
			},
			Errors: flows.RefreshErrors{
				NotReady:      ErrManagerNotReady,
				RefreshFailed: ErrRefreshFailed,
			},
		},
		Validate: flows.ValidateDeps{
			API:       api,
			PickRole:  pickRole,
			MetricInc: metricInc,
			EmitAudit: emit,
			Metrics: flows.ValidateMetrics{
				RestoreSuccess: int(MetricRestoreSuccess),
				RestoreFailure: int(MetricRestoreFailure),
			},
			Events: flows.ValidateEvents{
				RestoreSuccess: EventSessionRestored,
				RestoreFailure: EventSessionRestoreFailed,
			},
			Errors: flows.ValidateErrors{
				NotReady:  ErrManagerNotReady,
				Rejected:  ErrSessionRejected,
				Transport: ErrTransport,
			},
		},
		Logout: flows.LogoutDeps{
			Store:    m.store,
			Keys:     m.config.Storage.Keys(),
			Target:   m.config.Routes.Login,
			Navigate: m.navigate,
			IgnoreNavigation: func(err error) bool {
				if errors.Is(err, ErrNavigationDuplicated) {
					m.logger.Debug("already at login entry")
					return true
				}
				return false
			},
			MetricInc: metricInc,
			EmitAudit: emit,
			Metric:    int(MetricLogout),
			Event:     EventLogout,
		},
	}
}
