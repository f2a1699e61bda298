package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/shandysiswandi/gotp/internal/otp/outbound/cache"
	"github.com/shandysiswandi/gotp/internal/otp/outbound/db"
	"github.com/shandysiswandi/gotp/internal/otp/outbound/memory"
	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/shandysiswandi/gotp/internal/pkg/config"
	"github.com/shandysiswandi/gotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/gotp/internal/pkg/hash"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/mail"
	"github.com/shandysiswandi/gotp/internal/pkg/messaging"
	"github.com/shandysiswandi/gotp/internal/pkg/router"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
	"github.com/shandysiswandi/gotp/internal/pkg/validator"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Storage drivers accepted by storage.driver.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

const (
	defaultKeyPrefix     = "gotp:"
	defaultPurgeInterval = time.Minute
	pubsubScope          = "https://www.googleapis.com/auth/pubsub"
	pingTimeout          = 5 * time.Second
)

var (
	errMissingDigestSecret = errors.New("storage.digest_secret must be set")
	errUnknownStorage      = errors.New("storage.driver must be memory, redis or postgres")
)

// fatal logs and exits; init steps have no caller to return errors to.
func fatal(msg string, err error, kv ...any) {
	slog.Error(msg, append([]any{"error", err}, kv...)...)
	os.Exit(1)
}

// pingWithin runs ping with a bounded timeout derived from ctx.
func pingWithin(ctx context.Context, ping func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	return ping(ctx)
}

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		fatal("config: load", err)
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}

	a.config = cfg
	a.onClose("Config", func(context.Context) error { return cfg.Close() })
}

func (a *App) initInstrument() {
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		fatal("instrument: setup", err)
	}
	a.ins = ins
	a.onClose("Instrument", ins.Shutdown)
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	secret := a.config.GetString("storage.digest_secret")
	if secret == "" {
		fatal("missing setting", errMissingDigestSecret)
	}
	a.hmac = hash.NewHMACSHA256(secret)

	validator, err := validator.NewV10Validator()
	if err != nil {
		fatal("validator: setup", err)
	}
	a.validator = validator
}

func (a *App) initStorage() {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))

	switch driver {
	case "", StorageMemory:
		slog.Warn("using in-memory otp storage, records are lost on restart")
		a.storage = memory.New(a.clock, a.hmac)

	case StorageRedis:
		a.initCache()

		prefix := a.config.GetString("storage.key_prefix")
		if prefix == "" {
			prefix = defaultKeyPrefix
		}
		a.storage = cache.New(a.cacheConn, prefix, a.hmac, a.ins)

	case StoragePostgres:
		a.initDatabase()

		stg := db.NewDB(a.dbConn, a.hmac, a.clock, a.ins)
		if a.config.GetBool("database.migrate") {
			if err := stg.Migrate(a.ctx); err != nil {
				fatal("postgres: migrate otp tables", err)
			}
		}
		a.storage = stg

	default:
		fatal("unknown storage driver", errUnknownStorage, "driver", driver)
	}
}

func (a *App) initDatabase() {
	poolCfg, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		fatal("postgres: parse database.url", err)
	}

	// Unset keys keep the pgxpool defaults.
	if v := a.config.GetInt32("database.pool.max_conns"); v > 0 {
		poolCfg.MaxConns = v
	}
	if v := a.config.GetInt32("database.pool.min_conns"); v > 0 {
		poolCfg.MinConns = v
	}
	if v := a.config.GetSecond("database.pool.max_conn_lifetime_seconds"); v > 0 {
		poolCfg.MaxConnLifetime = v
	}
	if v := a.config.GetSecond("database.pool.max_conn_idle_seconds"); v > 0 {
		poolCfg.MaxConnIdleTime = v
	}
	if v := a.config.GetSecond("database.pool.health_check_period_seconds"); v > 0 {
		poolCfg.HealthCheckPeriod = v
	}

	pool, err := pgxpool.NewWithConfig(a.ctx, poolCfg)
	if err != nil {
		fatal("postgres: open pool", err)
	}

	if err := pingWithin(a.ctx, pool.Ping); err != nil {
		fatal("postgres: ping", err)
	}

	a.dbConn = pool
	a.onClose("Database", func(context.Context) error {
		pool.Close()
		return nil
	})
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		fatal("redis: parse redis.url", err)
	}

	rdb := redis.NewClient(opt)

	if err := pingWithin(a.ctx, func(ctx context.Context) error { return rdb.Ping(ctx).Err() }); err != nil {
		fatal("redis: ping", err)
	}

	a.cacheConn = rdb
	a.onClose("Redis", func(context.Context) error { return rdb.Close() })
}

// initMail is skipped when mail.host is empty; mail agents then fail module init.
func (a *App) initMail() {
	host := strings.TrimSpace(a.config.GetString("mail.host"))
	if host == "" {
		return
	}

	mail, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     host,
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
	})
	if err != nil {
		fatal("mail: setup smtp", err)
	}

	a.mail = mail
	a.onClose("Mail", func(context.Context) error { return mail.Close() })
}

// initMessaging is skipped when messaging.driver is empty.
func (a *App) initMessaging() {
	driver := strings.TrimSpace(a.config.GetString("messaging.driver"))
	if driver == "" {
		return
	}

	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
			ProducerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				cfg.DialTimeout = a.config.GetSecond("messaging.nsq.dial_timeout_seconds")
				cfg.ReadTimeout = a.config.GetSecond("messaging.nsq.read_timeout_seconds")
				cfg.WriteTimeout = a.config.GetSecond("messaging.nsq.write_timeout_seconds")
				return cfg
			}(),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("messaging.google_pubsub.project_id"),
			ClientOptions: a.pubsubOptions(),
		},
	})
	if err != nil {
		fatal("messaging: connect", err, "driver", driver)
	}

	a.messaging = client
	a.onClose("Messaging", func(context.Context) error { return client.Close() })
}

func (a *App) pubsubOptions() []option.ClientOption {
	if a.config.GetString("messaging.driver") != messaging.DriverGooglePubSub {
		return nil
	}

	var opts []option.ClientOption
	if v := strings.TrimSpace(a.config.GetString("messaging.google_pubsub.endpoint")); v != "" {
		opts = append(opts, option.WithEndpoint(v))
	}
	if a.config.GetBool("messaging.google_pubsub.without_auth") {
		return append(opts, option.WithoutAuthentication())
	}

	credsJSON := a.config.GetBinary("messaging.google_pubsub.credentials_json")
	if path := strings.TrimSpace(a.config.GetString("messaging.google_pubsub.credentials_file")); path != "" {
		// #nosec G304 -- path is from trusted config file.
		b, err := os.ReadFile(path)
		if err != nil {
			fatal("pubsub: read credentials file", err)
		}
		credsJSON = b
	}
	if len(credsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(a.ctx, credsJSON, pubsubScope)
		if err != nil {
			fatal("pubsub: parse credentials", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	return opts
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", router.HeaderAPIKey, router.HeaderCorrelationID},
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}
