// Command server wires stores, services and transport, then runs the HTTP
// server until interrupted. Business logic lives in the internal service
// packages.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	authhandler "lifelink/internal/auth/handler"
	authservice "lifelink/internal/auth/service"
	"lifelink/internal/auth/token"
	donorhandler "lifelink/internal/donor/handler"
	donormodels "lifelink/internal/donor/models"
	donorservice "lifelink/internal/donor/service"
	donorstore "lifelink/internal/donor/store"
	listhandler "lifelink/internal/donorlist/handler"
	listmodels "lifelink/internal/donorlist/models"
	listservice "lifelink/internal/donorlist/service"
	liststore "lifelink/internal/donorlist/store"
	emergencyhandler "lifelink/internal/emergency/handler"
	emergencymodels "lifelink/internal/emergency/models"
	emergencyservice "lifelink/internal/emergency/service"
	emergencystore "lifelink/internal/emergency/store"
	"lifelink/internal/notify"
	"lifelink/internal/platform/config"
	"lifelink/internal/platform/httpserver"
	"lifelink/internal/platform/logger"
	"lifelink/internal/platform/metrics"
	"lifelink/internal/platform/postgres"
	httptransport "lifelink/internal/transport/http"
	"lifelink/pkg/platform/audit"
	auditkafka "lifelink/pkg/platform/audit/store/kafka"
	auditmemory "lifelink/pkg/platform/audit/store/memory"
	auditworker "lifelink/pkg/platform/audit/worker"
)

// Store unions cover every consumer interface in the service packages, so one
// variable serves all of them regardless of the backing implementation.
type donorStore interface {
	Create(ctx context.Context, donor *donormodels.Donor) error
	GetByID(ctx context.Context, id string) (*donormodels.Donor, error)
	GetByEmail(ctx context.Context, email string) (*donormodels.Donor, error)
	Update(ctx context.Context, donor *donormodels.Donor) error
	SetInDonorList(ctx context.Context, donorID string, inList bool) error
}

type listStore interface {
	Create(ctx context.Context, entry *listmodels.Entry) error
	GetByID(ctx context.Context, id string) (*listmodels.Entry, error)
	GetByDonorID(ctx context.Context, donorID string) (*listmodels.Entry, error)
	DeleteByDonorID(ctx context.Context, donorID string) error
	Delete(ctx context.Context, id string) (*listmodels.Entry, error)
	SetAvailability(ctx context.Context, id string, isAvailable bool) (*listmodels.Entry, error)
	ListAvailable(ctx context.Context) ([]*listmodels.Entry, error)
	FindAvailableByBloodGroup(ctx context.Context, group donormodels.BloodGroup) ([]*listmodels.Entry, error)
}

type requestStore interface {
	Create(ctx context.Context, req *emergencymodels.Request) error
	GetByID(ctx context.Context, id string) (*emergencymodels.Request, error)
	SetNotified(ctx context.Context, id string, donorIDs []string, updatedAt time.Time) error
	AppendResponse(ctx context.Context, id string, resp emergencymodels.Response) (*emergencymodels.Request, error)
	ListPendingNotified(ctx context.Context, donorID string) ([]*emergencymodels.Request, error)
	ListAll(ctx context.Context) ([]*emergencymodels.Request, error)
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		donors   donorStore
		entries  listStore
		requests requestStore
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		donors = donorstore.NewPostgres(db)
		entries = liststore.NewPostgres(db)
		requests = emergencystore.NewPostgres(db)
	} else {
		log.Warn("no database configured, running with in-memory stores")
		donors = donorstore.NewMemory()
		entries = liststore.NewMemory()
		requests = emergencystore.NewMemory()
	}

	publisher := audit.NewPublisher(256, log)
	var sink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := auditkafka.New(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			os.Exit(1)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafkaSink.Close(closeCtx); err != nil {
				log.Error("kafka sink close failed", "error", err)
			}
		}()
		sink = kafkaSink
	} else {
		sink = auditmemory.New()
	}
	go func() {
		_ = auditworker.New(sink, publisher.Inbox(), log).Run(ctx)
	}()

	gateway := buildGateway(cfg, log, m)

	tokens := token.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := authservice.New(donors, tokens, log, publisher)
	donorSvc := donorservice.New(donors, entries, log, m, publisher)
	listSvc := listservice.New(entries, donors, log, publisher)
	emergencySvc := emergencyservice.New(requests, donors, entries, gateway, log, m, publisher)

	router := httptransport.NewRouter(log, m, tokens,
		[]httptransport.Registrar{
			authhandler.New(authSvc, log),
		},
		[]httptransport.Registrar{
			donorhandler.New(donorSvc, log),
			listhandler.New(listSvc, log),
			emergencyhandler.New(emergencySvc, log),
		},
	)

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("starting lifelink", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// buildGateway picks the SMS path: Fast2SMS when a key is configured, the log
// gateway otherwise, with the redis cooldown wrapper layered on when redis is
// available.
func buildGateway(cfg config.Config, log *slog.Logger, m *metrics.Metrics) notify.Gateway {
	var gateway notify.Gateway
	if cfg.Fast2SMSKey != "" {
		gateway = notify.NewFast2SMS(cfg.Fast2SMSKey, log, m)
	} else {
		log.Warn("no sms key configured, logging messages instead")
		gateway = notify.NewLogGateway(log)
	}
	if cfg.RedisAddr != "" && cfg.SMSCooldown > 0 {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		gateway = notify.NewThrottle(gateway, rdb, cfg.SMSCooldown, log, m)
	}
	return gateway
}
