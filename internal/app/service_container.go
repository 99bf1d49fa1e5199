// Package app wires the storage, registry, engine and event layers into a
// single container the router and main consume.
package app

import (
	"fmt"
	"sync"

	"pharma-backend/internal/audit"
	"pharma-backend/internal/config"
	"pharma-backend/internal/db"
	"pharma-backend/internal/engine"
	"pharma-backend/internal/events"
	"pharma-backend/internal/rbac"
	"pharma-backend/internal/repository"
	"pharma-backend/internal/store"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ServiceContainer holds every long-lived service. The storage backends are
// selected by configuration: a postgres DSN wires the gorm repositories, an
// empty DSN runs fully in memory.
type ServiceContainer struct {
	DB *gorm.DB

	Batches    store.BatchStore
	TxnLog     audit.Log
	GrantStore rbac.GrantStore

	Roles  *rbac.Service
	Engine *engine.Engine

	NATSPublisher *events.NATSPublisher
	Hub           *events.Hub

	Logger *logrus.Logger
}

// Container is the global instance set by InitializeContainer.
var Container *ServiceContainer
var containerOnce sync.Once

// InitializeContainer builds the container once. Requires config.AppConfig.
func InitializeContainer(logger *logrus.Logger) (*ServiceContainer, error) {
	var initErr error

	containerOnce.Do(func() {
		if logger == nil {
			logger = logrus.StandardLogger()
		}
		logger.Info("🚀 Initializing service container...")

		c := &ServiceContainer{Logger: logger}

		if err := c.initStorage(); err != nil {
			initErr = fmt.Errorf("failed to initialize storage: %w", err)
			return
		}
		if err := c.initEventServices(); err != nil {
			// NATS is optional, the ledger works without it
			logger.WithError(err).Warn("⚠️ event services unavailable, continuing without NATS")
		}
		c.initEngine()

		Container = c
		logger.Info("✅ Service container initialized")
	})

	return Container, initErr
}

// initStorage selects the persistence backend and bootstraps the owner.
func (c *ServiceContainer) initStorage() error {
	owner := common.Address{}
	if config.AppConfig.Chain.Owner != "" {
		if !common.IsHexAddress(config.AppConfig.Chain.Owner) {
			return fmt.Errorf("chain.owner is not a hex address: %s", config.AppConfig.Chain.Owner)
		}
		owner = common.HexToAddress(config.AppConfig.Chain.Owner)
	}

	if config.AppConfig.Database.DSN == "" {
		c.Logger.Info("📦 No database DSN configured, using in-memory storage")
		c.Batches = store.NewMemoryStore()
		c.TxnLog = audit.NewMemoryLog()
		c.GrantStore = rbac.NewMemoryStore(owner)
	} else {
		db.InitDB()
		c.DB = db.DB
		c.Batches = repository.NewBatchRepository(c.DB)
		c.TxnLog = repository.NewTxnLogRepository(c.DB)
		c.GrantStore = repository.NewRoleRepository(c.DB)
		if owner != (common.Address{}) {
			if err := repository.BootstrapOwner(c.DB, owner); err != nil {
				return fmt.Errorf("owner bootstrap failed: %w", err)
			}
		}
		c.Logger.Info("📦 Postgres storage initialized")
	}

	c.Roles = rbac.NewService(c.GrantStore, c.Logger)
	return nil
}

// initEventServices connects the optional NATS publisher and always starts
// the WebSocket hub.
func (c *ServiceContainer) initEventServices() error {
	c.Hub = events.NewHub(c.Logger)

	if config.AppConfig.NATS.URL == "" {
		c.Logger.Info("NATS not configured, skipping publisher")
		return nil
	}

	pub, err := events.NewNATSPublisher(config.AppConfig.NATS.URL, c.Logger)
	if err != nil {
		return err
	}
	c.NATSPublisher = pub
	return nil
}

func (c *ServiceContainer) initEngine() {
	fanout := events.Fanout{c.Hub}
	if c.NATSPublisher != nil {
		fanout = append(fanout, c.NATSPublisher)
	}
	c.Engine = engine.New(c.Batches, c.TxnLog, c.Roles, c.Logger, fanout)
}

// Close releases external connections.
func (c *ServiceContainer) Close() {
	if c.NATSPublisher != nil {
		c.NATSPublisher.Close()
	}
}
