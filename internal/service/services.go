package service

import (
	"github.com/MKhiriev/go-vault-sync/internal/adapter"
	"github.com/MKhiriev/go-vault-sync/internal/config"
	"github.com/MKhiriev/go-vault-sync/internal/crypto"
	"github.com/MKhiriev/go-vault-sync/internal/keychain"
	"github.com/MKhiriev/go-vault-sync/internal/logger"
	"github.com/MKhiriev/go-vault-sync/internal/store"
)

type Services struct {
	Sync    SyncEngine
	Vault   VaultService
	SyncJob SyncJob
}

func NewServices(
	storages *store.Storages,
	transport adapter.VaultTransport,
	resolver *keychain.Resolver,
	provider crypto.Provider,
	cfg config.Sync,
	log *logger.Logger,
) *Services {
	engine := NewSyncEngine(storages.Cache, transport, resolver, provider, cfg, log)

	return &Services{
		Sync:    engine,
		Vault:   NewVaultService(storages.Cache, transport, resolver, provider, log),
		SyncJob: NewSyncJob(engine, log),
	}
}
