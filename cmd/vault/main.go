package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MKhiriev/go-vault-sync/internal/adapter"
	"github.com/MKhiriev/go-vault-sync/internal/config"
	"github.com/MKhiriev/go-vault-sync/internal/crypto"
	"github.com/MKhiriev/go-vault-sync/internal/keychain"
	"github.com/MKhiriev/go-vault-sync/internal/logger"
	"github.com/MKhiriev/go-vault-sync/internal/service"
	"github.com/MKhiriev/go-vault-sync/internal/store"
	"github.com/MKhiriev/go-vault-sync/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("vault-client")

	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	if cfg.App.LogToFile {
		log = logger.NewFileLogger("vault-client")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := crypto.NewProvider()

	masterPassword, err := readMasterPassword()
	if err != nil {
		log.Fatal().Err(err).Msg("read master password")
	}
	salt, err := loadOrCreateSalt(provider, cfg.Storage.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("load key derivation salt")
	}
	dataKey := provider.DeriveKey(masterPassword, salt)

	resolver := keychain.NewResolver(provider, keychain.NewKeyContext(dataKey, nil))

	transport := adapter.NewHTTPVaultTransport(cfg.Transport, log)
	transport.SetToken(os.Getenv("VAULT_TOKEN"))

	storages, err := store.NewStorages(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}

	services := service.NewServices(storages, transport, resolver, provider, cfg.Sync, log)

	if result, err := services.Sync.Sync(ctx); err != nil {
		log.Error().Err(err).Msg("initial sync failed")
	} else {
		log.Info().
			Int64("revision", result.Revision).
			Int("applied", result.Applied).
			Int("failed", len(result.Failed)).
			Msg("initial sync done")
	}

	workers.NewWorkers(
		workers.NewSyncWorker(ctx, services.SyncJob, cfg.Sync.Interval),
	).Run()

	<-ctx.Done()
	services.SyncJob.Stop()
	log.Info().Msg("vault client stopped")
}

// readMasterPassword takes the master password from the environment when
// set (useful for scripting) and prompts on stdin otherwise. It is never
// written to disk or logs.
func readMasterPassword() (string, error) {
	if pw := os.Getenv("VAULT_MASTER_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Print("Master password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}

	pw := strings.TrimSpace(line)
	if pw == "" {
		return "", fmt.Errorf("empty master password")
	}
	return pw, nil
}

// loadOrCreateSalt keeps the Argon2id salt next to the cache file so the
// same password derives the same data key across runs. In-memory setups get
// a fresh salt per run.
func loadOrCreateSalt(provider crypto.Provider, dsn string) ([]byte, error) {
	if dsn == "" || dsn == ":memory:" {
		return provider.NewSalt()
	}

	path := dsn + ".salt"
	if salt, err := os.ReadFile(path); err == nil && len(salt) > 0 {
		return salt, nil
	}

	salt, err := provider.NewSalt()
	if err != nil {
		return nil, err
	}
	if err = os.WriteFile(path, salt, 0o600); err != nil {
		return nil, err
	}
	return salt, nil
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
