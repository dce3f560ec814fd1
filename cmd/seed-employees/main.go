package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"payportal.backend/internal/config"
	"payportal.backend/internal/domain/entities"
	"payportal.backend/internal/infrastructure/models"
	"payportal.backend/internal/infrastructure/repositories"
	"payportal.backend/internal/usecases"
	"payportal.backend/pkg/crypto"
	"payportal.backend/pkg/jwt"
)

var openSeedDB = func(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DriverName:           "postgres",
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

type provisioner interface {
	ProvisionEmployees(ctx context.Context, inputs []*entities.ProvisionInput) (*usecases.ProvisionResult, error)
}

type seedDeps struct {
	loadEnv  func() error
	loadCfg  func() *config.Config
	prepare  func(cfg *config.Config) (provisioner, io.Closer, error)
	readFile func(name string) ([]byte, error)
	out      io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func prepareProvisioner(cfg *config.Config) (provisioner, io.Closer, error) {
	db, err := openSeedDB(cfg.Database.URL())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init sql db: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}

	auth := usecases.NewAuthUsecase(
		repositories.NewUserRepository(db),
		repositories.NewUnitOfWork(db),
		crypto.NewHasher(cfg.Security.BcryptCost),
		crypto.NewFingerprinter(cfg.Security.IdentityPepper),
		jwt.NewJWTService(cfg.Session.Secret, cfg.Session.TTL),
		nil,
		nil,
	)
	return auth, sqlDB, nil
}

func defaultSeedDeps() seedDeps {
	return seedDeps{
		loadEnv:  func() error { return godotenv.Load() },
		loadCfg:  config.Load,
		prepare:  prepareProvisioner,
		readFile: os.ReadFile,
		out:      os.Stdout,
	}
}

// parseEmployees accepts either a bare array or {"employees": [...]}.
func parseEmployees(raw []byte) ([]*entities.ProvisionInput, error) {
	trimmed := strings.TrimSpace(string(raw))
	var inputs []*entities.ProvisionInput
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Employees []*entities.ProvisionInput `json:"employees"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("invalid employees file: %w", err)
		}
		inputs = wrapped.Employees
	} else if err := json.Unmarshal(raw, &inputs); err != nil {
		return nil, fmt.Errorf("invalid employees file: %w", err)
	}

	out := inputs[:0]
	for _, in := range inputs {
		if in != nil {
			out = append(out, in)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("employees file contains no accounts")
	}
	return out, nil
}

func runSeed(args []string, deps seedDeps) error {
	def := defaultSeedDeps()
	if deps.loadEnv == nil {
		deps.loadEnv = def.loadEnv
	}
	if deps.loadCfg == nil {
		deps.loadCfg = def.loadCfg
	}
	if deps.prepare == nil {
		deps.prepare = def.prepare
	}
	if deps.readFile == nil {
		deps.readFile = def.readFile
	}
	if deps.out == nil {
		deps.out = def.out
	}

	fs := flag.NewFlagSet("seed-employees", flag.ContinueOnError)
	fileFlag := fs.String("file", "", "path to a JSON file of employee accounts (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fileFlag == "" {
		return fmt.Errorf("--file is required")
	}

	raw, err := deps.readFile(*fileFlag)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", *fileFlag, err)
	}
	inputs, err := parseEmployees(raw)
	if err != nil {
		return err
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := deps.loadCfg()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	runtime, closer, err := deps.prepare(cfg)
	if err != nil {
		return err
	}
	if closer == nil {
		closer = nopCloser{}
	}
	defer closer.Close()

	result, err := runtime.ProvisionEmployees(context.Background(), inputs)
	if err != nil {
		return fmt.Errorf("failed provisioning employees: %w", err)
	}

	for _, username := range result.Created {
		_, _ = fmt.Fprintf(deps.out, "created %s\n", username)
	}
	for _, username := range result.Skipped {
		_, _ = fmt.Fprintf(deps.out, "skipped %s (already exists)\n", username)
	}
	_, _ = fmt.Fprintf(deps.out, "created=%d skipped=%d\n", len(result.Created), len(result.Skipped))
	return nil
}

func main() {
	if err := runSeed(os.Args[1:], defaultSeedDeps()); err != nil {
		log.Fatal(err)
	}
}
