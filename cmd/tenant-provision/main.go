// Command tenant-provision creates a contractor tenant from the command line.
// There is no self-serve signup; accounts are provisioned by the operator.
package main

import (
	"context"
	"flag"
	"fmt"

	"leadline_backend/internal/tenants/repository"
	"leadline_backend/platform/config"
	"leadline_backend/platform/db"
	"leadline_backend/platform/logger"
	"leadline_backend/platform/phone"
)

func main() {
	name := flag.String("name", "", "business name (required)")
	ownerEmail := flag.String("owner-email", "", "owner email for operational alerts")
	primaryPhone := flag.String("primary-phone", "", "fallback notification number (required)")
	fromNumber := flag.String("sms-from", "", "sender number for outbound SMS")
	timeoutSeconds := flag.Int("claim-timeout", 120, "claim window in seconds (30-300)")
	flag.Parse()

	if *name == "" || *primaryPhone == "" {
		flag.Usage()
		panic("both -name and -primary-phone are required")
	}
	if *timeoutSeconds < 30 || *timeoutSeconds > 300 {
		panic("claim-timeout must be between 30 and 300 seconds")
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	repo := repository.New(pool)
	tenant, err := repo.Create(ctx, repository.CreateTenantParams{
		Name:                *name,
		OwnerEmail:          *ownerEmail,
		PrimaryPhone:        phone.NormalizeE164(*primaryPhone),
		SMSFromNumber:       phone.NormalizeE164(*fromNumber),
		ClaimTimeoutSeconds: *timeoutSeconds,
	})
	if err != nil {
		log.Error("failed to create tenant", "error", err)
		panic("failed to create tenant: " + err.Error())
	}

	log.Info("tenant created", "tenant_id", tenant.ID.String(), "name", tenant.Name)
	fmt.Println(tenant.ID.String())
}
