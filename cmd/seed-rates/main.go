// seed-rates creates a demo carrier with an active rate table and weight
// bands so the audit pipeline can be exercised locally.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-rates
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/auditafrete/freight_backend/config"
	"github.com/auditafrete/freight_backend/models"
	"github.com/auditafrete/freight_backend/utils"
	"github.com/shopspring/decimal"
)

const (
	seedBusinessId  = "default"
	seedCarrierName = "Transportes Demo Ltda"
	seedCarrierCnpj = "12345678000195"
)

func main() {
	ctx := context.Background()
	db := config.ConnectDatabaseWithRetry()
	models.MigrateTable(db)

	carrier, err := models.GetCarrierByCnpj(db, ctx, seedBusinessId, seedCarrierCnpj)
	if err != nil && err != utils.ErrorRecordNotFound {
		fmt.Fprintf(os.Stderr, "failed to lookup carrier: %v\n", err)
		os.Exit(1)
	}
	if carrier == nil {
		carrier, err = models.CreateCarrier(db, ctx, seedBusinessId, models.NewCarrier{
			Name: seedCarrierName,
			Cnpj: seedCarrierCnpj,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create carrier: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created carrier %q (id=%d)\n", carrier.Name, carrier.ID)
	} else {
		fmt.Printf("carrier %q already exists (id=%d)\n", carrier.Name, carrier.ID)
	}

	table, err := models.ResolveActiveRateTable(db, ctx, carrier.ID, models.ActiveRateTablePolicy())
	if err == nil {
		fmt.Printf("active rate table already exists (id=%d), nothing to seed\n", table.ID)
		return
	}
	if err != utils.ErrorRecordNotFound {
		fmt.Fprintf(os.Stderr, "failed to lookup rate table: %v\n", err)
		os.Exit(1)
	}

	table, err = models.CreateRateTable(db, ctx, seedBusinessId, carrier.ID, models.NewRateTable{
		Name:    "Tabela padrão",
		Version: "2026-01",
		Bands: []models.NewWeightBand{
			{MinWeight: decimal.Zero, MaxWeight: decimal.NewFromInt(100), BaseValue: decimal.NewFromInt(150)},
			{MinWeight: decimal.NewFromInt(100), MaxWeight: decimal.NewFromInt(500), BaseValue: decimal.NewFromInt(150), PerExtraKg: decimal.NewFromFloat(1.2)},
			{MinWeight: decimal.NewFromInt(500), MaxWeight: decimal.NewFromInt(2000), BaseValue: decimal.NewFromInt(630), PerExtraKg: decimal.NewFromFloat(0.9)},
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create rate table: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created rate table %q (id=%d) with %d bands\n", table.Name, table.ID, len(table.Bands))
}
