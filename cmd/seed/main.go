// seed carga un catálogo inicial desde CSV y, opcionalmente, emite un token de desarrollo.
//
// Uso:
//
//	go run ./cmd/seed -file catalogo.csv [-encoding auto|utf-8|latin1|windows-1252]
//	go run ./cmd/seed -token admin [-user <uuid>]
//
// Cabecera esperada: name,category,unit,unit_price,quantity,critical_threshold,
// purchase_date,expiration_date,supplier,location,barcode,notes (en cualquier orden).
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
	"github.com/jhoicas/stock-ledger-api/pkg/jwt"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

func main() {
	file := flag.String("file", "", "CSV del catálogo a importar")
	enc := flag.String("encoding", "auto", "codificación del CSV: auto, utf-8, latin1, windows-1252")
	role := flag.String("token", "", "emitir un JWT de desarrollo con este rol (admin, storekeeper, volunteer)")
	user := flag.String("user", "", "user_id del token y actor de la importación (por defecto uno nuevo)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	actorID := *user
	if actorID == "" {
		actorID = uuid.NewString()
	}

	if *role != "" {
		if !jwt.IsKnownRole(*role) {
			fmt.Fprintf(os.Stderr, "Rol desconocido: %s\n", *role)
			os.Exit(2)
		}
		token, err := jwt.Generate(cfg.JWT.Secret, actorID, "", *role, cfg.JWT.Issuer, cfg.JWT.Expiration)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Generar token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
	}
	if *file == "" {
		if *role == "" {
			flag.Usage()
			os.Exit(2)
		}
		return
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	text, err := decodeText(raw, *enc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Decodificar CSV: %v\n", err)
		os.Exit(1)
	}
	rows, err := parseCatalog(bytes.NewReader(text), detectComma(text))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "El CSV no contiene filas")
		os.Exit(1)
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Zerolog()
	ctx := context.Background()

	var (
		txRunner  stock.TxRunner
		items     repository.StockItemRepository
		movements repository.MovementRepository
	)
	if cfg.Storage.Driver == config.StorageDriverMemory {
		// Sin base de datos la importación solo valida el archivo.
		store := memory.NewStore()
		txRunner, items, movements = store, store.Items(), store.Movements()
	} else {
		pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name+"-seed")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
			os.Exit(1)
		}
		defer pool.Close()
		if cfg.Storage.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				fmt.Fprintf(os.Stderr, "Migración: %v\n", err)
				os.Exit(1)
			}
		}
		txRunner = postgres.NewTxRunner(pool)
		items = postgres.NewStockItemRepository(pool)
		movements = postgres.NewMovementRepository(pool)
	}

	stockCfg := stock.Config{
		PageSize:           cfg.Stock.PageSize,
		ExpiringWindowDays: cfg.Stock.ExpiringWindowDays,
		BatchWorkers:       cfg.Stock.BatchWorkers,
		BatchMaxItems:      cfg.Stock.BatchMaxItems,
	}
	catalog := stock.NewCatalogUseCase(txRunner, items, movements, stockCfg, log)

	chunk := stockCfg.BatchMaxItems
	if chunk <= 0 {
		chunk = stock.DefaultConfig().BatchMaxItems
	}
	created, failed := 0, 0
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		res, err := catalog.Import(ctx, actorID, dto.ImportItemsRequest{Items: rows[start:end]})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Importar filas %d-%d: %v\n", start+1, end, err)
			os.Exit(1)
		}
		created += res.Successful
		for _, f := range res.Failed {
			failed++
			fmt.Fprintf(os.Stderr, "  fila %d (%s): %s %s\n", start+f.Index+1, f.Name, f.Code, f.Message)
		}
	}
	fmt.Printf("Importados: %d, rechazados: %d (%s)\n", created, failed, cfg.Storage.Driver)
	if failed > 0 {
		os.Exit(1)
	}
}
