package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// ErrBackupDisabled no hay almacenamiento de objetos configurado.
var ErrBackupDisabled = errors.New("almacenamiento de respaldos no configurado")

// BackupUseCase genera copias consistentes del catálogo y del libro.
type BackupUseCase struct {
	txRunner TxRunner
	store    BackupStore
	cfg      Config
	now      Clock
	log      zerolog.Logger
}

// NewBackupUseCase construye el caso de uso. store puede ser nil (solo exportación).
func NewBackupUseCase(txRunner TxRunner, store BackupStore, cfg Config, log zerolog.Logger) *BackupUseCase {
	return &BackupUseCase{
		txRunner: txRunner,
		store:    store,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		log:      log.With().Str("component", "backup").Logger(),
	}
}

// WithClock reemplaza la fuente de tiempo (tests).
func (uc *BackupUseCase) WithClock(c Clock) *BackupUseCase {
	uc.now = c
	return uc
}

// Enabled indica si Store puede usarse.
func (uc *BackupUseCase) Enabled() bool { return uc.store != nil }

// Snapshot lee catálogo (incluidos archivados) y libro completo en una sola lectura
// consistente, y verifica el libro de cada artículo.
func (uc *BackupUseCase) Snapshot(ctx context.Context) (*dto.SnapshotDTO, error) {
	var (
		items []*entity.StockItem
		movs  []*entity.Movement
	)
	err := uc.txRunner.Snapshot(ctx, func(ir repository.StockItemRepository, mr repository.MovementRepository) error {
		var err error
		items, err = ir.List(ctx, repository.ItemFilter{IncludeArchived: true})
		if err != nil {
			return err
		}
		movs, _, err = mr.List(ctx, repository.MovementFilter{})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	// El respaldo va en orden de aplicación (Seq), no en el del historial.
	asc := append([]*entity.Movement(nil), movs...)
	sort.Slice(asc, func(i, j int) bool { return asc[i].Seq < asc[j].Seq })
	byItem := make(map[string][]*entity.Movement, len(items))
	for _, m := range asc {
		byItem[m.ItemID] = append(byItem[m.ItemID], m)
	}

	now := uc.now()
	policy := uc.cfg.policy()
	out := &dto.SnapshotDTO{
		GeneratedAt:  now,
		Items:        make([]dto.ItemResponse, 0, len(items)),
		Movements:    toMovementResponses(asc),
		Verification: make([]dto.VerificationResponse, 0, len(items)),
		Consistent:   true,
	}
	for _, it := range items {
		out.Items = append(out.Items, toItemResponse(it, now, policy))
		v := Replay(it, byItem[it.ID])
		if !v.Consistent {
			out.Consistent = false
			uc.log.Warn().Str("item_id", it.ID).Str("quantity", v.Quantity.String()).
				Str("replayed", v.ReplayedQuantity.String()).Msg("libro inconsistente")
		}
		out.Verification = append(out.Verification, v)
	}
	return out, nil
}

// Export serializa el snapshot en JSON.
func (uc *BackupUseCase) Export(ctx context.Context) ([]byte, *dto.SnapshotDTO, error) {
	snap, err := uc.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("serializar respaldo: %w", err)
	}
	return data, snap, nil
}

// Store sube el snapshot al almacenamiento de objetos como backups/stock-YYYYMMDD-HHMMSS.json.
func (uc *BackupUseCase) Store(ctx context.Context) (*dto.BackupStoredResponse, error) {
	if uc.store == nil {
		return nil, ErrBackupDisabled
	}
	data, snap, err := uc.Export(ctx)
	if err != nil {
		return nil, err
	}
	object := "backups/stock-" + snap.GeneratedAt.UTC().Format("20060102-150405") + ".json"
	bucket, err := uc.store.Put(ctx, object, data)
	if err != nil {
		uc.log.Error().Err(err).Str("object", object).Msg("error al guardar respaldo")
		return nil, fmt.Errorf("guardar respaldo: %w", err)
	}
	uc.log.Info().Str("bucket", bucket).Str("object", object).Int("items", len(snap.Items)).
		Int("movements", len(snap.Movements)).Msg("respaldo guardado")
	return &dto.BackupStoredResponse{
		Bucket:    bucket,
		Object:    object,
		Size:      int64(len(data)),
		Items:     len(snap.Items),
		Movements: len(snap.Movements),
	}, nil
}
