package repository

import (
	"context"
	"errors"
	"time"

	"ticketgate/internal/domain/inventory"
	"ticketgate/internal/infra"
	"ticketgate/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type InventoryRepository struct{}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{}
}

const inventoryColumns = `id, event_id, name, capacity, available_count, reserved_count, sold_count, updated_at`

func (r *InventoryRepository) Create(ctx context.Context, dbtx db.DBTX, res *inventory.Resource) error {
	_, err := dbtx.Exec(ctx, `
		INSERT INTO inventory_resources (id, event_id, name, capacity, available_count, reserved_count, sold_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		res.ID(), res.EventID(), res.Name(), res.Capacity(), res.Available(), res.Reserved(), res.Sold(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr("inventory resource already exists", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to create inventory resource", err)
	}
	return nil
}

func (r *InventoryRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*inventory.Resource, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT `+inventoryColumns+`
		FROM inventory_resources
		WHERE id = $1`, id)
	return scanResource(row)
}

// FindByIDForUpdate takes the exclusive row lock that serializes all
// concurrent reserve/consume/release calls for one resource. The lock is
// held only for the check-and-update inside the caller's transaction.
func (r *InventoryRepository) FindByIDForUpdate(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*inventory.Resource, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT `+inventoryColumns+`
		FROM inventory_resources
		WHERE id = $1
		FOR UPDATE`, id)
	return scanResource(row)
}

// SaveCounts persists the entity's counters. Callers must have loaded the
// row with FindByIDForUpdate in the same transaction; there is no
// read-modify-write path outside the lock.
func (r *InventoryRepository) SaveCounts(ctx context.Context, dbtx db.DBTX, res *inventory.Resource) error {
	tag, err := dbtx.Exec(ctx, `
		UPDATE inventory_resources
		SET available_count = $2, reserved_count = $3, sold_count = $4, updated_at = now()
		WHERE id = $1`,
		res.ID(), res.Available(), res.Reserved(), res.Sold(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update inventory counts", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("inventory resource not found", nil, infra.KindNotFound)
	}
	return nil
}

func scanResource(row pgx.Row) (*inventory.Resource, error) {
	var (
		id, eventID                         uuid.UUID
		name                                string
		capacity, available, reserved, sold int
		updatedAt                           time.Time
	)
	if err := row.Scan(&id, &eventID, &name, &capacity, &available, &reserved, &sold, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("inventory resource not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan inventory resource", err)
	}
	res, err := inventory.ReconstructResource(id, eventID, name, capacity, available, reserved, sold, updatedAt)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupt inventory row", err)
	}
	return res, nil
}
