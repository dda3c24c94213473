package database

import (
	"context"
	"database/sql"
	"fmt"

	"money-server-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UpsertSaleAggregate folds one completed object sale into the totalsales
// table. An existing aggregate keeps its earliest sale timestamp.
func (s *Service) UpsertSaleAggregate(ctx context.Context, sale *models.SaleAggregate) error {
	var (
		existingID   string
		existingTime int64
	)
	err := s.db.QueryRowContext(ctx, querySelectSale,
		sale.UserID, sale.ObjectID, sale.Type).Scan(&existingID, &existingTime)
	switch {
	case err == sql.ErrNoRows:
		_, err := s.db.ExecContext(ctx, queryInsertSale,
			uuid.New().String(), sale.UserID, sale.ObjectID, sale.Type,
			sale.TotalCount, sale.TotalAmount, sale.Time)
		if err != nil {
			return fmt.Errorf("unable to insert sale aggregate for %s: %w", sale.UserID, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("unable to read sale aggregate for %s: %w", sale.UserID, err)
	}

	stamp := sale.Time
	if existingTime < stamp {
		stamp = existingTime
	}
	_, err = s.db.ExecContext(ctx, queryUpdateSale,
		sale.TotalCount, sale.TotalAmount, stamp, existingID)
	if err != nil {
		return fmt.Errorf("unable to update sale aggregate for %s: %w", sale.UserID, err)
	}
	return nil
}

// RebuildSales rebuilds the totalsales table from the transaction history.
// Runs at startup so aggregates survive crashes between a sale and its
// bookkeeping.
func (s *Service) RebuildSales(ctx context.Context) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to begin sales rebuild: %w", err)
	}
	defer dbtx.Rollback()

	if _, err := dbtx.ExecContext(ctx, queryClearSales); err != nil {
		return fmt.Errorf("unable to clear sale aggregates: %w", err)
	}

	rows, err := dbtx.QueryContext(ctx, queryRebuildSales,
		models.StatusSuccess, models.SystemUserID, models.TransTypePayObject)
	if err != nil {
		return fmt.Errorf("unable to aggregate sales: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var sales []models.SaleAggregate
	for rows.Next() {
		var sale models.SaleAggregate
		err := rows.Scan(&sale.UserID, &sale.ObjectID, &sale.Type,
			&sale.TotalCount, &sale.TotalAmount, &sale.Time)
		if err != nil {
			return fmt.Errorf("unable to scan sale aggregate: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("unable to aggregate sales: %w", err)
	}

	for _, sale := range sales {
		_, err := dbtx.ExecContext(ctx, queryInsertSale,
			uuid.New().String(), sale.UserID, sale.ObjectID, sale.Type,
			sale.TotalCount, sale.TotalAmount, sale.Time)
		if err != nil {
			return fmt.Errorf("unable to insert sale aggregate for %s: %w", sale.UserID, err)
		}
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("unable to commit sales rebuild: %w", err)
	}

	zap.L().Info("Sale aggregates rebuilt", zap.Int("aggregates", len(sales)))
	return nil
}
