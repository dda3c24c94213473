package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"money-server-go/internal/models"
)

func fetchSale(t *testing.T, svc *Service, userID, objectID string, saleType int) (count, amount int, stamp int64) {
	t.Helper()
	err := svc.db.QueryRowContext(context.Background(),
		`SELECT total_count, total_amount, time FROM totalsales
		 WHERE user = ? AND object_uuid = ? AND type = ?`,
		userID, objectID, saleType).Scan(&count, &amount, &stamp)
	if err == sql.ErrNoRows {
		t.Fatalf("no sale aggregate for %s", userID)
	}
	if err != nil {
		t.Fatalf("fetch sale aggregate: %v", err)
	}
	return count, amount, stamp
}

func TestUpsertSaleAggregate(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	objectID := "cccccccc-3333-3333-3333-333333333333"
	first := &models.SaleAggregate{
		UserID:      testReceiver,
		ObjectID:    objectID,
		Type:        models.TransTypePayObject,
		TotalCount:  1,
		TotalAmount: 100,
		Time:        2000,
	}
	if err := svc.UpsertSaleAggregate(ctx, first); err != nil {
		t.Fatalf("UpsertSaleAggregate: %v", err)
	}

	count, amount, stamp := fetchSale(t, svc, testReceiver, objectID, models.TransTypePayObject)
	if count != 1 || amount != 100 || stamp != 2000 {
		t.Fatalf("unexpected aggregate %d/%d/%d", count, amount, stamp)
	}

	// A later sale accumulates; the recorded time stays the earliest.
	second := &models.SaleAggregate{
		UserID:      testReceiver,
		ObjectID:    objectID,
		Type:        models.TransTypePayObject,
		TotalCount:  1,
		TotalAmount: 250,
		Time:        3000,
	}
	if err := svc.UpsertSaleAggregate(ctx, second); err != nil {
		t.Fatalf("UpsertSaleAggregate: %v", err)
	}

	count, amount, stamp = fetchSale(t, svc, testReceiver, objectID, models.TransTypePayObject)
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
	if amount != 350 {
		t.Errorf("expected amount 350, got %d", amount)
	}
	if stamp != 2000 {
		t.Errorf("expected earliest time 2000, got %d", stamp)
	}

	// An earlier backfilled sale moves the time back.
	third := &models.SaleAggregate{
		UserID:      testReceiver,
		ObjectID:    objectID,
		Type:        models.TransTypePayObject,
		TotalCount:  1,
		TotalAmount: 50,
		Time:        1000,
	}
	if err := svc.UpsertSaleAggregate(ctx, third); err != nil {
		t.Fatalf("UpsertSaleAggregate: %v", err)
	}
	_, _, stamp = fetchSale(t, svc, testReceiver, objectID, models.TransTypePayObject)
	if stamp != 1000 {
		t.Errorf("expected earliest time 1000, got %d", stamp)
	}
}

func TestRebuildSales(t *testing.T) {
	svc := testService(t)
	seedTransferPair(t, svc)
	ctx := context.Background()

	objectID := "cccccccc-3333-3333-3333-333333333333"
	base := time.Now().Unix()

	for i := 0; i < 3; i++ {
		tx := newTestTransaction(testSender, testReceiver, 100)
		tx.Type = models.TransTypePayObject
		tx.ObjectID = objectID
		tx.ObjectName = "vendor"
		tx.Time = base + int64(i)
		applyTransfer(t, svc, tx)
	}

	// A gift does not count as an object sale.
	gift := newTestTransaction(testSender, testReceiver, 50)
	applyTransfer(t, svc, gift)

	// A pending sale does not count either.
	pending := newTestTransaction(testSender, testReceiver, 100)
	pending.Type = models.TransTypePayObject
	pending.ObjectID = objectID
	if err := svc.AddTransaction(ctx, pending); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	if err := svc.RebuildSales(ctx); err != nil {
		t.Fatalf("RebuildSales: %v", err)
	}

	count, amount, stamp := fetchSale(t, svc, testReceiver, objectID, models.TransTypePayObject)
	if count != 3 {
		t.Errorf("expected 3 sales, got %d", count)
	}
	if amount != 300 {
		t.Errorf("expected total 300, got %d", amount)
	}
	if stamp != base {
		t.Errorf("expected earliest sale time %d, got %d", base, stamp)
	}

	// Rebuilding again replaces rather than doubles.
	if err := svc.RebuildSales(ctx); err != nil {
		t.Fatalf("RebuildSales: %v", err)
	}
	count, _, _ = fetchSale(t, svc, testReceiver, objectID, models.TransTypePayObject)
	if count != 3 {
		t.Errorf("expected rebuild to be idempotent, got count %d", count)
	}
}
