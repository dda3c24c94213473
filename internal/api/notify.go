package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"money-server-go/internal/models"
	"money-server-go/internal/notifier"
	"money-server-go/internal/store"

	"go.uber.org/zap"
)

// settle applies both legs of a recorded transaction: debit the sender
// (Pending) then credit the receiver (Success). Either leg failing leaves
// the record Pending; the sweeper expires it once the dead time passes.
func (s *TransactionService) settle(ctx context.Context, tx *models.Transaction) error {
	if err := s.store.Withdraw(ctx, tx.ID, tx.Sender, tx.Amount); err != nil {
		return fmt.Errorf("withdraw leg of %s: %w", tx.ID, err)
	}
	if err := s.store.Give(ctx, tx.ID, tx.Receiver, tx.Amount); err != nil {
		zap.L().Error("Credit leg failed after debit, transaction stays pending",
			zap.String("transaction", tx.ID),
			zap.String("receiver", tx.Receiver), zap.Error(err))
		return fmt.Errorf("credit leg of %s: %w", tx.ID, err)
	}
	return nil
}

// deliverAndNotify completes a settled transfer: for object sales it asks
// the receiver's simulator to deliver and reverses the transfer when
// delivery fails, then refreshes both viewers and folds object sales into
// the aggregates.
func (s *TransactionService) deliverAndNotify(ctx context.Context, tx *models.Transaction) bool {
	if tx.Type == models.TransTypePayObject {
		if !s.deliverObject(ctx, tx) {
			return false
		}
		s.recordSale(ctx, tx)
	}
	s.pushBalances(ctx, tx)
	return true
}

// deliverObject asks the receiving simulator to hand over the purchased
// object. A refused or unreachable delivery rolls the transfer back.
func (s *TransactionService) deliverObject(ctx context.Context, tx *models.Transaction) bool {
	simAddr := s.simAddrOf(ctx, tx.Receiver)
	delivered := false
	if simAddr != "" {
		notice := &notifier.TransferNotice{
			TransactionID: tx.ID,
			SenderID:      tx.Sender,
			ReceiverID:    tx.Receiver,
			Amount:        tx.Amount,
			ObjectID:      tx.ObjectID,
			Type:          tx.Type,
			SecureCode:    tx.SecureCode,
		}
		ok, err := s.notifier.OnMoneyTransferred(simAddr, notice)
		if err != nil {
			zap.L().Warn("Object delivery callback failed",
				zap.String("transaction", tx.ID),
				zap.String("sim", simAddr), zap.Error(err))
		}
		delivered = ok && err == nil
	}
	if delivered {
		return true
	}

	if err := s.store.Rollback(ctx, tx.ID, "object delivery failed"); err != nil {
		if !errors.Is(err, store.ErrNotRollbackable) {
			zap.L().Error("Failed to roll back undelivered sale",
				zap.String("transaction", tx.ID), zap.Error(err))
		}
		return false
	}
	zap.L().Info("Transfer reversed, object not delivered",
		zap.String("transaction", tx.ID), zap.String("object", tx.ObjectID))

	s.alert(ctx, tx.Sender, s.message(s.cfg.Messages.RollBack, tx.Amount, tx.Receiver, tx.ObjectName))
	return false
}

func (s *TransactionService) recordSale(ctx context.Context, tx *models.Transaction) {
	if tx.Sender == models.SystemUserID || tx.Sender == tx.Receiver {
		return
	}
	sale := &models.SaleAggregate{
		UserID:      tx.Receiver,
		ObjectID:    tx.ObjectID,
		Type:        tx.Type,
		TotalCount:  1,
		TotalAmount: tx.Amount,
		Time:        tx.Time,
	}
	if err := s.store.UpsertSaleAggregate(ctx, sale); err != nil {
		zap.L().Error("Failed to record sale aggregate",
			zap.String("transaction", tx.ID), zap.Error(err))
	}
}

// pushBalances refreshes both viewers with their new balance and a message
// matching the transaction type. Best effort.
func (s *TransactionService) pushBalances(ctx context.Context, tx *models.Transaction) {
	senderMsg, receiverMsg := s.messagesFor(tx)
	s.pushBalance(ctx, tx.Sender, senderMsg)
	s.pushBalance(ctx, tx.Receiver, receiverMsg)
}

func (s *TransactionService) pushBalance(ctx context.Context, userID, message string) {
	if userID == models.SystemUserID {
		return
	}
	simAddr := s.simAddrOf(ctx, userID)
	if simAddr == "" {
		return
	}
	update := &notifier.BalanceUpdate{
		ClientID: userID,
		Balance:  s.balanceOf(ctx, userID),
		Message:  message,
	}
	if err := s.notifier.UpdateBalance(simAddr, update); err != nil {
		zap.L().Warn("Balance update not delivered",
			zap.String("user", userID), zap.String("sim", simAddr), zap.Error(err))
	}
}

func (s *TransactionService) alert(ctx context.Context, userID, message string) {
	if userID == models.SystemUserID || message == "" {
		return
	}
	simAddr := s.simAddrOf(ctx, userID)
	if simAddr == "" {
		return
	}
	if err := s.notifier.UserAlert(simAddr, userID, message); err != nil {
		zap.L().Warn("User alert not delivered",
			zap.String("user", userID), zap.Error(err))
	}
}

func (s *TransactionService) messagesFor(tx *models.Transaction) (senderMsg, receiverMsg string) {
	m := s.cfg.Messages
	switch tx.Type {
	case models.TransTypeGift:
		return s.message(m.SendGift, tx.Amount, tx.Receiver, ""),
			s.message(m.ReceiveGift, tx.Amount, tx.Sender, "")
	case models.TransTypeLandSale:
		return s.message(m.LandSale, tx.Amount, tx.Receiver, ""),
			s.message(m.RcvLandSale, tx.Amount, tx.Sender, "")
	case models.TransTypePayObject:
		return s.message(m.BuyObject, tx.Amount, tx.Receiver, tx.ObjectName),
			s.message(m.SellObject, tx.Amount, tx.Sender, tx.ObjectName)
	case models.TransTypeObjectPays:
		return "", s.message(m.GetMoney, tx.Amount, tx.ObjectName, tx.ObjectName)
	case models.TransTypeBuyMoney:
		return "", s.message(m.BuyMoney, tx.Amount, "", "")
	case models.TransTypeUploadCharge:
		return s.message(m.PayCharge, tx.Amount, "", ""), ""
	default:
		return s.message(m.SendMoney, tx.Amount, tx.Receiver, ""),
			s.message(m.ReceiveMoney, tx.Amount, tx.Sender, "")
	}
}

// message expands the {0} amount, {1} counterparty and {2} object
// placeholders of a template.
func (s *TransactionService) message(template string, amount int, counterparty, object string) string {
	r := strings.NewReplacer(
		"{0}", strconv.Itoa(amount),
		"{1}", counterparty,
		"{2}", object)
	return r.Replace(template)
}
