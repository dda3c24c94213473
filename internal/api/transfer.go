package api

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"money-server-go/internal/models"
	"money-server-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// newTransaction builds a Pending record with fresh identifiers.
func newTransaction(sender, receiver string, amount, transType int, description string) *models.Transaction {
	return &models.Transaction{
		ID:          uuid.New().String(),
		Sender:      sender,
		Receiver:    receiver,
		Amount:      amount,
		Type:        transType,
		Time:        time.Now().Unix(),
		SecureCode:  uuid.New().String(),
		Status:      models.StatusPending,
		Description: description,
	}
}

// checkAmount applies the amount policy: negative never, zero only when
// enabled (land groups use free transfers).
func (s *TransactionService) checkAmount(amount int) error {
	if amount < 0 {
		return errors.New("negative amount")
	}
	if amount == 0 && !s.cfg.Money.EnableAmountZero {
		return errors.New("zero amount not enabled")
	}
	return nil
}

// execute records, settles and announces one transfer. Returns the
// completed record, or an error with nothing left applied.
func (s *TransactionService) execute(ctx context.Context, tx *models.Transaction) error {
	if err := s.checkAmount(tx.Amount); err != nil {
		return err
	}

	// The receiver needs an account before money can land on it.
	res, err := s.store.GetBalance(ctx, tx.Receiver)
	if err != nil {
		return fmt.Errorf("unable to check receiver: %w", err)
	}
	if res.Kind != store.BalanceOK {
		return errors.New("receiver has no money account")
	}

	if err := s.store.AddTransaction(ctx, tx); err != nil {
		return err
	}
	if err := s.settle(ctx, tx); err != nil {
		return err
	}

	zap.L().Info("Transfer settled",
		zap.String("transaction", tx.ID),
		zap.String("sender", tx.Sender),
		zap.String("receiver", tx.Receiver),
		zap.Int("amount", tx.Amount),
		zap.Int("type", tx.Type))

	// Free transfers settle silently; nothing moved, nothing to announce.
	if tx.Amount == 0 {
		return nil
	}
	if !s.deliverAndNotify(ctx, tx) {
		return errors.New("transfer reversed, object delivery failed")
	}
	return nil
}

// Transfer moves money between two avatars on behalf of a logged-in viewer
// session.
func (s *TransactionService) Transfer(ctx context.Context, req *models.TransferRequest) *models.SimpleResponse {
	if !s.sessions.Validate(req.SenderID, req.SessionID, req.SecureSessionID) {
		return &models.SimpleResponse{Description: "unauthorized"}
	}

	tx := newTransaction(req.SenderID, req.ReceiverID, req.Amount, req.Type, req.Description)
	tx.ObjectID = req.ObjectID
	tx.ObjectName = req.ObjectName
	tx.RegionHandle = req.RegionHandle
	tx.RegionID = req.RegionID

	if err := s.execute(ctx, tx); err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			return &models.SimpleResponse{Description: "insufficient funds"}
		}
		zap.L().Warn("Transfer failed",
			zap.String("sender", req.SenderID),
			zap.String("receiver", req.ReceiverID),
			zap.Int("amount", req.Amount), zap.Error(err))
		return &models.SimpleResponse{Description: "transfer failed"}
	}
	return &models.SimpleResponse{Success: true}
}

// ForceTransfer moves money without a session check. The region server
// calls it for land sales settled grid-side. Disabled unless the operator
// opted in.
func (s *TransactionService) ForceTransfer(ctx context.Context, req *models.ForceTransferRequest) *models.SimpleResponse {
	if !s.cfg.Money.EnableForceTransfer {
		return &models.SimpleResponse{Description: "force transfer is not enabled"}
	}

	tx := newTransaction(req.SenderID, req.ReceiverID, req.Amount, req.Type, req.Description)
	tx.ObjectID = req.ObjectID
	tx.ObjectName = req.ObjectName
	tx.RegionHandle = req.RegionHandle
	tx.RegionID = req.RegionID

	if err := s.execute(ctx, tx); err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			return &models.SimpleResponse{Description: "insufficient funds"}
		}
		zap.L().Warn("Force transfer failed",
			zap.String("sender", req.SenderID),
			zap.String("receiver", req.ReceiverID), zap.Error(err))
		return &models.SimpleResponse{Description: "transfer failed"}
	}
	return &models.SimpleResponse{Success: true}
}

// ScriptTransfer moves money on behalf of an in-world script. The caller
// proves possession of the shared access key with a two-round MD5 over the
// key and both endpoint addresses.
func (s *TransactionService) ScriptTransfer(ctx context.Context, req *models.ScriptTransferRequest, clientAddr string) *models.SimpleResponse {
	if !s.cfg.Money.EnableScriptSend {
		return &models.SimpleResponse{Description: "script transfers are not enabled"}
	}
	if !s.checkScriptCode(req.SecretCode, clientAddr) {
		zap.L().Warn("Script transfer with bad access code",
			zap.String("client", clientAddr), zap.String("sender", req.SenderID))
		return &models.SimpleResponse{Description: "unauthorized"}
	}

	tx := newTransaction(req.SenderID, req.ReceiverID, req.Amount, req.Type, req.Description)
	if err := s.execute(ctx, tx); err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			return &models.SimpleResponse{Description: "insufficient funds"}
		}
		zap.L().Warn("Script transfer failed",
			zap.String("sender", req.SenderID),
			zap.String("receiver", req.ReceiverID), zap.Error(err))
		return &models.SimpleResponse{Description: "transfer failed"}
	}
	return &models.SimpleResponse{Success: true}
}

func (s *TransactionService) checkScriptCode(code, clientAddr string) bool {
	if s.cfg.Money.ScriptAccessKey == "" || code == "" {
		return false
	}
	inner := md5hex(s.cfg.Money.ScriptAccessKey + "_" + clientAddr)
	want := md5hex(inner + "_" + s.cfg.Money.ScriptIPAddress)
	return code == want
}

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// PayCharge collects a grid fee: the amount leaves the sender and lands on
// the system account.
func (s *TransactionService) PayCharge(ctx context.Context, req *models.PayChargeRequest) *models.SimpleResponse {
	if !s.sessions.Validate(req.SenderID, req.SessionID, req.SecureSessionID) {
		return &models.SimpleResponse{Description: "unauthorized"}
	}

	transType := req.Type
	if transType == 0 {
		transType = models.TransTypeUploadCharge
	}
	tx := newTransaction(req.SenderID, models.SystemUserID, req.Amount, transType, req.Description)
	tx.ObjectID = req.ObjectID
	tx.ObjectName = req.ObjectName
	tx.RegionHandle = req.RegionHandle
	tx.RegionID = req.RegionID

	if err := s.execute(ctx, tx); err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			return &models.SimpleResponse{Description: "insufficient funds"}
		}
		zap.L().Warn("Charge failed", zap.String("sender", req.SenderID), zap.Error(err))
		return &models.SimpleResponse{Description: "charge failed"}
	}
	return &models.SimpleResponse{Success: true}
}

// AddBankerMoney mints money onto the banker avatar's account. The Banker
// flag in the response tells the region whether the caller is even allowed,
// so it can stop asking. A zero-UUID banker setting admits everyone.
func (s *TransactionService) AddBankerMoney(ctx context.Context, req *models.AddBankerMoneyRequest) *models.AddBankerMoneyResponse {
	banker := s.cfg.Money.BankerAvatar == models.SystemUserID ||
		s.cfg.Money.BankerAvatar == req.BankerID
	if !banker {
		return &models.AddBankerMoneyResponse{Description: "not a banker"}
	}
	if err := s.checkAmount(req.Amount); err != nil {
		return &models.AddBankerMoneyResponse{Banker: true, Description: err.Error()}
	}

	transType := req.Type
	if transType == 0 {
		transType = models.TransTypeBuyMoney
	}
	tx := newTransaction(models.SystemUserID, req.BankerID, req.Amount, transType, req.Description)
	tx.RegionHandle = req.RegionHandle
	tx.RegionID = req.RegionID

	if err := s.store.AddTransaction(ctx, tx); err != nil {
		zap.L().Error("Failed to record banker purchase",
			zap.String("banker", req.BankerID), zap.Error(err))
		return &models.AddBankerMoneyResponse{Banker: true, Description: "unable to record purchase"}
	}
	if err := s.store.BuyMoney(ctx, tx.ID, req.BankerID, req.Amount); err != nil {
		zap.L().Error("Failed to credit banker",
			zap.String("banker", req.BankerID), zap.Error(err))
		return &models.AddBankerMoneyResponse{Banker: true, Description: "unable to credit account"}
	}

	zap.L().Info("Banker money added",
		zap.String("banker", req.BankerID), zap.Int("amount", req.Amount))
	s.pushBalance(ctx, req.BankerID, s.message(s.cfg.Messages.BuyMoney, req.Amount, "", ""))
	return &models.AddBankerMoneyResponse{Success: true, Banker: true}
}
