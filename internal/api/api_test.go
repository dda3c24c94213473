package api

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"money-server-go/internal/config"
	"money-server-go/internal/database"
	"money-server-go/internal/models"
	"money-server-go/internal/notifier"
	"money-server-go/internal/session"

	"github.com/google/uuid"
)

const (
	senderID       = "aaaaaaaa-1111-1111-1111-111111111111"
	receiverID     = "bbbbbbbb-2222-2222-2222-222222222222"
	senderSession  = "11111111-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	senderSecure   = "22222222-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	receiverSess   = "11111111-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
	receiverSecure = "22222222-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
)

// fakeNotifier records simulator callbacks and answers delivery per test.
type fakeNotifier struct {
	mu             sync.Mutex
	deliverOK      bool
	transferCalls  []notifier.TransferNotice
	balanceUpdates []notifier.BalanceUpdate
	alerts         []string
}

func (f *fakeNotifier) OnMoneyTransferred(simAddr string, notice *notifier.TransferNotice) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transferCalls = append(f.transferCalls, *notice)
	return f.deliverOK, nil
}

func (f *fakeNotifier) UpdateBalance(simAddr string, update *notifier.BalanceUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceUpdates = append(f.balanceUpdates, *update)
	return nil
}

func (f *fakeNotifier) UserAlert(simAddr, userID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, message)
	return nil
}

func testConfig() *models.Config {
	return &models.Config{
		Money: models.MoneyConfig{
			DefaultBalance:     1000,
			HGAvatarBalance:    0,
			GuestAvatarBalance: 0,
			BankerAvatar:       "cccccccc-3333-3333-3333-333333333333",
			EnableScriptSend:   true,
			ScriptAccessKey:    "123456789",
			ScriptIPAddress:    "10.0.0.1",
			ExchangeRate:       "1.5",
			MinimumBuy:         10,
		},
		Messages: config.DefaultMessages(),
	}
}

func testSetup(t *testing.T) (*TransactionService, *fakeNotifier) {
	t.Helper()

	dbCfg := models.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "money_test.db"),
		MaxOpenConns:    2,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		PingTimeout:     5 * time.Second,
	}
	st, err := database.NewService(context.Background(), dbCfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(st.Close)

	fake := &fakeNotifier{deliverOK: true}
	svc := NewTransactionService(st, session.NewRegistry(0), fake, testConfig())
	return svc, fake
}

func loginPair(t *testing.T, svc *TransactionService) {
	t.Helper()
	ctx := context.Background()

	resp := svc.ClientLogin(ctx, &models.LoginRequest{
		ClientID:        senderID,
		SessionID:       senderSession,
		SecureSessionID: senderSecure,
		UserName:        "Sender Avatar",
		SimIP:           "10.0.0.5:9000",
		AvatarClass:     models.AvatarLocal,
	})
	if !resp.Success {
		t.Fatalf("sender login failed: %s", resp.Description)
	}

	resp = svc.ClientLogin(ctx, &models.LoginRequest{
		ClientID:        receiverID,
		SessionID:       receiverSess,
		SecureSessionID: receiverSecure,
		UserName:        "Receiver Avatar",
		SimIP:           "10.0.0.6:9000",
		AvatarClass:     models.AvatarLocal,
	})
	if !resp.Success {
		t.Fatalf("receiver login failed: %s", resp.Description)
	}
}

func balanceOf(t *testing.T, svc *TransactionService, userID, sessionID, secureID string) int {
	t.Helper()
	resp := svc.GetBalance(context.Background(), &models.GetBalanceRequest{
		ClientID:        userID,
		SessionID:       sessionID,
		SecureSessionID: secureID,
	})
	if !resp.Success {
		t.Fatalf("GetBalance failed: %s", resp.Description)
	}
	return resp.Balance
}

func TestClientLoginCreatesAccount(t *testing.T) {
	svc, _ := testSetup(t)
	loginPair(t, svc)

	if got := balanceOf(t, svc, senderID, senderSession, senderSecure); got != 1000 {
		t.Errorf("expected starting balance 1000, got %d", got)
	}

	// Relogin must not reset the balance.
	resp := svc.ClientLogin(context.Background(), &models.LoginRequest{
		ClientID:        senderID,
		SessionID:       senderSession,
		SecureSessionID: senderSecure,
		AvatarClass:     models.AvatarLocal,
	})
	if !resp.Success {
		t.Fatalf("relogin failed: %s", resp.Description)
	}
	if resp.Balance != 1000 {
		t.Errorf("relogin must keep balance, got %d", resp.Balance)
	}
}

func TestClientLoginPolicy(t *testing.T) {
	svc, _ := testSetup(t)
	ctx := context.Background()

	hg := &models.LoginRequest{
		ClientID:        uuid.New().String(),
		SessionID:       uuid.New().String(),
		SecureSessionID: uuid.New().String(),
		AvatarClass:     models.AvatarHG,
	}
	if resp := svc.ClientLogin(ctx, hg); resp.Success {
		t.Error("hypergrid login must fail while disabled")
	}

	svc.cfg.Money.EnableHGAvatar = true
	svc.cfg.Money.HGAvatarBalance = 50
	resp := svc.ClientLogin(ctx, hg)
	if !resp.Success {
		t.Fatalf("hypergrid login failed: %s", resp.Description)
	}
	if resp.Balance != 50 {
		t.Errorf("expected hypergrid starting balance 50, got %d", resp.Balance)
	}

	npc := &models.LoginRequest{
		ClientID:        uuid.New().String(),
		SessionID:       uuid.New().String(),
		SecureSessionID: uuid.New().String(),
		AvatarClass:     models.AvatarNPC,
	}
	resp = svc.ClientLogin(ctx, npc)
	if !resp.Success || resp.Balance != 0 {
		t.Errorf("NPC login should succeed with zero balance, got %+v", resp)
	}
	if bal := svc.GetBalance(ctx, &models.GetBalanceRequest{
		ClientID:        npc.ClientID,
		SessionID:       npc.SessionID,
		SecureSessionID: npc.SecureSessionID,
	}); bal.Success {
		t.Error("NPC login must not register a session")
	}
}

func TestGetBalanceRequiresSession(t *testing.T) {
	svc, _ := testSetup(t)
	loginPair(t, svc)

	resp := svc.GetBalance(context.Background(), &models.GetBalanceRequest{
		ClientID:        senderID,
		SessionID:       "wrong",
		SecureSessionID: senderSecure,
	})
	if resp.Success {
		t.Error("expected unauthorized")
	}
}

func TestTransfer(t *testing.T) {
	svc, fake := testSetup(t)
	loginPair(t, svc)

	resp := svc.Transfer(context.Background(), &models.TransferRequest{
		SenderID:        senderID,
		ReceiverID:      receiverID,
		SessionID:       senderSession,
		SecureSessionID: senderSecure,
		Amount:          300,
		Type:            models.TransTypeGift,
	})
	if !resp.Success {
		t.Fatalf("transfer failed: %s", resp.Description)
	}

	if got := balanceOf(t, svc, senderID, senderSession, senderSecure); got != 700 {
		t.Errorf("expected sender balance 700, got %d", got)
	}
	if got := balanceOf(t, svc, receiverID, receiverSess, receiverSecure); got != 1300 {
		t.Errorf("expected receiver balance 1300, got %d", got)
	}

	fake.mu.Lock()
	updates := len(fake.balanceUpdates)
	fake.mu.Unlock()
	if updates != 2 {
		t.Errorf("expected both viewers refreshed, got %d updates", updates)
	}
}

func TestTransferUnauthorized(t *testing.T) {
	svc, _ := testSetup(t)
	loginPair(t, svc)

	resp := svc.Transfer(context.Background(), &models.TransferRequest{
		SenderID:        senderID,
		ReceiverID:      receiverID,
		SessionID:       "stolen",
		SecureSessionID: senderSecure,
		Amount:          300,
	})
	if resp.Success {
		t.Fatal("expected unauthorized")
	}
	if got := balanceOf(t, svc, senderID, senderSession, senderSecure); got != 1000 {
		t.Errorf("unauthorized transfer must not move money, got %d", got)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	svc, _ := testSetup(t)
	loginPair(t, svc)

	resp := svc.Transfer(context.Background(), &models.TransferRequest{
		SenderID:        senderID,
		ReceiverID:      receiverID,
		SessionID:       senderSession,
		SecureSessionID: senderSecure,
		Amount:          5000,
		Type:            models.TransTypeGift,
	})
	if resp.Success {
		t.Fatal("expected insufficient funds")
	}
	if got := balanceOf(t, svc, senderID, senderSession, senderSecure); got != 1000 {
		t.Errorf("failed transfer must not move money, got %d", got)
	}
}

func TestTransferZeroAmountPolicy(t *testing.T) {
	svc, fake := testSetup(t)
	loginPair(t, svc)
	ctx := context.Background()

	req := &models.TransferRequest{
		SenderID:        senderID,
		ReceiverID:      receiverID,
		SessionID:       senderSession,
		SecureSessionID: senderSecure,
		Amount:          0,
		Type:            models.TransTypeGift,
	}
	if resp := svc.Transfer(ctx, req); resp.Success {
		t.Error("zero amount must fail while disabled")
	}

	svc.cfg.Money.EnableAmountZero = true
	if resp := svc.Transfer(ctx, req); !resp.Success {
		t.Errorf("zero amount must pass when enabled: %s", resp.Description)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.balanceUpdates) != 0 || len(fake.transferCalls) != 0 {
		t.Errorf("free transfer must settle silently, got %d balance updates and %d deliveries",
			len(fake.balanceUpdates), len(fake.transferCalls))
	}
}

func TestObjectSaleDeliveryFailureRollsBack(t *testing.T) {
	svc, fake := testSetup(t)
	loginPair(t, svc)
	fake.deliverOK = false

	resp := svc.Transfer(context.Background(), &models.TransferRequest{
		SenderID:        senderID,
		ReceiverID:      receiverID,
		SessionID:       senderSession,
		SecureSessionID: senderSecure,
		Amount:          400,
		ObjectID:        uuid.New().String(),
		ObjectName:      "vendor",
		Type:            models.TransTypePayObject,
	})
	if resp.Success {
		t.Fatal("expected failed delivery to fail the transfer")
	}

	if got := balanceOf(t, svc, senderID, senderSession, senderSecure); got != 1000 {
		t.Errorf("expected sender restored to 1000, got %d", got)
	}
	if got := balanceOf(t, svc, receiverID, receiverSess, receiverSecure); got != 1000 {
		t.Errorf("expected receiver restored to 1000, got %d", got)
	}
}

func TestObjectSaleRecordsAggregate(t *testing.T) {
	svc, fake := testSetup(t)
	loginPair(t, svc)

	objectID := uuid.New().String()
	resp := svc.Transfer(context.Background(), &models.TransferRequest{
		SenderID:        senderID,
		ReceiverID:      receiverID,
		SessionID:       senderSession,
		SecureSessionID: senderSecure,
		Amount:          250,
		ObjectID:        objectID,
		ObjectName:      "vendor",
		Type:            models.TransTypePayObject,
	})
	if !resp.Success {
		t.Fatalf("object sale failed: %s", resp.Description)
	}

	fake.mu.Lock()
	calls := len(fake.transferCalls)
	fake.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected one delivery callback, got %d", calls)
	}
}

func TestScriptTransfer(t *testing.T) {
	svc, _ := testSetup(t)
	loginPair(t, svc)
	ctx := context.Background()

	clientAddr := "10.0.0.7"
	inner := md5hex(svc.cfg.Money.ScriptAccessKey + "_" + clientAddr)
	code := md5hex(inner + "_" + svc.cfg.Money.ScriptIPAddress)

	resp := svc.ScriptTransfer(ctx, &models.ScriptTransferRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     100,
		Type:       models.TransTypeObjectPays,
		SecretCode: code,
	}, clientAddr)
	if !resp.Success {
		t.Fatalf("script transfer failed: %s", resp.Description)
	}

	resp = svc.ScriptTransfer(ctx, &models.ScriptTransferRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     100,
		SecretCode: "bogus",
	}, clientAddr)
	if resp.Success {
		t.Error("bad access code must fail")
	}
}

func TestForceTransferGate(t *testing.T) {
	svc, _ := testSetup(t)
	loginPair(t, svc)
	ctx := context.Background()

	req := &models.ForceTransferRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     100,
		Type:       models.TransTypeLandSale,
	}
	if resp := svc.ForceTransfer(ctx, req); resp.Success {
		t.Error("force transfer must fail while disabled")
	}

	svc.cfg.Money.EnableForceTransfer = true
	if resp := svc.ForceTransfer(ctx, req); !resp.Success {
		t.Errorf("force transfer failed: %s", resp.Description)
	}
}

func TestPayCharge(t *testing.T) {
	svc, _ := testSetup(t)
	loginPair(t, svc)

	resp := svc.PayCharge(context.Background(), &models.PayChargeRequest{
		SenderID:        senderID,
		SessionID:       senderSession,
		SecureSessionID: senderSecure,
		Amount:          10,
	})
	if !resp.Success {
		t.Fatalf("charge failed: %s", resp.Description)
	}
	if got := balanceOf(t, svc, senderID, senderSession, senderSecure); got != 990 {
		t.Errorf("expected balance 990 after charge, got %d", got)
	}
}

func TestAddBankerMoney(t *testing.T) {
	svc, _ := testSetup(t)
	ctx := context.Background()

	bankerID := svc.cfg.Money.BankerAvatar
	resp := svc.ClientLogin(ctx, &models.LoginRequest{
		ClientID:        bankerID,
		SessionID:       uuid.New().String(),
		SecureSessionID: uuid.New().String(),
		AvatarClass:     models.AvatarLocal,
	})
	if !resp.Success {
		t.Fatalf("banker login failed: %s", resp.Description)
	}

	got := svc.AddBankerMoney(ctx, &models.AddBankerMoneyRequest{
		BankerID: bankerID,
		Amount:   500,
	})
	if !got.Success || !got.Banker {
		t.Fatalf("banker purchase failed: %s", got.Description)
	}

	denied := svc.AddBankerMoney(ctx, &models.AddBankerMoneyRequest{
		BankerID: uuid.New().String(),
		Amount:   500,
	})
	if denied.Success || denied.Banker {
		t.Error("non-banker must be refused with banker=false")
	}
}

func TestCancelTransfer(t *testing.T) {
	svc, _ := testSetup(t)
	loginPair(t, svc)
	ctx := context.Background()

	// A recorded but unsettled transfer can still be withdrawn.
	tx := newTransaction(senderID, receiverID, 100, models.TransTypeGift, "gift")
	if err := svc.store.AddTransaction(ctx, tx); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	resp := svc.CancelTransfer(ctx, &models.CancelTransferRequest{
		SecureCode:    tx.SecureCode,
		TransactionID: tx.ID,
	})
	if !resp.Success {
		t.Fatalf("cancel failed: %s", resp.Description)
	}

	// A settled transfer refuses cancellation.
	settled := newTransaction(senderID, receiverID, 100, models.TransTypeGift, "gift")
	if err := svc.store.AddTransaction(ctx, settled); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if err := svc.settle(ctx, settled); err != nil {
		t.Fatalf("settle: %v", err)
	}

	resp = svc.CancelTransfer(ctx, &models.CancelTransferRequest{
		SecureCode:    settled.SecureCode,
		TransactionID: settled.ID,
	})
	if resp.Success {
		t.Fatal("settled transfer must refuse cancellation")
	}
	if got := balanceOf(t, svc, receiverID, receiverSess, receiverSecure); got != 1100 {
		t.Errorf("refused cancel must not move money, got %d", got)
	}

	// A bad token is refused outright.
	resp = svc.CancelTransfer(ctx, &models.CancelTransferRequest{
		SecureCode:    "wrong",
		TransactionID: settled.ID,
	})
	if resp.Success {
		t.Error("bad token must be refused")
	}
}

func TestWebSurface(t *testing.T) {
	svc, _ := testSetup(t)
	loginPair(t, svc)
	ctx := context.Background()

	// Give the sender a web password.
	info, err := svc.store.FetchUserInfo(ctx, senderID)
	if err != nil {
		t.Fatalf("FetchUserInfo: %v", err)
	}
	info.PswHash = md5hex("secret")
	if err := svc.store.UpdateUserInfo(ctx, info); err != nil {
		t.Fatalf("UpdateUserInfo: %v", err)
	}

	webSession := uuid.New().String()
	login := svc.WebLogin(ctx, &models.WebLoginRequest{
		UserID:       senderID,
		PasswordHash: md5hex("secret"),
		WebSessionID: webSession,
	})
	if !login.Success {
		t.Fatalf("web login failed: %s", login.Description)
	}

	if resp := svc.WebLogin(ctx, &models.WebLoginRequest{
		UserID:       senderID,
		PasswordHash: md5hex("wrong"),
		WebSessionID: uuid.New().String(),
	}); resp.Success {
		t.Error("wrong password must fail")
	}

	bal := svc.WebGetBalance(ctx, &models.WebGetBalanceRequest{
		UserID:       senderID,
		WebSessionID: webSession,
	})
	if !bal.Success || bal.Balance != 1000 {
		t.Errorf("expected web balance 1000, got %+v", bal)
	}

	// Create some history to page through.
	start := time.Now().Unix() - 10
	xfer := svc.Transfer(ctx, &models.TransferRequest{
		SenderID:        senderID,
		ReceiverID:      receiverID,
		SessionID:       senderSession,
		SecureSessionID: senderSecure,
		Amount:          100,
		Type:            models.TransTypeGift,
	})
	if !xfer.Success {
		t.Fatalf("transfer failed: %s", xfer.Description)
	}
	end := time.Now().Unix() + 10

	num := svc.WebGetTransactionNum(ctx, &models.WebGetTransactionNumRequest{
		UserID:       senderID,
		WebSessionID: webSession,
		StartTime:    start,
		EndTime:      end,
	})
	if !num.Success || num.Number != 1 {
		t.Fatalf("expected 1 transaction, got %+v", num)
	}

	one := svc.WebGetTransaction(ctx, &models.WebGetTransactionRequest{
		UserID:       senderID,
		WebSessionID: webSession,
		StartTime:    start,
		EndTime:      end,
		Index:        0,
	})
	if !one.Success {
		t.Fatalf("WebGetTransaction failed: %s", one.Description)
	}
	if one.Transaction.Amount != 100 || one.Transaction.Receiver != receiverID {
		t.Errorf("unexpected transaction %+v", one.Transaction)
	}

	svc.WebLogout(ctx, &models.WebLogoutRequest{UserID: senderID, WebSessionID: webSession})
	if resp := svc.WebGetBalance(ctx, &models.WebGetBalanceRequest{
		UserID:       senderID,
		WebSessionID: webSession,
	}); resp.Success {
		t.Error("web session must be invalid after logout")
	}
}

func TestCurrencyPurchase(t *testing.T) {
	svc, _ := testSetup(t)
	loginPair(t, svc)
	ctx := context.Background()

	quote := svc.GetCurrencyQuote(ctx, &models.CurrencyQuoteRequest{
		AgentID:         senderID,
		SecureSessionID: senderSecure,
		CurrencyBuy:     100,
	})
	if !quote.Success {
		t.Fatalf("quote failed: %s", quote.Error)
	}
	if quote.Currency.EstimatedCost != 150 {
		t.Errorf("expected cost 150 at rate 1.5, got %d", quote.Currency.EstimatedCost)
	}

	below := svc.GetCurrencyQuote(ctx, &models.CurrencyQuoteRequest{
		AgentID:         senderID,
		SecureSessionID: senderSecure,
		CurrencyBuy:     5,
	})
	if below.Success {
		t.Error("below-minimum quote must fail")
	}

	buy := svc.BuyCurrency(ctx, &models.BuyCurrencyRequest{
		AgentID:         senderID,
		SecureSessionID: senderSecure,
		CurrencyBuy:     quote.Currency.CurrencyBuy,
		EstimatedCost:   quote.Currency.EstimatedCost,
		Confirm:         quote.Confirm,
	})
	if !buy.Success {
		t.Fatalf("purchase failed: %s", buy.Error)
	}
	if got := balanceOf(t, svc, senderID, senderSession, senderSecure); got != 1100 {
		t.Errorf("expected balance 1100 after purchase, got %d", got)
	}

	tampered := svc.BuyCurrency(ctx, &models.BuyCurrencyRequest{
		AgentID:         senderID,
		SecureSessionID: senderSecure,
		CurrencyBuy:     1000,
		EstimatedCost:   1,
		Confirm:         quote.Confirm,
	})
	if tampered.Success {
		t.Error("tampered purchase must fail")
	}
}
