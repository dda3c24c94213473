package api

import (
	"context"
	"strconv"

	"money-server-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// estimateCost prices a currency purchase in real money using the
// configured exchange rate, rounded up to whole cents.
func (s *TransactionService) estimateCost(currencyBuy int) (int, error) {
	rate, err := decimal.NewFromString(s.cfg.Money.ExchangeRate)
	if err != nil {
		return 0, err
	}
	cost := rate.Mul(decimal.NewFromInt(int64(currencyBuy))).Ceil()
	return int(cost.IntPart()), nil
}

// quoteConfirm derives the confirmation token the viewer must echo back on
// the purchase call, binding the purchase to the quoted price.
func (s *TransactionService) quoteConfirm(agentID string, currencyBuy, cost int) string {
	return md5hex(agentID + "_" + strconv.Itoa(currencyBuy) + "_" +
		strconv.Itoa(cost) + "_" + s.cfg.Money.ScriptAccessKey)
}

// GetCurrencyQuote prices a currency purchase for the viewer's buy dialog.
func (s *TransactionService) GetCurrencyQuote(ctx context.Context, req *models.CurrencyQuoteRequest) *models.CurrencyQuoteResponse {
	if !s.sessions.ValidateSecure(req.AgentID, req.SecureSessionID) {
		return &models.CurrencyQuoteResponse{Error: "unauthorized"}
	}
	if req.CurrencyBuy < s.cfg.Money.MinimumBuy {
		return &models.CurrencyQuoteResponse{
			Error: "purchase is below the minimum of " + strconv.Itoa(s.cfg.Money.MinimumBuy),
		}
	}

	cost, err := s.estimateCost(req.CurrencyBuy)
	if err != nil {
		zap.L().Error("Bad exchange rate setting",
			zap.String("rate", s.cfg.Money.ExchangeRate), zap.Error(err))
		return &models.CurrencyQuoteResponse{Error: "currency exchange unavailable"}
	}

	return &models.CurrencyQuoteResponse{
		Success: true,
		Currency: models.CurrencyQuote{
			EstimatedCost: cost,
			CurrencyBuy:   req.CurrencyBuy,
		},
		Confirm: s.quoteConfirm(req.AgentID, req.CurrencyBuy, cost),
	}
}

// BuyCurrency completes a quoted purchase: the confirmation token must
// match the quote, then the amount is minted onto the buyer's account.
func (s *TransactionService) BuyCurrency(ctx context.Context, req *models.BuyCurrencyRequest) *models.BuyCurrencyResponse {
	if !s.sessions.ValidateSecure(req.AgentID, req.SecureSessionID) {
		return &models.BuyCurrencyResponse{Error: "unauthorized"}
	}
	if req.CurrencyBuy < s.cfg.Money.MinimumBuy {
		return &models.BuyCurrencyResponse{Error: "purchase is below the minimum"}
	}
	if req.Confirm != s.quoteConfirm(req.AgentID, req.CurrencyBuy, req.EstimatedCost) {
		return &models.BuyCurrencyResponse{Error: "stale quote, request a new one"}
	}

	tx := newTransaction(models.SystemUserID, req.AgentID, req.CurrencyBuy,
		models.TransTypeBuyMoney, "currency purchase")
	if err := s.store.AddTransaction(ctx, tx); err != nil {
		zap.L().Error("Failed to record currency purchase",
			zap.String("agent", req.AgentID), zap.Error(err))
		return &models.BuyCurrencyResponse{Error: "unable to record purchase"}
	}
	if err := s.store.BuyMoney(ctx, tx.ID, req.AgentID, req.CurrencyBuy); err != nil {
		zap.L().Error("Failed to credit currency purchase",
			zap.String("agent", req.AgentID), zap.Error(err))
		return &models.BuyCurrencyResponse{Error: "unable to credit account"}
	}

	zap.L().Info("Currency purchased",
		zap.String("agent", req.AgentID),
		zap.Int("amount", req.CurrencyBuy),
		zap.Int("cost", req.EstimatedCost))
	s.pushBalance(ctx, req.AgentID, s.message(s.cfg.Messages.BuyMoney, req.CurrencyBuy, "", ""))
	return &models.BuyCurrencyResponse{Success: true}
}

// PreflightBuyLandPrep answers the viewer's pre-purchase check for a land
// buy: membership standing, land-use standing and a currency quote for any
// shortfall.
func (s *TransactionService) PreflightBuyLandPrep(ctx context.Context, req *models.PreflightLandRequest) *models.PreflightLandResponse {
	if !s.sessions.ValidateSecure(req.AgentID, req.SecureSessionID) {
		return &models.PreflightLandResponse{Error: "unauthorized"}
	}

	resp := &models.PreflightLandResponse{
		Success:    true,
		Membership: models.LandMembership{Action: ""},
		LandUse:    models.LandUse{Action: ""},
	}
	if req.CurrencyBuy > 0 {
		cost, err := s.estimateCost(req.CurrencyBuy)
		if err != nil {
			zap.L().Error("Bad exchange rate setting",
				zap.String("rate", s.cfg.Money.ExchangeRate), zap.Error(err))
			return &models.PreflightLandResponse{Error: "currency exchange unavailable"}
		}
		resp.Currency = models.CurrencyQuote{
			EstimatedCost: cost,
			CurrencyBuy:   req.CurrencyBuy,
		}
		resp.Confirm = s.quoteConfirm(req.AgentID, req.CurrencyBuy, cost)
	}
	return resp
}

// BuyLandPrep acknowledges a land purchase. The land transfer itself is
// settled by the region through the transfer endpoints; this call only
// confirms the buyer's standing.
func (s *TransactionService) BuyLandPrep(ctx context.Context, req *models.BuyLandRequest) *models.BuyCurrencyResponse {
	if !s.sessions.ValidateSecure(req.AgentID, req.SecureSessionID) {
		return &models.BuyCurrencyResponse{Error: "unauthorized"}
	}
	return &models.BuyCurrencyResponse{Success: true}
}
