package api

import (
	"context"

	"money-server-go/internal/models"
	"money-server-go/internal/store"

	"go.uber.org/zap"
)

// ClientLogin registers a simulator session, refreshes the user's profile
// and creates the balance row on first contact. Which avatars may log in,
// and with what starting balance, is avatar-class policy.
func (s *TransactionService) ClientLogin(ctx context.Context, req *models.LoginRequest) *models.LoginResponse {
	if req.ClientID == "" || req.SessionID == "" || req.SecureSessionID == "" {
		return &models.LoginResponse{Description: "missing session credentials"}
	}

	startBalance := s.cfg.Money.DefaultBalance
	switch req.AvatarClass {
	case models.AvatarLocal:
		// Always welcome.
	case models.AvatarHG:
		if !s.cfg.Money.EnableHGAvatar {
			return &models.LoginResponse{Description: "hypergrid avatars are not accepted"}
		}
		startBalance = s.cfg.Money.HGAvatarBalance
	case models.AvatarGuest:
		if !s.cfg.Money.EnableGuestAvatar {
			return &models.LoginResponse{Description: "guest avatars are not accepted"}
		}
		startBalance = s.cfg.Money.GuestAvatarBalance
	case models.AvatarNPC:
		// NPCs carry no money account; acknowledge without session or rows.
		return &models.LoginResponse{Success: true}
	default:
		return &models.LoginResponse{Description: "unknown avatar class"}
	}

	s.sessions.Login(req.ClientID, req.SessionID, req.SecureSessionID)

	info := &models.UserInfo{
		UserID:    req.ClientID,
		SimIP:     req.SimIP,
		Avatar:    req.UserName,
		Type:      req.AvatarType,
		Class:     req.AvatarClass,
		ServerURL: req.UniversalID,
	}
	if err := s.store.AddUserInfo(ctx, info); err != nil {
		zap.L().Error("Failed to record user info",
			zap.String("user", req.ClientID), zap.Error(err))
		return &models.LoginResponse{Description: "unable to record login"}
	}

	res, err := s.store.GetBalance(ctx, req.ClientID)
	if err != nil {
		zap.L().Error("Failed to read balance at login",
			zap.String("user", req.ClientID), zap.Error(err))
		return &models.LoginResponse{Description: "unable to read balance"}
	}
	balance := res.Amount
	if res.Kind == store.BalanceNotFound {
		err := s.store.CreateUser(ctx, req.ClientID, startBalance, 0, req.AvatarClass)
		if err != nil && err != store.ErrUserExists {
			zap.L().Error("Failed to create balance row",
				zap.String("user", req.ClientID), zap.Error(err))
			return &models.LoginResponse{Description: "unable to create account"}
		}
		balance = startBalance
	}

	zap.L().Info("Client logged in",
		zap.String("user", req.ClientID),
		zap.String("sim", req.SimIP),
		zap.Int("class", req.AvatarClass),
		zap.Int("balance", balance))

	return &models.LoginResponse{Success: true, Balance: balance}
}

// ClientLogout drops the viewer session. Always succeeds; a logout for an
// unknown session is a no-op.
func (s *TransactionService) ClientLogout(ctx context.Context, req *models.LogoutRequest) *models.SimpleResponse {
	s.sessions.Logout(req.ClientID)
	zap.L().Info("Client logged out", zap.String("user", req.ClientID))
	return &models.SimpleResponse{Success: true}
}

// GetBalance reports the caller's balance after session validation.
func (s *TransactionService) GetBalance(ctx context.Context, req *models.GetBalanceRequest) *models.GetBalanceResponse {
	if !s.sessions.Validate(req.ClientID, req.SessionID, req.SecureSessionID) {
		return &models.GetBalanceResponse{Description: "unauthorized"}
	}

	res, err := s.store.GetBalance(ctx, req.ClientID)
	if err != nil {
		zap.L().Error("Failed to read balance",
			zap.String("user", req.ClientID), zap.Error(err))
		return &models.GetBalanceResponse{Description: "unable to read balance"}
	}
	if res.Kind != store.BalanceOK {
		return &models.GetBalanceResponse{Description: "no such account"}
	}
	return &models.GetBalanceResponse{Success: true, Balance: res.Amount}
}
