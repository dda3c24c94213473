// Copyright 2025-present the money-server-go authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the money service over HTTP: the simulator and
// web-console methods on the root endpoint, and the viewer's legacy
// currency.php and landtool.php endpoints.
package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"money-server-go/internal/api"
	"money-server-go/internal/models"
	"money-server-go/internal/rpc"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
)

type Server struct {
	svc  *api.TransactionService
	cfg  models.ServerConfig
	http *http.Server
}

func New(svc *api.TransactionService, cfg models.ServerConfig) *Server {
	s := &Server{svc: svc, cfg: cfg}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRPC).Methods(http.MethodPost)
	r.HandleFunc("/currency.php", s.handleCurrency).Methods(http.MethodPost)
	r.HandleFunc("/landtool.php", s.handleLand).Methods(http.MethodPost)

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
// The listener caps concurrent connections so a busy grid cannot exhaust
// file descriptors.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("unable to listen on %s: %w", s.http.Addr, err)
	}
	if s.cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConns)
	}

	if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
		tlsCfg, err := s.tlsConfig()
		if err != nil {
			return err
		}
		s.http.TLSConfig = tlsCfg
		zap.L().Info("Serving HTTPS", zap.String("addr", s.http.Addr))
		err = s.http.ServeTLS(ln, s.cfg.CertFile, s.cfg.KeyFile)
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}

	zap.L().Info("Serving HTTP", zap.String("addr", s.http.Addr))
	if err := s.http.Serve(ln); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) tlsConfig() (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if !s.cfg.CheckClientCert {
		return cfg, nil
	}

	pem, err := os.ReadFile(s.cfg.CACertFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", s.cfg.CACertFile)
	}
	cfg.ClientAuth = tls.RequireAndVerifyClientCert
	cfg.ClientCAs = pool
	return cfg, nil
}

// handleRPC dispatches the simulator and web-console methods.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	method, params, err := rpc.ParseRequest(r.Body)
	if err != nil {
		zap.L().Warn("Malformed method call",
			zap.String("remote", r.RemoteAddr), zap.Error(err))
		http.Error(w, "malformed method call", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var resp any
	switch method {
	case "ClientLogin":
		req := &models.LoginRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.ClientLogin(ctx, req)
	case "ClientLogout":
		req := &models.LogoutRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.ClientLogout(ctx, req)
	case "GetBalance":
		req := &models.GetBalanceRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.GetBalance(ctx, req)
	case "TransferMoney":
		req := &models.TransferRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.Transfer(ctx, req)
	case "ForceTransferMoney":
		req := &models.ForceTransferRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.ForceTransfer(ctx, req)
	case "SendMoney", "MoveMoney":
		// Both script entry points share the access-key handshake; SendMoney
		// pays out of the script owner's account, MoveMoney names both ends.
		req := &models.ScriptTransferRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.ScriptTransfer(ctx, req, remoteHost(r))
	case "PayMoneyCharge":
		req := &models.PayChargeRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.PayCharge(ctx, req)
	case "AddBankerMoney":
		req := &models.AddBankerMoneyRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.AddBankerMoney(ctx, req)
	case "CancelTransfer":
		req := &models.CancelTransferRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.CancelTransfer(ctx, req)
	case "GetTransaction":
		req := &models.GetTransactionRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.GetTransaction(ctx, req)
	case "WebLogin":
		req := &models.WebLoginRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.WebLogin(ctx, req)
	case "WebLogout":
		req := &models.WebLogoutRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.WebLogout(ctx, req)
	case "WebGetBalance":
		req := &models.WebGetBalanceRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.WebGetBalance(ctx, req)
	case "WebGetTransaction":
		req := &models.WebGetTransactionRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.WebGetTransaction(ctx, req)
	case "WebGetTransactionNum":
		req := &models.WebGetTransactionNumRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.WebGetTransactionNum(ctx, req)
	default:
		writeFault(w, http.StatusNotFound, "unknown method "+method)
		return
	}

	writeResponse(w, resp)
}

// handleCurrency dispatches the viewer's currency endpoint.
func (s *Server) handleCurrency(w http.ResponseWriter, r *http.Request) {
	method, params, err := rpc.ParseRequest(r.Body)
	if err != nil {
		http.Error(w, "malformed method call", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var resp any
	switch method {
	case "getCurrencyQuote":
		req := &models.CurrencyQuoteRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.GetCurrencyQuote(ctx, req)
	case "buyCurrency":
		req := &models.BuyCurrencyRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.BuyCurrency(ctx, req)
	default:
		writeFault(w, http.StatusNotFound, "unknown method "+method)
		return
	}

	writeResponse(w, resp)
}

// handleLand dispatches the viewer's land purchase endpoint.
func (s *Server) handleLand(w http.ResponseWriter, r *http.Request) {
	method, params, err := rpc.ParseRequest(r.Body)
	if err != nil {
		http.Error(w, "malformed method call", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var resp any
	switch method {
	case "preflightBuyLandPrep":
		req := &models.PreflightLandRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.PreflightBuyLandPrep(ctx, req)
	case "buyLandPrep":
		req := &models.BuyLandRequest{}
		if resp = decode(w, params, req); resp == nil {
			return
		}
		resp = s.svc.BuyLandPrep(ctx, req)
	default:
		writeFault(w, http.StatusNotFound, "unknown method "+method)
		return
	}

	writeResponse(w, resp)
}

// decode fills req from the call parameters. On failure it answers the
// client and returns nil; otherwise it returns req for the dispatch switch.
func decode(w http.ResponseWriter, params map[string]any, req any) any {
	if err := rpc.DecodeParams(params, req); err != nil {
		writeFault(w, http.StatusBadRequest, err.Error())
		return nil
	}
	return req
}

func writeResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "text/xml")
	if err := rpc.WriteResponse(w, resp); err != nil {
		zap.L().Error("Failed to write response", zap.Error(err))
	}
}

func writeFault(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/xml")
	if err := rpc.WriteFault(w, code, message); err != nil {
		zap.L().Error("Failed to write fault", zap.Error(err))
	}
}

// remoteHost strips the port from the peer address. Script access checks
// hash over the bare address.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
