/**
 * Copyright 2025-present the money-server-go authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"money-server-go/internal/models"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	deadTime, err := getEnvDuration("TRANSACTION_DEAD_TIME", 120*time.Second)
	if err != nil {
		return nil, err
	}

	sessionTTL, err := getEnvDuration("SESSION_TTL", 0)
	if err != nil {
		return nil, err
	}

	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "money.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Server: models.ServerConfig{
			Port:            getEnvInt("SERVER_PORT", 8008),
			MaxConns:        getEnvInt("SERVER_MAX_CONNS", 256),
			CertFile:        getEnvString("SERVER_CERT_FILE", ""),
			KeyFile:         getEnvString("SERVER_KEY_FILE", ""),
			CheckClientCert: getEnvBool("CHECK_CLIENT_CERT", false),
			CACertFile:      getEnvString("CA_CERT_FILE", ""),
		},
		Money: models.MoneyConfig{
			DefaultBalance:      getEnvInt("DEFAULT_BALANCE", 1000),
			HGAvatarBalance:     getEnvInt("HG_AVATAR_BALANCE", 0),
			GuestAvatarBalance:  getEnvInt("GUEST_AVATAR_BALANCE", 0),
			BankerAvatar:        getEnvString("BANKER_AVATAR", models.SystemUserID),
			EnableForceTransfer: getEnvBool("ENABLE_FORCE_TRANSFER", false),
			EnableScriptSend:    getEnvBool("ENABLE_SCRIPT_SEND_MONEY", false),
			EnableHGAvatar:      getEnvBool("ENABLE_HG_AVATAR", false),
			EnableGuestAvatar:   getEnvBool("ENABLE_GUEST_AVATAR", false),
			EnableAmountZero:    getEnvBool("ENABLE_AMOUNT_ZERO", false),
			ScriptAccessKey:     getEnvString("SCRIPT_ACCESS_KEY", ""),
			ScriptIPAddress:     getEnvString("SCRIPT_IP_ADDRESS", "127.0.0.1"),
			ExchangeRate:        getEnvString("EXCHANGE_RATE", "1.5"),
			MinimumBuy:          getEnvInt("MINIMUM_BUY", 10),
			SessionTTL:          sessionTTL,
			MessagesFile:        getEnvString("BALANCE_MESSAGES_FILE", ""),
		},
		Sweeper: models.SweeperConfig{
			Schedule: getEnvString("SWEEP_SCHEDULE", "@every 1m"),
			DeadTime: deadTime,
		},
	}

	messages, err := LoadMessages(cfg.Money.MessagesFile)
	if err != nil {
		return nil, err
	}
	cfg.Messages = *messages

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
