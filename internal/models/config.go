package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Money    MoneyConfig
	Sweeper  SweeperConfig
	Messages BalanceMessages
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port            int
	MaxConns        int
	CertFile        string
	KeyFile         string
	CheckClientCert bool
	CACertFile      string
}

// MoneyConfig holds the business-policy settings of the money server.
type MoneyConfig struct {
	DefaultBalance      int
	HGAvatarBalance     int
	GuestAvatarBalance  int
	BankerAvatar        string
	EnableForceTransfer bool
	EnableScriptSend    bool
	EnableHGAvatar      bool
	EnableGuestAvatar   bool
	EnableAmountZero    bool
	ScriptAccessKey     string
	ScriptIPAddress     string
	ExchangeRate        string
	MinimumBuy          int
	SessionTTL          time.Duration // 0 means sessions never expire
	MessagesFile        string
}

// SweeperConfig holds the stale-transaction expiry settings.
type SweeperConfig struct {
	Schedule string        // cron spec, e.g. "@every 1m"
	DeadTime time.Duration // Pending older than this is failed
}
