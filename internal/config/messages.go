package config

import (
	"fmt"
	"os"

	"money-server-go/internal/models"

	"gopkg.in/yaml.v2"
)

// DefaultMessages are the built-in balance-change templates, used when no
// messages file is configured. Placeholders: {0} amount, {1} counterparty,
// {2} object name.
func DefaultMessages() models.BalanceMessages {
	return models.BalanceMessages{
		LandSale:     "Paid the Money L${0} for Land.",
		RcvLandSale:  "",
		SendGift:     "Sent Gift L${0} to {1}.",
		ReceiveGift:  "Received Gift L${0} from {1}.",
		PayCharge:    "Paid the Money L${0} for the charge.",
		BuyObject:    "Bought the Object {2} from {1} by L${0}.",
		SellObject:   "{1} bought the Object {2} by L${0}.",
		GetMoney:     "Got the Money L${0} from {1}.",
		BuyMoney:     "Bought the Money L${0}.",
		RollBack:     "RollBack the Transaction: L${0} from/to {1}.",
		SendMoney:    "Paid the Money L${0} to {1}.",
		ReceiveMoney: "Received L${0} from {1}.",
	}
}

// LoadMessages reads the template file and overlays it on the defaults. An
// empty path returns the defaults unchanged.
func LoadMessages(path string) (*models.BalanceMessages, error) {
	messages := DefaultMessages()
	if path == "" {
		return &messages, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read balance messages file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("unable to parse balance messages file %s: %w", path, err)
	}
	return &messages, nil
}
