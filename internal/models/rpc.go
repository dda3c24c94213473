package models

// Typed request/response records for the XML-RPC surface. Every request is a
// single struct-valued parameter; the xmlrpc tag is the member name on the
// wire. Responses always carry at least Success.

type LoginRequest struct {
	ClientID        string `xmlrpc:"clientUUID"`
	SessionID       string `xmlrpc:"clientSessionID"`
	SecureSessionID string `xmlrpc:"clientSecureSessionID"`
	UniversalID     string `xmlrpc:"universalID"`
	UserName        string `xmlrpc:"userName"`
	SimIP           string `xmlrpc:"openSimServIP"`
	AvatarType      int    `xmlrpc:"avatarType"`
	AvatarClass     int    `xmlrpc:"avatarClass"`
}

type LoginResponse struct {
	Success     bool   `xmlrpc:"success"`
	Balance     int    `xmlrpc:"clientBalance"`
	Description string `xmlrpc:"description"`
}

type LogoutRequest struct {
	ClientID string `xmlrpc:"clientUUID"`
}

type SimpleResponse struct {
	Success     bool   `xmlrpc:"success"`
	Description string `xmlrpc:"description"`
}

type GetBalanceRequest struct {
	ClientID        string `xmlrpc:"clientUUID"`
	SessionID       string `xmlrpc:"clientSessionID"`
	SecureSessionID string `xmlrpc:"clientSecureSessionID"`
}

type GetBalanceResponse struct {
	Success     bool   `xmlrpc:"success"`
	Balance     int    `xmlrpc:"clientBalance"`
	Description string `xmlrpc:"description"`
}

type TransferRequest struct {
	SenderID        string `xmlrpc:"senderID"`
	ReceiverID      string `xmlrpc:"receiverID"`
	SessionID       string `xmlrpc:"senderSessionID"`
	SecureSessionID string `xmlrpc:"senderSecureSessionID"`
	Amount          int    `xmlrpc:"amount"`
	ObjectID        string `xmlrpc:"objectID"`
	ObjectName      string `xmlrpc:"objectName"`
	RegionHandle    string `xmlrpc:"regionHandle"`
	RegionID        string `xmlrpc:"regionUUID"`
	Type            int    `xmlrpc:"transactionType"`
	Description     string `xmlrpc:"description"`
}

// ForceTransferRequest is a TransferRequest without the session pair.
type ForceTransferRequest struct {
	SenderID     string `xmlrpc:"senderID"`
	ReceiverID   string `xmlrpc:"receiverID"`
	Amount       int    `xmlrpc:"amount"`
	ObjectID     string `xmlrpc:"objectID"`
	ObjectName   string `xmlrpc:"objectName"`
	RegionHandle string `xmlrpc:"regionHandle"`
	RegionID     string `xmlrpc:"regionUUID"`
	Type         int    `xmlrpc:"transactionType"`
	Description  string `xmlrpc:"description"`
}

type ScriptTransferRequest struct {
	SenderID    string `xmlrpc:"senderID"`
	ReceiverID  string `xmlrpc:"receiverID"`
	Amount      int    `xmlrpc:"amount"`
	Type        int    `xmlrpc:"transactionType"`
	Description string `xmlrpc:"description"`
	SecretCode  string `xmlrpc:"secretAccessCode"`
}

// PayChargeRequest carries no receiver; grid fees always land on the
// system account.
type PayChargeRequest struct {
	SenderID        string `xmlrpc:"senderID"`
	SessionID       string `xmlrpc:"senderSessionID"`
	SecureSessionID string `xmlrpc:"senderSecureSessionID"`
	Amount          int    `xmlrpc:"amount"`
	ObjectID        string `xmlrpc:"objectID"`
	ObjectName      string `xmlrpc:"objectName"`
	RegionHandle    string `xmlrpc:"regionHandle"`
	RegionID        string `xmlrpc:"regionUUID"`
	Type            int    `xmlrpc:"transactionType"`
	Description     string `xmlrpc:"description"`
}

type AddBankerMoneyRequest struct {
	BankerID     string `xmlrpc:"bankerID"`
	Amount       int    `xmlrpc:"amount"`
	RegionHandle string `xmlrpc:"regionHandle"`
	RegionID     string `xmlrpc:"regionUUID"`
	Type         int    `xmlrpc:"transactionType"`
	Description  string `xmlrpc:"description"`
}

type AddBankerMoneyResponse struct {
	Success     bool   `xmlrpc:"success"`
	Banker      bool   `xmlrpc:"banker"`
	Description string `xmlrpc:"description"`
}

type CancelTransferRequest struct {
	SecureCode    string `xmlrpc:"secureCode"`
	TransactionID string `xmlrpc:"transactionID"`
}

type GetTransactionRequest struct {
	ClientID        string `xmlrpc:"clientUUID"`
	SessionID       string `xmlrpc:"clientSessionID"`
	SecureSessionID string `xmlrpc:"clientSecureSessionID"`
	TransactionID   string `xmlrpc:"transactionID"`
}

type GetTransactionResponse struct {
	Success     bool   `xmlrpc:"success"`
	Amount      int    `xmlrpc:"amount"`
	Time        int64  `xmlrpc:"time"`
	Type        int    `xmlrpc:"type"`
	Sender      string `xmlrpc:"sender"`
	Receiver    string `xmlrpc:"receiver"`
	Description string `xmlrpc:"description"`
}

// Web surface: authenticated by password hash instead of simulator sessions.

type WebLoginRequest struct {
	UserID       string `xmlrpc:"userID"`
	PasswordHash string `xmlrpc:"passwordHash"`
	WebSessionID string `xmlrpc:"sessionID"`
}

type WebLogoutRequest struct {
	UserID       string `xmlrpc:"userID"`
	WebSessionID string `xmlrpc:"sessionID"`
}

type WebGetBalanceRequest struct {
	UserID       string `xmlrpc:"userID"`
	WebSessionID string `xmlrpc:"sessionID"`
}

type WebGetBalanceResponse struct {
	Success     bool   `xmlrpc:"success"`
	Balance     int    `xmlrpc:"balance"`
	Description string `xmlrpc:"description"`
}

type WebGetTransactionRequest struct {
	UserID       string `xmlrpc:"userID"`
	WebSessionID string `xmlrpc:"sessionID"`
	StartTime    int64  `xmlrpc:"startTime"`
	EndTime      int64  `xmlrpc:"endTime"`
	Index        int    `xmlrpc:"lastIndex"`
}

type WebTransactionEntry struct {
	TransactionID string `xmlrpc:"transactionID"`
	Sender        string `xmlrpc:"sender"`
	Receiver      string `xmlrpc:"receiver"`
	Amount        int    `xmlrpc:"amount"`
	Type          int    `xmlrpc:"type"`
	Time          int64  `xmlrpc:"time"`
	Status        int    `xmlrpc:"status"`
	Description   string `xmlrpc:"description"`
}

type WebGetTransactionResponse struct {
	Success     bool                `xmlrpc:"success"`
	Transaction WebTransactionEntry `xmlrpc:"transaction"`
	Description string              `xmlrpc:"description"`
}

type WebGetTransactionNumRequest struct {
	UserID       string `xmlrpc:"userID"`
	WebSessionID string `xmlrpc:"sessionID"`
	StartTime    int64  `xmlrpc:"startTime"`
	EndTime      int64  `xmlrpc:"endTime"`
}

type WebGetTransactionNumResponse struct {
	Success     bool   `xmlrpc:"success"`
	Number      int    `xmlrpc:"number"`
	Description string `xmlrpc:"description"`
}

// Legacy viewer currency/land surface.

type CurrencyQuoteRequest struct {
	AgentID         string `xmlrpc:"agentId"`
	SecureSessionID string `xmlrpc:"secureSessionId"`
	CurrencyBuy     int    `xmlrpc:"currencyBuy"`
	Language        string `xmlrpc:"language"`
}

type CurrencyQuote struct {
	EstimatedCost int `xmlrpc:"estimatedCost"`
	CurrencyBuy   int `xmlrpc:"currencyBuy"`
}

type CurrencyQuoteResponse struct {
	Success  bool          `xmlrpc:"success"`
	Currency CurrencyQuote `xmlrpc:"currency"`
	Confirm  string        `xmlrpc:"confirm"`
	Error    string        `xmlrpc:"errorMessage"`
}

type BuyCurrencyRequest struct {
	AgentID         string `xmlrpc:"agentId"`
	SecureSessionID string `xmlrpc:"secureSessionId"`
	CurrencyBuy     int    `xmlrpc:"currencyBuy"`
	EstimatedCost   int    `xmlrpc:"estimatedCost"`
	Confirm         string `xmlrpc:"confirm"`
}

type BuyCurrencyResponse struct {
	Success bool   `xmlrpc:"success"`
	Error   string `xmlrpc:"errorMessage"`
}

type PreflightLandRequest struct {
	AgentID         string `xmlrpc:"agentId"`
	SecureSessionID string `xmlrpc:"secureSessionId"`
	BillableArea    int    `xmlrpc:"billableArea"`
	CurrencyBuy     int    `xmlrpc:"currencyBuy"`
	Language        string `xmlrpc:"language"`
}

type LandMembership struct {
	Upgrade bool   `xmlrpc:"upgrade"`
	Action  string `xmlrpc:"action"`
	Levels  string `xmlrpc:"levels"`
}

type LandUse struct {
	Upgrade bool   `xmlrpc:"upgrade"`
	Action  string `xmlrpc:"action"`
}

type PreflightLandResponse struct {
	Success    bool           `xmlrpc:"success"`
	Membership LandMembership `xmlrpc:"membership"`
	LandUse    LandUse        `xmlrpc:"landUse"`
	Currency   CurrencyQuote  `xmlrpc:"currency"`
	Confirm    string         `xmlrpc:"confirm"`
	Error      string         `xmlrpc:"errorMessage"`
}

type BuyLandRequest struct {
	AgentID         string `xmlrpc:"agentId"`
	SecureSessionID string `xmlrpc:"secureSessionId"`
	BillableArea    int    `xmlrpc:"billableArea"`
	CurrencyBuy     int    `xmlrpc:"currencyBuy"`
	Language        string `xmlrpc:"language"`
}
