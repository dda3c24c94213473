package models

// SystemUserID is the reserved identifier for the grid itself. It is exempt
// from normal balance accounting: withdrawals from it never debit a row and
// its reported balance is SystemBalance.
const SystemUserID = "00000000-0000-0000-0000-000000000000"

// SystemBalance is the balance reported for the system user.
const SystemBalance = 999999999

// Transaction status values. The numeric values are part of the wire
// protocol the simulators speak and must not be renumbered.
const (
	StatusSuccess = 0
	StatusPending = 1
	StatusFailed  = 2
)

// Transaction types. Values above 5000 follow the viewer's money event
// numbering; UploadCharge keeps its classic code.
const (
	TransTypeUploadCharge = 1101
	TransTypeGift         = 5001
	TransTypeLandSale     = 5002
	TransTypePayObject    = 5008
	TransTypeObjectPays   = 5009
	TransTypeBuyMoney     = 5010
)

// Avatar classes driving login and default-balance policy.
const (
	AvatarLocal   = 0
	AvatarHG      = 1
	AvatarGuest   = 2
	AvatarForeign = 3
	AvatarUnknown = 4
	AvatarNPC     = 5
)

// Transaction is one row of the transactions table. SenderBalance and
// ReceiverBalance stay -1 until the corresponding leg has been applied.
type Transaction struct {
	ID              string `db:"uuid"`
	Sender          string `db:"sender"`
	Receiver        string `db:"receiver"`
	Amount          int    `db:"amount"`
	SenderBalance   int    `db:"sender_balance"`
	ReceiverBalance int    `db:"receiver_balance"`
	ObjectID        string `db:"object_uuid"`
	ObjectName      string `db:"object_name"`
	RegionHandle    string `db:"region_handle"`
	RegionID        string `db:"region_uuid"`
	Type            int    `db:"type"`
	Time            int64  `db:"time"`
	SecureCode      string `db:"secure"`
	Status          int    `db:"status"`
	CommonName      string `db:"common_name"`
	Description     string `db:"description"`
}

// UserInfo is one row of the userinfo table, refreshed on every login.
type UserInfo struct {
	UserID    string `db:"user"`
	SimIP     string `db:"sim_ip"`
	Avatar    string `db:"avatar"`
	PswHash   string `db:"psw_hash"`
	Type      int    `db:"type"`
	Class     int    `db:"class"`
	ServerURL string `db:"server_url"`
}

// SaleAggregate is one row of the totalsales table, denormalized from
// successful object-sale transactions.
type SaleAggregate struct {
	ID          string `db:"uuid"`
	UserID      string `db:"user"`
	ObjectID    string `db:"object_uuid"`
	Type        int    `db:"type"`
	TotalCount  int    `db:"total_count"`
	TotalAmount int    `db:"total_amount"`
	Time        int64  `db:"time"`
}

// BalanceMessages are the user-facing templates attached to balance-update
// notifications. Placeholders: {0} amount, {1} counterparty, {2} object name.
type BalanceMessages struct {
	LandSale     string `yaml:"land_sale"`
	RcvLandSale  string `yaml:"rcv_land_sale"`
	SendGift     string `yaml:"send_gift"`
	ReceiveGift  string `yaml:"receive_gift"`
	PayCharge    string `yaml:"pay_charge"`
	BuyObject    string `yaml:"buy_object"`
	SellObject   string `yaml:"sell_object"`
	GetMoney     string `yaml:"get_money"`
	BuyMoney     string `yaml:"buy_money"`
	RollBack     string `yaml:"roll_back"`
	SendMoney    string `yaml:"send_money"`
	ReceiveMoney string `yaml:"receive_money"`
}
