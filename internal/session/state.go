package session

// State is the pending step of one conversation.
type State int

const (
	Idle State = iota
	AwaitingCrypto
	AwaitingStock
	AwaitingSolana
	AwaitingPulse
	AwaitingBuyTicker
	AwaitingSellTicker
	AwaitingAddWatchlist
	AwaitingAdminBroadcast
	AwaitingAdminBan
	AwaitingAdminUnban
	AwaitingAdminGift
	AwaitingAdminPremium
	AwaitingAdminDirectMessage
	AwaitingAdminAddGroup
	AwaitingAdminRemoveGroup
)

var stateNames = [...]string{
	Idle:                       "idle",
	AwaitingCrypto:             "awaiting_crypto",
	AwaitingStock:              "awaiting_stock",
	AwaitingSolana:             "awaiting_solana",
	AwaitingPulse:              "awaiting_pulse",
	AwaitingBuyTicker:          "awaiting_buy_ticker",
	AwaitingSellTicker:         "awaiting_sell_ticker",
	AwaitingAddWatchlist:       "awaiting_add_watchlist",
	AwaitingAdminBroadcast:     "awaiting_admin_broadcast",
	AwaitingAdminBan:           "awaiting_admin_ban",
	AwaitingAdminUnban:         "awaiting_admin_unban",
	AwaitingAdminGift:          "awaiting_admin_gift",
	AwaitingAdminPremium:       "awaiting_admin_premium",
	AwaitingAdminDirectMessage: "awaiting_admin_dm",
	AwaitingAdminAddGroup:      "awaiting_admin_add_group",
	AwaitingAdminRemoveGroup:   "awaiting_admin_remove_group",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// IsAdmin reports whether s may only be entered and resolved by the administrator.
func (s State) IsAdmin() bool {
	return s >= AwaitingAdminBroadcast && s <= AwaitingAdminRemoveGroup
}

// Key identifies one participant within one chat.
type Key struct {
	ChatID int64
	UserID int64
}
