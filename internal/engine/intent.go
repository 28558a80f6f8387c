package engine

import (
	"lubixbot/internal/quote"
	"lubixbot/internal/session"
	"lubixbot/internal/simulator"
)

// Intent is what the engine wants shown in reply to one event. The
// presentation layer switches on the concrete type.
type Intent interface {
	isIntent()
}

// Module names a feature entry screen.
type Module int

const (
	ModuleCrypto Module = iota + 1
	ModuleStock
	ModuleSolana
	ModuleSentiment
	ModulePulse
	ModuleSimulator
	ModuleBuy
	ModuleSell
	ModuleAddWatchlist
	ModuleRealBuy
)

// DenyReason explains a ShowDenied.
type DenyReason int

const (
	DenyNotAdmin DenyReason = iota + 1
	DenyPremiumRequired
	DenyInvalidInput
)

type (
	ShowWelcome struct {
		FirstName string
		Premium   bool
		Admin     bool
	}
	ShowHelp        struct{}
	ShowHint        struct{}
	ShowModuleIntro struct{ Module Module }

	ShowEquity    struct{ Quote quote.EquityQuote }
	ShowCrypto    struct{ Quote quote.CryptoQuote }
	ShowToken     struct{ Quote quote.OnChainTokenQuote }
	ShowSentiment struct{ Reading quote.SentimentReading }
	ShowMomentum  struct{ Reading quote.MomentumReading }
	// ShowMarket lists majors in display order; missing symbols are absent.
	ShowMarket struct{ Quotes []quote.CryptoQuote }

	ShowTrade     struct{ Receipt simulator.TradeReceipt }
	ShowPortfolio struct{ Snapshot simulator.Snapshot }
	ShowWatchlist struct {
		Tickers []string
		Prices  map[string]quote.CryptoQuote
	}
	ShowWatchlistAdded struct {
		Ticker string
		Count  int
	}

	// ShowError carries a *quote.LookupError or *simulator.TradeError.
	ShowError struct {
		Module Module
		Query  string
		Err    error
	}
	ShowDenied struct{ Reason DenyReason }

	ShowAdminPanel  struct{ Stats session.Stats }
	ShowAdminPrompt struct{ State session.State }
	ShowAdminResult struct {
		State  session.State
		Target int64
		Detail string
		Report *BroadcastReport
	}
)

func (ShowWelcome) isIntent()        {}
func (ShowHelp) isIntent()           {}
func (ShowHint) isIntent()           {}
func (ShowModuleIntro) isIntent()    {}
func (ShowEquity) isIntent()         {}
func (ShowCrypto) isIntent()         {}
func (ShowToken) isIntent()          {}
func (ShowSentiment) isIntent()      {}
func (ShowMomentum) isIntent()       {}
func (ShowMarket) isIntent()         {}
func (ShowTrade) isIntent()          {}
func (ShowPortfolio) isIntent()      {}
func (ShowWatchlist) isIntent()      {}
func (ShowWatchlistAdded) isIntent() {}
func (ShowError) isIntent()          {}
func (ShowDenied) isIntent()         {}
func (ShowAdminPanel) isIntent()     {}
func (ShowAdminPrompt) isIntent()    {}
func (ShowAdminResult) isIntent()    {}
