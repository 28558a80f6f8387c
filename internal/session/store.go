// Package session owns every piece of mutable per-chat and process-wide state:
// conversation states, simulated portfolios, watchlists and the user, ban,
// premium and group registries. Callers mutate it only through Store methods.
package session

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
)

// DefaultStartingCash is the balance of a freshly created portfolio.
var DefaultStartingCash = decimal.NewFromInt(10000)

// ErrInvalidAmount is returned by CreditCash for non-positive amounts.
var ErrInvalidAmount = errors.New("session: amount must be positive")

type chatBox struct {
	mu        sync.Mutex
	portfolio *Portfolio
	watchlist Watchlist
}

// Store is safe for concurrent use. Registry operations take one store-wide
// lock; portfolio and watchlist mutations serialize per chat so different
// chats never wait on each other.
type Store struct {
	startingCash decimal.Decimal

	mu            sync.RWMutex
	states        map[Key]State
	users         map[int64]struct{}
	banned        map[int64]struct{}
	premiumUsers  map[int64]struct{}
	premiumGroups map[int64]struct{}
	chats         map[int64]*chatBox
}

// Option configures a Store.
type Option func(*Store)

// WithStartingCash overrides DefaultStartingCash.
func WithStartingCash(cash decimal.Decimal) Option {
	return func(s *Store) { s.startingCash = cash }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		startingCash:  DefaultStartingCash,
		states:        make(map[Key]State),
		users:         make(map[int64]struct{}),
		banned:        make(map[int64]struct{}),
		premiumUsers:  make(map[int64]struct{}),
		premiumGroups: make(map[int64]struct{}),
		chats:         make(map[int64]*chatBox),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the pending state for key, Idle if none was ever set.
func (s *Store) State(key Key) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[key]
}

func (s *Store) SetState(key Key, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st == Idle {
		delete(s.states, key)
		return
	}
	s.states[key] = st
}

func (s *Store) box(chatID int64) *chatBox {
	s.mu.RLock()
	b, ok := s.chats[chatID]
	s.mu.RUnlock()
	if ok {
		return b
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.chats[chatID]; !ok {
		b = &chatBox{}
		s.chats[chatID] = b
	}
	return b
}

// WithPortfolio runs fn with exclusive access to chatID's portfolio,
// creating it on first use. fn works on a copy that is committed only when
// fn returns nil, so a failed fn leaves the portfolio untouched.
// fn must not block on I/O.
func (s *Store) WithPortfolio(chatID int64, fn func(p *Portfolio) error) error {
	b := s.box(chatID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.portfolio == nil {
		b.portfolio = newPortfolio(s.startingCash)
	}
	work := b.portfolio.Clone()
	if err := fn(&work); err != nil {
		return err
	}
	if work.Holdings == nil {
		work.Holdings = make(map[string]Holding)
	}
	b.portfolio = &work
	return nil
}

// Portfolio returns a copy of chatID's portfolio.
func (s *Store) Portfolio(chatID int64) Portfolio {
	var out Portfolio
	_ = s.WithPortfolio(chatID, func(p *Portfolio) error {
		out = p.Clone()
		return nil
	})
	return out
}

// CreditCash adds amount to chatID's cash balance.
func (s *Store) CreditCash(chatID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	var bal decimal.Decimal
	err := s.WithPortfolio(chatID, func(p *Portfolio) error {
		p.Cash = p.Cash.Add(amount)
		bal = p.Cash
		return nil
	})
	return bal, err
}

// WithWatchlist runs fn with exclusive access to chatID's watchlist.
// Changes are committed only when fn returns nil.
func (s *Store) WithWatchlist(chatID int64, fn func(w *Watchlist) error) error {
	b := s.box(chatID)
	b.mu.Lock()
	defer b.mu.Unlock()
	work := slices.Clone(b.watchlist)
	if err := fn(&work); err != nil {
		return err
	}
	b.watchlist = work
	return nil
}

// Watchlist returns a copy of chatID's watchlist.
func (s *Store) Watchlist(chatID int64) []string {
	b := s.box(chatID)
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone([]string(b.watchlist))
}

// RegisterUser records chatID as seen. It reports whether the id is new.
func (s *Store) RegisterUser(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[chatID]; ok {
		return false
	}
	s.users[chatID] = struct{}{}
	return true
}

// AllUserIDs returns a sorted snapshot of every registered chat id.
func (s *Store) AllUserIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.users))
}

func (s *Store) IsBanned(chatID int64) bool {
	return s.has(s.banned, chatID)
}

func (s *Store) Ban(chatID int64)   { s.add(s.banned, chatID) }
func (s *Store) Unban(chatID int64) { s.del(s.banned, chatID) }

// GrantPremium marks id as premium. Negative ids are group chats.
func (s *Store) GrantPremium(id int64) {
	if id < 0 {
		s.add(s.premiumGroups, id)
		return
	}
	s.add(s.premiumUsers, id)
}

func (s *Store) RevokePremium(id int64) {
	if id < 0 {
		s.del(s.premiumGroups, id)
		return
	}
	s.del(s.premiumUsers, id)
}

// IsPremium reports whether the user or the chat it writes from is premium.
func (s *Store) IsPremium(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, user := s.premiumUsers[key.UserID]
	_, group := s.premiumGroups[key.ChatID]
	return user || group
}

// AddGroup registers a group chat. A registered group is both allowed
// past RestrictGroups and premium for everyone writing in it.
func (s *Store) AddGroup(chatID int64)    { s.add(s.premiumGroups, chatID) }
func (s *Store) RemoveGroup(chatID int64) { s.del(s.premiumGroups, chatID) }

func (s *Store) IsGroupAllowed(chatID int64) bool {
	return s.has(s.premiumGroups, chatID)
}

// Stats is a point-in-time count of registry sizes.
type Stats struct {
	Users         int
	Banned        int
	PremiumUsers  int
	PremiumGroups int
	Portfolios    int
	ActiveStates  int
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	st := Stats{
		Users:         len(s.users),
		Banned:        len(s.banned),
		PremiumUsers:  len(s.premiumUsers),
		PremiumGroups: len(s.premiumGroups),
		ActiveStates:  len(s.states),
	}
	boxes := slices.Collect(maps.Values(s.chats))
	s.mu.RUnlock()

	// box locks are never taken while holding s.mu
	for _, b := range boxes {
		b.mu.Lock()
		if b.portfolio != nil {
			st.Portfolios++
		}
		b.mu.Unlock()
	}
	return st
}

func (s *Store) has(set map[int64]struct{}, id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := set[id]
	return ok
}

func (s *Store) add(set map[int64]struct{}, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set[id] = struct{}{}
}

func (s *Store) del(set map[int64]struct{}, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(set, id)
}
