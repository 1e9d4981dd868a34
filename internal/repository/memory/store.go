// Package memory implements repository.Store in process memory.
//
// A transaction works on a private copy of the data and publishes it on
// commit. Transactions run one at a time, and writes made outside a
// transaction wait for the open one to finish, so a rollback never loses
// them and readers never see a half-applied transaction.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/healthchallenge/internal/domain"
	"github.com/set-night/healthchallenge/internal/repository"
)

type checkinKey struct {
	userID uuid.UUID
	day    int
}

type state struct {
	accounts    map[uuid.UUID]domain.Account
	purchases   map[uuid.UUID]domain.Purchase
	commissions map[uuid.UUID]domain.Commission
	withdrawals map[uuid.UUID]domain.Withdrawal
	challenges  map[uuid.UUID]domain.Challenge
	checkins    map[checkinKey]domain.DailyCheckin
}

func newState() state {
	return state{
		accounts:    make(map[uuid.UUID]domain.Account),
		purchases:   make(map[uuid.UUID]domain.Purchase),
		commissions: make(map[uuid.UUID]domain.Commission),
		withdrawals: make(map[uuid.UUID]domain.Withdrawal),
		challenges:  make(map[uuid.UUID]domain.Challenge),
		checkins:    make(map[checkinKey]domain.DailyCheckin),
	}
}

func (s state) clone() state {
	c := state{
		accounts:    maps.Clone(s.accounts),
		purchases:   maps.Clone(s.purchases),
		commissions: maps.Clone(s.commissions),
		withdrawals: maps.Clone(s.withdrawals),
		challenges:  make(map[uuid.UUID]domain.Challenge, len(s.challenges)),
		checkins:    make(map[checkinKey]domain.DailyCheckin, len(s.checkins)),
	}
	for id, ch := range s.challenges {
		ch.CompletedTasks = slices.Clone(ch.CompletedTasks)
		c.challenges[id] = ch
	}
	for k, ci := range s.checkins {
		ci.Symptoms = slices.Clone(ci.Symptoms)
		c.checkins[k] = ci
	}
	return c
}

type Store struct {
	*view

	// txMu is held by an open transaction for its whole duration and by
	// every write made outside one.
	txMu sync.Mutex
	now  func() time.Time

	// failAfter makes the n-th subsequent write fail; used by tests to
	// exercise rollback paths. Zero disables it.
	failMu    sync.Mutex
	failAfter int
	failErr   error
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	s := &Store{now: time.Now}
	s.view = &view{store: s, data: newState()}
	return s
}

// FailWritesAfter arms a failure: the n-th write from now returns err.
func (s *Store) FailWritesAfter(n int, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failAfter = n
	s.failErr = err
}

func (s *Store) write(op string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if s.failAfter == 0 {
		return nil
	}
	s.failAfter--
	if s.failAfter == 0 {
		return domain.StorageError(op, s.failErr)
	}
	return nil
}

// view is one copy of the data: the committed one owned by Store, or the
// private one of an open transaction.
type view struct {
	store *Store
	inTx  bool

	mu   sync.RWMutex
	data state
}

// lock takes the locks a write needs and returns the matching unlock.
func (v *view) lock() func() {
	if !v.inTx {
		v.store.txMu.Lock()
	}
	v.mu.Lock()
	return func() {
		v.mu.Unlock()
		if !v.inTx {
			v.store.txMu.Unlock()
		}
	}
}

// InTx hands fn a view over a private copy of the data. The copy replaces
// the committed data when fn returns nil and is dropped otherwise. Nested
// calls join the outer transaction.
func (v *view) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if v.inTx {
		return fn(v)
	}

	v.store.txMu.Lock()
	defer v.store.txMu.Unlock()

	v.mu.RLock()
	tx := &view{store: v.store, inTx: true, data: v.data.clone()}
	v.mu.RUnlock()

	if err := fn(tx); err != nil {
		return err
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()
	v.mu.Lock()
	v.data = tx.data
	v.mu.Unlock()
	return nil
}

func (v *view) Ping(ctx context.Context) error {
	return nil
}

// Accounts

func (v *view) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	a, ok := v.data.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &a, nil
}

func (v *view) GetAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, a := range v.data.accounts {
		if a.ReferralCode == code {
			return &a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (v *view) GetAccountByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, a := range v.data.accounts {
		if a.PhoneNumber == phone {
			return &a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (v *view) CreateAccount(ctx context.Context, a *domain.Account) error {
	defer v.lock()()
	for _, existing := range v.data.accounts {
		if existing.PhoneNumber == a.PhoneNumber {
			return domain.ErrAccountExists
		}
		if existing.ReferralCode == a.ReferralCode {
			return domain.ErrReferralCodeTaken
		}
	}
	if err := v.store.write("create account"); err != nil {
		return err
	}
	stored := *a
	stored.UpdatedAt = stored.CreatedAt
	v.data.accounts[a.ID] = stored
	return nil
}

func (v *view) updateAccount(op string, id uuid.UUID, fn func(a *domain.Account)) error {
	defer v.lock()()
	a, ok := v.data.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if err := v.store.write(op); err != nil {
		return err
	}
	fn(&a)
	a.UpdatedAt = v.store.now()
	v.data.accounts[id] = a
	return nil
}

func (v *view) AdjustBalances(ctx context.Context, id uuid.UUID, d domain.BalanceDelta) error {
	return v.updateAccount("adjust balances", id, func(a *domain.Account) {
		a.CommissionPending = a.CommissionPending.Add(d.Pending)
		a.TotalCommission = a.TotalCommission.Add(d.Total)
		a.CommissionWithdrawn = a.CommissionWithdrawn.Add(d.Withdrawn)
		a.TotalPurchases = a.TotalPurchases.Add(d.Purchases)
	})
}

func (v *view) IncrementReferrals(ctx context.Context, id uuid.UUID) error {
	return v.updateAccount("increment referrals", id, func(a *domain.Account) {
		a.TotalReferrals++
	})
}

func (v *view) SetChallengeEnrollment(ctx context.Context, id uuid.UUID, enrolled bool, startDate time.Time) error {
	return v.updateAccount("set challenge enrollment", id, func(a *domain.Account) {
		a.ChallengeEnrolled = enrolled
		a.ChallengeStartDate = &startDate
	})
}

func (v *view) SetCurrentChallengeDay(ctx context.Context, id uuid.UUID, day int) error {
	return v.updateAccount("set current challenge day", id, func(a *domain.Account) {
		a.CurrentChallengeDay = day
	})
}

func (v *view) ListAccounts(ctx context.Context, offset, limit int) ([]domain.Account, int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := slices.Collect(maps.Values(v.data.accounts))
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	return truncate(out[max(offset, 0):], limit), total, nil
}

func (v *view) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	defer v.lock()()
	if _, ok := v.data.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	if v.data.hasLedger(id) {
		return domain.ErrAccountHasLedger
	}
	if err := v.store.write("delete account"); err != nil {
		return err
	}
	delete(v.data.accounts, id)
	for cid, c := range v.data.challenges {
		if c.UserID == id {
			delete(v.data.challenges, cid)
		}
	}
	for k := range v.data.checkins {
		if k.userID == id {
			delete(v.data.checkins, k)
		}
	}
	for aid, a := range v.data.accounts {
		if a.ReferredByID != nil && *a.ReferredByID == id {
			a.ReferredByID = nil
			v.data.accounts[aid] = a
		}
	}
	return nil
}

func (s state) hasLedger(id uuid.UUID) bool {
	for _, p := range s.purchases {
		if p.UserID == id {
			return true
		}
	}
	for _, c := range s.commissions {
		if c.UserID == id || c.FromUserID == id {
			return true
		}
	}
	for _, w := range s.withdrawals {
		if w.UserID == id {
			return true
		}
	}
	return false
}

// Purchases

func (v *view) GetPurchase(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	p, ok := v.data.purchases[id]
	if !ok {
		return nil, domain.ErrPurchaseNotFound
	}
	return &p, nil
}

func (v *view) CreatePurchase(ctx context.Context, p *domain.Purchase) error {
	defer v.lock()()
	if err := v.store.write("create purchase"); err != nil {
		return err
	}
	v.data.purchases[p.ID] = *p
	return nil
}

func (v *view) ReviewPurchase(ctx context.Context, id uuid.UUID, r domain.PurchaseReview) (*domain.Purchase, error) {
	defer v.lock()()
	p, ok := v.data.purchases[id]
	if !ok {
		return nil, domain.ErrPurchaseNotFound
	}
	if p.Status != domain.PurchaseStatusPending {
		return nil, domain.ErrPurchaseNotPending
	}
	if err := v.store.write("review purchase"); err != nil {
		return nil, err
	}
	verifiedBy, verifiedAt := r.VerifiedBy, r.VerifiedAt
	p.Status = r.Status
	p.VerifiedBy = &verifiedBy
	p.VerifiedAt = &verifiedAt
	v.data.purchases[id] = p
	return &p, nil
}

func (v *view) ListPurchases(ctx context.Context, status domain.PurchaseStatus, limit int) ([]domain.Purchase, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []domain.Purchase
	for _, p := range v.data.purchases {
		if p.Status == status {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, limit), nil
}

// Commissions

func (v *view) CreateCommission(ctx context.Context, c *domain.Commission) error {
	defer v.lock()()
	for _, existing := range v.data.commissions {
		if existing.PurchaseID == c.PurchaseID {
			return domain.ErrPurchaseNotPending
		}
	}
	if err := v.store.write("create commission"); err != nil {
		return err
	}
	v.data.commissions[c.ID] = *c
	return nil
}

func (v *view) ListCommissionsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Commission, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []domain.Commission
	for _, c := range v.data.commissions {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Withdrawals

func (v *view) GetWithdrawal(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	w, ok := v.data.withdrawals[id]
	if !ok {
		return nil, domain.ErrWithdrawalNotFound
	}
	return &w, nil
}

func (v *view) CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	defer v.lock()()
	if err := v.store.write("create withdrawal"); err != nil {
		return err
	}
	v.data.withdrawals[w.ID] = *w
	return nil
}

func (v *view) DecideWithdrawal(ctx context.Context, id uuid.UUID, d domain.WithdrawalDecision) (*domain.Withdrawal, error) {
	defer v.lock()()
	w, ok := v.data.withdrawals[id]
	if !ok {
		return nil, domain.ErrWithdrawalNotFound
	}
	if w.Status != domain.WithdrawalStatusPending {
		return nil, domain.ErrWithdrawalNotPending
	}
	if err := v.store.write("decide withdrawal"); err != nil {
		return nil, err
	}
	processedBy, processedAt := d.ProcessedBy, d.ProcessedAt
	w.Status = d.Status
	w.AdminNote = d.AdminNote
	w.ProcessedBy = &processedBy
	w.ProcessedAt = &processedAt
	v.data.withdrawals[id] = w
	return &w, nil
}

func (v *view) ListWithdrawals(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []domain.Withdrawal
	for _, w := range v.data.withdrawals {
		if w.Status == status {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, limit), nil
}

// Challenges

func (v *view) GetChallenge(ctx context.Context, id uuid.UUID) (*domain.Challenge, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	c, ok := v.data.challenges[id]
	if !ok {
		return nil, domain.ErrChallengeNotFound
	}
	c.CompletedTasks = slices.Clone(c.CompletedTasks)
	return &c, nil
}

// GetChallengeForUpdate needs no extra locking: transactions already run
// one at a time.
func (v *view) GetChallengeForUpdate(ctx context.Context, id uuid.UUID) (*domain.Challenge, error) {
	return v.GetChallenge(ctx, id)
}

func (v *view) GetActiveChallenge(ctx context.Context, userID uuid.UUID) (*domain.Challenge, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, c := range v.data.challenges {
		if c.UserID == userID && c.Status == domain.ChallengeStatusActive {
			c.CompletedTasks = slices.Clone(c.CompletedTasks)
			return &c, nil
		}
	}
	return nil, domain.ErrChallengeNotFound
}

func (v *view) CreateChallenge(ctx context.Context, c *domain.Challenge) error {
	defer v.lock()()
	for _, existing := range v.data.challenges {
		if existing.UserID == c.UserID && existing.Status == domain.ChallengeStatusActive {
			return domain.ErrConflict
		}
	}
	if err := v.store.write("create challenge"); err != nil {
		return err
	}
	stored := *c
	stored.CompletedTasks = slices.Clone(c.CompletedTasks)
	stored.UpdatedAt = stored.CreatedAt
	v.data.challenges[c.ID] = stored
	return nil
}

func (v *view) UpsertTask(ctx context.Context, challengeID uuid.UUID, t domain.CompletedTask) error {
	defer v.lock()()
	c, ok := v.data.challenges[challengeID]
	if !ok {
		return domain.ErrChallengeNotFound
	}
	if err := v.store.write("upsert challenge task"); err != nil {
		return err
	}
	tasks := slices.Clone(c.CompletedTasks)
	idx := slices.IndexFunc(tasks, func(e domain.CompletedTask) bool {
		return e.Day == t.Day && e.Timeslot == t.Timeslot
	})
	if idx >= 0 {
		tasks[idx] = t
	} else {
		tasks = append(tasks, t)
	}
	c.CompletedTasks = tasks
	v.data.challenges[challengeID] = c
	return nil
}

func (v *view) SetChallengeDay(ctx context.Context, id uuid.UUID, currentDay int) error {
	return v.updateChallenge("set challenge day", id, func(c *domain.Challenge) {
		c.CurrentDay = currentDay
	})
}

func (v *view) SetChallengeStreak(ctx context.Context, id uuid.UUID, streakDays int) error {
	return v.updateChallenge("set challenge streak", id, func(c *domain.Challenge) {
		c.StreakDays = streakDays
	})
}

func (v *view) updateChallenge(op string, id uuid.UUID, fn func(c *domain.Challenge)) error {
	defer v.lock()()
	c, ok := v.data.challenges[id]
	if !ok {
		return domain.ErrChallengeNotFound
	}
	if err := v.store.write(op); err != nil {
		return err
	}
	fn(&c)
	c.UpdatedAt = v.store.now()
	v.data.challenges[id] = c
	return nil
}

func (v *view) ListActiveChallenges(ctx context.Context) ([]domain.Challenge, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []domain.Challenge
	for _, c := range v.data.challenges {
		if c.Status == domain.ChallengeStatusActive {
			c.CompletedTasks = nil
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Daily check-ins

func (v *view) UpsertDailyCheckin(ctx context.Context, c *domain.DailyCheckin) (bool, error) {
	defer v.lock()()
	if err := v.store.write("upsert daily checkin"); err != nil {
		return false, err
	}
	key := checkinKey{userID: c.UserID, day: c.Day}
	stored := *c
	stored.Symptoms = slices.Clone(c.Symptoms)
	existing, found := v.data.checkins[key]
	if found {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	}
	v.data.checkins[key] = stored
	return !found, nil
}

func (v *view) ListDailyCheckins(ctx context.Context, userID uuid.UUID) ([]domain.DailyCheckin, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []domain.DailyCheckin
	for k, c := range v.data.checkins {
		if k.userID == userID {
			c.Symptoms = slices.Clone(c.Symptoms)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
