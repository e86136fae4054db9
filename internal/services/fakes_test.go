package services

import (
	"context"
	"iter"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"barbershop_backend/internal/loyalty"
	"barbershop_backend/internal/models"
	"barbershop_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the Postgres schema. Repositories share one store;
// memTransactor serializes transactions on it and restores a snapshot on error.
type memStore struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	clients  map[int64]models.Client
	rewards  map[int64]models.Reward
	services map[int64]models.Service
	barbers  map[int64]models.Barber
	users    map[int64]memUser
	roles    map[string]models.Role
	visits   []models.Visit
	nextID   int64

	// beforeClientUpdate runs before the version check of UpdateLoyaltyState.
	beforeClientUpdate func(id int64)
	// afterRewardsLoad runs once GetRewards has read the catalog, before it returns.
	afterRewardsLoad func()
}

type memUser struct {
	user models.User
	hash string
}

func newMemStore() *memStore {
	return &memStore{
		clients:  map[int64]models.Client{},
		rewards:  map[int64]models.Reward{},
		services: map[int64]models.Service{},
		barbers:  map[int64]models.Barber{},
		users:    map[int64]memUser{},
		roles: map[string]models.Role{
			strings.ToLower(models.RoleAdmin):  {ID: 1, Name: models.RoleAdmin},
			strings.ToLower(models.RoleBarber): {ID: 2, Name: models.RoleBarber},
		},
		nextID: 1000,
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

type memSnapshot struct {
	clients  map[int64]models.Client
	rewards  map[int64]models.Reward
	services map[int64]models.Service
	barbers  map[int64]models.Barber
	users    map[int64]memUser
	visits   []models.Visit
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memSnapshot{
		clients:  copyMap(s.clients),
		rewards:  copyMap(s.rewards),
		services: copyMap(s.services),
		barbers:  copyMap(s.barbers),
		users:    copyMap(s.users),
		visits:   slices.Clone(s.visits),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients, s.rewards, s.services = snap.clients, snap.rewards, snap.services
	s.barbers, s.users, s.visits = snap.barbers, snap.users, snap.visits
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// --- seeding helpers ---

func (s *memStore) addService(name, price string) models.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc := models.Service{ID: s.id(), Name: name, Price: decimal.RequireFromString(price), IsActive: true}
	s.services[svc.ID] = svc
	return svc
}

func (s *memStore) addBarber(name string, active bool) models.Barber {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := models.Barber{ID: s.id(), FullName: name, IsActive: active}
	s.barbers[b.ID] = b
	return b
}

func (s *memStore) addReward(r models.Reward) models.Reward {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	s.rewards[r.ID] = r
	return r
}

func (s *memStore) addClient(c models.Client) models.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	if c.Version == 0 {
		c.Version = 1
	}
	if c.LoyaltyStatus == "" {
		c.LoyaltyStatus = models.LoyaltyStatusNew
	}
	s.clients[c.ID] = c
	return c
}

func (s *memStore) client(id int64) models.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients[id]
}

func (s *memStore) clientVisits(id int64) []models.Visit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Visit
	for _, v := range s.visits {
		if v.ClientID == id {
			out = append(out, v)
		}
	}
	return out
}

// --- Transactor ---

type memTransactor struct {
	store *memStore
}

func (t memTransactor) WithinTransaction(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()
	snap := t.store.snapshot()
	if err := fn(nil); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// --- ClientRepository ---

type memClientRepo struct{ s *memStore }

func (r memClientRepo) CreateClient(_ context.Context, _ repositories.SQLExecutor, c *models.Client) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.PhoneNumber != nil {
		for _, other := range r.s.clients {
			if other.PhoneNumber != nil && *other.PhoneNumber == *c.PhoneNumber {
				return 0, repositories.ErrDuplicateKey
			}
		}
	}
	c.ID = r.s.id()
	c.Version = 1
	r.s.clients[c.ID] = *c
	return c.ID, nil
}

func (r memClientRepo) GetClientByID(_ context.Context, id int64) (*models.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (r memClientRepo) GetClientForUpdate(ctx context.Context, _ repositories.SQLExecutor, id int64) (*models.Client, error) {
	return r.GetClientByID(ctx, id)
}

func (r memClientRepo) GetClientByPhoneNumber(_ context.Context, phone string) (*models.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.clients {
		if c.PhoneNumber != nil && *c.PhoneNumber == phone {
			out := c
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memClientRepo) GetClients(_ context.Context, f models.ClientFilters) ([]models.Client, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.Client{}
	for _, c := range r.s.clients {
		if f.Status != nil && c.LoyaltyStatus != *f.Status {
			continue
		}
		if f.ActiveOnly && !c.AccountActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r memClientRepo) UpdateProfile(_ context.Context, _ repositories.SQLExecutor, c *models.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.clients[c.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.FullName, stored.PhoneNumber, stored.KeepGoalAfterRedeem = c.FullName, c.PhoneNumber, c.KeepGoalAfterRedeem
	r.s.clients[c.ID] = stored
	return nil
}

func (r memClientRepo) UpdateLoyaltyState(_ context.Context, _ repositories.SQLExecutor, c *models.Client) error {
	if hook := r.s.beforeClientUpdate; hook != nil {
		hook(c.ID)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.clients[c.ID]
	if !ok || stored.Version != c.Version {
		return repositories.ErrVersionConflict
	}
	c.Version++
	r.s.clients[c.ID] = *c
	return nil
}

func (r memClientRepo) SetAccountActive(_ context.Context, _ repositories.SQLExecutor, id int64, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return repositories.ErrNotFound
	}
	c.AccountActive = active
	r.s.clients[id] = c
	return nil
}

// --- RewardRepository ---

type memRewardRepo struct{ s *memStore }

func (r memRewardRepo) CreateReward(_ context.Context, _ repositories.SQLExecutor, reward *models.Reward) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reward.ID = r.s.id()
	r.s.rewards[reward.ID] = *reward
	return reward.ID, nil
}

func (r memRewardRepo) GetRewardByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Reward, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	reward, ok := r.s.rewards[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &reward, nil
}

func (r memRewardRepo) GetRewards(_ context.Context, activeOnly bool) ([]models.Reward, error) {
	if hook := r.s.afterRewardsLoad; hook != nil {
		defer hook()
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.Reward{}
	for _, reward := range r.s.rewards {
		if activeOnly && !reward.IsActive {
			continue
		}
		out = append(out, reward)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VisitsRequired != out[j].VisitsRequired {
			return out[i].VisitsRequired < out[j].VisitsRequired
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memRewardRepo) UpdateReward(_ context.Context, _ repositories.SQLExecutor, reward *models.Reward) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rewards[reward.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.rewards[reward.ID] = *reward
	return nil
}

func (r memRewardRepo) SetRewardActive(_ context.Context, _ repositories.SQLExecutor, id int64, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reward, ok := r.s.rewards[id]
	if !ok {
		return repositories.ErrNotFound
	}
	reward.IsActive = active
	r.s.rewards[id] = reward
	return nil
}

func (r memRewardRepo) DeleteReward(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rewards[id]; !ok {
		return repositories.ErrNotFound
	}
	for _, c := range r.s.clients {
		if c.SelectedRewardID != nil && *c.SelectedRewardID == id {
			return repositories.ErrForeignKey
		}
	}
	delete(r.s.rewards, id)
	return nil
}

// --- VisitRepository ---

type memVisitRepo struct{ s *memStore }

func (r memVisitRepo) CreateVisit(_ context.Context, _ repositories.SQLExecutor, v *models.Visit) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v.ID = r.s.id()
	r.s.visits = append(r.s.visits, *v)
	return v.ID, nil
}

func (r memVisitRepo) GetVisitByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Visit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.visits {
		if v.ID == id {
			out := v
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memVisitRepo) VisitsSince(_ context.Context, _ repositories.SQLExecutor, clientID int64, since time.Time) iter.Seq2[models.Visit, error] {
	return func(yield func(models.Visit, error) bool) {
		var matched []models.Visit
		for _, v := range r.s.clientVisits(clientID) {
			if v.Date.After(since) {
				matched = append(matched, v)
			}
		}
		sort.SliceStable(matched, func(i, j int) bool {
			if !matched[i].Date.Equal(matched[j].Date) {
				return matched[i].Date.Before(matched[j].Date)
			}
			return matched[i].ID < matched[j].ID
		})
		for _, v := range matched {
			if !yield(v, nil) {
				return
			}
		}
	}
}

func (r memVisitRepo) CountRedemptions(_ context.Context, _ repositories.SQLExecutor, clientID, rewardID int64) (int, error) {
	n := 0
	for _, v := range r.s.clientVisits(clientID) {
		if v.RewardRedeemed != nil && v.RewardRedeemed.RewardID == rewardID {
			n++
		}
	}
	return n, nil
}

func (r memVisitRepo) RedemptionCounts(_ context.Context, _ repositories.SQLExecutor, clientID int64) (map[int64]int, error) {
	counts := map[int64]int{}
	for _, v := range r.s.clientVisits(clientID) {
		if v.RewardRedeemed != nil {
			counts[v.RewardRedeemed.RewardID]++
		}
	}
	return counts, nil
}

func (r memVisitRepo) LastRedemptionAt(_ context.Context, _ repositories.SQLExecutor, clientID int64) (*time.Time, error) {
	var last *time.Time
	for _, v := range r.s.clientVisits(clientID) {
		if v.RewardRedeemed != nil && (last == nil || v.Date.After(*last)) {
			d := v.Date
			last = &d
		}
	}
	return last, nil
}

func (r memVisitRepo) RewardReferenced(_ context.Context, _ repositories.SQLExecutor, rewardID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.visits {
		if v.RewardRedeemed != nil && v.RewardRedeemed.RewardID == rewardID {
			return true, nil
		}
	}
	return false, nil
}

// --- ServiceMenuRepository ---

type memMenuRepo struct{ s *memStore }

func (r memMenuRepo) CreateService(_ context.Context, _ repositories.SQLExecutor, svc *models.Service) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.services {
		if strings.EqualFold(other.Name, svc.Name) {
			return 0, repositories.ErrDuplicateKey
		}
	}
	svc.ID = r.s.id()
	r.s.services[svc.ID] = *svc
	return svc.ID, nil
}

func (r memMenuRepo) GetServiceByID(_ context.Context, id int64) (*models.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	svc, ok := r.s.services[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &svc, nil
}

func (r memMenuRepo) GetServicesByIDs(_ context.Context, _ repositories.SQLExecutor, ids []int64) (map[int64]models.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := map[int64]models.Service{}
	for _, id := range ids {
		if svc, ok := r.s.services[id]; ok {
			out[id] = svc
		}
	}
	return out, nil
}

func (r memMenuRepo) GetServices(_ context.Context, activeOnly bool) ([]models.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.Service{}
	for _, svc := range r.s.services {
		if activeOnly && !svc.IsActive {
			continue
		}
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memMenuRepo) UpdateService(_ context.Context, _ repositories.SQLExecutor, svc *models.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.services[svc.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.services[svc.ID] = *svc
	return nil
}

func (r memMenuRepo) SetServiceActive(_ context.Context, _ repositories.SQLExecutor, id int64, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	svc, ok := r.s.services[id]
	if !ok {
		return repositories.ErrNotFound
	}
	svc.IsActive = active
	r.s.services[id] = svc
	return nil
}

// --- BarberRepository ---

type memBarberRepo struct{ s *memStore }

func (r memBarberRepo) CreateBarber(_ context.Context, _ repositories.SQLExecutor, b *models.Barber) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b.ID = r.s.id()
	r.s.barbers[b.ID] = *b
	return b.ID, nil
}

func (r memBarberRepo) GetBarberByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Barber, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.barbers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &b, nil
}

func (r memBarberRepo) GetBarberByUserID(_ context.Context, userID int64) (*models.Barber, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.barbers {
		if b.UserID != nil && *b.UserID == userID {
			out := b
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memBarberRepo) GetBarbers(_ context.Context, _, _ int, _ *string) ([]models.Barber, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.Barber{}
	for _, b := range r.s.barbers {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r memBarberRepo) UpdateBarber(_ context.Context, _ repositories.SQLExecutor, b *models.Barber) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.barbers[b.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.barbers[b.ID] = *b
	return nil
}

// --- AuthRepository ---

type memAuthRepo struct{ s *memStore }

func (r memAuthRepo) CreateUser(_ context.Context, _ repositories.SQLExecutor, u *models.User, hash string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if other.user.Username == u.Username {
			return 0, repositories.ErrDuplicateKey
		}
	}
	u.ID = r.s.id()
	u.IsActive = true
	r.s.users[u.ID] = memUser{user: *u, hash: hash}
	return u.ID, nil
}

func (r memAuthRepo) withRole(u models.User) *models.User {
	if u.RoleID != nil {
		for _, role := range r.s.roles {
			if role.ID == *u.RoleID {
				rr := role
				u.Role = &rr
			}
		}
	}
	return &u
}

func (r memAuthRepo) FindUserByUsername(_ context.Context, username string) (*models.User, string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, mu := range r.s.users {
		if mu.user.Username == username {
			return r.withRole(mu.user), mu.hash, nil
		}
	}
	return nil, "", repositories.ErrNotFound
}

func (r memAuthRepo) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	mu, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return r.withRole(mu.user), nil
}

func (r memAuthRepo) FindRoleByName(_ context.Context, name string) (*models.Role, error) {
	role, ok := r.s.roles[strings.ToLower(name)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &role, nil
}

// --- fixture ---

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memCatalogCache mirrors the Redis reward cache, generation check included.
type memCatalogCache struct {
	mu         sync.Mutex
	rewards    []models.Reward
	cached     bool
	generation int64
}

func (c *memCatalogCache) GetActiveRewards(context.Context) ([]models.Reward, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Reward(nil), c.rewards...), c.cached
}

func (c *memCatalogCache) ActiveRewardsGeneration(context.Context) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *memCatalogCache) SetActiveRewards(_ context.Context, rewards []models.Reward, generation int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}
	c.rewards, c.cached = append([]models.Reward(nil), rewards...), true
}

func (c *memCatalogCache) InvalidateActiveRewards(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.rewards, c.cached = nil, false
}

// shop wires every service over one memStore with a haircut, a beard trim, one barber and a
// ten-visit free haircut reward.
type shop struct {
	store   *memStore
	clock   *fixedClock
	haircut models.Service
	beard   models.Service
	barber  models.Barber
	freeCut models.Reward
	visits  VisitService
	loyalty LoyaltyService
	rewards RewardService
	clients ClientService
	barbers BarberService
	menu    MenuService
}

func newShop() *shop {
	store := newMemStore()
	clock := &fixedClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	sh := &shop{store: store, clock: clock}
	sh.haircut = store.addService("Haircut", "25.00")
	sh.beard = store.addService("Beard trim", "15.00")
	sh.barber = store.addBarber("Arman", true)
	sh.freeCut = store.addReward(models.Reward{
		Name: "Free haircut", VisitsRequired: 10, RewardType: models.RewardTypeFree,
		ApplicableServices: []int64{sh.haircut.ID}, IsActive: true,
	})

	tx := memTransactor{store: store}
	clientRepo := memClientRepo{store}
	rewardRepo := memRewardRepo{store}
	visitRepo := memVisitRepo{store}
	menuRepo := memMenuRepo{store}
	barberRepo := memBarberRepo{store}
	policy := loyalty.NewStatusPolicy(90)

	sh.rewards = NewRewardService(rewardRepo, menuRepo, visitRepo, tx, nil)
	redemptions := NewRedemptionProcessor(rewardRepo, visitRepo, barberRepo)
	sh.visits = NewVisitService(clientRepo, barberRepo, menuRepo, rewardRepo, visitRepo, redemptions, tx,
		VisitLedgerConfig{PointsPerVisit: 1, StatusPolicy: policy}, clock.Now)
	sh.loyalty = NewLoyaltyService(clientRepo, rewardRepo, visitRepo, sh.rewards, tx, policy, clock.Now)
	sh.clients = NewClientService(clientRepo, rewardRepo, tx, policy, false, clock.Now)
	sh.barbers = NewBarberService(barberRepo, memAuthRepo{store}, tx)
	sh.menu = NewMenuService(menuRepo, tx)
	return sh
}

// clientWithProgress seeds a client who already has progress visits toward the free haircut.
func (sh *shop) clientWithProgress(progress int) models.Client {
	last := sh.clock.Now().Add(-24 * time.Hour)
	goal := sh.freeCut.ID
	return sh.store.addClient(models.Client{
		FullName: "Aidos Serikov", AccountActive: true,
		TotalLifetimeVisits: progress, CurrentProgressVisits: progress,
		SelectedRewardID: &goal, LastVisitAt: &last, LoyaltyStatus: models.LoyaltyStatusActive,
	})
}

func (sh *shop) haircutVisit(clientID int64, redeem *RedemptionRequest) RecordVisitRequest {
	return RecordVisitRequest{
		ClientID:   clientID,
		BarberID:   sh.barber.ID,
		Services:   []VisitServiceLine{{ServiceID: sh.haircut.ID, Quantity: 1}},
		Redemption: redeem,
	}
}
