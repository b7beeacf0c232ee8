package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mvenault/eventhub/internal/model"
)

// In-memory stores backing the service tests. Each one guards its state
// with a mutex and honors the same atomic contract as the real
// repositories, so the concurrency tests exercise real interleavings.

type memEventStore struct {
	mu       sync.Mutex
	events   map[int64]*model.Event
	eventTag map[int64][]int64
	tags     *memTagStore
	nextID   int64
}

func newMemEventStore(tags *memTagStore) *memEventStore {
	return &memEventStore{
		events:   make(map[int64]*model.Event),
		eventTag: make(map[int64][]int64),
		tags:     tags,
	}
}

func (s *memEventStore) Create(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.events {
		if existing.DeletedAt == nil && existing.Slug == e.Slug {
			return model.ErrConflict
		}
	}
	s.nextID++
	e.ID = s.nextID
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *memEventStore) GetByID(_ context.Context, id int64) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok || e.DeletedAt != nil {
		return nil, model.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *memEventStore) GetBySlug(_ context.Context, eventSlug string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.DeletedAt == nil && e.Slug == eventSlug {
			cp := *e
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *memEventStore) List(_ context.Context, f model.EventFilter) ([]model.Event, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Event
	for _, e := range s.events {
		if e.DeletedAt != nil {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.CategoryID != 0 && e.CategoryID != f.CategoryID {
			continue
		}
		if f.OrganizerID != 0 && e.OrganizerID != f.OrganizerID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Search)) {
			continue
		}
		if f.StartsAfter != nil && !e.StartDate.After(*f.StartsAfter) {
			continue
		}
		out = append(out, *e)
	}
	if f.NewestFirst {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	}
	total := len(out)
	if f.Limit > 0 {
		offset := (f.Page - 1) * f.Limit
		if offset < 0 {
			offset = 0
		}
		if offset >= len(out) {
			out = nil
		} else {
			end := offset + f.Limit
			if end > len(out) {
				end = len(out)
			}
			out = out[offset:end]
		}
	}
	return out, total, nil
}

func (s *memEventStore) Update(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.events[e.ID]
	if !ok || existing.DeletedAt != nil {
		return model.ErrNotFound
	}
	for _, other := range s.events {
		if other.ID != e.ID && other.DeletedAt == nil && other.Slug == e.Slug {
			return model.ErrConflict
		}
	}
	e.UpdatedAt = time.Now()
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *memEventStore) ReplaceTags(_ context.Context, eventID int64, tagIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags.mu.Lock()
	defer s.tags.mu.Unlock()
	for _, id := range tagIDs {
		if _, ok := s.tags.tags[id]; !ok {
			return model.ErrNotFound
		}
	}
	s.eventTag[eventID] = append([]int64(nil), tagIDs...)
	return nil
}

func (s *memEventStore) TagsFor(_ context.Context, eventID int64) ([]model.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags.mu.Lock()
	defer s.tags.mu.Unlock()
	var out []model.Tag
	for _, id := range s.eventTag[eventID] {
		if tag, ok := s.tags.tags[id]; ok {
			out = append(out, *tag)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memEventStore) SoftDelete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok || e.DeletedAt != nil {
		return model.ErrNotFound
	}
	now := time.Now()
	e.DeletedAt = &now
	return nil
}

type memCategoryStore struct {
	mu         sync.Mutex
	categories map[int64]*model.Category
	eventCount map[int64]int
	nextID     int64
}

func newMemCategoryStore() *memCategoryStore {
	return &memCategoryStore{
		categories: make(map[int64]*model.Category),
		eventCount: make(map[int64]int),
	}
}

func (s *memCategoryStore) Create(_ context.Context, c *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.Slug == c.Slug {
			return model.ErrConflict
		}
	}
	s.nextID++
	c.ID = s.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *memCategoryStore) GetByID(_ context.Context, id int64) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memCategoryStore) GetBySlug(_ context.Context, catSlug string) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Slug == catSlug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *memCategoryStore) List(_ context.Context) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Category
	for _, c := range s.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memCategoryStore) Update(_ context.Context, c *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return model.ErrNotFound
	}
	for _, other := range s.categories {
		if other.ID != c.ID && other.Slug == c.Slug {
			return model.ErrConflict
		}
	}
	c.UpdatedAt = time.Now()
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *memCategoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *memCategoryStore) CountEvents(_ context.Context, id int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventCount[id], nil
}

type memTagStore struct {
	mu         sync.Mutex
	tags       map[int64]*model.Tag
	eventCount map[int64]int
	nextID     int64
}

func newMemTagStore() *memTagStore {
	return &memTagStore{tags: make(map[int64]*model.Tag), eventCount: make(map[int64]int)}
}

func (s *memTagStore) Create(_ context.Context, t *model.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tags {
		if existing.Slug == t.Slug {
			return model.ErrConflict
		}
	}
	s.nextID++
	t.ID = s.nextID
	t.CreatedAt = time.Now()
	cp := *t
	s.tags[t.ID] = &cp
	return nil
}

func (s *memTagStore) GetByID(_ context.Context, id int64) (*model.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tags[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memTagStore) GetBySlug(_ context.Context, tagSlug string) (*model.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tags {
		if t.Slug == tagSlug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *memTagStore) List(_ context.Context) ([]model.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Tag
	for _, t := range s.tags {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memTagStore) Update(_ context.Context, t *model.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tags[t.ID]; !ok {
		return model.ErrNotFound
	}
	for _, other := range s.tags {
		if other.ID != t.ID && other.Slug == t.Slug {
			return model.ErrConflict
		}
	}
	cp := *t
	s.tags[t.ID] = &cp
	return nil
}

func (s *memTagStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tags[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.tags, id)
	return nil
}

func (s *memTagStore) CountEvents(_ context.Context, id int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventCount[id], nil
}

type regKey struct {
	userID  int64
	eventID int64
}

// memRegistrationStore reproduces the repository's locking discipline:
// the duplicate check, the capacity count, and the write all happen under
// one mutex, so concurrent registrations serialize exactly as they do
// behind the row lock in Postgres.
type memRegistrationStore struct {
	mu     sync.Mutex
	regs   map[regKey]*model.Registration
	events *memEventStore
	nextID int64
}

func newMemRegistrationStore(events *memEventStore) *memRegistrationStore {
	return &memRegistrationStore{regs: make(map[regKey]*model.Registration), events: events}
}

func (s *memRegistrationStore) maxParticipants(eventID int64) (*int, error) {
	s.events.mu.Lock()
	defer s.events.mu.Unlock()
	e, ok := s.events.events[eventID]
	if !ok || e.DeletedAt != nil {
		return nil, model.ErrNotFound
	}
	return e.MaxParticipants, nil
}

func (s *memRegistrationStore) confirmedCount(eventID int64) int {
	n := 0
	for _, reg := range s.regs {
		if reg.EventID == eventID && reg.Status == model.RegistrationConfirmed {
			n++
		}
	}
	return n
}

func (s *memRegistrationStore) Create(_ context.Context, userID, eventID int64, status model.RegistrationStatus) (*model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	max, err := s.maxParticipants(eventID)
	if err != nil {
		return nil, err
	}
	key := regKey{userID: userID, eventID: eventID}
	if _, exists := s.regs[key]; exists {
		return nil, model.ErrConflict
	}
	if max != nil && s.confirmedCount(eventID) >= *max {
		return nil, model.ErrCapacityExceeded
	}

	s.nextID++
	reg := &model.Registration{
		ID:           s.nextID,
		UserID:       userID,
		EventID:      eventID,
		Status:       status,
		RegisteredAt: time.Now(),
	}
	s.regs[key] = reg
	cp := *reg
	return &cp, nil
}

func (s *memRegistrationStore) UpdateStatus(_ context.Context, userID, eventID int64, status model.RegistrationStatus) (*model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	max, err := s.maxParticipants(eventID)
	if err != nil {
		return nil, err
	}
	reg, ok := s.regs[regKey{userID: userID, eventID: eventID}]
	if !ok {
		return nil, model.ErrNotFound
	}
	if reg.Status == model.RegistrationCancelled && status != model.RegistrationCancelled {
		return nil, model.ErrInvalidState
	}
	if status == model.RegistrationConfirmed && reg.Status != model.RegistrationConfirmed &&
		max != nil && s.confirmedCount(eventID) >= *max {
		return nil, model.ErrCapacityExceeded
	}
	reg.Status = status
	cp := *reg
	return &cp, nil
}

func (s *memRegistrationStore) GetByUserAndEvent(_ context.Context, userID, eventID int64) (*model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regs[regKey{userID: userID, eventID: eventID}]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (s *memRegistrationStore) Delete(_ context.Context, userID, eventID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := regKey{userID: userID, eventID: eventID}
	if _, ok := s.regs[key]; !ok {
		return model.ErrNotFound
	}
	delete(s.regs, key)
	return nil
}

func (s *memRegistrationStore) ListByUser(_ context.Context, userID int64) ([]model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Registration
	for _, reg := range s.regs {
		if reg.UserID == userID {
			out = append(out, *reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.After(out[j].RegisteredAt) })
	return out, nil
}

func (s *memRegistrationStore) ListByEvent(_ context.Context, eventID int64) ([]model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Registration
	for _, reg := range s.regs {
		if reg.EventID == eventID {
			out = append(out, *reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

func (s *memRegistrationStore) CountConfirmed(_ context.Context, eventID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmedCount(eventID), nil
}

type memUserStore struct {
	mu     sync.Mutex
	users  map[int64]*model.User
	nextID int64
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[int64]*model.User)}
}

func (s *memUserStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.ErrConflict
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *memUserStore) List(_ context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memUserStore) Update(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return model.ErrNotFound
	}
	for _, other := range s.users {
		if other.ID != u.ID && other.Email == u.Email {
			return model.ErrConflict
		}
	}
	u.UpdatedAt = time.Now()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memUserStore) SoftDelete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type resetEntry struct {
	userID    int64
	expiresAt time.Time
}

type memUserStoreWithReset struct {
	*memUserStore
	resetMu sync.Mutex
	resets  map[string]resetEntry
}

func newMemUserStoreWithReset() *memUserStoreWithReset {
	return &memUserStoreWithReset{
		memUserStore: newMemUserStore(),
		resets:       make(map[string]resetEntry),
	}
}

func (s *memUserStoreWithReset) SetResetToken(_ context.Context, userID int64, token string, expiresAt time.Time) error {
	s.resetMu.Lock()
	defer s.resetMu.Unlock()
	s.resets[token] = resetEntry{userID: userID, expiresAt: expiresAt}
	return nil
}

func (s *memUserStoreWithReset) GetByResetToken(ctx context.Context, token string) (*model.User, error) {
	s.resetMu.Lock()
	entry, ok := s.resets[token]
	s.resetMu.Unlock()
	if !ok || entry.expiresAt.Before(time.Now()) {
		return nil, model.ErrNotFound
	}
	return s.GetByID(ctx, entry.userID)
}

func (s *memUserStoreWithReset) UpdatePassword(_ context.Context, userID int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return model.ErrNotFound
	}
	u.Password = hash
	s.resetMu.Lock()
	for token, entry := range s.resets {
		if entry.userID == userID {
			delete(s.resets, token)
		}
	}
	s.resetMu.Unlock()
	return nil
}

type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string]*model.RefreshToken)}
}

func (s *memTokenStore) Save(_ context.Context, t *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tokens[t.Token] = &cp
	return nil
}

func (s *memTokenStore) Get(_ context.Context, token string) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memTokenStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}
