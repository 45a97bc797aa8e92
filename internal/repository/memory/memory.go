// Package memory provides mutex-guarded in-memory implementations of the
// repository interfaces. They back the service tests and local runs
// without Postgres; semantics mirror the postgres package.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lakshan-j/threadgate/internal/models"
)

// AccountStore keeps login identities keyed by id and email.
type AccountStore struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]models.Account
	byEmail  map[string]uuid.UUID
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		byID:    make(map[uuid.UUID]models.Account),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *AccountStore) Create(ctx context.Context, email, passwordHash string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; ok {
		return nil, models.ErrAlreadyExists
	}
	acc := models.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
	}
	s.byID[acc.ID] = acc
	s.byEmail[email] = acc.ID
	return &acc, nil
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, nil
	}
	acc := s.byID[id]
	return &acc, nil
}

func (s *AccountStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

// ProfileStore keeps chat profiles in registration order.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]models.UserProfile
	order    []uuid.UUID
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[uuid.UUID]models.UserProfile)}
}

func (s *ProfileStore) Create(ctx context.Context, profile models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.Principal]; ok {
		return models.ErrAlreadyExists
	}
	s.profiles[profile.Principal] = profile
	s.order = append(s.order, profile.Principal)
	return nil
}

func (s *ProfileStore) Get(ctx context.Context, principal uuid.UUID) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[principal]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *ProfileStore) Save(ctx context.Context, profile models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.Principal]; !ok {
		return models.ErrNotFound
	}
	s.profiles[profile.Principal] = profile
	return nil
}

func (s *ProfileStore) List(ctx context.Context) ([]models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.UserProfile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.profiles[id])
	}
	return out, nil
}

// RoleStore defaults every user to RoleUser.
type RoleStore struct {
	mu    sync.RWMutex
	roles map[uuid.UUID]models.UserRole
}

func NewRoleStore() *RoleStore {
	return &RoleStore{roles: make(map[uuid.UUID]models.UserRole)}
}

func (s *RoleStore) Get(ctx context.Context, user uuid.UUID) (models.UserRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if role, ok := s.roles[user]; ok {
		return role, nil
	}
	return models.RoleUser, nil
}

func (s *RoleStore) Set(ctx context.Context, user uuid.UUID, role models.UserRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[user] = role
	return nil
}

// EntitlementStore holds one record per user. The whole-map mutex makes
// Upsert atomic per user key, so concurrent requests cannot produce two
// records.
type EntitlementStore struct {
	mu           sync.RWMutex
	entitlements map[uuid.UUID]models.AccessEntitlement
}

func NewEntitlementStore() *EntitlementStore {
	return &EntitlementStore{entitlements: make(map[uuid.UUID]models.AccessEntitlement)}
}

func (s *EntitlementStore) Get(ctx context.Context, user uuid.UUID) (*models.AccessEntitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ent, ok := s.entitlements[user]
	if !ok {
		return nil, nil
	}
	return &ent, nil
}

func (s *EntitlementStore) GetAll(ctx context.Context) ([]models.AccessEntitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AccessEntitlement, 0, len(s.entitlements))
	for _, ent := range s.entitlements {
		out = append(out, ent)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestTimestamp > out[j].RequestTimestamp
	})
	return out, nil
}

func (s *EntitlementStore) Upsert(ctx context.Context, ent models.AccessEntitlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entitlements[ent.User] = ent
	return nil
}

// BlockStore keeps directed block edges per blocker.
type BlockStore struct {
	mu     sync.RWMutex
	blocks map[uuid.UUID]map[uuid.UUID]bool
}

func NewBlockStore() *BlockStore {
	return &BlockStore{blocks: make(map[uuid.UUID]map[uuid.UUID]bool)}
}

func (s *BlockStore) Add(ctx context.Context, blocker, blocked uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blocks[blocker] == nil {
		s.blocks[blocker] = make(map[uuid.UUID]bool)
	}
	s.blocks[blocker][blocked] = true
	return nil
}

func (s *BlockStore) Remove(ctx context.Context, blocker, blocked uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blocks[blocker], blocked)
	return nil
}

func (s *BlockStore) Has(ctx context.Context, blocker, blocked uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blocks[blocker][blocked], nil
}

func (s *BlockStore) List(ctx context.Context, blocker uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(s.blocks[blocker]))
	for id := range s.blocks[blocker] {
		out = append(out, id)
	}
	return out, nil
}

// ThreadStore assigns sequential thread ids and owns the participant sets.
// Deleting a thread also drops its messages from the paired MessageStore,
// matching the ON DELETE CASCADE of the postgres schema.
type ThreadStore struct {
	mu       sync.RWMutex
	nextID   int64
	threads  map[int64]models.Thread
	messages *MessageStore
}

func NewThreadStore(messages *MessageStore) *ThreadStore {
	return &ThreadStore{threads: make(map[int64]models.Thread), messages: messages}
}

func (s *ThreadStore) Create(ctx context.Context, participants []uuid.UUID, createdAt int64) (*models.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	thread := models.Thread{
		ID:           s.nextID,
		Participants: append([]uuid.UUID(nil), participants...),
		CreatedAt:    createdAt,
	}
	s.threads[thread.ID] = thread
	return &thread, nil
}

func (s *ThreadStore) Get(ctx context.Context, id int64) (*models.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	thread, ok := s.threads[id]
	if !ok {
		return nil, nil
	}
	return &thread, nil
}

func (s *ThreadStore) ListByUser(ctx context.Context, user uuid.UUID) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0)
	for id, thread := range s.threads {
		for _, p := range thread.Participants {
			if p == user {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids, nil
}

func (s *ThreadStore) IsParticipant(ctx context.Context, id int64, user uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	thread, ok := s.threads[id]
	if !ok {
		return false, nil
	}
	for _, p := range thread.Participants {
		if p == user {
			return true, nil
		}
	}
	return false, nil
}

func (s *ThreadStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	delete(s.threads, id)
	s.mu.Unlock()
	if s.messages != nil {
		s.messages.dropThread(id)
	}
	return nil
}

// MessageStore assigns globally sequential message ids, which keeps ids
// monotonic within each thread.
type MessageStore struct {
	mu       sync.RWMutex
	nextID   int64
	byThread map[int64][]models.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{byThread: make(map[int64][]models.Message)}
}

func (s *MessageStore) Append(ctx context.Context, threadID int64, sender uuid.UUID, content string, timestamp int64) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	msg := models.Message{
		ID:        s.nextID,
		ThreadID:  threadID,
		Sender:    sender,
		Content:   content,
		Timestamp: timestamp,
	}
	s.byThread[threadID] = append(s.byThread[threadID], msg)
	return &msg, nil
}

func (s *MessageStore) Get(ctx context.Context, threadID, messageID int64) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.byThread[threadID] {
		if m.ID == messageID {
			msg := m
			return &msg, nil
		}
	}
	return nil, nil
}

func (s *MessageStore) UpdateContent(ctx context.Context, threadID, messageID int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.byThread[threadID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			if msgs[i].Deleted {
				return models.ErrInvalidState
			}
			msgs[i].Content = content
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *MessageStore) MarkDeleted(ctx context.Context, threadID, messageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.byThread[threadID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			msgs[i].Deleted = true
			msgs[i].Content = ""
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *MessageStore) ListByThread(ctx context.Context, threadID int64) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message(nil), s.byThread[threadID]...), nil
}

func (s *MessageStore) dropThread(threadID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byThread, threadID)
}
