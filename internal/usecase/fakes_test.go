package usecase

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"github.com/nguyentranbao-ct/chat-notify/internal/repo/mongodb"
)

// store is an in-memory stand-in for the document store. Each fake repo
// shares it so cross-collection behavior matches the real adapter.
type store struct {
	mu             sync.Mutex
	users          map[string]*models.User
	channels       map[string]*models.Channel
	members        map[string]*models.Member
	messages       map[string]*models.Message
	threads        map[string]*models.Thread
	threadMessages []*models.ThreadMessage

	failMemberUpsert map[string]error
	failCount        map[string]error
	failGetUser      map[string]error
}

func newStore() *store {
	return &store{
		users:            map[string]*models.User{},
		channels:         map[string]*models.Channel{},
		members:          map[string]*models.Member{},
		messages:         map[string]*models.Message{},
		threads:          map[string]*models.Thread{},
		failMemberUpsert: map[string]error{},
		failCount:        map[string]error{},
		failGetUser:      map[string]error{},
	}
}

func copyOf[T any](v *T) *T {
	c := *v
	return &c
}

type fakeUserRepo struct{ s *store }

func (r fakeUserRepo) GetByID(_ context.Context, uid string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failGetUser[uid]; err != nil {
		return nil, err
	}
	u, ok := r.s.users[uid]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := copyOf(u)
	c.Tokens = slices.Clone(u.Tokens)
	c.Channels = slices.Clone(u.Channels)
	return c, nil
}

func (r fakeUserRepo) ensure(user *models.User) *models.User {
	u, ok := r.s.users[user.ID]
	if !ok {
		u = &models.User{ID: user.ID, DisplayName: user.DisplayName, Type: user.Type, Tokens: []string{}, Channels: []string{}}
		r.s.users[user.ID] = u
	}
	return u
}

func (r fakeUserRepo) Ensure(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	r.ensure(user)
	r.s.mu.Unlock()
	return r.GetByID(ctx, user.ID)
}

func (r fakeUserRepo) UpsertDisplayName(ctx context.Context, uid, displayName string) (*models.User, error) {
	r.s.mu.Lock()
	r.ensure(&models.User{ID: uid, Type: models.UserTypeUser}).DisplayName = displayName
	r.s.mu.Unlock()
	return r.GetByID(ctx, uid)
}

func (r fakeUserRepo) AddChannel(_ context.Context, uid, channelID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.ensure(&models.User{ID: uid})
	if !slices.Contains(u.Channels, channelID) {
		u.Channels = append(u.Channels, channelID)
	}
	return nil
}

func (r fakeUserRepo) RemoveChannel(_ context.Context, uid, channelID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[uid]; ok {
		u.Channels = slices.DeleteFunc(u.Channels, func(c string) bool { return c == channelID })
	}
	return nil
}

func (r fakeUserRepo) AddToken(_ context.Context, uid, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.ensure(&models.User{ID: uid})
	if !slices.Contains(u.Tokens, token) {
		u.Tokens = append(u.Tokens, token)
	}
	return nil
}

func (r fakeUserRepo) RemoveToken(_ context.Context, uid, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[uid]; ok {
		u.Tokens = slices.DeleteFunc(u.Tokens, func(t string) bool { return t == token })
	}
	return nil
}

func (r fakeUserRepo) RevokeToken(_ context.Context, token, exceptUID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, u := range r.s.users {
		if id == exceptUID || !slices.Contains(u.Tokens, token) {
			continue
		}
		u.Tokens = slices.DeleteFunc(u.Tokens, func(t string) bool { return t == token })
		n++
	}
	return n, nil
}

type fakeChannelRepo struct{ s *store }

func (r fakeChannelRepo) Create(_ context.Context, channel *models.Channel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.channels[channel.ID] = copyOf(channel)
	return nil
}

func (r fakeChannelRepo) GetByID(_ context.Context, id string) (*models.Channel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.channels[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyOf(c), nil
}

func (r fakeChannelRepo) GetByName(_ context.Context, name string) (*models.Channel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.channels {
		if c.Name == name {
			return copyOf(c), nil
		}
	}
	return nil, models.ErrNotFound
}

func (r fakeChannelRepo) UpdateName(_ context.Context, id, name string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.channels[id]
	if ok {
		c.Name = name
	}
	return ok, nil
}

func (r fakeChannelRepo) SetReadOnly(_ context.Context, id string, readOnly bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.channels[id]
	if ok {
		c.ReadOnly = readOnly
	}
	return ok, nil
}

func (r fakeChannelRepo) Touch(_ context.Context, id, lastMessageID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.channels[id]; ok {
		c.LastModified = at
		if lastMessageID != "" {
			c.LastMessageID = lastMessageID
		}
	}
	return nil
}

type fakeMemberRepo struct{ s *store }

func (r fakeMemberRepo) Upsert(_ context.Context, member *models.Member) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failMemberUpsert[member.UserID]; err != nil {
		return err
	}
	id := models.MemberID(member.ChannelID, member.UserID)
	m, ok := r.s.members[id]
	if !ok {
		m = &models.Member{
			ID:        id,
			ChannelID: member.ChannelID,
			UserID:    member.UserID,
			LastSeen:  member.LastSeen,
			JoinedAt:  member.JoinedAt,
		}
		r.s.members[id] = m
	}
	m.Type = member.Type
	m.Active = member.Active
	return nil
}

func (r fakeMemberRepo) Get(_ context.Context, channelID, userID string) (*models.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.members[models.MemberID(channelID, userID)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyOf(m), nil
}

func (r fakeMemberRepo) ListByChannel(_ context.Context, channelID string) ([]*models.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Member
	for _, m := range r.s.members {
		if m.ChannelID == channelID {
			out = append(out, copyOf(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r fakeMemberRepo) Delete(_ context.Context, channelID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := models.MemberID(channelID, userID)
	_, ok := r.s.members[id]
	delete(r.s.members, id)
	return ok, nil
}

func (r fakeMemberRepo) AdvanceLastSeen(_ context.Context, channelID, userID string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.members[models.MemberID(channelID, userID)]
	if !ok {
		return false, nil
	}
	if m.LastSeen == nil || at.After(*m.LastSeen) {
		m.LastSeen = &at
	}
	return true, nil
}

func (r fakeMemberRepo) SetTyping(_ context.Context, channelID, userID string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.members[models.MemberID(channelID, userID)]
	if ok {
		m.LastTyping = &at
	}
	return ok, nil
}

type fakeMessageRepo struct{ s *store }

func (r fakeMessageRepo) Insert(_ context.Context, msg *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.messages[msg.ID]; ok {
		return mongodb.ErrDuplicateMessage
	}
	r.s.messages[msg.ID] = copyOf(msg)
	return nil
}

func (r fakeMessageRepo) Get(_ context.Context, channelID, messageID string) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[messageID]
	if !ok || m.ChannelID != channelID {
		return nil, models.ErrNotFound
	}
	return copyOf(m), nil
}

func (r fakeMessageRepo) Latest(_ context.Context, channelID string) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *models.Message
	for _, m := range r.s.messages {
		if m.ChannelID != channelID {
			continue
		}
		if latest == nil || m.Timestamp.After(latest.Timestamp) {
			latest = m
		}
	}
	if latest == nil {
		return nil, models.ErrNotFound
	}
	return copyOf(latest), nil
}

func (r fakeMessageRepo) CountAfter(_ context.Context, channelID string, after *time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failCount[channelID]; err != nil {
		return 0, err
	}
	var n int64
	for _, m := range r.s.messages {
		if m.ChannelID == channelID && (after == nil || m.Timestamp.After(*after)) {
			n++
		}
	}
	return n, nil
}

func (r fakeMessageRepo) Delete(_ context.Context, channelID, messageID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[messageID]
	if !ok || m.ChannelID != channelID {
		return false, nil
	}
	delete(r.s.messages, messageID)
	return true, nil
}

type fakeThreadRepo struct{ s *store }

func (r fakeThreadRepo) Ensure(_ context.Context, thread *models.Thread) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := models.ThreadKey(thread.MessageID, thread.ThreadID)
	if _, ok := r.s.threads[id]; !ok {
		t := copyOf(thread)
		t.ID = id
		r.s.threads[id] = t
	}
	return nil
}

func (r fakeThreadRepo) InsertMessage(_ context.Context, msg *models.ThreadMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.threadMessages = append(r.s.threadMessages, copyOf(msg))
	return nil
}

// stepClock advances one second per call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type sentPush struct {
	tokens []string
	n      models.Notification
}

type fakeSender struct {
	mu           sync.Mutex
	sent         []sentPush
	unregistered map[string]bool
}

func (f *fakeSender) Send(_ context.Context, tokens []string, n models.Notification) []models.TokenResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentPush{tokens: slices.Clone(tokens), n: n})
	results := make([]models.TokenResult, len(tokens))
	for i, t := range tokens {
		results[i] = models.TokenResult{Token: t, MessageID: "m-" + t}
		if f.unregistered[t] {
			results[i] = models.TokenResult{Token: t, Error: "unregistered", Unregistered: true}
		}
	}
	return results
}

func (f *fakeSender) pushes() []sentPush {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sent)
}

// inlineQueue runs fan-out synchronously so tests can assert on its effects.
type inlineQueue struct {
	fanOut  FanOutUsecase
	err     error
	jobs    []models.FanOutJob
	reports []*models.FanOutReport
}

func (q *inlineQueue) Enqueue(ctx context.Context, job models.FanOutJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	if q.fanOut == nil {
		return nil
	}
	report, err := q.fanOut.FanOut(ctx, job)
	if err != nil {
		return err
	}
	q.reports = append(q.reports, report)
	return nil
}

type memoryDedup struct {
	mu      sync.Mutex
	claimed map[string]bool
	err     error
}

func (d *memoryDedup) Claim(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if d.claimed == nil {
		d.claimed = map[string]bool{}
	}
	if d.claimed[key] {
		return false, nil
	}
	d.claimed[key] = true
	return true, nil
}

func (d *memoryDedup) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claimed, key)
	return nil
}

var errBoom = errors.New("boom")
