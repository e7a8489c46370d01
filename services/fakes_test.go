package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"cfb-picks/database"
	"cfb-picks/models"

	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errStoreDown = errors.New("store unavailable")

type fakeSource struct {
	mu      sync.Mutex
	results []models.GameResult
	err     error
	calls   int
}

func (f *fakeSource) ListFinalizedGames(ctx context.Context) ([]models.GameResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.GameResult, 0, len(f.results))
	for _, r := range f.results {
		if r.Final() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) ListGames(ctx context.Context) ([]models.GameResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.GameResult(nil), f.results...), nil
}

type fakeGameStore struct {
	mu          sync.Mutex
	games       map[string]*models.Game
	findErr     error
	markErr     error
	markedCount map[string]int
}

func newFakeGameStore() *fakeGameStore {
	return &fakeGameStore{games: make(map[string]*models.Game), markedCount: make(map[string]int)}
}

func (f *fakeGameStore) RecordResults(ctx context.Context, results []models.GameResult) error {
	games := make([]models.Game, 0, len(results))
	for i := range results {
		games = append(games, results[i].ToGame())
	}
	_, err := f.UpsertGames(ctx, games)
	return err
}

func (f *fakeGameStore) UpsertGames(ctx context.Context, games []models.Game) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var changed int64
	for _, g := range games {
		g := g
		if existing, ok := f.games[g.ID]; ok {
			g.Scored = existing.Scored
			g.ScoredAt = existing.ScoredAt
		}
		f.games[g.ID] = &g
		changed++
	}
	return changed, nil
}

func (f *fakeGameStore) FindUnscoredFinal(ctx context.Context) ([]*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []*models.Game
	for _, g := range f.games {
		if g.Final && !g.Scored {
			c := *g
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeGameStore) MarkScored(ctx context.Context, gameID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	g, ok := f.games[gameID]
	if !ok {
		return database.ErrNotFound
	}
	now := time.Now()
	g.Scored = true
	g.ScoredAt = &now
	f.markedCount[gameID]++
	return nil
}

func (f *fakeGameStore) FindByID(ctx context.Context, gameID string) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[gameID]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *g
	return &c, nil
}

func (f *fakeGameStore) ListGames(ctx context.Context, season int) ([]*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Game
	for _, g := range f.games {
		if season == 0 || g.Season == season {
			c := *g
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeGameStore) game(id string) models.Game {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.games[id]
}

type fakePickStore struct {
	mu       sync.Mutex
	picks    map[primitive.ObjectID]*models.Pick
	findErr  error
	markFail int // MarkPickApplied fails this many more times
}

func newFakePickStore() *fakePickStore {
	return &fakePickStore{picks: make(map[primitive.ObjectID]*models.Pick)}
}

func (f *fakePickStore) add(userID primitive.ObjectID, gameID string, side models.Side) *models.Pick {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &models.Pick{ID: primitive.NewObjectID(), UserID: userID, GameID: gameID, Pick: side}
	f.picks[p.ID] = p
	return p
}

func (f *fakePickStore) FindPicksByGame(ctx context.Context, gameID string) ([]*models.Pick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []*models.Pick
	for _, p := range f.picks {
		if p.GameID == gameID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (f *fakePickStore) MarkPickApplied(ctx context.Context, pickID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markFail > 0 {
		f.markFail--
		return errStoreDown
	}
	p, ok := f.picks[pickID]
	if !ok {
		return database.ErrNotFound
	}
	now := time.Now()
	p.AppliedToScore = true
	p.AppliedAt = &now
	return nil
}

func (f *fakePickStore) UpsertPick(ctx context.Context, userID primitive.ObjectID, gameID string, selection models.Side) (*models.Pick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.picks {
		if p.UserID == userID && p.GameID == gameID {
			p.Pick = selection
			c := *p
			return &c, nil
		}
	}
	p := &models.Pick{ID: primitive.NewObjectID(), UserID: userID, GameID: gameID, Pick: selection}
	f.picks[p.ID] = p
	c := *p
	return &c, nil
}

func (f *fakePickStore) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Pick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Pick
	for _, p := range f.picks {
		if p.UserID == userID {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakePickStore) pick(id primitive.ObjectID) models.Pick {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.picks[id]
}

// fakeScoreStore mirrors the ledger-guarded increment of the Mongo store
type fakeScoreStore struct {
	mu      sync.Mutex
	scores  map[primitive.ObjectID]*models.Score
	incErr  error
	incCall int
}

func newFakeScoreStore() *fakeScoreStore {
	return &fakeScoreStore{scores: make(map[primitive.ObjectID]*models.Score)}
}

func (f *fakeScoreStore) IncrementScore(ctx context.Context, userID, pickID primitive.ObjectID, delta models.ScoreDelta) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incCall++
	if f.incErr != nil {
		return false, f.incErr
	}
	s, ok := f.scores[userID]
	if !ok {
		s = &models.Score{ID: primitive.NewObjectID(), UserID: userID}
		f.scores[userID] = s
	}
	for _, id := range s.AppliedPicks {
		if id == pickID {
			return false, nil
		}
	}
	s.CorrectPicks += delta.Correct
	s.IncorrectPicks += delta.Incorrect
	s.TotalPicks += delta.Total
	s.AppliedPicks = append(s.AppliedPicks, pickID)
	return true, nil
}

func (f *fakeScoreStore) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Score, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scores[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (f *fakeScoreStore) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := []models.LeaderboardEntry{}
	for id, s := range f.scores {
		entries = append(entries, models.LeaderboardEntry{
			Username:       id.Hex(),
			CorrectPicks:   s.CorrectPicks,
			IncorrectPicks: s.IncorrectPicks,
			TotalPicks:     s.TotalPicks,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CorrectPicks != entries[j].CorrectPicks {
			return entries[i].CorrectPicks > entries[j].CorrectPicks
		}
		return entries[i].Username < entries[j].Username
	})
	return models.RankEntries(entries), nil
}

func (f *fakeScoreStore) score(userID primitive.ObjectID) (models.Score, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scores[userID]
	if !ok {
		return models.Score{}, false
	}
	return *s, true
}

type fakeLock struct {
	mu   sync.Mutex
	held bool
	err  error
}

func (f *fakeLock) Acquire(ctx context.Context) (func(context.Context) error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.held {
		return nil, database.ErrLockHeld
	}
	f.held = true
	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.held = false
		return nil
	}, nil
}

type fakeCache struct {
	mu          sync.Mutex
	entries     []models.LeaderboardEntry
	cached      bool
	cachedGen   int64
	generation  int64
	invalidated int
	sets        int
}

func (f *fakeCache) Get(ctx context.Context) ([]models.LeaderboardEntry, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.cached || f.cachedGen != f.generation {
		return nil, f.generation, database.ErrCacheMiss
	}
	return f.entries, f.generation, nil
}

func (f *fakeCache) Set(ctx context.Context, gen int64, entries []models.LeaderboardEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = entries
	f.cachedGen = gen
	f.cached = true
	f.sets++
	return nil
}

func (f *fakeCache) Invalidate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	f.invalidated++
	return nil
}

type fakeKafkaWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeKafkaWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserRepo) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Username == username })
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUserRepo) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, database.ErrNotFound
	}
	return f.find(func(u *models.User) bool { return u.VerificationToken == token })
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return database.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	c := *user
	f.users[user.ID] = &c
	return nil
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return database.ErrNotFound
	}
	for id, u := range f.users {
		if id != user.ID && u.Username == user.Username {
			return database.ErrDuplicate
		}
	}
	c := *user
	f.users[user.ID] = &c
	return nil
}

type fakeMailer struct {
	configured bool
	sent       []*models.User
	err        error
}

func (f *fakeMailer) IsConfigured() bool { return f.configured }

func (f *fakeMailer) SendVerificationEmail(user *models.User) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, user)
	return nil
}

func (f *fakeMailer) VerificationURL(token string) string {
	return "http://localhost/verify-email?token=" + token
}
