package services

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"linguaTutorAPI/internal/achievement"
	"linguaTutorAPI/internal/conversation"
	"linguaTutorAPI/internal/progress"
	"linguaTutorAPI/internal/streak"
	"linguaTutorAPI/internal/user"
)

// fakeStore is an in-memory ProgressStore with the same atomicity semantics
// as the Postgres implementation.
type fakeStore struct {
	mu            sync.Mutex
	users         map[string]*user.User
	progress      map[string]*progress.Progress
	phonemes      map[string]map[string][]float64
	achievements  map[string]map[achievement.Type]*achievement.UserAchievement
	streaks       map[string]*streak.Streak
	conversations []*conversation.Record

	failNextCAS bool
	failWith    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[string]*user.User{},
		progress:     map[string]*progress.Progress{},
		phonemes:     map[string]map[string][]float64{},
		achievements: map[string]map[achievement.Type]*achievement.UserAchievement{},
		streaks:      map[string]*streak.Streak{},
	}
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (f *fakeStore) CreateUser(_ context.Context, req *user.CreateUserRequest) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.users[req.ID]; ok {
		clone := *existing
		return &clone, nil
	}
	level := req.Level
	if level == "" {
		level = "beginner"
	}
	u := &user.User{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Level:       level,
		Country:     req.Country,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.users[req.ID] = u
	clone := *u
	return &clone, nil
}

func (f *fakeStore) IncrementPoints(_ context.Context, userID string, delta int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return false, nil
	}
	u.TotalPoints += delta
	return true, nil
}

func (f *fakeStore) UpdateUserStreak(_ context.Context, userID string, current, longest int, lastPractice time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		u.CurrentStreak = current
		u.LongestStreak = longest
		u.LastPracticeDate = &lastPractice
	}
	return nil
}

func (f *fakeStore) GetOrCreateProgress(_ context.Context, userID string) (*progress.Progress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.progressLocked(userID)

	clone := *p
	clone.CommonErrors = map[string]int{}
	for k, v := range p.CommonErrors {
		clone.CommonErrors[k] = v
	}
	clone.PronunciationProgress = map[string]progress.PhonemeProgress{}
	for phoneme, scores := range f.phonemes[userID] {
		clone.PronunciationProgress[phoneme] = progress.PhonemeProgress{
			Phoneme: phoneme,
			Scores:  append([]float64(nil), scores...),
		}
	}
	return &clone, nil
}

func (f *fakeStore) progressLocked(userID string) *progress.Progress {
	p, ok := f.progress[userID]
	if !ok {
		p = &progress.Progress{UserID: userID, CommonErrors: map[string]int{}}
		f.progress[userID] = p
	}
	return p
}

func (f *fakeStore) IncrementConversationCount(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progressLocked(userID).TotalConversations++
	return true, nil
}

func (f *fakeStore) RecordSessionScore(_ context.Context, userID string, score float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.progressLocked(userID)
	n := p.TotalConversations
	if n < 1 {
		n = 1
	}
	next := (p.OverallPronunciationScore*float64(n-1) + score) / float64(n)
	p.OverallPronunciationScore = math.Round(next*100) / 100
	return nil
}

func (f *fakeStore) AppendPhonemeScore(_ context.Context, userID, phoneme string, score float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phonemes[userID] == nil {
		f.phonemes[userID] = map[string][]float64{}
	}
	f.phonemes[userID][phoneme] = append(f.phonemes[userID][phoneme], score)
	return true, nil
}

func (f *fakeStore) IncrementCommonError(_ context.Context, userID, errorType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progressLocked(userID).CommonErrors[errorType]++
	return nil
}

func (f *fakeStore) SaveConversation(_ context.Context, rec *conversation.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *rec
	f.conversations = append(f.conversations, &clone)
	return nil
}

func (f *fakeStore) AwardAchievementIfAbsent(_ context.Context, rec *achievement.UserAchievement) (*AwardOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	byType := f.achievements[rec.UserID]
	if byType == nil {
		byType = map[achievement.Type]*achievement.UserAchievement{}
		f.achievements[rec.UserID] = byType
	}
	if existing, ok := byType[rec.Type]; ok {
		return &AwardOutcome{Created: false, ExistingID: existing.ID}, nil
	}
	clone := *rec
	byType[rec.Type] = &clone
	return &AwardOutcome{Created: true, ExistingID: rec.ID}, nil
}

func (f *fakeStore) GetUserAchievements(_ context.Context, userID string) ([]*achievement.UserAchievement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*achievement.UserAchievement
	for _, ach := range f.achievements[userID] {
		clone := *ach
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EarnedAt.After(out[j].EarnedAt) })
	return out, nil
}

func (f *fakeStore) GetStreak(_ context.Context, userID string) (*streak.Streak, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.streaks[userID]
	if !ok {
		return nil, nil
	}
	clone := *st
	clone.History = append([]time.Time(nil), st.History...)
	return &clone, nil
}

func (f *fakeStore) InsertStreak(_ context.Context, st *streak.Streak) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.streaks[st.UserID]; ok {
		return false, nil
	}
	clone := *st
	clone.History = append([]time.Time(nil), st.History...)
	f.streaks[st.UserID] = &clone
	return true, nil
}

func (f *fakeStore) CompareAndSwapStreak(_ context.Context, userID string, expectedLast *time.Time, st *streak.Streak) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNextCAS {
		f.failNextCAS = false
		return false, nil
	}
	stored, ok := f.streaks[userID]
	if !ok {
		return false, nil
	}
	if !timesMatch(stored.LastPracticeDate, expectedLast) {
		return false, nil
	}
	stored.CurrentStreak = st.CurrentStreak
	stored.LongestStreak = st.LongestStreak
	stored.LastPracticeDate = st.LastPracticeDate
	if n := len(st.History); n > 0 {
		stored.History = append(stored.History, st.History[n-1])
	}
	return true, nil
}

func timesMatch(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func (f *fakeStore) TopUsersByPoints(_ context.Context, limit int) ([]*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []*user.User
	for _, u := range f.users {
		clone := *u
		users = append(users, &clone)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].TotalPoints != users[j].TotalPoints {
			return users[i].TotalPoints > users[j].TotalPoints
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (f *fakeStore) CountUsersWithPointsGreaterThan(_ context.Context, threshold int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, u := range f.users {
		if u.TotalPoints > threshold {
			count++
		}
	}
	return count, nil
}

var _ ProgressStore = (*fakeStore)(nil)
