// Package memory provides a map-backed implementation of every showgate
// data-access port. It backs the unit tests and the conformance harness and
// doubles as a reference for writing real stores.
package memory

import (
	"context"
	"sync"

	"github.com/showgate/showgate"
)

// Store holds all entity rows in memory. Safe for concurrent use. The zero
// value is not usable; call New.
type Store struct {
	mu sync.RWMutex

	profiles      map[string]showgate.Profile
	shows         map[string]showgate.Show
	series        map[string]showgate.ShowSeries
	participation map[string]showgate.ShowParticipation
	attendance    map[string]showgate.PlannedAttendance
	wantLists     map[string]showgate.WantList
	shared        map[string]showgate.SharedWantList
	conversations map[string]showgate.Conversation
	convParts     map[string]showgate.ConversationParticipant
	messages      map[string]showgate.Message
	favorites     map[string]showgate.Favorite
	reviews       map[string]showgate.Review

	// failing simulates an unreachable data source for fail-closed tests.
	failing error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		profiles:      make(map[string]showgate.Profile),
		shows:         make(map[string]showgate.Show),
		series:        make(map[string]showgate.ShowSeries),
		participation: make(map[string]showgate.ShowParticipation),
		attendance:    make(map[string]showgate.PlannedAttendance),
		wantLists:     make(map[string]showgate.WantList),
		shared:        make(map[string]showgate.SharedWantList),
		conversations: make(map[string]showgate.Conversation),
		convParts:     make(map[string]showgate.ConversationParticipant),
		messages:      make(map[string]showgate.Message),
		favorites:     make(map[string]showgate.Favorite),
		reviews:       make(map[string]showgate.Review),
	}
}

// Ports returns the store wired into a showgate.Ports value.
func (s *Store) Ports() showgate.Ports {
	return showgate.Ports{
		Shows:                    s,
		Series:                   s,
		Participation:            s,
		PlannedAttendance:        s,
		WantLists:                s,
		SharedWantLists:          s,
		Conversations:            s,
		ConversationParticipants: s,
		Messages:                 s,
		Favorites:                s,
		Reviews:                  s,
	}
}

// Fail makes every subsequent lookup return err. Pass nil to recover.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	s.failing = err
	s.mu.Unlock()
}

// Seed helpers. Each upserts by ID.

func (s *Store) AddProfile(p showgate.Profile) {
	s.mu.Lock()
	s.profiles[p.ID] = p
	s.mu.Unlock()
}

func (s *Store) AddShow(v showgate.Show) {
	s.mu.Lock()
	s.shows[v.ID] = v
	s.mu.Unlock()
}

func (s *Store) AddSeries(v showgate.ShowSeries) {
	s.mu.Lock()
	s.series[v.ID] = v
	s.mu.Unlock()
}

func (s *Store) AddParticipation(v showgate.ShowParticipation) {
	s.mu.Lock()
	s.participation[v.ID] = v
	s.mu.Unlock()
}

func (s *Store) AddAttendance(v showgate.PlannedAttendance) {
	s.mu.Lock()
	s.attendance[v.ID] = v
	s.mu.Unlock()
}

func (s *Store) AddWantList(v showgate.WantList) {
	s.mu.Lock()
	s.wantLists[v.ID] = v
	s.mu.Unlock()
}

func (s *Store) AddSharedWantList(v showgate.SharedWantList) {
	s.mu.Lock()
	s.shared[v.ID] = v
	s.mu.Unlock()
}

func (s *Store) AddConversation(v showgate.Conversation) {
	s.mu.Lock()
	s.conversations[v.ID] = v
	s.mu.Unlock()
}

func (s *Store) AddConversationParticipant(v showgate.ConversationParticipant) {
	s.mu.Lock()
	s.convParts[v.ID] = v
	s.mu.Unlock()
}

func (s *Store) AddMessage(v showgate.Message) {
	s.mu.Lock()
	s.messages[v.ID] = v
	s.mu.Unlock()
}

func (s *Store) AddFavorite(v showgate.Favorite) {
	s.mu.Lock()
	s.favorites[v.ID] = v
	s.mu.Unlock()
}

func (s *Store) AddReview(v showgate.Review) {
	s.mu.Lock()
	s.reviews[v.ID] = v
	s.mu.Unlock()
}

// Port implementations.

func (s *Store) ProfileByID(_ context.Context, id string) (showgate.Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing != nil {
		return showgate.Profile{}, false, s.failing
	}
	v, ok := s.profiles[id]
	return v, ok, nil
}

func (s *Store) ShowByID(_ context.Context, id string) (showgate.Show, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing != nil {
		return showgate.Show{}, false, s.failing
	}
	v, ok := s.shows[id]
	return v, ok, nil
}

func (s *Store) SeriesByID(_ context.Context, id string) (showgate.ShowSeries, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing != nil {
		return showgate.ShowSeries{}, false, s.failing
	}
	v, ok := s.series[id]
	return v, ok, nil
}

func (s *Store) ParticipationByID(_ context.Context, id string) (showgate.ShowParticipation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing != nil {
		return showgate.ShowParticipation{}, false, s.failing
	}
	v, ok := s.participation[id]
	return v, ok, nil
}

func (s *Store) AttendanceByID(_ context.Context, id string) (showgate.PlannedAttendance, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing != nil {
		return showgate.PlannedAttendance{}, false, s.failing
	}
	v, ok := s.attendance[id]
	return v, ok, nil
}

func (s *Store) AttendanceExists(_ context.Context, userID, showID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing != nil {
		return false, s.failing
	}
	for _, a := range s.attendance {
		if a.UserID == userID && a.ShowID == showID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) WantListByID(_ context.Context, id string) (showgate.WantList, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing != nil {
		return showgate.WantList{}, false, s.failing
	}
	v, ok := s.wantLists[id]
	return v, ok, nil
}

func (s *Store) SharedWantListByID(_ context.Context, id string) (showgate.SharedWantList, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing != nil {
		return showgate.SharedWantList{}, false, s.failing
	}
	v, ok := s.shared[id]
	return v, ok, nil
}

func (s *Store) ShowsForWantList(_ context.Context, wantListID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing != nil {
		return nil, s.failing
	}
	var out []string
	for _, sw := range s.shared {
		if sw.WantListID == wantListID {
			out = append(out, sw.ShowID)
		}
	}
	return out, nil
}

func (s *Store) ConversationByID(_ context.Context, id string) (showgate.Conversation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing != nil {
		return showgate.Conversation{}, false, s.failing
	}
	v, ok := s.conversations[id]
	return v, ok, nil
}

func (s *Store) ParticipantByID(_ context.Context, id string) (showgate.ConversationParticipant, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing != nil {
		return showgate.ConversationParticipant{}, false, s.failing
	}
	v, ok := s.convParts[id]
	return v, ok, nil
}

func (s *Store) IsParticipant(_ context.Context, conversationID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing != nil {
		return false, s.failing
	}
	for _, p := range s.convParts {
		if p.ConversationID == conversationID && p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) MessageByID(_ context.Context, id string) (showgate.Message, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing != nil {
		return showgate.Message{}, false, s.failing
	}
	v, ok := s.messages[id]
	return v, ok, nil
}

func (s *Store) FavoriteByID(_ context.Context, id string) (showgate.Favorite, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing != nil {
		return showgate.Favorite{}, false, s.failing
	}
	v, ok := s.favorites[id]
	return v, ok, nil
}

func (s *Store) ReviewByID(_ context.Context, id string) (showgate.Review, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing != nil {
		return showgate.Review{}, false, s.failing
	}
	v, ok := s.reviews[id]
	return v, ok, nil
}

// Interface assertions.
var (
	_ showgate.ShowStore                    = (*Store)(nil)
	_ showgate.ShowSeriesStore              = (*Store)(nil)
	_ showgate.ParticipationStore           = (*Store)(nil)
	_ showgate.PlannedAttendanceStore       = (*Store)(nil)
	_ showgate.WantListStore                = (*Store)(nil)
	_ showgate.SharedWantListStore          = (*Store)(nil)
	_ showgate.ConversationStore            = (*Store)(nil)
	_ showgate.ConversationParticipantStore = (*Store)(nil)
	_ showgate.MessageStore                 = (*Store)(nil)
	_ showgate.FavoriteStore                = (*Store)(nil)
	_ showgate.ReviewStore                  = (*Store)(nil)
	_ showgate.ProfileStore                 = (*Store)(nil)
)
