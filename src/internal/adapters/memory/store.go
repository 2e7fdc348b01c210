package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anidex/anidex/src/internal/domain"
)

type pairKey struct {
	userID  int64
	animeID int
}

type listItemKey struct {
	listID  int64
	animeID int
}

type achievementKey struct {
	userID int64
	kind   domain.AchievementKind
}

// InMemoryStore implements ports.EntityStore with maps behind one RWMutex.
// It backs tests and local runs without a database.
type InMemoryStore struct {
	mu           sync.RWMutex
	users        map[int64]domain.User
	favorites    map[pairKey]domain.Favorite
	watch        map[pairKey]domain.WatchRecord
	lists        map[int64]domain.CustomList
	listItems    map[listItemKey]domain.ListItem
	achievements map[achievementKey]domain.Achievement
	anime        map[int]domain.Anime
	characters   map[int]domain.Character
	nextListID   int64
	now          func() time.Time
}

func NewStore() *InMemoryStore {
	return &InMemoryStore{
		users:        make(map[int64]domain.User),
		favorites:    make(map[pairKey]domain.Favorite),
		watch:        make(map[pairKey]domain.WatchRecord),
		lists:        make(map[int64]domain.CustomList),
		listItems:    make(map[listItemKey]domain.ListItem),
		achievements: make(map[achievementKey]domain.Achievement),
		anime:        make(map[int]domain.Anime),
		characters:   make(map[int]domain.Character),
		now:          time.Now,
	}
}

func (s *InMemoryStore) AddUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		u := *user
		if u.CreatedAt.IsZero() {
			u.CreatedAt = s.now()
		}
		s.users[user.ID] = u
		return nil
	}
	if user.Handle != "" {
		existing.Handle = user.Handle
	}
	if user.DisplayName != "" {
		existing.DisplayName = user.DisplayName
	}
	if user.Locale != "" {
		existing.Locale = user.Locale
	}
	s.users[user.ID] = existing
	return nil
}

func (s *InMemoryStore) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *InMemoryStore) AddFavorite(ctx context.Context, userID int64, animeID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.favorites[pairKey{userID, animeID}] = domain.Favorite{UserID: userID, AnimeID: animeID, AddedAt: s.now()}
	return nil
}

func (s *InMemoryStore) RemoveFavorite(ctx context.Context, userID int64, animeID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pairKey{userID, animeID}
	if _, ok := s.favorites[k]; !ok {
		return false, nil
	}
	delete(s.favorites, k)
	return true, nil
}

func (s *InMemoryStore) IsFavorite(ctx context.Context, userID int64, animeID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.favorites[pairKey{userID, animeID}]
	return ok, nil
}

func (s *InMemoryStore) ListFavorites(ctx context.Context, userID int64) ([]domain.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var favs []domain.Favorite
	for k, f := range s.favorites {
		if k.userID == userID {
			favs = append(favs, f)
		}
	}
	sort.Slice(favs, func(i, j int) bool {
		if !favs[i].AddedAt.Equal(favs[j].AddedAt) {
			return favs[i].AddedAt.After(favs[j].AddedAt)
		}
		return favs[i].AnimeID < favs[j].AnimeID
	})
	return favs, nil
}

func (s *InMemoryStore) UpsertWatchRecord(ctx context.Context, userID int64, animeID int, update domain.WatchUpdate) (*domain.WatchRecord, error) {
	if update.Status != nil && !update.Status.Valid() {
		return nil, fmt.Errorf("invalid watch status %q", *update.Status)
	}
	if update.Progress != nil && *update.Progress < 0 {
		return nil, fmt.Errorf("negative progress %d", *update.Progress)
	}
	if update.Score != nil && (*update.Score < 0 || *update.Score > 10) {
		return nil, fmt.Errorf("score %d out of range", *update.Score)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := pairKey{userID, animeID}
	rec, ok := s.watch[k]
	if !ok {
		rec = domain.WatchRecord{UserID: userID, AnimeID: animeID, Status: domain.WatchStatusPlanned}
	}
	if update.Status != nil {
		rec.Status = *update.Status
	}
	if update.Score != nil {
		v := *update.Score
		rec.Score = &v
	}
	if update.Progress != nil {
		rec.Progress = *update.Progress
	}
	rec.UpdatedAt = s.now()
	s.watch[k] = rec

	out := rec
	return &out, nil
}

func (s *InMemoryStore) GetWatchRecord(ctx context.Context, userID int64, animeID int) (*domain.WatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.watch[pairKey{userID, animeID}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *InMemoryStore) ListWatchRecords(ctx context.Context, userID int64, status domain.WatchStatus) ([]domain.WatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.WatchRecord
	for k, rec := range s.watch {
		if k.userID != userID || (status != "" && rec.Status != status) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].AnimeID < out[j].AnimeID
	})
	return out, nil
}

func (s *InMemoryStore) CreateList(ctx context.Context, userID int64, name string) (*domain.CustomList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("list name is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.lists {
		if l.UserID == userID && l.Name == name {
			existing := l
			return &existing, nil
		}
	}
	s.nextListID++
	l := domain.CustomList{ID: s.nextListID, UserID: userID, Name: name, CreatedAt: s.now()}
	s.lists[l.ID] = l
	return &l, nil
}

func (s *InMemoryStore) GetList(ctx context.Context, userID int64, listID int64) (*domain.CustomList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lists[listID]
	if !ok || l.UserID != userID {
		return nil, nil
	}
	return &l, nil
}

func (s *InMemoryStore) ListLists(ctx context.Context, userID int64) ([]domain.CustomList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.CustomList
	for _, l := range s.lists {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) DeleteList(ctx context.Context, userID int64, listID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[listID]
	if !ok || l.UserID != userID {
		return false, nil
	}
	delete(s.lists, listID)
	for k := range s.listItems {
		if k.listID == listID {
			delete(s.listItems, k)
		}
	}
	return true, nil
}

func (s *InMemoryStore) AddListItem(ctx context.Context, listID int64, animeID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lists[listID]; !ok {
		return fmt.Errorf("list %d not found", listID)
	}
	k := listItemKey{listID, animeID}
	if _, ok := s.listItems[k]; !ok {
		s.listItems[k] = domain.ListItem{ListID: listID, AnimeID: animeID, AddedAt: s.now()}
	}
	return nil
}

func (s *InMemoryStore) RemoveListItem(ctx context.Context, listID int64, animeID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := listItemKey{listID, animeID}
	if _, ok := s.listItems[k]; !ok {
		return false, nil
	}
	delete(s.listItems, k)
	return true, nil
}

func (s *InMemoryStore) ListItems(ctx context.Context, listID int64) ([]domain.ListItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ListItem
	for k, it := range s.listItems {
		if k.listID == listID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].AnimeID < out[j].AnimeID
	})
	return out, nil
}

func (s *InMemoryStore) GrantAchievement(ctx context.Context, userID int64, kind domain.AchievementKind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := achievementKey{userID, kind}
	if _, ok := s.achievements[k]; ok {
		return false, nil
	}
	s.achievements[k] = domain.Achievement{UserID: userID, Kind: kind, GrantedAt: s.now()}
	return true, nil
}

func (s *InMemoryStore) RevokeAchievement(ctx context.Context, userID int64, kind domain.AchievementKind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := achievementKey{userID, kind}
	if _, ok := s.achievements[k]; !ok {
		return false, nil
	}
	delete(s.achievements, k)
	return true, nil
}

func (s *InMemoryStore) ListAchievements(ctx context.Context, userID int64) ([]domain.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Achievement
	for k, a := range s.achievements {
		if k.userID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].GrantedAt.Equal(out[j].GrantedAt) {
			return out[i].GrantedAt.Before(out[j].GrantedAt)
		}
		return out[i].Kind < out[j].Kind
	})
	return out, nil
}

func (s *InMemoryStore) PutAnime(ctx context.Context, anime *domain.Anime) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := *anime
	if a.CachedAt.IsZero() {
		a.CachedAt = s.now()
	}
	s.anime[a.ID] = a
	return nil
}

func (s *InMemoryStore) GetAnime(ctx context.Context, id int) (*domain.Anime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.anime[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *InMemoryStore) PutCharacter(ctx context.Context, character *domain.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *character
	if c.CachedAt.IsZero() {
		c.CachedAt = s.now()
	}
	s.characters[c.ID] = c
	return nil
}

func (s *InMemoryStore) GetCharacter(ctx context.Context, id int) (*domain.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.characters[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}
