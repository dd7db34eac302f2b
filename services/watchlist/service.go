package watchlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"cinelog/models"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrUserIDRequired     = errors.New("user id is required")
	ErrMovieIDRequired    = errors.New("movie id is required")
)

// Service manages persistence and retrieval of user watchlist entries.
// Membership is a set per user: adding the same movie twice refreshes its
// display fields but never duplicates the entry.
type Service struct {
	mu    sync.RWMutex
	path  string
	items map[string]map[int64]models.WatchlistItem
}

// NewService creates a watchlist service storing data inside the provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create watchlist dir: %w", err)
	}

	svc := &Service{
		path:  filepath.Join(storageDir, "watchlist.json"),
		items: make(map[string]map[int64]models.WatchlistItem),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// List returns all watchlist entries sorted by most recent additions first.
func (s *Service) List(userID string) ([]models.WatchlistItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.WatchlistItem, 0)
	if perUser, ok := s.items[userID]; ok {
		items = make([]models.WatchlistItem, 0, len(perUser))
		for _, item := range perUser {
			items = append(items, item)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].MovieID < items[j].MovieID
		}
		return items[i].AddedAt.After(items[j].AddedAt)
	})

	return items, nil
}

// Contains reports whether the movie is on the user's watchlist.
func (s *Service) Contains(userID string, movieID int64) bool {
	userID = strings.TrimSpace(userID)
	if userID == "" || movieID <= 0 {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	perUser, ok := s.items[userID]
	if !ok {
		return false
	}
	_, ok = perUser[movieID]
	return ok
}

// Add inserts a new entry or refreshes display fields of an existing one.
// The original AddedAt is kept on re-add.
func (s *Service) Add(userID string, input models.WatchlistUpsert) (models.WatchlistItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.WatchlistItem{}, ErrUserIDRequired
	}
	if input.MovieID <= 0 {
		return models.WatchlistItem{}, ErrMovieIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perUser := s.ensureUserLocked(userID)

	item, exists := perUser[input.MovieID]
	if !exists {
		item = models.WatchlistItem{
			MovieID: input.MovieID,
			AddedAt: time.Now().UTC(),
		}
	}

	if strings.TrimSpace(input.Title) != "" {
		item.Title = input.Title
	}
	if input.Overview != "" {
		item.Overview = input.Overview
	}
	if input.Year != 0 {
		item.Year = input.Year
	}
	if strings.TrimSpace(input.PosterURL) != "" {
		item.PosterURL = input.PosterURL
	}
	if strings.TrimSpace(input.BackdropURL) != "" {
		item.BackdropURL = input.BackdropURL
	}
	if strings.TrimSpace(input.ReleaseDate) != "" {
		item.ReleaseDate = input.ReleaseDate
	}

	perUser[input.MovieID] = item

	if err := s.saveLocked(); err != nil {
		return models.WatchlistItem{}, err
	}

	return item, nil
}

// Remove deletes an entry from the watchlist and reports whether it existed.
func (s *Service) Remove(userID string, movieID int64) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrUserIDRequired
	}
	if movieID <= 0 {
		return false, ErrMovieIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perUser := s.ensureUserLocked(userID)

	if _, exists := perUser[movieID]; !exists {
		return false, nil
	}

	delete(perUser, movieID)

	if err := s.saveLocked(); err != nil {
		return false, err
	}

	return true, nil
}

// RemoveIfPresent drops the entry without reporting absence. The rating store
// calls this when a movie transitions to watched.
func (s *Service) RemoveIfPresent(userID string, movieID int64) error {
	_, err := s.Remove(userID, movieID)
	if errors.Is(err, ErrMovieIDRequired) {
		return nil
	}
	return err
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.items = make(map[string]map[int64]models.WatchlistItem)
		return nil
	}
	if err != nil {
		return fmt.Errorf("open watchlist: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read watchlist: %w", err)
	}
	if len(data) == 0 {
		s.items = make(map[string]map[int64]models.WatchlistItem)
		return nil
	}

	var byUser map[string][]models.WatchlistItem
	if err := json.Unmarshal(data, &byUser); err != nil {
		return fmt.Errorf("decode watchlist: %w", err)
	}

	s.items = make(map[string]map[int64]models.WatchlistItem, len(byUser))
	for userID, items := range byUser {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		perUser := make(map[int64]models.WatchlistItem, len(items))
		for _, item := range items {
			if item.MovieID <= 0 {
				continue
			}
			if item.AddedAt.IsZero() {
				item.AddedAt = time.Now().UTC()
			}
			perUser[item.MovieID] = item
		}
		s.items[userID] = perUser
	}

	return nil
}

func (s *Service) saveLocked() error {
	byUser := make(map[string][]models.WatchlistItem, len(s.items))
	for userID, collection := range s.items {
		items := make([]models.WatchlistItem, 0, len(collection))
		for _, item := range collection {
			items = append(items, item)
		}

		sort.Slice(items, func(i, j int) bool {
			if items[i].AddedAt.Equal(items[j].AddedAt) {
				return items[i].MovieID < items[j].MovieID
			}
			return items[i].AddedAt.Before(items[j].AddedAt)
		})

		byUser[userID] = items
	}

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create watchlist temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(byUser); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode watchlist: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync watchlist: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close watchlist temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace watchlist file: %w", err)
	}

	return nil
}

func (s *Service) ensureUserLocked(userID string) map[int64]models.WatchlistItem {
	perUser, ok := s.items[userID]
	if !ok {
		perUser = make(map[int64]models.WatchlistItem)
		s.items[userID] = perUser
	}
	return perUser
}
