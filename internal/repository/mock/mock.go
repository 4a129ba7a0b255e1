// Package mock provides in-memory doubles for the repositories and the
// external collaborators (blob storage, geocoder, notifier).
package mock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Windi-Fikriyansyah/civic_be/internal/geo"
	"github.com/Windi-Fikriyansyah/civic_be/internal/models"
	"github.com/Windi-Fikriyansyah/civic_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/civic_be/internal/repository"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/storage"
)

// Store is a thread-safe in-memory implementation of every repository.
// Set the *Err fields to force failures.
type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]models.User
	pros     map[uuid.UUID]models.ProUser // keyed by user id
	issues   map[uuid.UUID]models.Issue
	requests map[uuid.UUID]models.IssueRequest

	CreateUserErr  error
	CreateIssueErr error
}

func NewStore() *Store {
	return &Store{
		users:    map[uuid.UUID]models.User{},
		pros:     map[uuid.UUID]models.ProUser{},
		issues:   map[uuid.UUID]models.Issue{},
		requests: map[uuid.UUID]models.IssueRequest{},
	}
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateUserErr != nil {
		return s.CreateUserErr
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: users.email", repository.ErrDuplicate)
		}
	}
	_ = u.BeforeCreate(nil)
	stamp(&u.CreatedAt, &u.UpdatedAt)
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) UpdateUserFields(ctx context.Context, id uuid.UUID, patch repository.UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.PhoneNumber != nil {
		u.PhoneNumber = *patch.PhoneNumber
	}
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return &u, nil
}

// pro users

func (s *Store) CreateProProfile(ctx context.Context, p *models.ProUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[p.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	if _, exists := s.pros[p.UserID]; exists {
		return fmt.Errorf("%w: pro_users.user_id", repository.ErrDuplicate)
	}
	_ = p.BeforeCreate(nil)
	stamp(&p.CreatedAt, &p.UpdatedAt)
	s.pros[p.UserID] = *p
	u.IsPro = true
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetProUserByUserID(ctx context.Context, userID uuid.UUID) (*models.ProUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pros[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *Store) UpdateProUser(ctx context.Context, userID uuid.UUID, patch repository.ProUserPatch) (*models.ProUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pros[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Occupation != nil {
		p.Occupation = *patch.Occupation
	}
	if patch.Skill != nil {
		p.Skill = datatypes.JSONSlice[string](patch.Skill)
	}
	if patch.Degree != nil {
		p.Degree = *patch.Degree
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	p.UpdatedAt = time.Now().UTC()
	s.pros[userID] = p
	return &p, nil
}

// issues

func (s *Store) CreateIssue(ctx context.Context, i *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateIssueErr != nil {
		return s.CreateIssueErr
	}
	if i.Budget < 0 {
		return errors.New("violates check constraint chk_issues_budget")
	}
	_ = i.BeforeCreate(nil)
	stamp(&i.CreatedAt, &i.UpdatedAt)
	s.issues[i.ID] = *i
	return nil
}

// withReporter must be called with s.mu held.
func (s *Store) withReporter(i models.Issue) models.Issue {
	if u, ok := s.users[i.ReportedBy]; ok {
		i.Reporter = &u
	}
	return i
}

func (s *Store) GetIssue(ctx context.Context, id uuid.UUID) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	i = s.withReporter(i)
	return &i, nil
}

func (s *Store) ListNearbyOpen(ctx context.Context, lat, lng, radiusKm float64) ([]models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Issue{}
	for _, i := range s.issues {
		if i.Status != models.StatusOpen {
			continue
		}
		if geo.WithinCap(lat, lng, radiusKm, i.Latitude, i.Longitude) {
			out = append(out, i)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) ListIssuesByReporter(ctx context.Context, userID uuid.UUID) ([]models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Issue{}
	for _, i := range s.issues {
		if i.ReportedBy == userID {
			out = append(out, s.withReporter(i))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) ListIssueIDsByReporter(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for _, i := range s.issues {
		if i.ReportedBy == userID {
			ids = append(ids, i.ID)
		}
	}
	return ids, nil
}

func (s *Store) UpdateIssueStatus(ctx context.Context, id uuid.UUID, status models.IssueStatus) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	i.Status = status
	i.UpdatedAt = time.Now().UTC()
	s.issues[id] = i
	return &i, nil
}

// issue requests

func (s *Store) CreateIssueRequest(ctx context.Context, r *models.IssueRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.UserID == r.UserID && existing.IssueID == r.IssueID {
			return fmt.Errorf("%w: issue_requests(user_id, issue_id)", repository.ErrDuplicate)
		}
	}
	_ = r.BeforeCreate(nil)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.requests[r.ID] = *r
	return nil
}

func (s *Store) GetIssueRequest(ctx context.Context, userID, issueID uuid.UUID) (*models.IssueRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.UserID == userID && r.IssueID == issueID {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) ListRequestsForIssues(ctx context.Context, issueIDs []uuid.UUID) ([]models.IssueRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(issueIDs))
	for _, id := range issueIDs {
		want[id] = true
	}
	out := []models.IssueRequest{}
	for _, r := range s.requests {
		if !want[r.IssueID] {
			continue
		}
		if u, ok := s.users[r.UserID]; ok {
			r.User = &u
		}
		if i, ok := s.issues[r.IssueID]; ok {
			r.Issue = &i
		}
		out = append(out, r)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (s *Store) ListRequesterIDs(ctx context.Context, issueID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for _, r := range s.requests {
		if r.IssueID == issueID {
			ids = append(ids, r.UserID)
		}
	}
	return ids, nil
}

func sortNewestFirst(issues []models.Issue) {
	sort.Slice(issues, func(a, b int) bool { return issues[a].CreatedAt.After(issues[b].CreatedAt) })
}

// Uploader records uploads. FailOn makes the n-th upload (1-based) fail.
type Uploader struct {
	mu       sync.Mutex
	FailOn   int
	calls    int
	Uploaded []storage.Object
	Removed  []string
}

func (u *Uploader) Upload(ctx context.Context, obj storage.Object) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.FailOn > 0 && u.calls == u.FailOn {
		return "", errors.New("upload failed")
	}
	u.Uploaded = append(u.Uploaded, storage.Object{Bucket: obj.Bucket, Path: obj.Path, ContentType: obj.ContentType, Size: obj.Size})
	return "https://storage.test/" + obj.Bucket + "/" + obj.Path, nil
}

func (u *Uploader) Remove(ctx context.Context, bucket string, paths ...string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, p := range paths {
		u.Removed = append(u.Removed, bucket+"/"+p)
	}
	return nil
}

// Geocoder returns Address, or Err when set.
type Geocoder struct {
	Address string
	Err     error
}

func (g Geocoder) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	if g.Err != nil {
		return "", g.Err
	}
	return g.Address, nil
}

type Notification struct {
	UserID uuid.UUID
	Event  realtime.Event
}

// Notifier records notifications; Err makes every call fail.
type Notifier struct {
	mu   sync.Mutex
	Err  error
	sent []Notification
}

func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, ev realtime.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.sent = append(n.sent, Notification{UserID: userID, Event: ev})
	return nil
}

func (n *Notifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}
