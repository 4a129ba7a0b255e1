package issue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/civic_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/civic_be/internal/geo"
	"github.com/Windi-Fikriyansyah/civic_be/internal/models"
	"github.com/Windi-Fikriyansyah/civic_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/civic_be/internal/repository"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/geocode"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/storage"
)

type IssueStore interface {
	CreateIssue(ctx context.Context, i *models.Issue) error
	GetIssue(ctx context.Context, id uuid.UUID) (*models.Issue, error)
	ListNearbyOpen(ctx context.Context, lat, lng, radiusKm float64) ([]models.Issue, error)
	ListIssuesByReporter(ctx context.Context, userID uuid.UUID) ([]models.Issue, error)
	ListIssueIDsByReporter(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	UpdateIssueStatus(ctx context.Context, id uuid.UUID, status models.IssueStatus) (*models.Issue, error)
}

type RequestStore interface {
	CreateIssueRequest(ctx context.Context, r *models.IssueRequest) error
	GetIssueRequest(ctx context.Context, userID, issueID uuid.UUID) (*models.IssueRequest, error)
	ListRequestsForIssues(ctx context.Context, issueIDs []uuid.UUID) ([]models.IssueRequest, error)
	ListRequesterIDs(ctx context.Context, issueID uuid.UUID) ([]uuid.UUID, error)
}

type IssueService struct {
	issues   IssueStore
	requests RequestStore
	uploader storage.Uploader
	geocoder geocode.Geocoder
	notifier realtime.Notifier
	maxBytes int64
	log      *slog.Logger
}

// NewIssueService wires the issue flow. geocoder and notifier may be nil.
func NewIssueService(
	issues IssueStore,
	requests RequestStore,
	uploader storage.Uploader,
	geocoder geocode.Geocoder,
	notifier realtime.Notifier,
	maxBytes int64,
	log *slog.Logger,
) *IssueService {
	if log == nil {
		log = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = storage.DefaultMaxBytes
	}
	return &IssueService{
		issues:   issues,
		requests: requests,
		uploader: uploader,
		geocoder: geocoder,
		notifier: notifier,
		maxBytes: maxBytes,
		log:      log,
	}
}

var (
	errIssueNotFound = apperr.New(apperr.CodeNotFound, "Issue not found")
	errDuplicate     = apperr.New(apperr.CodeDuplicate, "You have already requested this issue")
)

// ParseID maps malformed ids to not-found.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, errIssueNotFound
	}
	return id, nil
}

type NearbyQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// ParseNearbyQuery validates the raw query-string values of a nearby search.
func ParseNearbyQuery(lat, lng, radius string) (NearbyQuery, error) {
	fields := apperr.FieldErrors{}
	q := NearbyQuery{}

	q.Latitude = parseFloat(fields, "latitude", lat, true)
	q.Longitude = parseFloat(fields, "longitude", lng, true)
	q.RadiusKm = parseFloat(fields, "radius", radius, true)

	if len(fields) == 0 {
		if !geo.ValidPoint(q.Latitude, q.Longitude) {
			fields.Add("latitude", "Coordinates out of range")
		}
		if q.RadiusKm < 0 {
			fields.Add("radius", "Radius must not be negative")
		}
	}
	if len(fields) > 0 {
		return NearbyQuery{}, apperr.Validation("Latitude, longitude, and radius are required", fields)
	}
	return q, nil
}

func (s *IssueService) ListNearby(ctx context.Context, q NearbyQuery) ([]Summary, error) {
	list, err := s.issues.ListNearbyOpen(ctx, q.Latitude, q.Longitude, q.RadiusKm)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make([]Summary, 0, len(list))
	for i := range list {
		out = append(out, toSummary(&list[i]))
	}
	return out, nil
}

// CreateInput carries raw form or JSON values; Create validates them.
type CreateInput struct {
	Title       string
	Description string
	Latitude    string
	Longitude   string
	Category    string
	Budget      string
	Images      []storage.File
}

func (s *IssueService) Create(ctx context.Context, reporter uuid.UUID, in CreateInput) (*View, error) {
	fields := apperr.FieldErrors{}
	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	if title == "" {
		fields.Add("title", "Title is required")
	}
	if desc == "" {
		fields.Add("description", "Description is required")
	}
	lat := parseFloat(fields, "latitude", in.Latitude, true)
	lng := parseFloat(fields, "longitude", in.Longitude, true)
	if len(fields["latitude"]) == 0 && len(fields["longitude"]) == 0 && !geo.ValidPoint(lat, lng) {
		fields.Add("latitude", "Coordinates out of range")
	}

	category := models.CategoryOther
	if c := strings.TrimSpace(in.Category); c != "" {
		category = models.IssueCategory(c)
		if !category.Valid() {
			fields.Add("category", "Category must be one of Electronics, Electrical, Plumbing, Other")
		}
	}

	budget := parseFloat(fields, "budget", in.Budget, false)
	if budget < 0 {
		fields.Add("budget", "Budget must not be negative")
	}

	if len(fields) > 0 {
		return nil, apperr.Validation("Title, description, latitude, and longitude are required", fields)
	}

	if len(in.Images) > models.MaxIssueImages {
		return nil, apperr.New(apperr.CodeTooManyFiles, fmt.Sprintf("At most %d images are allowed", models.MaxIssueImages))
	}
	uploads := make([]storage.Upload, 0, len(in.Images))
	for _, f := range in.Images {
		if err := storage.Validate(f, storage.KindImage, s.maxBytes); err != nil {
			fe := apperr.FieldErrors{}
			fe.Add("images", err.Error())
			return nil, apperr.Validation("Invalid image file", fe)
		}
		uploads = append(uploads, storage.Upload{
			File:   f,
			Bucket: storage.BucketIssueImages,
			Path:   fmt.Sprintf("issues/%s/%d-%s%s", reporter, time.Now().UnixNano(), uuid.NewString(), f.Ext()),
		})
	}

	stored, err := storage.PutAll(ctx, s.uploader, s.log, uploads)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUploadFailed, "Error uploading images", err)
	}

	i := &models.Issue{
		Title:       title,
		Description: desc,
		Images:      storage.URLs(stored),
		Category:    category,
		Status:      models.StatusOpen,
		Latitude:    lat,
		Longitude:   lng,
		ReportedBy:  reporter,
		Budget:      budget,
	}
	if err := s.issues.CreateIssue(ctx, i); err != nil {
		storage.Discard(ctx, s.uploader, s.log, stored)
		return nil, apperr.Internal(err)
	}

	v := toView(i)
	return &v, nil
}

// Detail returns the issue with its reporter's name. When a geocoder is
// configured and finds an address, the address replaces the raw location.
func (s *IssueService) Detail(ctx context.Context, rawID string) (*View, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	i, err := s.getIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	v := toView(i)
	v.Reporter = nameOnly(i.Reporter)

	if s.geocoder != nil {
		addr, err := s.geocoder.Reverse(ctx, i.Latitude, i.Longitude)
		switch {
		case errors.Is(err, geocode.ErrNoAddress):
		case err != nil:
			return nil, apperr.Wrap(apperr.CodeUpstream, "Failed to fetch issue details", err)
		default:
			v.Address = addr
			v.Location = nil
		}
	}
	return &v, nil
}

// Request records the caller's interest in an issue and notifies its reporter.
func (s *IssueService) Request(ctx context.Context, userID uuid.UUID, rawID string) (*RequestView, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	i, err := s.getIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.requests.GetIssueRequest(ctx, userID, id); err == nil {
		return nil, errDuplicate
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	r := &models.IssueRequest{UserID: userID, IssueID: id}
	if err := s.requests.CreateIssueRequest(ctx, r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errDuplicate
		}
		return nil, apperr.Internal(err)
	}

	if i.ReportedBy != userID {
		s.notify(ctx, i.ReportedBy, realtime.NewEvent(realtime.EventIssueRequested, map[string]any{
			"issueId":   i.ID,
			"title":     i.Title,
			"requestId": r.ID,
			"userId":    userID,
		}))
	}

	v := RequestView{ID: r.ID, IssueID: r.IssueID, UserID: r.UserID, CreatedAt: r.CreatedAt}
	return &v, nil
}

// MyIssues lists the caller's issues with reporter contact details.
func (s *IssueService) MyIssues(ctx context.Context, userID uuid.UUID) ([]View, error) {
	list, err := s.issues.ListIssuesByReporter(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make([]View, 0, len(list))
	for idx := range list {
		v := toView(&list[idx])
		v.Reporter = fullContact(list[idx].Reporter)
		out = append(out, v)
	}
	return out, nil
}

// RequestsOnMyIssues looks up the caller's issue ids, then every request on them.
func (s *IssueService) RequestsOnMyIssues(ctx context.Context, userID uuid.UUID) ([]RequestView, error) {
	ids, err := s.issues.ListIssueIDsByReporter(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return s.listRequests(ctx, ids)
}

// RequestsOnIssue lists requests on one issue owned by the caller.
func (s *IssueService) RequestsOnIssue(ctx context.Context, userID uuid.UUID, rawID string) ([]RequestView, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	i, err := s.getIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if i.ReportedBy != userID {
		return nil, apperr.New(apperr.CodeForbidden, "You are not authorized to view requests for this issue")
	}
	return s.listRequests(ctx, []uuid.UUID{id})
}

// UpdateStatus checks the status value, then existence, then ownership.
// Any of the three statuses may follow any other.
func (s *IssueService) UpdateStatus(ctx context.Context, userID uuid.UUID, rawID, status string) (*StatusResult, error) {
	st := models.IssueStatus(status)
	if !st.Valid() {
		return nil, apperr.New(apperr.CodeInvalidStatus, "Invalid status value")
	}
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	i, err := s.getIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if i.ReportedBy != userID {
		return nil, apperr.New(apperr.CodeForbidden, "You are not authorized to update this issue")
	}

	updated, err := s.issues.UpdateIssueStatus(ctx, id, st)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errIssueNotFound
		}
		return nil, apperr.Internal(err)
	}

	requesters, err := s.requests.ListRequesterIDs(ctx, id)
	if err != nil {
		s.log.Warn("issue: list requesters for notification", "issue_id", id, "error", err)
	}
	ev := realtime.NewEvent(realtime.EventIssueStatusUpdated, map[string]any{
		"issueId": updated.ID,
		"title":   updated.Title,
		"status":  updated.Status,
	})
	for _, uid := range requesters {
		if uid != userID {
			s.notify(ctx, uid, ev)
		}
	}

	return &StatusResult{
		ID:        updated.ID,
		Title:     updated.Title,
		Status:    updated.Status,
		UpdatedAt: updated.UpdatedAt,
	}, nil
}

func (s *IssueService) getIssue(ctx context.Context, id uuid.UUID) (*models.Issue, error) {
	i, err := s.issues.GetIssue(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errIssueNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return i, nil
}

func (s *IssueService) listRequests(ctx context.Context, ids []uuid.UUID) ([]RequestView, error) {
	list, err := s.requests.ListRequestsForIssues(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make([]RequestView, 0, len(list))
	for i := range list {
		out = append(out, toRequestView(&list[i]))
	}
	return out, nil
}

// notify is best effort: failures are logged, never returned.
func (s *IssueService) notify(ctx context.Context, userID uuid.UUID, ev realtime.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, ev); err != nil {
		s.log.Warn("issue: notification failed", "type", ev.Type, "user_id", userID, "error", err)
	}
}

// parseFloat records a field error and returns 0 when raw is missing or malformed.
func parseFloat(fields apperr.FieldErrors, name, raw string, required bool) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			fields.Add(name, strings.ToUpper(name[:1])+name[1:]+" is required")
		}
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		fields.Add(name, strings.ToUpper(name[:1])+name[1:]+" must be a number")
		return 0
	}
	return v
}
