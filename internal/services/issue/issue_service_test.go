package issue

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/civic_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/civic_be/internal/models"
	"github.com/Windi-Fikriyansyah/civic_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/civic_be/internal/repository/mock"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/geocode"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/storage"
)

type fixture struct {
	store    *mock.Store
	uploader *mock.Uploader
	notifier *mock.Notifier
	svc      *IssueService
	reporter *models.User
	other    *models.User
}

func newFixture(t *testing.T, gc geocode.Geocoder) *fixture {
	t.Helper()
	store := mock.NewStore()
	f := &fixture{store: store, uploader: &mock.Uploader{}, notifier: &mock.Notifier{}}
	f.svc = NewIssueService(store, store, f.uploader, gc, f.notifier, 1<<20, nil)

	f.reporter = &models.User{Name: "Reporter", Email: "rep@example.com", PhoneNumber: "0811", Password: "x"}
	f.other = &models.User{Name: "Helper", Email: "help@example.com", PhoneNumber: "0822", Password: "x"}
	for _, u := range []*models.User{f.reporter, f.other} {
		if err := store.CreateUser(context.Background(), u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}
	return f
}

func img(name string) storage.File {
	b := []byte("img")
	return storage.File{
		Filename: name,
		Size:     int64(len(b)),
		Open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(b)), nil },
	}
}

func pothole() CreateInput {
	return CreateInput{Title: "Pothole", Description: "Large pothole", Latitude: "12.97", Longitude: "77.59"}
}

func TestCreate_Defaults(t *testing.T) {
	f := newFixture(t, nil)
	v, err := f.svc.Create(context.Background(), f.reporter.ID, pothole())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v.Status != models.StatusOpen || v.Category != models.CategoryOther {
		t.Fatalf("unexpected defaults: status=%q category=%q", v.Status, v.Category)
	}
	if v.Images == nil || len(v.Images) != 0 {
		t.Fatalf("expected empty images slice, got %#v", v.Images)
	}
	if v.Location == nil || v.Location.Coordinates != [2]float64{77.59, 12.97} {
		t.Fatalf("unexpected location: %+v", v.Location)
	}
	if v.ReportedBy != f.reporter.ID || v.Budget != 0 {
		t.Fatalf("unexpected reporter/budget: %+v", v)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t, nil)
	tests := []struct {
		name   string
		mutate func(in *CreateInput)
		field  string
	}{
		{"missing title", func(in *CreateInput) { in.Title = " " }, "title"},
		{"missing latitude", func(in *CreateInput) { in.Latitude = "" }, "latitude"},
		{"bad longitude", func(in *CreateInput) { in.Longitude = "east" }, "longitude"},
		{"out of range", func(in *CreateInput) { in.Latitude = "123" }, "latitude"},
		{"unknown category", func(in *CreateInput) { in.Category = "Roads" }, "category"},
		{"negative budget", func(in *CreateInput) { in.Budget = "-5" }, "budget"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := pothole()
			tt.mutate(&in)
			_, err := f.svc.Create(context.Background(), f.reporter.ID, in)
			e := apperr.As(err)
			if e.Code != apperr.CodeValidation {
				t.Fatalf("expected VALIDATION_FAILED, got %v", err)
			}
			fields := e.Details["fields"].(apperr.FieldErrors)
			if len(fields[tt.field]) == 0 {
				t.Fatalf("expected error on %s, got %v", tt.field, fields)
			}
		})
	}
}

func TestCreate_Images(t *testing.T) {
	f := newFixture(t, nil)
	in := pothole()
	in.Category = "Plumbing"
	in.Budget = "150.5"
	in.Images = []storage.File{img("a.jpg"), img("b.webp")}

	v, err := f.svc.Create(context.Background(), f.reporter.ID, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(v.Images) != 2 || v.Category != models.CategoryPlumbing || v.Budget != 150.5 {
		t.Fatalf("unexpected issue: %+v", v)
	}
	prefix := "issue-images/issues/" + f.reporter.ID.String() + "/"
	for _, u := range v.Images {
		if !strings.Contains(u, prefix) {
			t.Fatalf("image %q not under %q", u, prefix)
		}
	}
}

func TestCreate_TooManyImages(t *testing.T) {
	f := newFixture(t, nil)
	in := pothole()
	for i := 0; i < models.MaxIssueImages+1; i++ {
		in.Images = append(in.Images, img("x.png"))
	}
	_, err := f.svc.Create(context.Background(), f.reporter.ID, in)
	if apperr.CodeOf(err) != apperr.CodeTooManyFiles {
		t.Fatalf("expected TOO_MANY_FILES, got %v", err)
	}
}

func TestCreate_PartialUploadFailureCleansUp(t *testing.T) {
	f := newFixture(t, nil)
	f.uploader.FailOn = 3
	in := pothole()
	in.Images = []storage.File{img("1.png"), img("2.png"), img("3.png")}

	_, err := f.svc.Create(context.Background(), f.reporter.ID, in)
	if apperr.CodeOf(err) != apperr.CodeUploadFailed {
		t.Fatalf("expected UPLOAD_FAILED, got %v", err)
	}
	if len(f.uploader.Removed) != 2 {
		t.Fatalf("expected the two stored images removed, got %v", f.uploader.Removed)
	}
	mine, _ := f.svc.MyIssues(context.Background(), f.reporter.ID)
	if len(mine) != 0 {
		t.Fatalf("no issue should be persisted")
	}
}

func TestListNearby(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	v, err := f.svc.Create(ctx, f.reporter.ID, pothole())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	q, err := ParseNearbyQuery("12.98", "77.60", "5")
	if err != nil {
		t.Fatalf("ParseNearbyQuery: %v", err)
	}
	got, err := f.svc.ListNearby(ctx, q)
	if err != nil || len(got) != 1 || got[0].ID != v.ID {
		t.Fatalf("expected the issue inside 5 km, got %v %v", got, err)
	}

	q.RadiusKm = 0.5
	got, _ = f.svc.ListNearby(ctx, q)
	if len(got) != 0 {
		t.Fatalf("expected no issue inside 0.5 km, got %d", len(got))
	}

	// resolved issues drop out of the search
	if _, err := f.svc.UpdateStatus(ctx, f.reporter.ID, v.ID.String(), "resolved"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	q.RadiusKm = 5
	got, _ = f.svc.ListNearby(ctx, q)
	if len(got) != 0 {
		t.Fatalf("resolved issue should not be listed")
	}
}

func TestParseNearbyQuery(t *testing.T) {
	cases := [][3]string{
		{"", "77.6", "5"},
		{"12.9", "", "5"},
		{"12.9", "77.6", ""},
		{"abc", "77.6", "5"},
		{"12.9", "77.6", "-1"},
	}
	for _, c := range cases {
		if _, err := ParseNearbyQuery(c[0], c[1], c[2]); apperr.CodeOf(err) != apperr.CodeValidation {
			t.Errorf("%v: expected VALIDATION_FAILED, got %v", c, err)
		}
	}
}

func TestDetail(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, mock.Geocoder{Address: "MG Road, Bengaluru"})
	v, _ := f.svc.Create(ctx, f.reporter.ID, pothole())

	d, err := f.svc.Detail(ctx, v.ID.String())
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if d.Address != "MG Road, Bengaluru" || d.Location != nil {
		t.Fatalf("expected address instead of location: %+v", d)
	}
	if d.Reporter == nil || d.Reporter.Name != "Reporter" || d.Reporter.Email != "" {
		t.Fatalf("expected reporter name only: %+v", d.Reporter)
	}

	if _, err := f.svc.Detail(ctx, uuid.NewString()); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if _, err := f.svc.Detail(ctx, "not-a-uuid"); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for malformed id, got %v", err)
	}

	failing := newFixture(t, mock.Geocoder{Err: errors.New("timeout")})
	v2, _ := failing.svc.Create(ctx, failing.reporter.ID, pothole())
	if _, err := failing.svc.Detail(ctx, v2.ID.String()); apperr.CodeOf(err) != apperr.CodeUpstream {
		t.Fatalf("expected UPSTREAM_FAILED, got %v", err)
	}

	remote := newFixture(t, mock.Geocoder{Err: geocode.ErrNoAddress})
	v4, _ := remote.svc.Create(ctx, remote.reporter.ID, pothole())
	d4, err := remote.svc.Detail(ctx, v4.ID.String())
	if err != nil {
		t.Fatalf("no address must not fail Detail: %v", err)
	}
	if d4.Address != "" || d4.Location == nil {
		t.Fatalf("expected raw location when no address is found: %+v", d4)
	}

	plain := newFixture(t, nil)
	v3, _ := plain.svc.Create(ctx, plain.reporter.ID, pothole())
	d3, err := plain.svc.Detail(ctx, v3.ID.String())
	if err != nil || d3.Location == nil || d3.Address != "" {
		t.Fatalf("without geocoder the location stays: %+v %v", d3, err)
	}
}

func TestRequest(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	v, _ := f.svc.Create(ctx, f.reporter.ID, pothole())

	r, err := f.svc.Request(ctx, f.other.ID, v.ID.String())
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if r.IssueID != v.ID || r.UserID != f.other.ID {
		t.Fatalf("unexpected request: %+v", r)
	}

	if _, err := f.svc.Request(ctx, f.other.ID, v.ID.String()); apperr.CodeOf(err) != apperr.CodeDuplicate {
		t.Fatalf("expected DUPLICATE_REQUEST, got %v", err)
	}
	if _, err := f.svc.Request(ctx, f.reporter.ID, v.ID.String()); err != nil {
		t.Fatalf("a second user should be able to request: %v", err)
	}
	if _, err := f.svc.Request(ctx, f.other.ID, uuid.NewString()); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	sent := f.notifier.Sent()
	if len(sent) != 1 || sent[0].UserID != f.reporter.ID || sent[0].Event.Type != realtime.EventIssueRequested {
		t.Fatalf("expected one notification to the reporter, got %+v", sent)
	}
}

func TestRequest_NotificationFailureIsIgnored(t *testing.T) {
	f := newFixture(t, nil)
	f.notifier.Err = errors.New("redis down")
	ctx := context.Background()
	v, _ := f.svc.Create(ctx, f.reporter.ID, pothole())

	if _, err := f.svc.Request(ctx, f.other.ID, v.ID.String()); err != nil {
		t.Fatalf("notification failure must not fail the request: %v", err)
	}
}

func TestRequestsOnMyIssues(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	v, _ := f.svc.Create(ctx, f.reporter.ID, pothole())
	if _, err := f.svc.Request(ctx, f.other.ID, v.ID.String()); err != nil {
		t.Fatalf("Request: %v", err)
	}

	all, err := f.svc.RequestsOnMyIssues(ctx, f.reporter.ID)
	if err != nil || len(all) != 1 {
		t.Fatalf("RequestsOnMyIssues: %v %v", all, err)
	}
	if all[0].Requester == nil || all[0].Requester.Email != "help@example.com" || all[0].Issue == nil || all[0].Issue.Title != "Pothole" {
		t.Fatalf("expected requester and issue joined: %+v", all[0])
	}

	none, err := f.svc.RequestsOnMyIssues(ctx, f.other.ID)
	if err != nil || len(none) != 0 {
		t.Fatalf("helper owns no issues: %v %v", none, err)
	}

	one, err := f.svc.RequestsOnIssue(ctx, f.reporter.ID, v.ID.String())
	if err != nil || len(one) != 1 {
		t.Fatalf("RequestsOnIssue: %v %v", one, err)
	}
	if _, err := f.svc.RequestsOnIssue(ctx, f.other.ID, v.ID.String()); apperr.CodeOf(err) != apperr.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestMyIssues(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, f.reporter.ID, pothole()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	mine, err := f.svc.MyIssues(ctx, f.reporter.ID)
	if err != nil || len(mine) != 1 {
		t.Fatalf("MyIssues: %v %v", mine, err)
	}
	if mine[0].Reporter == nil || mine[0].Reporter.PhoneNumber != "0811" {
		t.Fatalf("expected reporter contact details: %+v", mine[0].Reporter)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	v, _ := f.svc.Create(ctx, f.reporter.ID, pothole())
	if _, err := f.svc.Request(ctx, f.other.ID, v.ID.String()); err != nil {
		t.Fatalf("Request: %v", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, f.other.ID, v.ID.String(), "resolved"); apperr.CodeOf(err) != apperr.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.reporter.ID, v.ID.String(), "closed"); apperr.CodeOf(err) != apperr.CodeInvalidStatus {
		t.Fatalf("expected INVALID_STATUS, got %v", err)
	}
	// invalid status is reported before a missing issue
	if _, err := f.svc.UpdateStatus(ctx, f.reporter.ID, uuid.NewString(), "closed"); apperr.CodeOf(err) != apperr.CodeInvalidStatus {
		t.Fatalf("expected INVALID_STATUS first, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.reporter.ID, uuid.NewString(), "resolved"); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	d, _ := f.svc.Detail(ctx, v.ID.String())
	if d.Status != models.StatusOpen {
		t.Fatalf("rejected updates must not change status, got %q", d.Status)
	}

	res, err := f.svc.UpdateStatus(ctx, f.reporter.ID, v.ID.String(), "in progress")
	if err != nil || res.Status != models.StatusInProgress {
		t.Fatalf("UpdateStatus: %+v %v", res, err)
	}
	// backwards transitions are allowed
	if _, err := f.svc.UpdateStatus(ctx, f.reporter.ID, v.ID.String(), "open"); err != nil {
		t.Fatalf("UpdateStatus back to open: %v", err)
	}

	var statusEvents int
	for _, n := range f.notifier.Sent() {
		if n.Event.Type == realtime.EventIssueStatusUpdated {
			if n.UserID != f.other.ID {
				t.Fatalf("status event sent to %s, want requester", n.UserID)
			}
			statusEvents++
		}
	}
	if statusEvents != 2 {
		t.Fatalf("expected two status notifications, got %d", statusEvents)
	}
}
