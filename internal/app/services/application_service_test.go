package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/admissions/portal/internal/app/auth"
	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/pkg/apperrors"
	"github.com/admissions/portal/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lifecycleFixture struct {
	apps     *fakeApplicationStore
	docs     *fakeDocumentStore
	users    *fakeUserStore
	profiles *fakeProfileStore
	catalog  *fakeCatalogStore
	storage  *fakeStorage
	notifier *recordingNotifier
	metrics  *metrics.Metrics

	student    auth.Actor
	other      auth.Actor
	admin      auth.Actor
	counsellor auth.Actor
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	f := &lifecycleFixture{
		apps:     newFakeApplicationStore(),
		users:    newFakeUserStore(),
		profiles: newFakeProfileStore(),
		catalog:  newFakeCatalogStore(),
		storage:  newFakeStorage(),
		notifier: &recordingNotifier{},
		metrics:  metrics.New(),
	}
	f.docs = newFakeDocumentStore(f.apps)

	student := f.users.add(&models.User{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", RoleType: models.RoleStudent, IsActive: true})
	other := f.users.add(&models.User{Email: "bob@example.com", FirstName: "Bob", RoleType: models.RoleStudent, IsActive: true})
	admin := f.users.add(&models.User{Email: "admin@example.com", RoleType: models.RoleAdmin, IsActive: true})
	counsellor := f.users.add(&models.User{Email: "coun@example.com", RoleType: models.RoleCounsellor, IsActive: true})

	f.student = auth.Actor{UserID: student.ID, Role: models.RoleStudent}
	f.other = auth.Actor{UserID: other.ID, Role: models.RoleStudent}
	f.admin = auth.Actor{UserID: admin.ID, Role: models.RoleAdmin}
	f.counsellor = auth.Actor{UserID: counsellor.ID, Role: models.RoleCounsellor}
	return f
}

func (f *lifecycleFixture) service(score int) ApplicationService {
	return NewApplicationService(ApplicationServiceDeps{
		Applications: f.apps,
		Catalog:      f.catalog,
		Profiles:     f.profiles,
		Users:        f.users,
		Scorer:       stubScorer{score: score, threshold: 80, missing: []string{"passportNumber"}},
		Notifier:     f.notifier,
		Metrics:      f.metrics,
		Logger:       zerolog.Nop(),
	})
}

func (f *lifecycleFixture) documents() DocumentService {
	return NewDocumentService(f.apps, f.docs, f.storage, DocumentServiceConfig{MaxUploadBytes: 10 << 20, URLTTL: 15 * time.Minute}, f.metrics, zerolog.Nop())
}

// withStatus stores an application of the student directly in status s
func (f *lifecycleFixture) withStatus(s models.ApplicationStatus) *models.Application {
	return f.apps.put(&models.Application{StudentID: f.student.UserID, CourseID: 10, Status: s})
}

func TestCreateDraft(t *testing.T) {
	f := newLifecycleFixture(t)
	svc := f.service(100)
	ctx := context.Background()

	app, created, err := svc.CreateDraft(ctx, f.student, 10)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.StatusDraft, app.Status)
	assert.Equal(t, f.student.UserID, app.StudentID)
	assert.Nil(t, app.SubmittedAt)

	again, created, err := svc.CreateDraft(ctx, f.student, 10)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, app.ID, again.ID)
}

func TestCreateDraft_PrefillsFromProfile(t *testing.T) {
	f := newLifecycleFixture(t)
	require.NoError(t, f.profiles.Upsert(context.Background(), &models.StudentProfile{
		UserID: f.student.UserID, Nationality: "British", City: "London",
	}))

	app, _, err := f.service(100).CreateDraft(context.Background(), f.student, 10)
	require.NoError(t, err)
	assert.Equal(t, "British", app.Nationality)
	assert.Equal(t, "London", app.City)
}

func TestCreateDraft_Rejections(t *testing.T) {
	f := newLifecycleFixture(t)
	svc := f.service(100)
	ctx := context.Background()

	_, _, err := svc.CreateDraft(ctx, f.admin, 10)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, _, err = svc.CreateDraft(ctx, f.student, 999)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	_, _, err = svc.CreateDraft(ctx, f.student, 11)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	f.withStatus(models.StatusSubmitted)
	_, _, err = svc.CreateDraft(ctx, f.student, 10)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestUpdateDraft(t *testing.T) {
	f := newLifecycleFixture(t)
	svc := f.service(100)
	ctx := context.Background()
	app := f.withStatus(models.StatusDraft)

	statement := strings.Repeat("I want to study here. ", 6)
	dob := "2004-05-17"
	updated, err := svc.UpdateDraft(ctx, f.student, app.ID, &dto.UpdateApplicationRequest{
		PersonalStatement: &statement,
		DateOfBirth:       &dob,
	})
	require.NoError(t, err)
	assert.Equal(t, statement, updated.PersonalStatement)
	require.NotNil(t, updated.DateOfBirth)
	assert.Equal(t, 2004, updated.DateOfBirth.Year())

	_, err = svc.UpdateDraft(ctx, f.other, app.ID, &dto.UpdateApplicationRequest{PersonalStatement: &statement})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	bad := "17/05/2004"
	_, err = svc.UpdateDraft(ctx, f.student, app.ID, &dto.UpdateApplicationRequest{DateOfBirth: &bad})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestUpdateDraft_NotDraft(t *testing.T) {
	f := newLifecycleFixture(t)
	app := f.withStatus(models.StatusSubmitted)

	info := "late edit"
	_, err := f.service(100).UpdateDraft(context.Background(), f.student, app.ID, &dto.UpdateApplicationRequest{AdditionalInfo: &info})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestSubmit_FullDraftScenario(t *testing.T) {
	f := newLifecycleFixture(t)
	svc := f.service(85)
	docs := f.documents()
	ctx := context.Background()

	app, _, err := svc.CreateDraft(ctx, f.student, 10)
	require.NoError(t, err)

	statement := strings.Repeat("Motivated applicant. ", 6)
	_, err = svc.UpdateDraft(ctx, f.student, app.ID, &dto.UpdateApplicationRequest{PersonalStatement: &statement})
	require.NoError(t, err)

	_, err = docs.Attach(ctx, f.student, app.ID, pdfUpload("transcript.pdf", 2048))
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, f.student, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, submitted.Status)
	assert.NotNil(t, submitted.SubmittedAt)

	list, err := docs.List(ctx, f.student, app.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	history, err := f.apps.ListHistory(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusDraft, history[0].FromStatus)
	assert.Equal(t, models.StatusSubmitted, history[0].ToStatus)

	assert.Len(t, f.notifier.receipts, 1)
	assert.Equal(t, "ada@example.com", f.notifier.receipts[0].ToEmail)
	assert.Equal(t, "Computer Science BSc", f.notifier.receipts[0].CourseName)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.StatusTransitions.WithLabelValues("DRAFT", "SUBMITTED")))
}

func TestSubmit_ProfileIncomplete(t *testing.T) {
	f := newLifecycleFixture(t)
	svc := f.service(60)
	ctx := context.Background()
	app := f.withStatus(models.StatusDraft)

	_, err := svc.Submit(ctx, f.student, app.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrProfileIncomplete)

	var pie *apperrors.ProfileIncompleteError
	require.True(t, errors.As(err, &pie))
	assert.Equal(t, 60, pie.Score)
	assert.Equal(t, 80, pie.Threshold)
	assert.Equal(t, apperrors.ReasonProfileIncomplete, pie.Reason())

	stored, err := f.apps.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, stored.Status)
	assert.Nil(t, stored.SubmittedAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SubmissionsRejected.WithLabelValues(apperrors.ReasonProfileIncomplete)))
	assert.Empty(t, f.notifier.receipts)
}

func TestSubmit_ThresholdBoundary(t *testing.T) {
	f := newLifecycleFixture(t)
	app := f.withStatus(models.StatusDraft)

	_, err := f.service(79).Submit(context.Background(), f.student, app.ID)
	assert.ErrorIs(t, err, apperrors.ErrProfileIncomplete)

	submitted, err := f.service(80).Submit(context.Background(), f.student, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, submitted.Status)
}

func TestSubmit_Twice(t *testing.T) {
	f := newLifecycleFixture(t)
	svc := f.service(100)
	app := f.withStatus(models.StatusDraft)

	_, err := svc.Submit(context.Background(), f.student, app.ID)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), f.student, app.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestSubmit_ConcurrentOnlyOneWins(t *testing.T) {
	f := newLifecycleFixture(t)
	svc := f.service(100)
	app := f.withStatus(models.StatusDraft)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		invalid   int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), f.student, app.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperrors.ErrInvalidState):
				invalid++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, invalid)

	history, _ := f.apps.ListHistory(context.Background(), app.ID)
	assert.Len(t, history, 1)
}

func TestSubmit_NotOwner(t *testing.T) {
	f := newLifecycleFixture(t)
	app := f.withStatus(models.StatusDraft)

	_, err := f.service(100).Submit(context.Background(), f.other, app.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = f.service(100).Submit(context.Background(), f.admin, app.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestTransitionStatus(t *testing.T) {
	f := newLifecycleFixture(t)
	svc := f.service(100)
	ctx := context.Background()
	app := f.withStatus(models.StatusSubmitted)

	reviewed, err := svc.TransitionStatus(ctx, f.counsellor, app.ID, models.StatusUnderReview, "Looks promising")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, reviewed.Status)
	assert.Contains(t, reviewed.AdminComments, "COUNSELLOR #")
	assert.Contains(t, reviewed.AdminComments, "Looks promising")

	waitlisted, err := svc.TransitionStatus(ctx, f.admin, app.ID, models.StatusWaitlisted, "Capacity reached")
	require.NoError(t, err)
	lines := strings.Split(waitlisted.AdminComments, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Looks promising")
	assert.Contains(t, lines[1], "ADMIN #")

	accepted, err := svc.TransitionStatus(ctx, f.admin, app.ID, models.StatusAccepted, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, accepted.Status)
	assert.Equal(t, waitlisted.AdminComments, accepted.AdminComments)

	require.Len(t, f.notifier.changes, 3)
	assert.Equal(t, "WAITLISTED", f.notifier.changes[2].FromStatus)
	assert.Equal(t, "ACCEPTED", f.notifier.changes[2].ToStatus)

	history, _ := f.apps.ListHistory(ctx, app.ID)
	assert.Len(t, history, 3)
}

func TestTransitionStatus_StudentForbidden(t *testing.T) {
	f := newLifecycleFixture(t)
	app := f.withStatus(models.StatusSubmitted)

	for _, target := range models.AllApplicationStatuses {
		_, err := f.service(100).TransitionStatus(context.Background(), f.student, app.ID, target, "")
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied, "target %s", target)
	}

	stored, _ := f.apps.GetByID(context.Background(), app.ID)
	assert.Equal(t, models.StatusSubmitted, stored.Status)
}

func TestTransitionStatus_InvalidTargets(t *testing.T) {
	tests := []struct {
		from, to models.ApplicationStatus
	}{
		{models.StatusSubmitted, models.StatusDraft},
		{models.StatusUnderReview, models.StatusSubmitted},
		{models.StatusAccepted, models.StatusRejected},
		{models.StatusRejected, models.StatusUnderReview},
		{models.StatusDraft, models.StatusUnderReview},
		{models.StatusWaitlisted, models.StatusUnderReview},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			f := newLifecycleFixture(t)
			app := f.withStatus(tt.from)

			_, err := f.service(100).TransitionStatus(context.Background(), f.admin, app.ID, tt.to, "")
			assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

			stored, _ := f.apps.GetByID(context.Background(), app.ID)
			assert.Equal(t, tt.from, stored.Status)
		})
	}
}

func TestTransitionStatus_NotFound(t *testing.T) {
	f := newLifecycleFixture(t)
	_, err := f.service(100).TransitionStatus(context.Background(), f.admin, 404, models.StatusAccepted, "")
	assert.ErrorIs(t, err, apperrors.ErrApplicationNotFound)
}

func TestGetAndListMine(t *testing.T) {
	f := newLifecycleFixture(t)
	svc := f.service(100)
	ctx := context.Background()
	mine := f.withStatus(models.StatusDraft)
	f.apps.put(&models.Application{StudentID: f.other.UserID, CourseID: 10, Status: models.StatusDraft})

	got, err := svc.Get(ctx, f.student, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = svc.Get(ctx, f.other, mine.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.Get(ctx, f.counsellor, mine.ID)
	assert.NoError(t, err)

	list, err := svc.ListMine(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	assigned, err := svc.ListMine(ctx, f.counsellor)
	require.NoError(t, err)
	assert.Empty(t, assigned)
}

func TestComputeProfileCompletionScore(t *testing.T) {
	f := newLifecycleFixture(t)
	score, err := f.service(85).ComputeProfileCompletionScore(context.Background(), f.student.UserID)
	require.NoError(t, err)
	assert.Equal(t, 85, score)
}
