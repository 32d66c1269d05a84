package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/app/repositories"
	"github.com/admissions/portal/internal/pkg/apperrors"
	"github.com/admissions/portal/internal/pkg/email"
)

// fakeApplicationStore mirrors the conditional updates of ApplicationRepository
type fakeApplicationStore struct {
	mu      sync.Mutex
	nextID  int64
	apps    map[int64]*models.Application
	history []*models.StatusChange
}

func newFakeApplicationStore() *fakeApplicationStore {
	return &fakeApplicationStore{apps: map[int64]*models.Application{}}
}

func copyApp(a *models.Application) *models.Application {
	c := *a
	return &c
}

func (f *fakeApplicationStore) put(a *models.Application) *models.Application {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a.ID = f.nextID
	if a.Priority == "" {
		a.Priority = models.PriorityNormal
	}
	f.apps[a.ID] = copyApp(a)
	return a
}

func (f *fakeApplicationStore) CreateDraft(_ context.Context, app *models.Application) (*models.Application, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.apps {
		if a.StudentID == app.StudentID && a.CourseID == app.CourseID {
			return copyApp(a), false, nil
		}
	}
	f.nextID++
	created := copyApp(app)
	created.ID = f.nextID
	created.Status = models.StatusDraft
	created.Priority = models.PriorityNormal
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	f.apps[created.ID] = created
	return copyApp(created), true, nil
}

func (f *fakeApplicationStore) GetByID(_ context.Context, id int64) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[id]
	if !ok {
		return nil, apperrors.ErrApplicationNotFound
	}
	return copyApp(a), nil
}

func (f *fakeApplicationStore) UpdateDraft(_ context.Context, id int64, patch models.ApplicationPatch) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[id]
	if !ok || a.Status != models.StatusDraft {
		return nil, apperrors.NewInvalidStateError("application is no longer a draft")
	}
	patch.Apply(a)
	return copyApp(a), nil
}

func (f *fakeApplicationStore) MarkSubmitted(_ context.Context, change *models.StatusChange) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[change.ApplicationID]
	if !ok || a.Status != models.StatusDraft {
		return nil, apperrors.NewInvalidStateError("application has already been submitted")
	}
	a.Status = models.StatusSubmitted
	if a.SubmittedAt == nil {
		at := change.CreatedAt
		a.SubmittedAt = &at
	}
	f.history = append(f.history, change)
	return copyApp(a), nil
}

func (f *fakeApplicationStore) ApplyTransition(_ context.Context, change *models.StatusChange, commentLine string) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[change.ApplicationID]
	if !ok || a.Status != change.FromStatus {
		return nil, apperrors.NewInvalidStateError("application status changed concurrently; reload and retry")
	}
	a.Status = change.ToStatus
	if commentLine != "" {
		a.AdminComments = models.AppendComment(a.AdminComments, commentLine)
	}
	f.history = append(f.history, change)
	return copyApp(a), nil
}

func (f *fakeApplicationStore) Assign(_ context.Context, id int64, assignedTo *int64, priority models.Priority) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[id]
	if !ok || a.Status == models.StatusDraft {
		return nil, apperrors.NewInvalidStateError("draft applications cannot be assigned")
	}
	a.AssignedTo = assignedTo
	if priority != "" {
		a.Priority = priority
	}
	return copyApp(a), nil
}

func (f *fakeApplicationStore) List(_ context.Context, filter models.ApplicationFilter) ([]*models.Application, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*models.Application
	for _, a := range f.apps {
		if filter.Matches(a) {
			matched = append(matched, copyApp(a))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	if filter.Limit > 0 {
		start := min(int(filter.Offset), len(matched))
		end := min(start+int(filter.Limit), len(matched))
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (f *fakeApplicationStore) CountByStatus(_ context.Context) (map[models.ApplicationStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[models.ApplicationStatus]int64{}
	for _, s := range models.AllApplicationStatuses {
		counts[s] = 0
	}
	for _, a := range f.apps {
		counts[a.Status]++
	}
	return counts, nil
}

func (f *fakeApplicationStore) ListHistory(_ context.Context, applicationID int64) ([]*models.StatusChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.StatusChange
	for _, h := range f.history {
		if h.ApplicationID == applicationID {
			out = append(out, h)
		}
	}
	return out, nil
}

// fakeDocumentStore only writes while the application in apps is a draft
type fakeDocumentStore struct {
	mu     sync.Mutex
	apps   *fakeApplicationStore
	nextID int64
	docs   map[int64]*models.Document
}

func newFakeDocumentStore(apps *fakeApplicationStore) *fakeDocumentStore {
	return &fakeDocumentStore{apps: apps, docs: map[int64]*models.Document{}}
}

func (f *fakeDocumentStore) isDraft(applicationID int64) bool {
	a, err := f.apps.GetByID(context.Background(), applicationID)
	return err == nil && a.Status == models.StatusDraft
}

func (f *fakeDocumentStore) CreateForDraft(_ context.Context, doc *models.Document) error {
	if !f.isDraft(doc.ApplicationID) {
		return apperrors.NewInvalidStateError("documents can only be added to draft applications")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	doc.ID = f.nextID
	doc.UploadedAt = time.Now()
	c := *doc
	f.docs[doc.ID] = &c
	return nil
}

func (f *fakeDocumentStore) ListByApplication(_ context.Context, applicationID int64) ([]*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Document
	for id := int64(1); id <= f.nextID; id++ {
		if d, ok := f.docs[id]; ok && d.ApplicationID == applicationID {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeDocumentStore) GetByID(_ context.Context, applicationID, documentID int64) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[documentID]
	if !ok || d.ApplicationID != applicationID {
		return nil, apperrors.ErrDocumentNotFound
	}
	c := *d
	return &c, nil
}

func (f *fakeDocumentStore) DeleteForDraft(_ context.Context, applicationID, documentID int64) (string, error) {
	if !f.isDraft(applicationID) {
		return "", apperrors.NewInvalidStateError("documents can only be removed from draft applications")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[documentID]
	if !ok || d.ApplicationID != applicationID {
		return "", apperrors.NewInvalidStateError("documents can only be removed from draft applications")
	}
	delete(f.docs, documentID)
	return d.FileURL, nil
}

type fakeUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int64]*models.User{}}
}

func (f *fakeUserStore) add(u *models.User) *models.User {
	id, _ := f.CreateUser(context.Background(), u)
	u.ID = id
	return u
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *models.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == strings.ToLower(user.Email) {
			return 0, apperrors.ErrEmailAlreadyExists
		}
	}
	f.nextID++
	c := *user
	c.ID = f.nextID
	c.Email = strings.ToLower(user.Email)
	f.users[c.ID] = &c
	return c.ID, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			c := *u
			return &c, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.GetUserByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUserStore) UpdateLastLogin(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func (f *fakeUserStore) UpdateContact(_ context.Context, userID int64, firstName, lastName, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.FirstName, u.LastName, u.Phone = firstName, lastName, phone
	return nil
}

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]int64
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]int64{}}
}

func (f *fakeTokenStore) CreateToken(_ context.Context, token string, userID int64, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = userID
	return nil
}

func (f *fakeTokenStore) ConsumeToken(_ context.Context, token string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.tokens[token]
	if !ok {
		return 0, apperrors.ErrTokenNotFound
	}
	delete(f.tokens, token)
	return userID, nil
}

func (f *fakeTokenStore) RevokeAllUserTokens(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for t, id := range f.tokens {
		if id == userID {
			delete(f.tokens, t)
		}
	}
	return nil
}

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[int64]*models.StudentProfile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: map[int64]*models.StudentProfile{}}
}

func (f *fakeProfileStore) GetByUserID(_ context.Context, userID int64) (*models.StudentProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[userID]; ok {
		c := *p
		return &c, nil
	}
	return &models.StudentProfile{UserID: userID}, nil
}

func (f *fakeProfileStore) Upsert(_ context.Context, p *models.StudentProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *p
	f.profiles[p.UserID] = &c
	return nil
}

type fakeCatalogStore struct {
	schools map[int64]*models.School
	courses map[int64]*models.Course
	fields  []*models.FormField
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		schools: map[int64]*models.School{
			1: {ID: 1, Name: "School of Engineering", IsActive: true},
			2: {ID: 2, Name: "Closed School", IsActive: false},
		},
		courses: map[int64]*models.Course{
			10: {ID: 10, SchoolID: 1, Name: "Computer Science BSc", Level: "Undergraduate", IsActive: true},
			11: {ID: 11, SchoolID: 1, Name: "Retired Course", Level: "Undergraduate", IsActive: false},
			20: {ID: 20, SchoolID: 2, Name: "Orphaned Course", Level: "Postgraduate", IsActive: false},
		},
		fields: []*models.FormField{{ID: 1, Label: "Nationality", FieldType: "text", Required: true, IsActive: true}},
	}
}

func (f *fakeCatalogStore) ListSchools(_ context.Context, activeOnly bool) ([]*models.School, error) {
	var out []*models.School
	for id := int64(1); id <= 2; id++ {
		if s := f.schools[id]; s != nil && (!activeOnly || s.IsActive) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) GetSchoolByID(_ context.Context, id int64) (*models.School, error) {
	s, ok := f.schools[id]
	if !ok {
		return nil, apperrors.ErrSchoolNotFound
	}
	return s, nil
}

func (f *fakeCatalogStore) ListCourses(_ context.Context, filter repositories.CourseFilter) ([]*models.Course, error) {
	var out []*models.Course
	for _, id := range []int64{10, 11, 20} {
		c := f.courses[id]
		if filter.ActiveOnly && !c.IsActive {
			continue
		}
		if filter.SchoolID != 0 && c.SchoolID != filter.SchoolID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCatalogStore) GetCourseByID(_ context.Context, id int64) (*models.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	return c, nil
}

func (f *fakeCatalogStore) ListFormFields(_ context.Context) ([]*models.FormField, error) {
	return f.fields, nil
}

// fakeStorage keeps blobs in memory and signs links with a fixed signature
type fakeStorage struct {
	mu      sync.Mutex
	n       int
	blobs   map[string]bool
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: map[string]bool{}}
}

func (f *fakeStorage) Save(fh *multipart.FileHeader, subPath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	key := fmt.Sprintf("%s/blob-%d-%s", subPath, f.n, fh.Filename)
	f.blobs[key] = true
	return key, nil
}

func (f *fakeStorage) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) FullPath(key string) (string, error) {
	return "/tmp/" + key, nil
}

func (f *fakeStorage) SignedURL(key string, ttl time.Duration) (string, time.Time, error) {
	expires := time.Now().Add(ttl)
	return fmt.Sprintf("http://files.test/files/%s?expires=%d&signature=sig", key, expires.Unix()), expires, nil
}

func (f *fakeStorage) Verify(string, int64, string) error {
	return nil
}

func (f *fakeStorage) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}

type recordingNotifier struct {
	mu       sync.Mutex
	receipts []email.StatusMessage
	changes  []email.StatusMessage
}

func (r *recordingNotifier) SendSubmissionReceipt(msg email.StatusMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts = append(r.receipts, msg)
	return nil
}

func (r *recordingNotifier) SendStatusChange(msg email.StatusMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, msg)
	return nil
}

// stubScorer returns a fixed score
type stubScorer struct {
	score     int
	threshold int
	missing   []string
}

func (s stubScorer) ComputeProfileCompletion(context.Context, int64) (*ProfileCompletion, error) {
	return &ProfileCompletion{Score: s.score, Threshold: s.threshold, MissingFields: s.missing}, nil
}

func pdfUpload(name string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: name,
		Size:     size,
		Header:   textproto.MIMEHeader{"Content-Type": {"application/pdf"}},
	}
}
