package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"college/internal/attendance"
	"college/internal/auth"
	"college/internal/cloudinary"
	"college/internal/domain"
	"college/internal/queue"
	"college/internal/repository"
	"college/internal/timetable"
)

type fakeUploader struct {
	got []byte
	err error
}

func (f *fakeUploader) UploadRaw(_ context.Context, data []byte, filename string) (*cloudinary.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.got = data
	return &cloudinary.UploadResult{PublicID: "messages/" + filename, SecureURL: "https://cdn/" + filename, Bytes: len(data)}, nil
}

type testServer struct {
	router  *gin.Engine
	events  *queue.InMemory
	signer  *auth.Signer
	faculty string
	admin   string
}

func newTestServer(t *testing.T, uploader Uploader) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryTxManager()
	err := store.WithTx(context.Background(), func(ctx context.Context, repos repository.TxRepositories) error {
		return repos.Courses.Create(ctx, domain.Course{CourseCode: "CS101", FacultyName: "Dr. Smith", Semester: 1, Department: "CSE"})
	})
	require.NoError(t, err)

	authenticator := auth.NewAuthenticator(store)
	_, err = authenticator.Register(context.Background(), "alice", "s3cret", auth.RoleFaculty)
	require.NoError(t, err)

	signer := auth.NewSigner("college-test", "secret", 15*time.Minute, time.Hour)
	faculty, err := signer.Issue("alice", auth.RoleFaculty)
	require.NoError(t, err)
	admin, err := signer.Issue("root", auth.RoleAdmin)
	require.NoError(t, err)

	events := queue.NewInMemory(16)
	deps := Deps{
		Attendance:    attendance.NewService(store, nil),
		Timetables:    timetable.NewService(store, []string{"CSE", "ECE"}),
		Authenticator: authenticator,
		Signer:        signer,
		Revocations:   auth.NewMemoryRevocations(),
		Events:        events,
		Health:        map[string]HealthCheck{"db": func(context.Context) bool { return true }},
	}
	if uploader != nil {
		deps.Uploader = uploader
	}

	return &testServer{
		router:  NewRouter(deps),
		events:  events,
		signer:  signer,
		faculty: faculty.AccessToken,
		admin:   admin.AccessToken,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func attendanceBody(date, slot string, absentees ...string) map[string]any {
	return map[string]any{
		"date":           date,
		"course_id":      "CS101",
		"absentees_list": absentees,
		"time_slot":      slot,
		"department":     "CSE",
		"count":          0,
	}
}

func TestSubmitAttendance(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/v1/attendance", s.faculty, attendanceBody("2024-01-10", "10:00-12:00", "A001", "A002", "A003"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["total_classes"])
	assert.Equal(t, true, body["new_session"])
	assert.Equal(t, float64(3), body["added"])

	// a stale count hint does not add a second class
	resubmit := attendanceBody("2024-01-10", "10:00-12:00", "A001", "A002")
	resubmit["count"] = 0
	rec = s.do(t, http.MethodPost, "/v1/attendance", s.faculty, resubmit)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, float64(1), body["total_classes"])
	assert.Equal(t, float64(1), body["removed"])

	rec = s.do(t, http.MethodGet, "/v1/attendance/absentees?course_id=CS101&date=2024-01-10&time_slot=10:00-12:00", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"A001", "A002"}, decode(t, rec)["absentees"])

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	messages, err := s.events.Consume(ctx)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		msg := <-messages
		assert.Equal(t, queue.TypeReconciled, msg.Type)
		var evt domain.ReconciledEvent
		require.NoError(t, msg.Decode(&evt))
		assert.Equal(t, "CS101", evt.CourseCode)
		assert.Equal(t, "CSE", evt.Department)
	}
}

func TestSubmitAttendance_Errors(t *testing.T) {
	s := newTestServer(t, nil)

	unknown := attendanceBody("2024-01-10", "10:00-12:00", "A001")
	unknown["course_id"] = "INVALID_CODE"
	missing := attendanceBody("2024-01-10", "10:00-12:00")
	delete(missing, "department")

	tests := []struct {
		name     string
		token    string
		body     map[string]any
		wantCode int
		wantKind string
	}{
		{name: "no token", body: attendanceBody("2024-01-10", "10:00-12:00"), wantCode: http.StatusUnauthorized, wantKind: "unauthorized"},
		{name: "unknown course", token: s.faculty, body: unknown, wantCode: http.StatusNotFound, wantKind: "not_found"},
		{name: "invalid date", token: s.faculty, body: attendanceBody("invalid-date", "10:00-12:00", "A001"), wantCode: http.StatusBadRequest, wantKind: "invalid_format"},
		{name: "invalid slot", token: s.faculty, body: attendanceBody("2024-01-10", "invalid-time-slot", "A001"), wantCode: http.StatusBadRequest, wantKind: "invalid_format"},
		{name: "missing department", token: s.faculty, body: missing, wantCode: http.StatusBadRequest, wantKind: "invalid_field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/v1/attendance", tt.token, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantKind, decode(t, rec)["code"])
		})
	}
}

func TestAttendanceSummary(t *testing.T) {
	s := newTestServer(t, nil)
	for _, date := range []string{"2024-01-10", "2024-01-11"} {
		rec := s.do(t, http.MethodPost, "/v1/attendance", s.faculty, attendanceBody(date, "10:00-12:00", "A001"))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/v1/attendance/summary?course_id=CS101&department=CSE", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary attendance.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.TotalClasses)
	require.Len(t, summary.Students, 1)
	assert.Equal(t, float64(0), summary.Students[0].Percentage)

	rec = s.do(t, http.MethodGet, "/v1/attendance/summary?course_id=CS101", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func timetableBodyFor(day string) map[string]any {
	return map[string]any{
		"semester":   3,
		"department": "CSE",
		"day":        day,
		"slot_1":     "cs101",
		"slot_2":     "cs102",
		"slot_3":     "",
		"slot_7":     "cs203",
	}
}

func TestCreateTimetable(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/v1/timetables", s.faculty, timetableBodyFor("friday"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/timetables", s.admin, timetableBodyFor("friday"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, "cs101", created["slot_1"])
	assert.Nil(t, created["slot_4"])

	rec = s.do(t, http.MethodPost, "/v1/timetables", s.admin, timetableBodyFor("Friday"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "conflict", decode(t, rec)["code"])

	invalid := timetableBodyFor("monday")
	invalid["semester"] = 9
	rec = s.do(t, http.MethodPost, "/v1/timetables", s.admin, invalid)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_field", decode(t, rec)["code"])

	noSemester := timetableBodyFor("monday")
	delete(noSemester, "semester")
	rec = s.do(t, http.MethodPost, "/v1/timetables", s.admin, noSemester)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_field", decode(t, rec)["code"])
}

func TestListTimetables(t *testing.T) {
	s := newTestServer(t, nil)
	for _, day := range []string{"friday", "monday"} {
		rec := s.do(t, http.MethodPost, "/v1/timetables", s.admin, timetableBodyFor(day))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/v1/timetables?semester=3&department=cse", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode(t, rec)["timetables"].([]any)
	require.Len(t, entries, 2)
	assert.Equal(t, "monday", entries[0].(map[string]any)["day"])

	rec = s.do(t, http.MethodGet, "/v1/timetables?semester=x&department=CSE", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginLogoutRefresh(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "alice", "password": "nope"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"authenticated": false}, decode(t, rec))

	rec = s.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "alice", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode(t, rec)
	assert.Equal(t, true, login["authenticated"])
	assert.Equal(t, auth.RoleFaculty, login["role"])
	refreshToken := login["refresh_token"].(string)

	rec = s.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": refreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decode(t, rec)["refresh_token"].(string)

	// the rotated-out token cannot be reused
	rec = s.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": refreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/auth/logout", "", map[string]string{"refresh_token": rotated})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"authenticated": false}, decode(t, rec))

	rec = s.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": rotated})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_ConcurrentRotation(t *testing.T) {
	s := newTestServer(t, nil)
	pair, err := s.signer.Issue("alice", auth.RoleFaculty)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = map[int]int{}
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := s.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": pair.RefreshToken})
			mu.Lock()
			statuses[rec.Code]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, map[int]int{http.StatusOK: 1, http.StatusUnauthorized: 7}, statuses)
}

func multipartFile(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (s *testServer) upload(t *testing.T, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartFile(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/v1/messages/attachments", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.faculty)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestUploadAttachment(t *testing.T) {
	uploader := &fakeUploader{}
	s := newTestServer(t, uploader)

	rec := s.upload(t, "valid_file.pdf", []byte("%PDF-1.4 test"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://cdn/valid_file.pdf", decode(t, rec)["url"])
	assert.Equal(t, []byte("%PDF-1.4 test"), uploader.got)

	rec = s.upload(t, "invalid_file.txt", []byte("This is a test."))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.upload(t, "large_test_file.pdf", bytes.Repeat([]byte("a"), 1024*1024+1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	uploader.err = errors.New("cloudinary down")
	rec = s.upload(t, "valid_file.pdf", []byte("%PDF"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestUploadAttachment_NotConfigured(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.upload(t, "valid_file.pdf", []byte("%PDF"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["db"])

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
