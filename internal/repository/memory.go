package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"college/internal/apperr"
	"college/internal/domain"
)

// MemoryTxManager keeps all records in process. Transactions are serialised
// and their writes are discarded when fn returns an error.
type MemoryTxManager struct {
	mu    sync.Mutex
	state *memoryState
}

func NewMemoryTxManager() *MemoryTxManager {
	return &MemoryTxManager{state: newMemoryState()}
}

func (m *MemoryTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := m.state.clone()
	repos := TxRepositories{
		Courses:    &memoryCourses{state: working},
		Absences:   &memoryAbsences{state: working},
		Sessions:   &memorySessions{state: working},
		Timetables: &memoryTimetables{state: working},
		Accounts:   &memoryAccounts{state: working},
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}

	m.state = working
	return nil
}

type sessionID struct {
	courseCode string
	date       string
	timeSlot   string
}

func sessionIDOf(key domain.SessionKey) sessionID {
	return sessionID{courseCode: key.CourseCode, date: key.DateString(), timeSlot: key.TimeSlot}
}

type timetableID struct {
	semester   int
	department string
	day        string
}

type memoryState struct {
	courses    map[string]domain.Course
	sessions   map[sessionID]time.Time
	absences   map[sessionID]map[string]domain.Absence
	timetables map[timetableID]domain.TimetableEntry
	accounts   map[string]domain.Account
}

func newMemoryState() *memoryState {
	return &memoryState{
		courses:    make(map[string]domain.Course),
		sessions:   make(map[sessionID]time.Time),
		absences:   make(map[sessionID]map[string]domain.Absence),
		timetables: make(map[timetableID]domain.TimetableEntry),
		accounts:   make(map[string]domain.Account),
	}
}

func (s *memoryState) clone() *memoryState {
	out := newMemoryState()
	for k, v := range s.courses {
		out.courses[k] = v
	}
	for k, v := range s.sessions {
		out.sessions[k] = v
	}
	for k, byRoll := range s.absences {
		copied := make(map[string]domain.Absence, len(byRoll))
		for roll, absence := range byRoll {
			copied[roll] = absence
		}
		out.absences[k] = copied
	}
	for k, v := range s.timetables {
		out.timetables[k] = v
	}
	for k, v := range s.accounts {
		out.accounts[k] = v
	}
	return out
}

type memoryCourses struct{ state *memoryState }

func (r *memoryCourses) Get(_ context.Context, courseCode, department string) (domain.Course, error) {
	course, ok := r.state.courses[courseCode]
	if !ok || course.Department != department {
		return domain.Course{}, sql.ErrNoRows
	}
	return course, nil
}

func (r *memoryCourses) GetForUpdate(ctx context.Context, courseCode, department string) (domain.Course, error) {
	return r.Get(ctx, courseCode, department)
}

func (r *memoryCourses) IncrementTotalClasses(_ context.Context, courseCode string) (int, error) {
	course, ok := r.state.courses[courseCode]
	if !ok {
		return 0, sql.ErrNoRows
	}
	course.TotalClasses++
	r.state.courses[courseCode] = course
	return course.TotalClasses, nil
}

func (r *memoryCourses) Create(_ context.Context, course domain.Course) error {
	if _, ok := r.state.courses[course.CourseCode]; ok {
		return fmt.Errorf("course %s: %w", course.CourseCode, apperr.ErrConflict)
	}
	r.state.courses[course.CourseCode] = course
	return nil
}

type memoryAbsences struct{ state *memoryState }

func (r *memoryAbsences) ListBySession(_ context.Context, key domain.SessionKey) ([]domain.Absence, error) {
	byRoll := r.state.absences[sessionIDOf(key)]
	absences := make([]domain.Absence, 0, len(byRoll))
	for _, absence := range byRoll {
		absences = append(absences, absence)
	}
	sort.Slice(absences, func(i, j int) bool { return absences[i].RollNo < absences[j].RollNo })
	return absences, nil
}

func (r *memoryAbsences) Insert(_ context.Context, absence domain.Absence) error {
	if absence.ID == "" {
		absence.ID = uuid.NewString()
	}
	id := sessionIDOf(domain.SessionKey{CourseCode: absence.CourseCode, Date: absence.Date, TimeSlot: absence.TimeSlot})
	byRoll, ok := r.state.absences[id]
	if !ok {
		byRoll = make(map[string]domain.Absence)
		r.state.absences[id] = byRoll
	}
	if _, exists := byRoll[absence.RollNo]; !exists {
		byRoll[absence.RollNo] = absence
	}
	return nil
}

func (r *memoryAbsences) Delete(_ context.Context, key domain.SessionKey, rollNo string) error {
	id := sessionIDOf(key)
	byRoll, ok := r.state.absences[id]
	if !ok {
		return nil
	}
	delete(byRoll, rollNo)
	if len(byRoll) == 0 {
		delete(r.state.absences, id)
	}
	return nil
}

func (r *memoryAbsences) CountByCourse(_ context.Context, courseCode string) (map[string]int, error) {
	counts := make(map[string]int)
	for id, byRoll := range r.state.absences {
		if id.courseCode != courseCode {
			continue
		}
		for roll := range byRoll {
			counts[roll]++
		}
	}
	return counts, nil
}

type memorySessions struct{ state *memoryState }

func (r *memorySessions) MarkSeen(_ context.Context, key domain.SessionKey) (bool, error) {
	id := sessionIDOf(key)
	if _, ok := r.state.sessions[id]; ok {
		return false, nil
	}
	r.state.sessions[id] = time.Now().UTC()
	return true, nil
}

type memoryTimetables struct{ state *memoryState }

func (r *memoryTimetables) InsertIfAbsent(_ context.Context, entry domain.TimetableEntry) (bool, error) {
	id := timetableID{semester: entry.Semester, department: entry.Department, day: entry.Day}
	if _, ok := r.state.timetables[id]; ok {
		return false, nil
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	r.state.timetables[id] = entry
	return true, nil
}

func (r *memoryTimetables) ListBySemesterDepartment(_ context.Context, semester int, department string) ([]domain.TimetableEntry, error) {
	var entries []domain.TimetableEntry
	for id, entry := range r.state.timetables {
		if id.semester == semester && id.department == department {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

type memoryAccounts struct{ state *memoryState }

func (r *memoryAccounts) GetByUsername(_ context.Context, username string) (domain.Account, error) {
	account, ok := r.state.accounts[username]
	if !ok {
		return domain.Account{}, sql.ErrNoRows
	}
	return account, nil
}

func (r *memoryAccounts) Create(_ context.Context, account domain.Account) (domain.Account, error) {
	if _, ok := r.state.accounts[account.Username]; ok {
		return domain.Account{}, fmt.Errorf("account %s: %w", account.Username, apperr.ErrConflict)
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.CreatedAt = time.Now().UTC()
	r.state.accounts[account.Username] = account
	return account, nil
}
