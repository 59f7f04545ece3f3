package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/payment"
	"github.com/openlearn/lms-service/internal/repositories"
)

// fakeRepository is an in-memory repositories.Repository for service tests.
// It mirrors the store-level guarantees the services rely on: unique email,
// unique (student_id, course_id), soft-deleted courses excluded from lists
// but returned by unscoped by-ID reads.
type fakeRepository struct {
	mu sync.Mutex

	users       map[uint]*models.User
	courses     map[uint]*models.Course
	deleted     map[uint]bool
	modules     map[uint]*models.Module
	lessons     map[uint]*models.Lesson
	enrollments map[uint]*models.Enrollment

	// lockedEnrollmentReads counts FOR UPDATE reads so tests can assert
	// the completion path serializes on the enrollment row
	lockedEnrollmentReads int

	nextID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:       make(map[uint]*models.User),
		courses:     make(map[uint]*models.Course),
		deleted:     make(map[uint]bool),
		modules:     make(map[uint]*models.Module),
		lessons:     make(map[uint]*models.Lesson),
		enrollments: make(map[uint]*models.Enrollment),
	}
}

func (f *fakeRepository) nextIDLocked() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepository) User() repositories.UserRepository             { return &fakeUserRepo{f} }
func (f *fakeRepository) Course() repositories.CourseRepository         { return &fakeCourseRepo{f} }
func (f *fakeRepository) Curriculum() repositories.CurriculumRepository { return &fakeCurriculumRepo{f} }
func (f *fakeRepository) Enrollment() repositories.EnrollmentRepository {
	return &fakeEnrollmentRepo{f}
}

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

// ===== users =====

type fakeUserRepo struct{ f *fakeRepository }

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, u := range r.f.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	user.ID = r.f.nextIDLocked()
	user.CreatedAt = time.Now()
	clone := *user
	r.f.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	u, ok := r.f.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, u := range r.f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	clone := *user
	r.f.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.User
	for _, u := range r.f.users {
		if filters.Role != nil && u.Role != *filters.Role {
			continue
		}
		if filters.IsBlocked != nil && u.IsBlocked != *filters.IsBlocked {
			continue
		}
		clone := *u
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) GetByRole(ctx context.Context, tx *gorm.DB, role models.UserRole, filters repositories.UserFilters) ([]*models.User, int64, error) {
	filters.Role = &role
	return r.List(ctx, tx, filters)
}

func (r *fakeUserRepo) SetBlocked(ctx context.Context, tx *gorm.DB, id uint, blocked bool) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	u, ok := r.f.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.IsBlocked = blocked
	return nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID *uint) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, u := range r.f.users {
		if u.Email == email && (excludeID == nil || u.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

// ===== courses =====

type fakeCourseRepo struct{ f *fakeRepository }

func (r *fakeCourseRepo) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	course.ID = r.f.nextIDLocked()
	course.CreatedAt = time.Now()
	clone := *course
	r.f.courses[course.ID] = &clone
	return nil
}

// GetByID is unscoped like the postgres backend: soft-deleted courses come
// back with DeletedAt set and visibility is the policy layer's call.
func (r *fakeCourseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	c, ok := r.f.courses[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeCourseRepo) GetByIDWithCurriculum(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	course, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	modules, err := (&fakeCurriculumRepo{r.f}).ListModules(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	for _, m := range modules {
		course.Modules = append(course.Modules, *m)
	}
	return course, nil
}

func (r *fakeCourseRepo) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.courses[course.ID]; !ok || r.f.deleted[course.ID] {
		return repositories.ErrNotFound
	}
	clone := *course
	r.f.courses[course.ID] = &clone
	return nil
}

func (r *fakeCourseRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.courses[id]; !ok || r.f.deleted[id] {
		return repositories.ErrNotFound
	}
	r.f.deleted[id] = true
	r.f.courses[id].DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

func (r *fakeCourseRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Course
	for id, c := range r.f.courses {
		if r.f.deleted[id] && !filters.IncludeDeleted {
			continue
		}
		if filters.IsApproved != nil && c.IsApproved != *filters.IsApproved {
			continue
		}
		if filters.InstructorID != nil && c.InstructorID != *filters.InstructorID {
			continue
		}
		if filters.Category != nil && c.Category != *filters.Category {
			continue
		}
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeCourseRepo) GetByInstructor(ctx context.Context, tx *gorm.DB, instructorID uint, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.InstructorID = &instructorID
	return r.List(ctx, tx, filters)
}

func (r *fakeCourseRepo) SetApproved(ctx context.Context, tx *gorm.DB, id uint, approved bool) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	c, ok := r.f.courses[id]
	if !ok || r.f.deleted[id] {
		return repositories.ErrNotFound
	}
	c.IsApproved = approved
	return nil
}

func (r *fakeCourseRepo) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.CourseStats, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	stats := &repositories.CourseStats{}
	for _, m := range r.f.modules {
		if m.CourseID == id {
			stats.ModuleCount++
		}
	}
	for _, l := range r.f.lessons {
		if l.CourseID == id {
			stats.LessonCount++
		}
	}
	for _, e := range r.f.enrollments {
		if e.CourseID == id {
			stats.EnrollmentCount++
		}
	}
	return stats, nil
}

func (r *fakeCourseRepo) GetInstructorStats(ctx context.Context, tx *gorm.DB, instructorID uint) (*repositories.InstructorStats, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	stats := &repositories.InstructorStats{}
	for id, c := range r.f.courses {
		if c.InstructorID != instructorID || r.f.deleted[id] {
			continue
		}
		stats.TotalCourses++
		if c.IsApproved {
			stats.ApprovedCourses++
		} else {
			stats.PendingCourses++
		}
		for _, e := range r.f.enrollments {
			if e.CourseID == id {
				stats.TotalStudents++
			}
		}
	}
	return stats, nil
}

func (r *fakeCourseRepo) CountLessons(ctx context.Context, tx *gorm.DB, id uint) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var n int64
	for _, l := range r.f.lessons {
		if l.CourseID == id {
			n++
		}
	}
	return n, nil
}

// ===== curriculum =====

type fakeCurriculumRepo struct{ f *fakeRepository }

func (r *fakeCurriculumRepo) CreateModule(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	module.ID = r.f.nextIDLocked()
	if module.Position == 0 {
		max := 0
		for _, m := range r.f.modules {
			if m.CourseID == module.CourseID && m.Position > max {
				max = m.Position
			}
		}
		module.Position = max + 1
	}
	clone := *module
	r.f.modules[module.ID] = &clone
	return nil
}

func (r *fakeCurriculumRepo) GetModuleByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	m, ok := r.f.modules[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *fakeCurriculumRepo) UpdateModule(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.modules[module.ID]; !ok {
		return repositories.ErrNotFound
	}
	clone := *module
	r.f.modules[module.ID] = &clone
	return nil
}

func (r *fakeCurriculumRepo) DeleteModule(ctx context.Context, tx *gorm.DB, id uint) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.modules[id]; !ok {
		return repositories.ErrNotFound
	}
	for lid, l := range r.f.lessons {
		if l.ModuleID == id {
			delete(r.f.lessons, lid)
		}
	}
	delete(r.f.modules, id)
	return nil
}

func (r *fakeCurriculumRepo) ListModules(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Module, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Module
	for _, m := range r.f.modules {
		if m.CourseID != courseID {
			continue
		}
		clone := *m
		clone.Lessons = nil
		for _, l := range r.f.lessons {
			if l.ModuleID == m.ID {
				clone.Lessons = append(clone.Lessons, *l)
			}
		}
		sort.Slice(clone.Lessons, func(i, j int) bool {
			return clone.Lessons[i].Position < clone.Lessons[j].Position
		})
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeCurriculumRepo) CreateLesson(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	lesson.ID = r.f.nextIDLocked()
	if lesson.Position == 0 {
		max := 0
		for _, l := range r.f.lessons {
			if l.ModuleID == lesson.ModuleID && l.Position > max {
				max = l.Position
			}
		}
		lesson.Position = max + 1
	}
	clone := *lesson
	r.f.lessons[lesson.ID] = &clone
	return nil
}

func (r *fakeCurriculumRepo) GetLessonByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	l, ok := r.f.lessons[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *l
	return &clone, nil
}

func (r *fakeCurriculumRepo) UpdateLesson(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.lessons[lesson.ID]; !ok {
		return repositories.ErrNotFound
	}
	clone := *lesson
	r.f.lessons[lesson.ID] = &clone
	return nil
}

func (r *fakeCurriculumRepo) DeleteLesson(ctx context.Context, tx *gorm.DB, id uint) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.lessons[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.f.lessons, id)
	return nil
}

func (r *fakeCurriculumRepo) ListLessons(ctx context.Context, tx *gorm.DB, moduleID uint) ([]*models.Lesson, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Lesson
	for _, l := range r.f.lessons {
		if l.ModuleID != moduleID {
			continue
		}
		clone := *l
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeCurriculumRepo) Reorder(ctx context.Context, tx *gorm.DB, courseID uint, order []repositories.ModuleOrder) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for i, mo := range order {
		m, ok := r.f.modules[mo.ModuleID]
		if !ok || m.CourseID != courseID {
			return repositories.ErrNotFound
		}
		m.Position = i + 1
		for j, lessonID := range mo.LessonIDs {
			l, ok := r.f.lessons[lessonID]
			if !ok || l.CourseID != courseID {
				return repositories.ErrNotFound
			}
			l.ModuleID = mo.ModuleID
			l.Position = j + 1
		}
	}
	return nil
}

// ===== enrollments =====

type fakeEnrollmentRepo struct{ f *fakeRepository }

func (r *fakeEnrollmentRepo) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, e := range r.f.enrollments {
		if e.StudentID == enrollment.StudentID && e.CourseID == enrollment.CourseID {
			return repositories.ErrDuplicate
		}
	}
	enrollment.ID = r.f.nextIDLocked()
	enrollment.EnrolledAt = time.Now()
	clone := *enrollment
	r.f.enrollments[enrollment.ID] = &clone
	return nil
}

func (r *fakeEnrollmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	e, ok := r.f.enrollments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return r.cloneLocked(e), nil
}

func (r *fakeEnrollmentRepo) GetByStudentAndCourse(ctx context.Context, tx *gorm.DB, studentID, courseID uint) (*models.Enrollment, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, e := range r.f.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return r.cloneLocked(e), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeEnrollmentRepo) GetByStudentAndCourseForUpdate(ctx context.Context, tx *gorm.DB, studentID, courseID uint) (*models.Enrollment, error) {
	r.f.mu.Lock()
	r.f.lockedEnrollmentReads++
	r.f.mu.Unlock()
	return r.GetByStudentAndCourse(ctx, tx, studentID, courseID)
}

func (r *fakeEnrollmentRepo) Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.enrollments[enrollment.ID]; !ok {
		return repositories.ErrNotFound
	}
	clone := *enrollment
	clone.CompletedLessonIDs = append(clone.CompletedLessonIDs[:0:0], enrollment.CompletedLessonIDs...)
	r.f.enrollments[enrollment.ID] = &clone
	return nil
}

func (r *fakeEnrollmentRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Enrollment
	for _, e := range r.f.enrollments {
		if e.StudentID == studentID {
			out = append(out, r.cloneLocked(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeEnrollmentRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Enrollment
	for _, e := range r.f.enrollments {
		if e.CourseID == courseID {
			out = append(out, r.cloneLocked(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeEnrollmentRepo) Exists(ctx context.Context, tx *gorm.DB, studentID, courseID uint) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, e := range r.f.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEnrollmentRepo) CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var n int64
	for _, e := range r.f.enrollments {
		if e.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

// cloneLocked copies an enrollment and preloads its student, matching what
// the real backend does for roster queries.
func (r *fakeEnrollmentRepo) cloneLocked(e *models.Enrollment) *models.Enrollment {
	clone := *e
	clone.CompletedLessonIDs = append(clone.CompletedLessonIDs[:0:0], e.CompletedLessonIDs...)
	if u, ok := r.f.users[e.StudentID]; ok {
		clone.Student = *u
	}
	if c, ok := r.f.courses[e.CourseID]; ok {
		clone.Course = *c
	}
	return &clone
}

// ===== gateway =====

// fakeGateway returns deterministic orders without talking to Razorpay.
type fakeGateway struct {
	orders int
	fail   bool
}

func (g *fakeGateway) CreateOrder(amount int64, currency, receipt string) (*payment.Order, error) {
	if g.fail {
		return nil, fmt.Errorf("gateway unavailable")
	}
	g.orders++
	return &payment.Order{
		ID:       fmt.Sprintf("order_test%d", g.orders),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
