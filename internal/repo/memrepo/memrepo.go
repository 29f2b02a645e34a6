// Package memrepo is an in-memory repo.Gateway used by tests and local
// tooling. It enforces the same uniqueness and existence rules as the
// postgres schema.
package memrepo

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Alijeyrad/internhub_backend/internal/repo"
)

type data struct {
	// gate is held exclusively for the duration of a transaction.
	gate sync.RWMutex
	mu   sync.Mutex

	seq  int64
	now  func() time.Time
	fail error

	users        map[int64]repo.User
	internships  map[int64]repo.Internship
	departments  map[int64]repo.Department
	engagements  map[int64]repo.Engagement
	acceptances  map[int64]repo.AcceptanceLetter
	testProjects map[int64]repo.TestProject
	evaluations  map[int64]repo.FinalEvaluation
	reports      map[int64]repo.WeeklyReport
	messages     map[int64]repo.Message
}

type snapshot struct {
	seq          int64
	engagements  map[int64]repo.Engagement
	acceptances  map[int64]repo.AcceptanceLetter
	testProjects map[int64]repo.TestProject
	evaluations  map[int64]repo.FinalEvaluation
	reports      map[int64]repo.WeeklyReport
	messages     map[int64]repo.Message
}

func (d *data) snapshot() snapshot {
	return snapshot{
		seq:          d.seq,
		engagements:  maps.Clone(d.engagements),
		acceptances:  maps.Clone(d.acceptances),
		testProjects: maps.Clone(d.testProjects),
		evaluations:  maps.Clone(d.evaluations),
		reports:      maps.Clone(d.reports),
		messages:     maps.Clone(d.messages),
	}
}

func (d *data) restore(s snapshot) {
	d.seq = s.seq
	d.engagements = s.engagements
	d.acceptances = s.acceptances
	d.testProjects = s.testProjects
	d.evaluations = s.evaluations
	d.reports = s.reports
	d.messages = s.messages
}

func (d *data) nextID() int64 {
	d.seq++
	return d.seq
}

type Store struct {
	d  *data
	tx bool
}

var _ repo.Gateway = (*Store)(nil)

type Option func(*data)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(d *data) { d.now = now }
}

func New(opts ...Option) *Store {
	d := &data{
		now:          func() time.Time { return time.Now().UTC() },
		users:        make(map[int64]repo.User),
		internships:  make(map[int64]repo.Internship),
		departments:  make(map[int64]repo.Department),
		engagements:  make(map[int64]repo.Engagement),
		acceptances:  make(map[int64]repo.AcceptanceLetter),
		testProjects: make(map[int64]repo.TestProject),
		evaluations:  make(map[int64]repo.FinalEvaluation),
		reports:      make(map[int64]repo.WeeklyReport),
		messages:     make(map[int64]repo.Message),
	}
	for _, opt := range opts {
		opt(d)
	}
	return &Store{d: d}
}

func (s *Store) lock() func() {
	if s.tx {
		s.d.mu.Lock()
		return s.d.mu.Unlock
	}
	s.d.gate.RLock()
	s.d.mu.Lock()
	return func() {
		s.d.mu.Unlock()
		s.d.gate.RUnlock()
	}
}

// SetFailure makes every subsequent call return err until it is cleared
// with nil.
func (s *Store) SetFailure(err error) {
	defer s.lock()()
	s.d.fail = err
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repo.Gateway) error) error {
	if s.tx {
		return fn(ctx, s)
	}

	s.d.gate.Lock()
	defer s.d.gate.Unlock()

	s.d.mu.Lock()
	if s.d.fail != nil {
		s.d.mu.Unlock()
		return s.d.fail
	}
	snap := s.d.snapshot()
	s.d.mu.Unlock()

	if err := fn(ctx, &Store{d: s.d, tx: true}); err != nil {
		s.d.mu.Lock()
		s.d.restore(snap)
		s.d.mu.Unlock()
		return err
	}
	return nil
}

// AddUser seeds a participant and returns it with its assigned id.
func (s *Store) AddUser(u repo.User) repo.User {
	defer s.lock()()
	if u.ID == 0 {
		u.ID = s.d.nextID()
	} else if u.ID > s.d.seq {
		s.d.seq = u.ID
	}
	s.d.users[u.ID] = u
	return u
}

func (s *Store) AddInternship(in repo.Internship) repo.Internship {
	defer s.lock()()
	if in.ID == 0 {
		in.ID = s.d.nextID()
	} else if in.ID > s.d.seq {
		s.d.seq = in.ID
	}
	if in.Status == "" {
		in.Status = repo.InternshipOpen
	}
	s.d.internships[in.ID] = in
	return in
}

func (s *Store) AddDepartment(dep repo.Department) repo.Department {
	defer s.lock()()
	if dep.ID == 0 {
		dep.ID = s.d.nextID()
	} else if dep.ID > s.d.seq {
		s.d.seq = dep.ID
	}
	s.d.departments[dep.ID] = dep
	return dep
}

func (s *Store) FindUser(ctx context.Context, id int64) (*repo.User, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	u, ok := s.d.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (s *Store) FindInternship(ctx context.Context, id int64) (*repo.Internship, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	in, ok := s.d.internships[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &in, nil
}

func (s *Store) FindDepartment(ctx context.Context, id int64) (*repo.Department, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	dep, ok := s.d.departments[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &dep, nil
}

func (s *Store) findEngagement(internshipID, studentID int64) (repo.Engagement, bool) {
	for _, e := range s.d.engagements {
		if e.InternshipID == internshipID && e.StudentID == studentID {
			return e, true
		}
	}
	return repo.Engagement{}, false
}

func (s *Store) FindEngagement(ctx context.Context, internshipID, studentID int64) (*repo.Engagement, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	e, ok := s.findEngagement(internshipID, studentID)
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &e, nil
}

// FindEngagementForUpdate is FindEngagement; a transaction already holds the
// store exclusively.
func (s *Store) FindEngagementForUpdate(ctx context.Context, internshipID, studentID int64) (*repo.Engagement, error) {
	return s.FindEngagement(ctx, internshipID, studentID)
}

func (s *Store) CreateEngagement(ctx context.Context, e *repo.Engagement) (*repo.Engagement, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	if _, ok := s.d.internships[e.InternshipID]; !ok {
		return nil, repo.ErrNotFound
	}
	if _, ok := s.d.users[e.StudentID]; !ok {
		return nil, repo.ErrNotFound
	}
	if _, dup := s.findEngagement(e.InternshipID, e.StudentID); dup {
		return nil, repo.ErrConflict
	}

	out := *e
	out.ID = s.d.nextID()
	if out.Status == "" {
		out.Status = repo.StatusPending
	}
	out.AppliedAt = s.d.now()
	out.UpdatedAt = out.AppliedAt
	s.d.engagements[out.ID] = out
	return &out, nil
}

func (s *Store) UpdateEngagementStatus(ctx context.Context, internshipID, studentID int64, status repo.EngagementStatus) (*repo.Engagement, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	e, ok := s.findEngagement(internshipID, studentID)
	if !ok {
		return nil, repo.ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = s.d.now()
	s.d.engagements[e.ID] = e
	return &e, nil
}

func (s *Store) findAcceptanceByPair(internshipID, studentID int64) (repo.AcceptanceLetter, bool) {
	for _, a := range s.d.acceptances {
		if a.InternshipID == internshipID && a.StudentID == studentID {
			return a, true
		}
	}
	return repo.AcceptanceLetter{}, false
}

func (s *Store) FindAcceptance(ctx context.Context, id int64) (*repo.AcceptanceLetter, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	a, ok := s.d.acceptances[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &a, nil
}

func (s *Store) FindAcceptanceByPair(ctx context.Context, internshipID, studentID int64) (*repo.AcceptanceLetter, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	a, ok := s.findAcceptanceByPair(internshipID, studentID)
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &a, nil
}

func (s *Store) CreateAcceptance(ctx context.Context, a *repo.AcceptanceLetter) (*repo.AcceptanceLetter, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	if _, ok := s.d.internships[a.InternshipID]; !ok {
		return nil, repo.ErrNotFound
	}
	if _, dup := s.findAcceptanceByPair(a.InternshipID, a.StudentID); dup {
		return nil, repo.ErrConflict
	}

	out := *a
	out.ID = s.d.nextID()
	out.DepartmentID = nil
	out.ForwardedAt = nil
	out.CreatedAt = s.d.now()
	s.d.acceptances[out.ID] = out
	return &out, nil
}

func (s *Store) UpdateAcceptanceDepartment(ctx context.Context, id, departmentID int64) (*repo.AcceptanceLetter, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	a, ok := s.d.acceptances[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if _, ok := s.d.departments[departmentID]; !ok {
		return nil, repo.ErrNotFound
	}
	if a.DepartmentID != nil {
		return nil, repo.ErrConflict
	}
	now := s.d.now()
	a.DepartmentID = &departmentID
	a.ForwardedAt = &now
	s.d.acceptances[id] = a
	return &a, nil
}

func (s *Store) findTestProjectByPair(internshipID, studentID int64) (repo.TestProject, bool) {
	for _, p := range s.d.testProjects {
		if p.InternshipID == internshipID && p.StudentID == studentID {
			return p, true
		}
	}
	return repo.TestProject{}, false
}

func (s *Store) FindTestProject(ctx context.Context, id int64) (*repo.TestProject, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	p, ok := s.d.testProjects[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &p, nil
}

func (s *Store) FindTestProjectByPair(ctx context.Context, internshipID, studentID int64) (*repo.TestProject, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	p, ok := s.findTestProjectByPair(internshipID, studentID)
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &p, nil
}

func (s *Store) CreateTestProject(ctx context.Context, p *repo.TestProject) (*repo.TestProject, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	if _, ok := s.d.internships[p.InternshipID]; !ok {
		return nil, repo.ErrNotFound
	}
	if _, dup := s.findTestProjectByPair(p.InternshipID, p.StudentID); dup {
		return nil, repo.ErrConflict
	}

	out := *p
	out.ID = s.d.nextID()
	out.ProjectURL = nil
	out.SubmittedAt = nil
	out.CreatedAt = s.d.now()
	s.d.testProjects[out.ID] = out
	return &out, nil
}

func (s *Store) UpdateTestProjectURL(ctx context.Context, id int64, url string) (*repo.TestProject, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	p, ok := s.d.testProjects[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	now := s.d.now()
	p.ProjectURL = &url
	p.SubmittedAt = &now
	s.d.testProjects[id] = p
	return &p, nil
}

func (s *Store) findEvaluation(companyID, studentID int64) (repo.FinalEvaluation, bool) {
	for _, ev := range s.d.evaluations {
		if ev.CompanyID == companyID && ev.StudentID == studentID {
			return ev, true
		}
	}
	return repo.FinalEvaluation{}, false
}

func (s *Store) FindFinalEvaluation(ctx context.Context, companyID, studentID int64) (*repo.FinalEvaluation, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	ev, ok := s.findEvaluation(companyID, studentID)
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &ev, nil
}

func (s *Store) UpsertFinalEvaluation(ctx context.Context, ev *repo.FinalEvaluation) (*repo.FinalEvaluation, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	if _, ok := s.d.users[ev.CompanyID]; !ok {
		return nil, repo.ErrNotFound
	}
	if _, ok := s.d.users[ev.StudentID]; !ok {
		return nil, repo.ErrNotFound
	}

	now := s.d.now()
	out := *ev
	if prev, ok := s.findEvaluation(ev.CompanyID, ev.StudentID); ok {
		out.ID = prev.ID
		out.CreatedAt = prev.CreatedAt
	} else {
		out.ID = s.d.nextID()
		out.CreatedAt = now
	}
	out.UpdatedAt = now
	s.d.evaluations[out.ID] = out
	return &out, nil
}

func (s *Store) CreateWeeklyReport(ctx context.Context, r *repo.WeeklyReport) (*repo.WeeklyReport, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	if _, ok := s.d.users[r.CompanyID]; !ok {
		return nil, repo.ErrNotFound
	}
	if _, ok := s.d.users[r.StudentID]; !ok {
		return nil, repo.ErrNotFound
	}
	out := *r
	out.ID = s.d.nextID()
	out.CreatedAt = s.d.now()
	s.d.reports[out.ID] = out
	return &out, nil
}

// WeeklyReports returns every stored report for studentID ordered by week.
func (s *Store) WeeklyReports(studentID int64) []repo.WeeklyReport {
	defer s.lock()()
	var out []repo.WeeklyReport
	for _, r := range s.d.reports {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b repo.WeeklyReport) int {
		return cmp.Or(cmp.Compare(a.WeekNumber, b.WeekNumber), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func compareMessages(a, b *repo.Message) int {
	return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
}

func (s *Store) CreateMessage(ctx context.Context, m *repo.Message) (*repo.Message, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	if _, ok := s.d.users[m.SenderID]; !ok {
		return nil, repo.ErrNotFound
	}
	if _, ok := s.d.users[m.ReceiverID]; !ok {
		return nil, repo.ErrNotFound
	}
	out := *m
	out.ID = s.d.nextID()
	out.IsRead = false
	out.ReadAt = nil
	out.CreatedAt = s.d.now()
	s.d.messages[out.ID] = out
	return &out, nil
}

func (s *Store) FindMessage(ctx context.Context, id int64) (*repo.Message, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	m, ok := s.d.messages[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &m, nil
}

func (s *Store) FindMessagesBetween(ctx context.Context, userA, userB int64) ([]*repo.Message, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	var out []*repo.Message
	for _, m := range s.d.messages {
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			out = append(out, &m)
		}
	}
	slices.SortFunc(out, compareMessages)
	return out, nil
}

func (s *Store) UpdateMessageRead(ctx context.Context, id int64) (*repo.Message, bool, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, false, s.d.fail
	}
	m, ok := s.d.messages[id]
	if !ok {
		return nil, false, repo.ErrNotFound
	}
	if m.IsRead {
		return &m, false, nil
	}
	now := s.d.now()
	m.IsRead = true
	m.ReadAt = &now
	s.d.messages[id] = m
	return &m, true, nil
}

func (s *Store) BulkUpdateMessagesRead(ctx context.Context, receiverID int64, limit int) (int, []*repo.Message, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return 0, nil, s.d.fail
	}
	now := s.d.now()
	var flipped []*repo.Message
	for id, m := range s.d.messages {
		if m.ReceiverID != receiverID || m.IsRead {
			continue
		}
		m.IsRead = true
		m.ReadAt = &now
		s.d.messages[id] = m
		flipped = append(flipped, &m)
	}
	slices.SortFunc(flipped, compareMessages)

	recent := flipped
	if limit >= 0 && len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}
	return len(flipped), recent, nil
}

func (s *Store) CountUnreadForUser(ctx context.Context, receiverID int64) (int, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return 0, s.d.fail
	}
	n := 0
	for _, m := range s.d.messages {
		if m.ReceiverID == receiverID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *Store) GroupUnreadBySender(ctx context.Context, receiverID int64) ([]repo.SenderCount, error) {
	defer s.lock()()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	counts := make(map[int64]int)
	for _, m := range s.d.messages {
		if m.ReceiverID == receiverID && !m.IsRead {
			counts[m.SenderID]++
		}
	}

	out := make([]repo.SenderCount, 0, len(counts))
	for _, id := range slices.Sorted(maps.Keys(counts)) {
		u := s.d.users[id]
		out = append(out, repo.SenderCount{
			SenderID:   id,
			SenderRole: u.Role,
			SenderName: u.Name,
			Count:      counts[id],
		})
	}
	return out, nil
}
