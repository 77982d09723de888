package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/gigbridge/marketplace-service/internal/models"
	"github.com/gigbridge/marketplace-service/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeRepository is an in-memory repositories.Repository for service tests.
// The tx argument is ignored everywhere; each sub-repo guards its map with
// a mutex so concurrent tests stay race-free.
type fakeRepository struct {
	users     *fakeUserRepo
	jobs      *fakeJobRepo
	proposals *fakeProposalRepo
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:     &fakeUserRepo{users: make(map[uint]*models.User)},
		jobs:      &fakeJobRepo{jobs: make(map[uint]*models.Job)},
		proposals: &fakeProposalRepo{proposals: make(map[uint]*models.Proposal)},
	}
}

func (f *fakeRepository) User() repositories.UserRepository         { return f.users }
func (f *fakeRepository) Job() repositories.JobRepository           { return f.jobs }
func (f *fakeRepository) Proposal() repositories.ProposalRepository { return f.proposals }
func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}
func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

// Seed helpers

func (f *fakeRepository) addUser(user *models.User) *models.User {
	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	if user.ID == 0 {
		user.ID = uint(len(f.users.users) + 1)
	}
	f.users.users[user.ID] = user
	return user
}

func (f *fakeRepository) addJob(job *models.Job) *models.Job {
	f.jobs.mu.Lock()
	defer f.jobs.mu.Unlock()
	if job.ID == 0 {
		job.ID = uint(len(f.jobs.jobs) + 1)
	}
	f.jobs.jobs[job.ID] = job
	return job
}

func (f *fakeRepository) addProposal(proposal *models.Proposal) *models.Proposal {
	f.proposals.mu.Lock()
	defer f.proposals.mu.Unlock()
	if proposal.ID == 0 {
		proposal.ID = f.proposals.nextID()
	}
	f.proposals.proposals[proposal.ID] = proposal
	return proposal
}

// ===== USER =====

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// auth_id is unique; with TranslateError set the driver's violation
	// arrives as gorm.ErrDuplicatedKey.
	for _, existing := range r.users {
		if existing.AuthID == user.AuthID {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == 0 {
		user.ID = uint(len(r.users) + 1)
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByAuthID(ctx context.Context, tx *gorm.DB, authID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.AuthID == authID {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, user := range r.users {
		if filters.Role != nil && user.Role != *filters.Role {
			continue
		}
		out = append(out, user)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) GetFreelancersBySkills(ctx context.Context, tx *gorm.DB, skills []string, limit int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, user := range r.users {
		if user.Role != models.RoleFreelancer {
			continue
		}
		if overlapsFake(skills, user.Skills) {
			out = append(out, user)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[id]
	return ok, nil
}

func (r *fakeUserRepo) ExistsByAuthID(ctx context.Context, tx *gorm.DB, authID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.AuthID == authID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) HasRole(ctx context.Context, tx *gorm.DB, id uint, role models.UserRole) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	return ok && user.Role == role, nil
}

func overlapsFake(a []string, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(x, y) {
				return true
			}
		}
	}
	return false
}

// ===== JOB =====

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[uint]*models.Job
}

func (r *fakeJobRepo) Create(ctx context.Context, tx *gorm.DB, job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.ID == 0 {
		job.ID = uint(len(r.jobs) + 1)
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *fakeJobRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return job, nil
}

func (r *fakeJobRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Job, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *fakeJobRepo) Update(ctx context.Context, tx *gorm.DB, job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *fakeJobRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.jobs, id)
	return nil
}

func (r *fakeJobRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.JobFilters) ([]*models.Job, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Job
	for _, job := range r.jobs {
		if filters.Status != nil && job.Status != *filters.Status {
			continue
		}
		out = append(out, job)
	}
	return out, int64(len(out)), nil
}

func (r *fakeJobRepo) GetByBusiness(ctx context.Context, tx *gorm.DB, businessID uint, filters repositories.JobFilters) ([]*models.Job, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Job
	for _, job := range r.jobs {
		if job.BusinessID == businessID {
			out = append(out, job)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeJobRepo) Search(ctx context.Context, tx *gorm.DB, query string, filters repositories.JobFilters) ([]*models.Job, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Job
	for _, job := range r.jobs {
		if strings.Contains(strings.ToLower(job.Title), strings.ToLower(query)) {
			out = append(out, job)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeJobRepo) GetJobStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.JobStats, error) {
	return &repositories.JobStats{}, nil
}

func (r *fakeJobRepo) GetBusinessStats(ctx context.Context, tx *gorm.DB, businessID uint) (*repositories.BusinessStats, error) {
	return &repositories.BusinessStats{}, nil
}

func (r *fakeJobRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[id]
	return ok, nil
}

func (r *fakeJobRepo) IsOwnedBy(ctx context.Context, tx *gorm.DB, id, businessID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	return ok && job.BusinessID == businessID, nil
}

// ===== PROPOSAL =====

type fakeProposalRepo struct {
	mu        sync.Mutex
	proposals map[uint]*models.Proposal
	lastID    uint
}

func (r *fakeProposalRepo) nextID() uint {
	r.lastID++
	return r.lastID
}

func (r *fakeProposalRepo) Create(ctx context.Context, tx *gorm.DB, proposal *models.Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if proposal.ID == 0 {
		proposal.ID = r.nextID()
	}
	r.proposals[proposal.ID] = proposal
	return nil
}

func (r *fakeProposalRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	proposal, ok := r.proposals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return proposal, nil
}

func (r *fakeProposalRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Proposal, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *fakeProposalRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.proposals[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.proposals, id)
	return nil
}

// GetByIDForUpdate returns a copy so the caller's reads do not race with
// concurrent UpdateStatus calls on the shared stored value.
func (r *fakeProposalRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	proposal, ok := r.proposals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *proposal
	return &copied, nil
}

func (r *fakeProposalRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.ProposalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	proposal, ok := r.proposals[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	proposal.Status = status
	return nil
}

func (r *fakeProposalRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ProposalFilters) ([]*models.Proposal, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Proposal
	for _, proposal := range r.proposals {
		out = append(out, proposal)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProposalRepo) GetByJob(ctx context.Context, tx *gorm.DB, jobID uint, filters repositories.ProposalFilters) ([]*models.Proposal, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Proposal
	for _, proposal := range r.proposals {
		if proposal.JobID == jobID {
			out = append(out, proposal)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeProposalRepo) GetByFreelancer(ctx context.Context, tx *gorm.DB, freelancerID uint, filters repositories.ProposalFilters) ([]*models.Proposal, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Proposal
	for _, proposal := range r.proposals {
		if proposal.FreelancerID == freelancerID {
			out = append(out, proposal)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeProposalRepo) GetFreelancerStats(ctx context.Context, tx *gorm.DB, freelancerID uint) (*repositories.FreelancerStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repositories.FreelancerStats{}
	for _, proposal := range r.proposals {
		if proposal.FreelancerID != freelancerID {
			continue
		}
		stats.TotalProposals++
		if proposal.Status == models.ProposalApproved {
			stats.ApprovedProposals++
		}
	}
	return stats, nil
}

func (r *fakeProposalRepo) ExistsByJobAndFreelancer(ctx context.Context, tx *gorm.DB, jobID, freelancerID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, proposal := range r.proposals {
		if proposal.JobID == jobID && proposal.FreelancerID == freelancerID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProposalRepo) CountByJob(ctx context.Context, tx *gorm.DB, jobID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, proposal := range r.proposals {
		if proposal.JobID == jobID {
			count++
		}
	}
	return count, nil
}
