package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/course-timetable-api/internal/dto"
	"github.com/noah-isme/course-timetable-api/internal/models"
	appErrors "github.com/noah-isme/course-timetable-api/pkg/errors"
	"github.com/noah-isme/course-timetable-api/pkg/jobs"
)

// JobTypeGenerateTimetable identifies batch regeneration jobs on the queue.
const JobTypeGenerateTimetable = "timetable.generate"

const batchJobRetention = 24 * time.Hour

type timetableGenerator interface {
	Generate(ctx context.Context, departmentID string) (*models.GenerationReport, error)
}

type jobEnqueuer interface {
	EnqueueAll(batch []jobs.Job) error
}

// TimetableBatchService fans a list of departments out to the background queue,
// one generation job per department.
type TimetableBatchService struct {
	generator timetableGenerator
	queue     jobEnqueuer
	validator *validator.Validate
	logger    *zap.Logger

	mu   sync.RWMutex
	jobs map[string]*models.BatchJob
}

// NewTimetableBatchService constructs the batch service. Attach a queue with UseQueue
// before enqueuing; the queue's handler is Handle.
func NewTimetableBatchService(generator timetableGenerator, validate *validator.Validate, logger *zap.Logger) *TimetableBatchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableBatchService{
		generator: generator,
		validator: validate,
		logger:    logger,
		jobs:      make(map[string]*models.BatchJob),
	}
}

// UseQueue sets the queue jobs are pushed to.
func (s *TimetableBatchService) UseQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Enqueue creates one job per distinct department. Either every job is queued or none is.
func (s *TimetableBatchService) Enqueue(ctx context.Context, req dto.BatchGenerateRequest) ([]models.BatchJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid batch generation payload")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "generation queue unavailable")
	}

	now := time.Now().UTC()
	s.prune(now)
	departments := lo.Uniq(req.DepartmentIDs)
	created := lo.Map(departments, func(departmentID string, _ int) models.BatchJob {
		return models.BatchJob{
			ID:           uuid.NewString(),
			DepartmentID: departmentID,
			Status:       models.BatchJobQueued,
			EnqueuedAt:   now,
		}
	})

	// Jobs are registered before they are queued so a fast worker always finds its record.
	s.mu.Lock()
	for i := range created {
		job := created[i]
		s.jobs[job.ID] = &job
	}
	s.mu.Unlock()

	queued := lo.Map(created, func(job models.BatchJob, _ int) jobs.Job {
		return jobs.Job{ID: job.ID, Type: JobTypeGenerateTimetable, Payload: job.DepartmentID}
	})
	if err := s.queue.EnqueueAll(queued); err != nil {
		s.mu.Lock()
		for _, job := range created {
			delete(s.jobs, job.ID)
		}
		s.mu.Unlock()
		s.logger.Error("failed to enqueue timetable jobs", zap.Strings("department_ids", departments), zap.Error(err))
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, fmt.Sprintf("failed to enqueue %d departments", len(departments)))
	}
	return created, nil
}

// Job returns a snapshot of a batch job.
func (s *TimetableBatchService) Job(id string) (*models.BatchJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	snapshot := *job
	return &snapshot, nil
}

// Handle runs a queued job. Errors returned here are seen by the queue's retry policy.
func (s *TimetableBatchService) Handle(ctx context.Context, job jobs.Job) error {
	departmentID, ok := job.Payload.(string)
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "timetable job payload must be a department id")
	}
	s.update(job.ID, func(j *models.BatchJob) {
		j.Status = models.BatchJobRunning
		j.Attempts = job.Attempt + 1
	})

	report, err := s.generator.Generate(ctx, departmentID)
	now := time.Now().UTC()
	if err != nil {
		code := appErrors.FromError(err).Code
		s.update(job.ID, func(j *models.BatchJob) {
			j.Status = models.BatchJobFailed
			j.ErrorCode = code
			j.FinishedAt = &now
		})
		return err
	}
	s.update(job.ID, func(j *models.BatchJob) {
		j.Status = models.BatchJobSucceeded
		j.ErrorCode = ""
		j.PlacedCount = report.PlacedCount
		j.UnplacedCount = len(report.Unplaced)
		j.FinishedAt = &now
	})
	return nil
}

// Retryable reports whether a failed generation is worth another attempt. Bad input fails
// the same way again. A store conflict means another department committed a clashing room
// while this run was placing, and the next run sees that booking.
func Retryable(err error) bool {
	return !errors.Is(err, appErrors.ErrInput) &&
		!errors.Is(err, appErrors.ErrValidation)
}

func (s *TimetableBatchService) update(id string, mutate func(*models.BatchJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		mutate(job)
	}
}

func (s *TimetableBatchService) prune(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		if job.FinishedAt != nil && now.Sub(*job.FinishedAt) > batchJobRetention {
			delete(s.jobs, id)
		}
	}
}
