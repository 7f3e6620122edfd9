package speciation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/phreeqprep/internal/domain/phreeqc"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
	"github.com/turtacn/phreeqprep/pkg/types/solution"
)

// SolverJob is a finished deck queued for an external solver.
type SolverJob struct {
	ID        string    `json:"id"`
	Database  string    `json:"database"`
	Input     string    `json:"input"`
	Targets   []string  `json:"targets"`
	Solutions int       `json:"solutions"`
	CreatedAt time.Time `json:"created_at"`
}

// JobPublisher hands jobs to the solver fleet.
type JobPublisher interface {
	PublishJob(ctx context.Context, job *SolverJob) error
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Normalizer NormalizerOptions
	Generator  GeneratorOptions
	Publisher  JobPublisher
	Logger     logging.Logger
	Recorder   Recorder

	// NamesOnly resolves databases through the registry sources alone and
	// never as file paths.
	NamesOnly bool
}

// Service resolves databases by name and runs the speciation operations
// against them.
type Service struct {
	registry *phreeqc.Registry
	opts     ServiceOptions
	logger   logging.Logger
	now      func() time.Time
}

// NewService returns a Service over registry.
func NewService(registry *phreeqc.Registry, opts ServiceOptions) *Service {
	logger := logging.OrDefault(opts.Logger)
	if opts.Normalizer.Logger == nil {
		opts.Normalizer.Logger = logger
	}
	if opts.Generator.Logger == nil {
		opts.Generator.Logger = logger
	}
	if opts.Normalizer.Recorder == nil {
		opts.Normalizer.Recorder = opts.Recorder
	}
	if opts.Generator.Recorder == nil {
		opts.Generator.Recorder = opts.Recorder
	}
	return &Service{registry: registry, opts: opts, logger: logger.Named("speciation"), now: time.Now}
}

// Registry returns the database registry.
func (s *Service) Registry() *phreeqc.Registry { return s.registry }

// Generator returns a generator bound to the named database.
func (s *Service) Generator(ctx context.Context, database string) (*Generator, error) {
	get := s.registry.Get
	if s.opts.NamesOnly {
		get = s.registry.GetByName
	}
	db, err := get(ctx, database)
	if err != nil {
		return nil, err
	}
	norm := NewNormalizer(db, s.opts.Normalizer)
	return NewGenerator(db, norm, s.opts.Generator), nil
}

// CheckInputs validates t against the named database.
func (s *Service) CheckInputs(ctx context.Context, database string, t *solution.Table, allowRemoval bool) (*solution.Table, Report, error) {
	g, err := s.Generator(ctx, database)
	if err != nil {
		return nil, Report{}, err
	}
	return g.Normalizer().CheckInputs(t, allowRemoval)
}

// MakeInput builds a deck for t against the named database.
func (s *Service) MakeInput(ctx context.Context, database string, t *solution.Table, opts InputOptions) (*InputDeck, error) {
	g, err := s.Generator(ctx, database)
	if err != nil {
		return nil, err
	}
	return g.MakeInput(ctx, t, opts)
}

// Submit builds a deck and publishes it as a solver job.
func (s *Service) Submit(ctx context.Context, database string, t *solution.Table, opts InputOptions) (*SolverJob, *InputDeck, error) {
	if s.opts.Publisher == nil {
		return nil, nil, errors.New(errors.ErrCodeServiceUnavailable, "no job publisher configured")
	}
	deck, err := s.MakeInput(ctx, database, t, opts)
	if err != nil {
		return nil, nil, err
	}

	job := &SolverJob{
		ID:        uuid.NewString(),
		Database:  deck.Database,
		Input:     deck.Text,
		Targets:   deck.Targets,
		Solutions: deck.Solutions,
		CreatedAt: s.now().UTC(),
	}
	err = s.opts.Publisher.PublishJob(ctx, job)
	if s.opts.Recorder != nil {
		s.opts.Recorder.RecordJob(job.Database, err)
	}
	if err != nil {
		s.logger.Error("failed to publish solver job", logging.String("job_id", job.ID), logging.Err(err))
		return nil, deck, errors.Wrap(err, errors.ErrCodeJobSubmission, "failed to publish solver job")
	}
	s.logger.Info("solver job published",
		logging.String("job_id", job.ID),
		logging.Database(job.Database),
		logging.Int("solutions", job.Solutions))
	return job, deck, nil
}

//Personal.AI order the ending
