package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/recurrence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// EngagementServiceDeps captures dependencies for constructing an engagement service.
type EngagementServiceDeps struct {
	Engagements application.EngagementRepository
	Engine      *recurrence.Engine
	Publisher   application.EventPublisher
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
	// ConflictCacheTTL overrides the conflict cache lifetime when positive.
	ConflictCacheTTL time.Duration
	Options          []application.EngagementServiceOption
}

// NewEngagementService builds an engagement service using the supplied
// dependencies combined with the factory defaults. The recurrence engine
// defaults to UTC.
func (f *ServiceFactory) NewEngagementService(deps EngagementServiceDeps) *application.EngagementService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	engine := deps.Engine
	if engine == nil {
		engine = recurrence.NewEngine(time.UTC)
	}
	opts := []application.EngagementServiceOption{application.WithEventPublisher(deps.Publisher)}
	if deps.ConflictCacheTTL != 0 {
		opts = append(opts, application.WithConflictCacheTTL(deps.ConflictCacheTTL))
	}
	opts = append(opts, deps.Options...)
	return application.NewEngagementServiceWithLogger(deps.Engagements, engine, idGen, now, deps.Logger, opts...)
}
