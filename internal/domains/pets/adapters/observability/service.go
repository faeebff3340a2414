package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	pettypes "github.com/Apurer/pets-adoption-api/internal/domains/pets/application/types"
	"github.com/Apurer/pets-adoption-api/internal/domains/pets/ports"
)

const tracerName = "github.com/Apurer/pets-adoption-api/internal/domains/pets/adapters/observability"

var _ ports.Service = (*Service)(nil)

// Service wraps a pets service so every call gets a span, a duration sample and
// a structured log line for failures.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMeter enables the pets.service.* instruments.
func WithMeter(meter metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(meter)
	}
}

func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) AddPet(ctx context.Context, input pettypes.AddPetInput) (*pettypes.PetProjection, error) {
	result, err := observe(ctx, s, "Service.AddPet", func(ctx context.Context, span trace.Span) (*pettypes.PetProjection, error) {
		span.SetAttributes(attribute.Bool("idempotency.key_present", input.IdempotencyKey != ""))
		return s.inner.AddPet(ctx, input)
	}, attribute.String("pet.id", input.ID))
	if err == nil && result != nil && result.Entity != nil {
		s.metrics.created(ctx, result.Entity.Genus)
		s.logger.InfoContext(ctx, "pet sheltered", slog.String("pet.id", result.Entity.ID), slog.String("pet.genus", result.Entity.Genus))
	}
	return result, err
}

func (s *Service) ListPets(ctx context.Context, input pettypes.ListPetsInput) (*pettypes.PetPage, error) {
	return observe(ctx, s, "Service.ListPets", func(ctx context.Context, span trace.Span) (*pettypes.PetPage, error) {
		page, err := s.inner.ListPets(ctx, input)
		annotatePage(span, page)
		return page, err
	}, pageAttributes(input)...)
}

func (s *Service) GetByID(ctx context.Context, input pettypes.PetIdentifier) (*pettypes.PetProjection, error) {
	return observe(ctx, s, "Service.GetByID", func(ctx context.Context, _ trace.Span) (*pettypes.PetProjection, error) {
		return s.inner.GetByID(ctx, input)
	}, attribute.String("pet.id", input.ID))
}

func (s *Service) UpdatePet(ctx context.Context, input pettypes.UpdatePetInput) error {
	_, err := observe(ctx, s, "Service.UpdatePet", func(ctx context.Context, _ trace.Span) (struct{}, error) {
		return struct{}{}, s.inner.UpdatePet(ctx, input)
	}, attribute.String("pet.id", input.ID))
	if err == nil && input.Genus != nil {
		s.metrics.updated(ctx, *input.Genus)
	}
	return err
}

// AdoptPet never returns an error; a Failed outcome is reported on the span instead.
func (s *Service) AdoptPet(ctx context.Context, input pettypes.PetIdentifier) pettypes.AdoptionOutcome {
	outcome, _ := observe(ctx, s, "Service.AdoptPet", func(ctx context.Context, span trace.Span) (pettypes.AdoptionOutcome, error) {
		outcome := s.inner.AdoptPet(ctx, input)
		span.SetAttributes(attribute.String("adoption.outcome", outcome.Kind.String()))
		if outcome.Kind == pettypes.OutcomeAdopted && outcome.Pet != nil {
			span.SetAttributes(attribute.String("adopted.id", outcome.Pet.ID))
		}
		if outcome.Kind == pettypes.OutcomeFailed {
			return outcome, outcome.Err
		}
		return outcome, nil
	}, attribute.String("pet.id", input.ID))
	s.metrics.adopted(ctx, outcome.Kind)
	if outcome.Kind == pettypes.OutcomeAdopted && outcome.Pet != nil {
		s.logger.InfoContext(ctx, "pet adopted", slog.String("pet.id", input.ID), slog.String("adopted.id", outcome.Pet.ID))
	}
	return outcome
}

func (s *Service) GetAdoptedByID(ctx context.Context, input pettypes.PetIdentifier) (*pettypes.PetProjection, error) {
	return observe(ctx, s, "Service.GetAdoptedByID", func(ctx context.Context, _ trace.Span) (*pettypes.PetProjection, error) {
		return s.inner.GetAdoptedByID(ctx, input)
	}, attribute.String("adopted.id", input.ID))
}

func (s *Service) ListAdopted(ctx context.Context, input pettypes.ListPetsInput) (*pettypes.PetPage, error) {
	return observe(ctx, s, "Service.ListAdopted", func(ctx context.Context, span trace.Span) (*pettypes.PetPage, error) {
		page, err := s.inner.ListAdopted(ctx, input)
		annotatePage(span, page)
		return page, err
	}, pageAttributes(input)...)
}

// observe runs call inside a span named op and records its duration. Errors mark
// the span; expected lookup and conflict errors are logged at warn, the rest at error.
func observe[T any](ctx context.Context, s *Service, op string, call func(context.Context, trace.Span) (T, error), attrs ...attribute.KeyValue) (T, error) {
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attrs...))
	defer span.End()

	started := time.Now()
	result, err := call(ctx, span)
	s.metrics.observeDuration(ctx, op, time.Since(started), err)
	if err == nil {
		return result, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	level := slog.LevelError
	if expectedError(err) {
		level = slog.LevelWarn
	}
	logAttrs := make([]slog.Attr, 0, len(attrs)+2)
	logAttrs = append(logAttrs, slog.String("operation", op), slog.String("error", err.Error()))
	for _, kv := range attrs {
		logAttrs = append(logAttrs, slog.String(string(kv.Key), kv.Value.Emit()))
	}
	s.logger.LogAttrs(ctx, level, "pets service call failed", logAttrs...)
	return result, err
}

func expectedError(err error) bool {
	return errors.Is(err, ports.ErrNotFound) ||
		errors.Is(err, ports.ErrConflict) ||
		errors.Is(err, ports.ErrIdempotencyConflict)
}

func pageAttributes(input pettypes.ListPetsInput) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("pet.genus", input.Genus),
		attribute.Int("page.offset", input.Offset),
		attribute.Int("page.limit", input.Limit),
	}
}

func annotatePage(span trace.Span, page *pettypes.PetPage) {
	if page == nil {
		return
	}
	span.SetAttributes(
		attribute.Int("pet.result.count", len(page.Pets)),
		attribute.Int64("pet.result.total", page.TotalRecords),
	)
}

// serviceMetrics is inert until WithMeter supplies a meter.
type serviceMetrics struct {
	petsCreated metric.Int64Counter
	petsUpdated metric.Int64Counter
	adoptions   metric.Int64Counter
	duration    metric.Float64Histogram
}

func newServiceMetrics(meter metric.Meter) serviceMetrics {
	if meter == nil {
		return serviceMetrics{}
	}
	var m serviceMetrics
	m.petsCreated, _ = meter.Int64Counter("pets.service.created", metric.WithDescription("Pets taken into the shelter"))
	m.petsUpdated, _ = meter.Int64Counter("pets.service.updated", metric.WithDescription("Sheltered pets whose details changed"))
	m.adoptions, _ = meter.Int64Counter("pets.service.adoptions", metric.WithDescription("Adoption attempts by outcome"))
	m.duration, _ = meter.Float64Histogram("pets.service.duration", metric.WithUnit("s"), metric.WithDescription("Pets service call latency"))
	return m
}

func (m serviceMetrics) created(ctx context.Context, genus string) {
	if m.petsCreated != nil {
		m.petsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("pet.genus", genus)))
	}
}

func (m serviceMetrics) updated(ctx context.Context, genus string) {
	if m.petsUpdated != nil {
		m.petsUpdated.Add(ctx, 1, metric.WithAttributes(attribute.String("pet.genus", genus)))
	}
}

func (m serviceMetrics) adopted(ctx context.Context, kind pettypes.OutcomeKind) {
	if m.adoptions != nil {
		m.adoptions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", kind.String())))
	}
}

func (m serviceMetrics) observeDuration(ctx context.Context, op string, elapsed time.Duration, err error) {
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
			attribute.String("operation", op),
			attribute.Bool("error", err != nil),
		))
	}
}
