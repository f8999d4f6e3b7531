package core

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"upvcerp/internal/infra/persistence/memory"
	"upvcerp/internal/logger"
	"upvcerp/internal/validation"
	"upvcerp/internal/valuation"
)

// DefaultDeliveryLeadDays is added to the approval date when a quotation is
// approved without an expected delivery date.
const DefaultDeliveryLeadDays = 14

const tracerName = "upvcerp/internal/core"

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the logger used when the context carries none.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records command outcomes and publishes the valuation gauge.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer overrides the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithValidator overrides the input validator.
func WithValidator(v *validation.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithDeliveryLeadDays sets the default gap between approval and delivery.
func WithDeliveryLeadDays(days int) Option {
	return func(s *Service) {
		if days >= 0 {
			s.leadDays = days
		}
	}
}

// Service runs the ERP commands. Every command is one gateway mutation: the
// primary change, its cascades and its activity entries commit together.
type Service struct {
	gateway   *Gateway
	validator *validation.Validator
	metrics   *Metrics
	tracer    trace.Tracer
	logger    *zap.Logger
	leadDays  int
}

// NewService constructs a service writing through gateway.
func NewService(gateway *Gateway, opts ...Option) *Service {
	s := &Service{
		gateway:   gateway,
		validator: validation.New(""),
		tracer:    otel.Tracer(tracerName),
		logger:    logger.L(),
		leadDays:  DefaultDeliveryLeadDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics != nil {
		m := s.metrics
		if snap, err := gateway.Get(context.Background()); err == nil {
			m.SetValuation(valuation.TotalValue(snap.Inventory))
		}
		gateway.Subscribe(func(snap Snapshot) {
			m.SetValuation(valuation.TotalValue(snap.Inventory))
		})
	}
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	return NewService(NewGateway(memory.NewStore(engine)), opts...)
}

// Gateway returns the gateway the service writes through.
func (s *Service) Gateway() *Gateway { return s.gateway }

// Get returns the current full state.
func (s *Service) Get(ctx context.Context) (Snapshot, error) { return s.gateway.Get(ctx) }

// Subscribe forwards to the gateway.
func (s *Service) Subscribe(fn func(Snapshot)) func() { return s.gateway.Subscribe(fn) }

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// run validates cmd and executes fn as one gateway mutation.
func (s *Service) run(ctx context.Context, cmd Command, fn func(Transaction) error) (Result, error) {
	return s.runWith(ctx, cmd, func(ctx context.Context) (Result, error) {
		return s.gateway.Mutate(ctx, fn)
	})
}

// runWith validates cmd and calls exec, tracing, timing and logging the outcome.
func (s *Service) runWith(ctx context.Context, cmd Command, exec func(context.Context) (Result, error)) (Result, error) {
	kind := cmd.Kind()
	ctx, span := s.tracer.Start(ctx, "command "+kind, trace.WithAttributes(
		attribute.String("upvcerp.command", kind),
		attribute.String("upvcerp.actor", ActorFrom(ctx)),
	))
	defer span.End()
	log := s.log(ctx).With(zap.String("command", kind))

	start := time.Now()
	var res Result
	err := s.validator.Struct(cmd)
	if err == nil {
		res, err = exec(ctx)
	}
	elapsed := time.Since(start)
	s.metrics.Observe(ctx, kind, err == nil, elapsed)

	for _, v := range res.Warnings() {
		log.Warn("rule warning",
			zap.String("rule", v.Rule),
			zap.String("entity", string(v.Entity)),
			zap.String("id", v.EntityID),
			zap.String("message", v.Message))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("upvcerp.outcome", "error"))
		log.Error("command failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return res, err
	}
	span.SetAttributes(attribute.String("upvcerp.outcome", "success"))
	log.Debug("command applied", zap.Duration("elapsed", elapsed), zap.Int("violations", len(res.Violations)))
	return res, nil
}

// mutate runs fn through s.run and returns the record it produced.
func mutate[T any](ctx context.Context, s *Service, cmd Command, fn func(Transaction) (T, error)) (T, Result, error) {
	var out T
	res, err := s.run(ctx, cmd, func(tx Transaction) error {
		var err error
		out, err = fn(tx)
		return err
	})
	if err != nil {
		var zero T
		return zero, res, err
	}
	return out, res, nil
}

// Execute dispatches cmd to its typed method and returns the affected record,
// or nil for commands that produce none.
func (s *Service) Execute(ctx context.Context, cmd Command) (any, Result, error) {
	switch c := cmd.(type) {
	case CreateEnquiry:
		return wrap(s.CreateEnquiry(ctx, c))
	case UpdateEnquiry:
		return wrap(s.UpdateEnquiry(ctx, c))
	case CreateQuotation:
		return wrap(s.CreateQuotation(ctx, c))
	case AddQuotationItem:
		return wrap(s.AddQuotationItem(ctx, c))
	case SendQuotation:
		return wrap(s.SendQuotation(ctx, c))
	case RejectQuotation:
		return wrap(s.RejectQuotation(ctx, c))
	case ReviseQuotation:
		return wrap(s.ReviseQuotation(ctx, c))
	case ApproveQuotation:
		return wrap(s.ApproveQuotation(ctx, c))
	case AdvanceSalesOrder:
		return wrap(s.AdvanceSalesOrder(ctx, c))
	case AddInventoryItem:
		return wrap(s.AddInventoryItem(ctx, c))
	case UpdateInventoryItem:
		return wrap(s.UpdateInventoryItem(ctx, c))
	case AdjustStock:
		return wrap(s.AdjustStock(ctx, c))
	case DeleteInventoryItem:
		return none(s.DeleteInventoryItem(ctx, c))
	case CreateCustomer:
		return wrap(s.CreateCustomer(ctx, c))
	case UpdateCustomer:
		return wrap(s.UpdateCustomer(ctx, c))
	case DeleteCustomer:
		return none(s.DeleteCustomer(ctx, c))
	case CreateSupplier:
		return wrap(s.CreateSupplier(ctx, c))
	case UpdateSupplier:
		return wrap(s.UpdateSupplier(ctx, c))
	case DeleteSupplier:
		return none(s.DeleteSupplier(ctx, c))
	case CreatePurchaseOrder:
		return wrap(s.CreatePurchaseOrder(ctx, c))
	case TransitionPurchaseOrder:
		return wrap(s.TransitionPurchaseOrder(ctx, c))
	case StartProductionJob:
		return wrap(s.StartProductionJob(ctx, c))
	case AdvanceProductionJob:
		return wrap(s.AdvanceProductionJob(ctx, c))
	case CreateDispatch:
		return wrap(s.CreateDispatch(ctx, c))
	case TransitionDispatch:
		return wrap(s.TransitionDispatch(ctx, c))
	case ScheduleInstallation:
		return wrap(s.ScheduleInstallation(ctx, c))
	case TransitionInstallation:
		return wrap(s.TransitionInstallation(ctx, c))
	case OpenWarrantyClaim:
		return wrap(s.OpenWarrantyClaim(ctx, c))
	case TransitionWarrantyClaim:
		return wrap(s.TransitionWarrantyClaim(ctx, c))
	case RecordServiceVisit:
		return wrap(s.RecordServiceVisit(ctx, c))
	case ImportCatalog:
		return wrap(s.ImportCatalog(ctx, c))
	case RestoreData:
		return none(s.RestoreData(ctx, c))
	case ResetData:
		return none(s.ResetData(ctx, c))
	case nil:
		return nil, Result{}, fmt.Errorf("nil command")
	default:
		return nil, Result{}, &UnknownCommandError{Type: cmd.Kind()}
	}
}

func wrap(v any, res Result, err error) (any, Result, error) {
	if err != nil {
		return nil, res, err
	}
	return v, res, nil
}

func none(res Result, err error) (any, Result, error) {
	return nil, res, err
}
