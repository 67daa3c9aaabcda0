package application

import (
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/bnema/eligibility-cli/internal/ports"
)

const tracerName = "github.com/bnema/eligibility-cli/internal/application"

// Service builds eligibility sessions that share one client and the
// process-wide logging, analytics and clock collaborators.
type Service struct {
	client    ports.EligibilityClient
	logger    ports.Logger
	analytics ports.Analytics
	clock     ports.Clock
	tracer    trace.Tracer
	newID     func() string
}

func NewService(client ports.EligibilityClient, logger ports.Logger, analytics ports.Analytics, clock ports.Clock) *Service {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	if analytics == nil {
		analytics = ports.NopAnalytics{}
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Service{
		client:    client,
		logger:    logger,
		analytics: analytics,
		clock:     clock,
		tracer:    otel.Tracer(tracerName),
		newID:     func() string { return uuid.NewString() },
	}
}
