package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/verification-service/internal/config"
	"github.com/spec-kit/verification-service/internal/lifecycle"
)

// PaymentGateway abstracts the payment provider invoked by lifecycle side
// effects. The real provider integration lives outside this service; the
// stub implementation below only logs.
type PaymentGateway interface {
	ReleaseHold(ctx context.Context, requestID string) error
	Capture(ctx context.Context, requestID string) error
}

type stubPaymentGateway struct {
	logger *zap.Logger
}

// NewStubPaymentGateway returns a gateway that logs instead of calling a
// provider.
func NewStubPaymentGateway(logger *zap.Logger) PaymentGateway {
	return &stubPaymentGateway{logger: logger}
}

func (g *stubPaymentGateway) ReleaseHold(ctx context.Context, requestID string) error {
	g.logger.Info("payment hold released", zap.String("request_id", requestID))
	return nil
}

func (g *stubPaymentGateway) Capture(ctx context.Context, requestID string) error {
	g.logger.Info("payment captured", zap.String("request_id", requestID))
	return nil
}

// LifecycleEffects is the sequential executor for tagged transition side
// effects. The engine calls Execute once per effect, in declared order;
// any error aborts the transition.
type LifecycleEffects struct {
	payments PaymentGateway
	logger   *zap.Logger
	cfg      config.NotificationConfig
}

// NewLifecycleEffects constructs the executor.
func NewLifecycleEffects(payments PaymentGateway, logger *zap.Logger, cfg config.NotificationConfig) *LifecycleEffects {
	return &LifecycleEffects{payments: payments, logger: logger, cfg: cfg}
}

// Execute runs a single tagged effect for the given request context.
func (e *LifecycleEffects) Execute(ctx context.Context, effect lifecycle.EffectKind, rc lifecycle.Context) error {
	switch effect {
	case lifecycle.EffectReleasePaymentHold:
		return e.payments.ReleaseHold(ctx, rc.RequestID)
	case lifecycle.EffectCapturePayment:
		return e.payments.Capture(ctx, rc.RequestID)
	case lifecycle.EffectBroadcastIntegrations:
		e.sendWebhookStub(rc.RequestID, string(effect))
		return nil
	case lifecycle.EffectRecomputeDeadlines:
		// the engine never persists; RequestService applies the extended
		// deadline after the transition commits
		e.logger.Info("deadline recomputation requested",
			zap.String("request_id", rc.RequestID),
			zap.Float64("extension_hours", rc.Policy.ExtensionHours))
		return nil
	default:
		e.sendNotificationStub(rc, effect)
		return nil
	}
}

func (e *LifecycleEffects) sendNotificationStub(rc lifecycle.Context, effect lifecycle.EffectKind) {
	if strings.TrimSpace(e.cfg.EmailFrom) == "" {
		return
	}
	e.logger.Debug("sendNotificationStub",
		zap.String("from", e.cfg.EmailFrom),
		zap.String("request_id", rc.RequestID),
		zap.String("customer_id", rc.CustomerID),
		zap.String("effect", string(effect)))
}

func (e *LifecycleEffects) sendWebhookStub(requestID, effect string) {
	if strings.TrimSpace(e.cfg.WebhookURL) == "" {
		return
	}
	e.logger.Debug("sendWebhookStub",
		zap.String("url", e.cfg.WebhookURL),
		zap.String("request_id", requestID),
		zap.String("effect", effect))
}
