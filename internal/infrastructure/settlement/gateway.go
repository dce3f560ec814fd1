package settlement

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"
	"payportal.backend/internal/domain/entities"
	"payportal.backend/pkg/logger"
	"payportal.backend/pkg/rabbitmq"
)

// RoutingKeySubmitted is used for every settlement publication.
const RoutingKeySubmitted = "payment.submitted"

var randomRead = rand.Read

// Gateway hands verified payments to the settlement network. The network
// itself is out of process; the gateway mints the transaction reference and
// announces the submission on the event bus.
type Gateway struct {
	publisher rabbitmq.Publisher
	now       func() time.Time
}

// NewGateway creates a gateway that announces submissions through publisher.
// A nil publisher falls back to logging only.
func NewGateway(publisher rabbitmq.Publisher) *Gateway {
	if publisher == nil {
		publisher = rabbitmq.FallbackProducer{}
	}
	return &Gateway{publisher: publisher, now: time.Now}
}

// NewTransactionID returns SWIFT-<unix millis>-<16 hex chars>.
func (g *Gateway) NewTransactionID(_ context.Context) (string, error) {
	buf := make([]byte, 8)
	if _, err := randomRead(buf); err != nil {
		return "", fmt.Errorf("generate settlement id: %w", err)
	}
	return fmt.Sprintf("SWIFT-%d-%s", g.now().UnixMilli(), hex.EncodeToString(buf)), nil
}

// Announce publishes the submission. Failures are logged and returned so the
// caller can decide whether they matter.
func (g *Gateway) Announce(ctx context.Context, event entities.SettlementEvent) error {
	if err := g.publisher.Publish(ctx, RoutingKeySubmitted, event); err != nil {
		logger.Error(ctx, "Failed to publish settlement event",
			zap.String("payment_id", event.PaymentID.String()),
			zap.String("settlement_transaction_id", event.SettlementTransactionID),
			zap.Error(err))
		return err
	}
	return nil
}
