package shop

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

var errOrderCodeExhausted = errors.New("no free order code")

// Service records orders and reviews. Each call is one transaction.
type Service struct {
	Store Store
	// Events is optional; publishing happens after commit and never fails a call.
	Events   Publisher
	Log      *zap.Logger
	NewCode  func() string
	Producer string
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) newCode() string {
	if s.NewCode != nil {
		return s.NewCode()
	}
	return NewOrderCode()
}

// resolveClient returns the id of the client owning in.Email, creating the
// client when absent and overwriting the supplied fields when present.
func resolveClient(ctx context.Context, clients ClientRepository, in Identity) (int64, error) {
	id, found, err := clients.FindIDByEmail(ctx, in.Email)
	if err != nil {
		return 0, fmt.Errorf("find client: %w", err)
	}
	if found {
		if err := clients.Update(ctx, id, in); err != nil {
			return 0, fmt.Errorf("update client %d: %w", id, err)
		}
		return id, nil
	}
	id, err = clients.Insert(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("insert client: %w", err)
	}
	return id, nil
}

func (s *Service) insertHeader(ctx context.Context, orders OrderRepository, o Order) (Order, error) {
	for i := 0; i < orderCodeAttempts; i++ {
		o.Code = s.newCode()
		id, inserted, err := orders.InsertHeader(ctx, o)
		if err != nil {
			return Order{}, fmt.Errorf("insert order: %w", err)
		}
		if inserted {
			o.ID = id
			return o, nil
		}
		s.logger().Warn("order code collision", zap.String("order_code", o.Code))
	}
	return Order{}, errOrderCodeExhausted
}

// PlaceOrder resolves the client, writes the order header and its line items,
// and commits them together.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (PlaceOrderResult, error) {
	if err := in.Validate(); err != nil {
		return PlaceOrderResult{}, err
	}
	items := in.lineItems()

	var out PlaceOrderResult
	err := s.Store.WithinTx(ctx, func(r TxRepos) error {
		clientID, err := resolveClient(ctx, r.Clients(), in.identity())
		if err != nil {
			return err
		}
		o, err := s.insertHeader(ctx, r.Orders(), Order{ClientID: clientID, DeliveryAddress: in.Address})
		if err != nil {
			return err
		}
		if len(items) > 0 {
			for i := range items {
				items[i].OrderID = o.ID
			}
			if err := r.Orders().InsertLineItems(ctx, items); err != nil {
				return fmt.Errorf("insert line items for order %d: %w", o.ID, err)
			}
		}
		out = PlaceOrderResult{OrderCode: o.Code, OrderID: o.ID, ClientID: clientID}
		return nil
	})
	if err != nil {
		e := classify(err, "order could not be placed")
		s.logger().Error("place order failed", zap.String("kind", e.Kind.String()), zap.Error(err))
		return PlaceOrderResult{}, e
	}

	s.logger().Info("order placed",
		zap.Int64("order_id", out.OrderID),
		zap.String("order_code", out.OrderCode),
		zap.Int64("client_id", out.ClientID),
		zap.Int("line_items", len(items)),
	)
	qty := make([]ItemQty, 0, len(items))
	for _, it := range items {
		qty = append(qty, ItemQty{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	s.publish(ctx, TopicOrderPlaced, EventOrderPlaced, strconv.FormatInt(out.OrderID, 10), OrderPlacedPayload{
		OrderID:   out.OrderID,
		OrderCode: out.OrderCode,
		ClientID:  out.ClientID,
		Items:     qty,
	})
	return out, nil
}

// SubmitReview resolves the client by email (first name only) and records the
// review. The optional order id is stored as given, without lookup.
func (s *Service) SubmitReview(ctx context.Context, in SubmitReviewInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	var rev Review
	err := s.Store.WithinTx(ctx, func(r TxRepos) error {
		clientID, err := resolveClient(ctx, r.Clients(), in.identity())
		if err != nil {
			return err
		}
		rev = Review{ClientID: clientID, OrderID: in.orderID(), Rating: in.Rating.Value, Comment: in.Comment}
		rev.ID, err = r.Reviews().Insert(ctx, rev)
		if err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
		return nil
	})
	if err != nil {
		e := classify(err, "review could not be saved")
		s.logger().Error("submit review failed", zap.String("kind", e.Kind.String()), zap.Error(err))
		return e
	}

	s.publish(ctx, TopicReviewSubmitted, EventReviewSubmitted, strconv.FormatInt(rev.ClientID, 10), ReviewSubmittedPayload{
		ReviewID: rev.ID,
		ClientID: rev.ClientID,
		OrderID:  rev.OrderID,
		Rating:   rev.Rating,
	})
	return nil
}

func (s *Service) publish(ctx context.Context, topic, eventType, correlationID string, payload any) {
	if s.Events == nil {
		return
	}
	env, err := NewEnvelope(eventType, s.Producer, correlationID, traceID(ctx), payload)
	if err == nil {
		err = s.Events.Publish(ctx, topic, env)
	}
	if err != nil {
		s.logger().Warn("publish event failed", zap.String("topic", topic), zap.Error(err))
	}
}
