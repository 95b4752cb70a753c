package shop

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type LineItemInput struct {
	ID       *int64 `json:"id"`
	Quantity *int   `json:"quantity"`
}

type PlaceOrderInput struct {
	FirstName string          `json:"firstName" validate:"required"`
	LastName  string          `json:"lastName" validate:"required"`
	Phone     string          `json:"phone" validate:"required"`
	Email     string          `json:"email" validate:"required"`
	Address   string          `json:"address" validate:"required"`
	Products  []LineItemInput `json:"products" validate:"required,min=1"`
}

type PlaceOrderResult struct {
	OrderCode string `json:"orderCode"`
	OrderID   int64  `json:"orderId"`
	ClientID  int64  `json:"clientId"`
}

// Rating is a review score as submitted. It decodes from a JSON integer or a
// numeric string and never fails decoding: anything else leaves Valid false.
type Rating struct {
	Value int
	Valid bool
}

func NewRating(v int) Rating { return Rating{Value: v, Valid: true} }

func (r *Rating) UnmarshalJSON(b []byte) error {
	*r = Rating{}
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return nil
	}
	r.Value, r.Valid = int(f), true
	return nil
}

func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(r.Value)), nil
}

type SubmitReviewInput struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Rating  Rating `json:"rating"`
	Comment string `json:"comment" validate:"required"`
	OrderID *int64 `json:"orderId"`
}

func (in PlaceOrderInput) identity() Identity {
	return Identity{
		Email:     in.Email,
		FirstName: &in.FirstName,
		LastName:  &in.LastName,
		Phone:     &in.Phone,
	}
}

// lineItems drops entries without a product id and defaults missing or zero
// quantities to 1.
func (in PlaceOrderInput) lineItems() []LineItem {
	out := make([]LineItem, 0, len(in.Products))
	for _, p := range in.Products {
		if p.ID == nil || *p.ID == 0 {
			continue
		}
		qty := 1
		if p.Quantity != nil && *p.Quantity > 0 {
			qty = *p.Quantity
		}
		out = append(out, LineItem{ProductID: *p.ID, Quantity: qty})
	}
	return out
}

// Review submissions only ever set the first name.
func (in SubmitReviewInput) identity() Identity {
	return Identity{Email: in.Email, FirstName: &in.Name}
}

func (in SubmitReviewInput) orderID() *int64 {
	if in.OrderID == nil || *in.OrderID == 0 {
		return nil
	}
	id := *in.OrderID
	return &id
}
