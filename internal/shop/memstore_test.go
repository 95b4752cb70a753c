package shop

import (
	"context"
	"errors"
	"sync"
)

var errInjected = errors.New("injected failure")

type memClient struct {
	ID        int64
	FirstName *string
	LastName  *string
	Phone     *string
	Email     string
}

type memState struct {
	clients []memClient
	orders  []Order
	items   []LineItem
	reviews []Review
}

func (s memState) clone() memState {
	return memState{
		clients: append([]memClient(nil), s.clients...),
		orders:  append([]Order(nil), s.orders...),
		items:   append([]LineItem(nil), s.items...),
		reviews: append([]Review(nil), s.reviews...),
	}
}

// memStore is a transactional in-memory Store: each WithinTx works on a copy
// that replaces the committed state only when fn succeeds.
type memStore struct {
	mu        sync.Mutex
	state     memState
	txCount   int
	rollbacks int
	beginErr  error
	failAt    string
	takenCode map[string]bool
}

func newMemStore() *memStore { return &memStore{takenCode: map[string]bool{}} }

func (m *memStore) WithinTx(ctx context.Context, fn func(r TxRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++
	if m.beginErr != nil {
		return m.beginErr
	}
	tx := &memTx{store: m, state: m.state.clone()}
	if err := fn(tx); err != nil {
		m.rollbacks++
		return err
	}
	m.state = tx.state
	return nil
}

func (m *memStore) fail(op string) error {
	if m.failAt == op {
		return errInjected
	}
	return nil
}

type memTx struct {
	store *memStore
	state memState
}

func (t *memTx) Clients() ClientRepository { return memClients{t} }
func (t *memTx) Orders() OrderRepository   { return memOrders{t} }
func (t *memTx) Reviews() ReviewRepository { return memReviews{t} }

type memClients struct{ tx *memTx }

func (c memClients) FindIDByEmail(_ context.Context, email string) (int64, bool, error) {
	if err := c.tx.store.fail("clients.find"); err != nil {
		return 0, false, err
	}
	for _, cl := range c.tx.state.clients {
		if cl.Email == email {
			return cl.ID, true, nil
		}
	}
	return 0, false, nil
}

func (c memClients) Insert(_ context.Context, in Identity) (int64, error) {
	if err := c.tx.store.fail("clients.insert"); err != nil {
		return 0, err
	}
	id := int64(len(c.tx.state.clients) + 1)
	c.tx.state.clients = append(c.tx.state.clients, memClient{
		ID: id, Email: in.Email, FirstName: in.FirstName, LastName: in.LastName, Phone: in.Phone,
	})
	return id, nil
}

func (c memClients) Update(_ context.Context, id int64, in Identity) error {
	if err := c.tx.store.fail("clients.update"); err != nil {
		return err
	}
	for i := range c.tx.state.clients {
		cl := &c.tx.state.clients[i]
		if cl.ID != id {
			continue
		}
		if in.FirstName != nil {
			cl.FirstName = in.FirstName
		}
		if in.LastName != nil {
			cl.LastName = in.LastName
		}
		if in.Phone != nil {
			cl.Phone = in.Phone
		}
	}
	return nil
}

type memOrders struct{ tx *memTx }

func (o memOrders) InsertHeader(_ context.Context, ord Order) (int64, bool, error) {
	if err := o.tx.store.fail("orders.header"); err != nil {
		return 0, false, err
	}
	if o.tx.store.takenCode[ord.Code] {
		return 0, false, nil
	}
	for _, existing := range o.tx.state.orders {
		if existing.Code == ord.Code {
			return 0, false, nil
		}
	}
	ord.ID = int64(len(o.tx.state.orders) + 1)
	o.tx.state.orders = append(o.tx.state.orders, ord)
	return ord.ID, true, nil
}

func (o memOrders) InsertLineItems(_ context.Context, items []LineItem) error {
	if err := o.tx.store.fail("orders.items"); err != nil {
		return err
	}
	o.tx.state.items = append(o.tx.state.items, items...)
	return nil
}

type memReviews struct{ tx *memTx }

func (r memReviews) Insert(_ context.Context, rev Review) (int64, error) {
	if err := r.tx.store.fail("reviews.insert"); err != nil {
		return 0, err
	}
	rev.ID = int64(len(r.tx.state.reviews) + 1)
	r.tx.state.reviews = append(r.tx.state.reviews, rev)
	return rev.ID, nil
}

type capturedEvent struct {
	topic string
	env   Envelope
}

type recordingPublisher struct {
	events []capturedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, env Envelope) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, capturedEvent{topic: topic, env: env})
	return nil
}
