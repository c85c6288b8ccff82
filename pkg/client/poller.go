package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/restovia/resto-realtime/internal/core/domain"
)

// SnapshotReader fetches the current set of active orders.
type SnapshotReader interface {
	ActiveOrders(ctx context.Context) ([]*domain.Order, error)
}

// Poller bridges the event stream over plain HTTP: it fetches the
// active-orders snapshot on a fixed interval and synthesizes the events
// that a live session would have delivered. Polls never overlap; each
// one runs under its own timeout so a slow server cannot stall the
// schedule past a single tick.
type Poller struct {
	reader   SnapshotReader
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	events chan domain.Event

	// known maps order ID to the status seen in the previous snapshot.
	known  map[string]domain.OrderStatus
	primed bool
}

// PollerConfig configures a Poller.
type PollerConfig struct {
	Interval time.Duration // default 10s
	Timeout  time.Duration // per poll, default Interval/2
	Logger   *slog.Logger
}

// NewPoller creates a poller over the given reader. Call Run to start.
func NewPoller(reader SnapshotReader, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout <= 0 || cfg.Timeout >= cfg.Interval {
		cfg.Timeout = cfg.Interval / 2
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &Poller{
		reader:   reader,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
		events:   make(chan domain.Event, 64),
		known:    make(map[string]domain.OrderStatus),
	}
}

// Events is the stream of synthesized events. The channel is closed
// when Run returns.
func (p *Poller) Events() <-chan domain.Event {
	return p.events
}

// Run polls until ctx is cancelled. The first successful poll only
// primes the baseline; events are emitted from the second one on.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.events)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	orders, err := p.reader.ActiveOrders(ctx)
	if err != nil {
		// Keep the baseline; a transient failure must not replay the
		// whole snapshot as fresh events on the next success.
		p.logger.Warn("poll failed", slog.String("error", err.Error()))
		return
	}

	current := make(map[string]domain.OrderStatus, len(orders))
	for _, order := range orders {
		current[order.ID] = order.Status

		if p.primed {
			prev, seen := p.known[order.ID]
			if !seen || prev != order.Status {
				p.emitChange(order)
			}
		}
	}

	p.known = current
	p.primed = true
}

// emitChange synthesizes the events for one observed transition. The
// actor is unknown on this path, so the payload carries an empty one.
func (p *Poller) emitChange(order *domain.Order) {
	p.send(domain.Event{
		Type: domain.EventOrderStatusUpdated,
		Payload: domain.OrderStatusPayload{
			OrderID:     order.ID,
			OrderNumber: order.Number,
			Status:      order.Status,
			UpdatedAt:   order.UpdatedAt,
		},
	})

	if order.Status == domain.OrderPreparing {
		p.send(domain.NewKitchenTicketEvent(order))
	}
}

func (p *Poller) send(event domain.Event) {
	select {
	case p.events <- event:
	default:
		p.logger.Warn("event buffer full, dropping", slog.String("type", string(event.Type)))
	}
}

// HTTPSnapshotReader reads the active-orders snapshot from the REST
// fallback endpoint.
type HTTPSnapshotReader struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPSnapshotReader creates a reader against baseURL, e.g.
// "https://api.example.com". The token is sent as a bearer credential.
func NewHTTPSnapshotReader(baseURL, token string, httpClient *http.Client) *HTTPSnapshotReader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPSnapshotReader{baseURL: baseURL, token: token, client: httpClient}
}

type activeOrdersResponse struct {
	Data []struct {
		OrderID     string             `json:"orderId"`
		OrderNumber string             `json:"orderNumber"`
		Status      domain.OrderStatus `json:"status"`
		Items       []domain.OrderItem `json:"items"`
		TableNumber string             `json:"tableNumber"`
		UpdatedAt   time.Time          `json:"updatedAt"`
	} `json:"data"`
}

// ActiveOrders implements SnapshotReader.
func (r *HTTPSnapshotReader) ActiveOrders(ctx context.Context) ([]*domain.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/v1/orders/active", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client: snapshot request failed: %s", resp.Status)
	}

	var body activeOrdersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(body.Data))
	for _, o := range body.Data {
		orders = append(orders, &domain.Order{
			ID:          o.OrderID,
			Number:      o.OrderNumber,
			Status:      o.Status,
			Items:       o.Items,
			TableNumber: o.TableNumber,
			UpdatedAt:   o.UpdatedAt,
		})
	}
	return orders, nil
}
