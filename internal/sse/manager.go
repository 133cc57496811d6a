package sse

import (
	"context"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/errors"
	"github.com/listenupapp/skipper/internal/id"
	"github.com/listenupapp/skipper/internal/store"
)

// Client represents a connected SSE client.
type Client struct {
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}
	ID          string
	DeviceID    string
}

// Manager manages SSE connections, broadcasts segment updates and delivers
// playback commands to the clients of a single device.
type Manager struct {
	clients           map[string]*Client
	events            chan Event
	logger            *slog.Logger
	wg                sync.WaitGroup
	heartbeatInterval time.Duration
	mu                sync.RWMutex

	// Shutdown state - protected by shutdownMu
	shutdownMu sync.RWMutex
	shutdown   bool
}

var _ store.EventEmitter = (*Manager)(nil)

// NewManager creates a new SSE Manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		clients:           make(map[string]*Client),
		events:            make(chan Event, 256),
		logger:            logger,
		heartbeatInterval: 30 * time.Second,
	}
}

// Start runs the broadcast loop until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	m.logger.Info("SSE manager starting")

	heartbeatTicker := time.NewTicker(m.heartbeatInterval)
	defer heartbeatTicker.Stop()

	for {
		select {
		case event, ok := <-m.events:
			if !ok {
				return
			}
			m.broadcast(event)

		case <-heartbeatTicker.C:
			m.broadcast(NewHeartbeatEvent())

		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			m.closeAllClients()
			return
		}
	}
}

// Shutdown stops accepting new events, drains queued ones and waits for
// the broadcast loop to exit.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdownMu.Lock()
	if m.shutdown {
		m.shutdownMu.Unlock()
		return nil
	}
	m.shutdown = true
	close(m.events)
	m.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		for event := range m.events {
			m.broadcast(event)
		}
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("SSE event drain timeout, some events may be lost")
	}
	m.closeAllClients()
	m.logger.Info("SSE manager shutdown complete")
	return nil
}

func (m *Manager) broadcast(event Event) {
	var delivered, dropped, filtered int

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		if event.DeviceID != "" && client.DeviceID != event.DeviceID {
			filtered++
			continue
		}

		// Non-blocking send (drop if client is slow/stuck).
		select {
		case client.EventChan <- event:
			delivered++
		default:
			dropped++
			m.logger.Warn("dropped event for slow client",
				slog.String("client_id", client.ID),
				slog.String("event_type", string(event.Type)))
		}
	}

	if event.Type != EventHeartbeat {
		m.logger.Debug("event broadcast",
			slog.String("event_type", string(event.Type)),
			slog.Group("stats",
				slog.Int("delivered", delivered),
				slog.Int("filtered", filtered),
				slog.Int("dropped", dropped)))
	}
}

// Connect registers a new SSE client for deviceID. An empty device id
// subscribes to broadcasts only.
func (m *Manager) Connect(deviceID string) (*Client, error) {
	clientID, err := id.Generate(id.PrefixClient)
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:          clientID,
		DeviceID:    deviceID,
		EventChan:   make(chan Event, 32),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	totalClients := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("SSE client connected",
		slog.String("client_id", clientID),
		slog.String("device_id", deviceID),
		slog.Int("total_clients", totalClients))
	return client, nil
}

// Disconnect removes a client and closes its channels.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, clientID)
	totalClients := len(m.clients)
	m.mu.Unlock()

	close(client.Done)
	close(client.EventChan)

	m.logger.Info("SSE client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(client.ConnectedAt)),
		slog.Int("total_clients", totalClients))
}

// Emit queues an event for broadcasting. It accepts Event values and
// store.SegmentUpdated notifications.
func (m *Manager) Emit(event any) {
	var evt Event
	switch e := event.(type) {
	case Event:
		evt = e
	case store.SegmentUpdated:
		evt = NewSegmentUpdatedEvent(e.Mode, e.Segment)
	default:
		m.logger.Error("invalid event type emitted", slog.Any("event", event))
		return
	}

	// Hold the read lock through the send so Shutdown cannot close the
	// channel underneath us.
	m.shutdownMu.RLock()
	defer m.shutdownMu.RUnlock()

	if m.shutdown {
		return
	}

	select {
	case m.events <- evt:
	default:
		m.logger.Error("SSE event channel full, dropping event",
			slog.String("event_type", string(evt.Type)))
	}
}

// SendSeek delivers a seek command to the device playing s. It fails when
// no client of that device could take the command.
func (m *Manager) SendSeek(_ context.Context, s domain.PlaybackSession, targetSeconds float64) error {
	return m.deliver(NewSeekEvent(s, targetSeconds))
}

// SendNotification delivers a message to the device playing s.
func (m *Manager) SendNotification(_ context.Context, s domain.PlaybackSession, text string) error {
	return m.deliver(NewNotifyEvent(s, text))
}

// deliver sends a device command synchronously so the caller learns whether
// anyone received it.
func (m *Manager) deliver(event Event) error {
	m.shutdownMu.RLock()
	defer m.shutdownMu.RUnlock()
	if m.shutdown {
		return errors.Internalf("event stream is shut down")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched, delivered int
	for _, client := range m.clients {
		if client.DeviceID != event.DeviceID {
			continue
		}
		matched++
		select {
		case client.EventChan <- event:
			delivered++
		default:
		}
	}

	switch {
	case matched == 0:
		return errors.NotFoundf("no event stream connected for device %s", event.DeviceID)
	case delivered == 0:
		return errors.Internalf("all streams for device %s are backed up", event.DeviceID)
	}
	m.logger.Debug("command delivered",
		slog.String("event_type", string(event.Type)),
		slog.String("device_id", event.DeviceID),
		slog.Int("delivered", delivered))
	return nil
}

// Clients returns an iterator over all connected clients.
func (m *Manager) Clients() iter.Seq[*Client] {
	return func(yield func(*Client) bool) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		for _, client := range m.clients {
			if !yield(client) {
				return
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) closeAllClients() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		close(client.Done)
		close(client.EventChan)
	}
	clear(m.clients)
}
