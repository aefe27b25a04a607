package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"traffic_supervisor/internal/models"
	"traffic_supervisor/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	enabled    bool
	parseSub   string
	parseErr   error
	lastParsed string
}

func (m *mockAuth) Enabled() bool { return m.enabled }
func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParsed = token
	return m.parseSub, m.parseErr
}

type mockControl struct {
	startErr    error
	stopErr     error
	startCalled int
	stopCalled  int
}

func (m *mockControl) Start(ctx context.Context) error {
	m.startCalled++
	return m.startErr
}
func (m *mockControl) Stop(ctx context.Context) error {
	m.stopCalled++
	return m.stopErr
}

type mockMonitoring struct {
	mu        sync.Mutex
	state     models.SupervisorState
	err       error
	listeners map[int]service.StateListener
	nextID    int
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.SupervisorState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.err
}

func (m *mockMonitoring) Subscribe(fn service.StateListener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listeners == nil {
		m.listeners = map[int]service.StateListener{}
	}
	m.nextID++
	id := m.nextID
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// publish replaces the state and notifies subscribers the way the tracker does.
func (m *mockMonitoring) publish(st models.SupervisorState) {
	m.mu.Lock()
	m.state = st
	listeners := make([]service.StateListener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}

func (m *mockMonitoring) subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

type mockEventLog struct {
	resp      []models.SupervisorEvent
	err       error
	lastFrom  time.Time
	lastTo    time.Time
	lastType  string
	lastLimit int
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.SupervisorEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastLimit = f.Limit
	return m.resp, m.err
}

type mockEndpoint struct {
	view    service.EndpointView
	notices []string
	updates []string
	resets  int
}

func (m *mockEndpoint) Current() service.EndpointView { return m.view }
func (m *mockEndpoint) Update(ctx context.Context, raw string) service.EndpointUpdate {
	m.updates = append(m.updates, raw)
	m.view.Config = models.EndpointConfig{Override: raw, Effective: raw}
	return service.EndpointUpdate{EndpointView: m.view, Notices: m.notices}
}
func (m *mockEndpoint) Reset(ctx context.Context) service.EndpointUpdate {
	m.resets++
	m.view.Config = models.EndpointConfig{Effective: "http://192.168.4.1"}
	return service.EndpointUpdate{EndpointView: m.view}
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withHeader(req *http.Request, hdr http.Header) *http.Request {
	for k, vv := range hdr {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
