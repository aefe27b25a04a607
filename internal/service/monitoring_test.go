package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"traffic_supervisor/internal/models"

	"github.com/jonboulle/clockwork"
)

type stubEndpointSource struct{ cfg models.EndpointConfig }

func (s stubEndpointSource) Config() models.EndpointConfig { return s.cfg }

type stubProxySource struct{ st models.ProxyStatus }

func (s stubProxySource) Status() models.ProxyStatus { return s.st }

func ptrF(v float64) *float64 { return &v }
func ptrB(v bool) *bool       { return &v }
func ptrS(v string) *string   { return &v }

func TestMonitoringService_GetState_Baseline(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC))
	m := NewMonitoringService(clock, stubEndpointSource{cfg: models.EndpointConfig{Effective: "http://192.168.4.1"}}, nil)

	got, err := m.GetState(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Connectivity != models.Disconnected {
		t.Errorf("baseline connectivity: want disconnected, got %s", got.Connectivity)
	}
	if got.Phase != models.PhaseOff || got.Device.Phase != models.PhaseOff {
		t.Errorf("baseline phase: want OFF, got %s / %s", got.Phase, got.Device.Phase)
	}
	if got.Device.Durations != models.DefaultDurations() {
		t.Errorf("baseline durations: got %+v", got.Device.Durations)
	}
	if got.Endpoint.Effective != "http://192.168.4.1" {
		t.Errorf("endpoint: got %+v", got.Endpoint)
	}
	if got.Proxy.Availability != models.ProxyUnknown {
		t.Errorf("proxy without source must be unknown, got %s", got.Proxy.Availability)
	}
	if !got.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("updated_at: got %v, want %v", got.UpdatedAt, clock.Now())
	}
}

func TestMonitoringService_GetState_CancelledContext(t *testing.T) {
	t.Parallel()

	m := NewMonitoringService(clockwork.NewFakeClock(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.GetState(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMonitoringService_ConnectivityTransitions(t *testing.T) {
	t.Parallel()

	m := NewMonitoringService(clockwork.NewFakeClock(), nil, nil)

	if !m.MarkConnected() {
		t.Fatalf("first MarkConnected must report a change")
	}
	if m.MarkConnected() {
		t.Fatalf("repeated MarkConnected must not report a change")
	}

	m.UpdateDevice(func(d *models.DeviceSnapshot) { d.ClockText = ptrS("12:00:01") })

	if !m.MarkDisconnected("Request timed out") {
		t.Fatalf("MarkDisconnected after connected must report a change")
	}
	st, _ := m.GetState(context.Background())
	if st.Device.ClockText != nil {
		t.Errorf("clock text must be cleared on disconnect, got %q", *st.Device.ClockText)
	}
	if st.StatusError != "Request timed out" {
		t.Errorf("status error: got %q", st.StatusError)
	}

	m.MarkConnected()
	st, _ = m.GetState(context.Background())
	if st.StatusError != "" {
		t.Errorf("status error must clear on reconnect, got %q", st.StatusError)
	}
}

func TestMonitoringService_ReplaceSensorsIsWholesale(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	m := NewMonitoringService(clock, nil, nil)

	m.ReplaceSensors(&models.SensorReading{
		DHT: &models.DHTReading{OK: ptrB(true), TempC: ptrF(21.5), HumidityPct: ptrF(40)},
		BMP: &models.BMPReading{OK: ptrB(true), PressureHpa: ptrF(1013.2)},
	})
	m.SetSensorsError("boom")

	clock.Advance(5 * time.Second)
	m.ReplaceSensors(&models.SensorReading{BMP: &models.BMPReading{OK: ptrB(true), PressureHpa: ptrF(1009)}})

	d := m.Device()
	if d.Sensors == nil || d.Sensors.DHT != nil {
		t.Fatalf("DHT block must be gone after a payload without it: %+v", d.Sensors)
	}
	if got := models.FormatMeasurement(nil, 1); got != models.NoData {
		t.Fatalf("absent measurement must render %q, got %q", models.NoData, got)
	}
	if *d.Sensors.BMP.PressureHpa != 1009 {
		t.Errorf("pressure: got %v", *d.Sensors.BMP.PressureHpa)
	}
	if d.SensorsError != "" {
		t.Errorf("sensor error must clear on success, got %q", d.SensorsError)
	}
	if !d.SensorsAt.Equal(clock.Now().UTC()) {
		t.Errorf("sensors_at: got %v, want %v", d.SensorsAt, clock.Now())
	}
}

func TestMonitoringService_SensorErrorKeepsSnapshot(t *testing.T) {
	t.Parallel()

	m := NewMonitoringService(clockwork.NewFakeClock(), nil, nil)
	m.ReplaceSensors(&models.SensorReading{Rain: ptrB(true)})
	m.SetSensorsError("No response from the device")

	d := m.Device()
	if d.Sensors == nil || d.Sensors.Rain == nil || !*d.Sensors.Rain {
		t.Fatalf("sensor snapshot must survive a failed read: %+v", d.Sensors)
	}
	if d.SensorsError != "No response from the device" {
		t.Errorf("sensor error: got %q", d.SensorsError)
	}
}

func TestMonitoringService_DeviceCopyIsIsolated(t *testing.T) {
	t.Parallel()

	m := NewMonitoringService(clockwork.NewFakeClock(), nil, nil)
	m.UpdateDevice(func(d *models.DeviceSnapshot) { d.ClockText = ptrS("08:00") })

	d := m.Device()
	*d.ClockText = "tampered"

	if got := *m.Device().ClockText; got != "08:00" {
		t.Fatalf("tracker state leaked through a copy: %q", got)
	}
}

func TestMonitoringService_SubscribeReceivesChanges(t *testing.T) {
	t.Parallel()

	m := NewMonitoringService(clockwork.NewFakeClock(), nil, stubProxySource{st: models.ProxyStatus{Availability: models.ProxyAvailable}})

	var got []models.SupervisorState
	m.Subscribe(func(st models.SupervisorState) { got = append(got, st) })

	m.SetPhase(models.PhaseGreen)
	m.SetRunning(true)

	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0].Phase != models.PhaseGreen {
		t.Errorf("first notification phase: got %s", got[0].Phase)
	}
	if !got[1].Device.Running {
		t.Errorf("second notification must carry running=true")
	}
	if got[1].Proxy.Availability != models.ProxyAvailable {
		t.Errorf("proxy status: got %s", got[1].Proxy.Availability)
	}
}

func TestMonitoringService_ListenersSeeVersionOrder(t *testing.T) {
	t.Parallel()

	m := NewMonitoringService(clockwork.NewFakeClock(), nil, nil)

	var (
		mu   sync.Mutex
		seen []uint64
	)
	m.Subscribe(func(st models.SupervisorState) {
		mu.Lock()
		seen = append(seen, st.Version)
		mu.Unlock()
	})

	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				if (i+j)%2 == 0 {
					m.SetPhase(models.PhaseGreen)
				} else {
					m.SetRunning(j%3 == 0)
				}
			}
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != writers*perWriter {
		t.Fatalf("expected %d notifications, got %d", writers*perWriter, len(seen))
	}
	for i, v := range seen {
		if v != uint64(i+1) {
			t.Fatalf("notification %d carried version %d", i, v)
		}
	}
	st, _ := m.GetState(context.Background())
	if st.Version != seen[len(seen)-1] {
		t.Fatalf("published version %d, last notified %d", st.Version, seen[len(seen)-1])
	}
}

func TestMonitoringService_UnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	m := NewMonitoringService(clockwork.NewFakeClock(), nil, nil)

	var first, second int
	unsubscribe := m.Subscribe(func(models.SupervisorState) { first++ })
	m.Subscribe(func(models.SupervisorState) { second++ })

	m.SetPhase(models.PhaseGreen)
	unsubscribe()
	unsubscribe()
	m.SetPhase(models.PhaseYellow)

	if first != 1 || second != 2 {
		t.Fatalf("deliveries: first=%d second=%d", first, second)
	}
}

func TestMonitoringService_MarkUnreachableKeepsDevice(t *testing.T) {
	t.Parallel()

	m := NewMonitoringService(clockwork.NewFakeClock(), nil, nil)
	m.MarkConnected()
	m.UpdateDevice(func(d *models.DeviceSnapshot) { d.ClockText = ptrS("08:00") })

	if !m.MarkUnreachable("Network error") {
		t.Fatalf("first failure must report a change")
	}
	if m.MarkUnreachable("Network error") {
		t.Fatalf("repeated failure must not report a change")
	}
	st, _ := m.GetState(context.Background())
	if st.Connectivity != models.Disconnected || st.StatusError != "Network error" {
		t.Fatalf("connectivity=%s err=%q", st.Connectivity, st.StatusError)
	}
	if st.Device.ClockText == nil || *st.Device.ClockText != "08:00" {
		t.Fatalf("clock text must survive a failed command: %v", st.Device.ClockText)
	}
}
