package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"traffic_supervisor/internal/endpoint"
	"traffic_supervisor/internal/gateway"
	"traffic_supervisor/internal/models"
	"traffic_supervisor/internal/proxysync"
)

// fakeProxy is a scripted ProxySync.
type fakeProxy struct {
	mu           sync.Mutex
	availability models.ProxyAvailability
	base         string
	pushOK       bool
	pushed       []string
	fetches      int
}

func (p *fakeProxy) Fetch(ctx context.Context) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetches++
	if p.availability == models.ProxyAvailable {
		return p.base, true
	}
	p.availability = models.ProxyUnavailable
	return "", false
}

func (p *fakeProxy) Push(ctx context.Context, override string) proxysync.PushResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, override)
	if !p.pushOK {
		p.availability = models.ProxyUnavailable
		p.base = ""
		return proxysync.PushResult{Err: errors.New("connection refused")}
	}
	p.availability = models.ProxyAvailable
	p.base = override
	return proxysync.PushResult{OK: true, Base: override}
}

func (p *fakeProxy) Availability() models.ProxyAvailability {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.availability
}

func (p *fakeProxy) Status() models.ProxyStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return models.ProxyStatus{Availability: p.availability, Base: p.base}
}

func newEndpointHarness(proxy *fakeProxy) (*EndpointService, *endpoint.Resolver, *reconcilerHarness) {
	h := newReconcilerHarness(routes(map[string]func() (*gateway.Result, error){
		StatusPath:  reply(200, `{"running":false}`),
		SensorsPath: reply(200, `{}`),
	}))
	resolver := endpoint.NewResolver(nil, "http://192.168.4.1", "", nil)
	svc := NewEndpointService(resolver, proxy, h.rec, h.tracker, h.events, h.clock, nil)
	return svc, resolver, h
}

func TestEndpointService_Update_AppliesPushesAndPolls(t *testing.T) {
	proxy := &fakeProxy{availability: models.ProxyUnknown, pushOK: true}
	svc, resolver, h := newEndpointHarness(proxy)

	out := svc.Update(context.Background(), " 10.1.1.5/ ")

	if out.Config.Override != "http://10.1.1.5" || out.Config.Effective != "http://10.1.1.5" {
		t.Fatalf("config: %+v", out.Config)
	}
	if resolver.EffectiveBase() != "http://10.1.1.5" {
		t.Fatalf("resolver not updated: %s", resolver.EffectiveBase())
	}
	if len(proxy.pushed) != 1 || proxy.pushed[0] != "http://10.1.1.5" {
		t.Fatalf("push: %v", proxy.pushed)
	}
	if out.Proxy.Availability != models.ProxyAvailable {
		t.Fatalf("proxy status: %+v", out.Proxy)
	}
	if len(out.Notices) != 0 {
		t.Fatalf("no notice expected: %v", out.Notices)
	}
	if h.gw.count("GET "+StatusPath) != 1 || h.gw.count("GET "+SensorsPath) != 1 {
		t.Fatalf("both routes must be polled once: %v", h.gw.calls)
	}
	if !hasEvent(h.events, models.EventEndpointChange) {
		t.Fatalf("ENDPOINT_CHANGE event missing: %v", h.events.types())
	}
}

func TestEndpointService_Update_FirstDiscoveryFailureIsSilent(t *testing.T) {
	proxy := &fakeProxy{availability: models.ProxyUnknown}
	svc, _, h := newEndpointHarness(proxy)

	out := svc.Update(context.Background(), "10.1.1.5")

	if len(out.Notices) != 0 {
		t.Fatalf("no notice expected when the proxy was never available: %v", out.Notices)
	}
	if out.Proxy.Availability != models.ProxyUnavailable {
		t.Fatalf("proxy status: %+v", out.Proxy)
	}
	if hasEvent(h.events, models.EventProxySyncFailed) {
		t.Fatalf("unexpected PROXY_SYNC_FAILED event")
	}
}

func TestEndpointService_Update_RegressionWarns(t *testing.T) {
	proxy := &fakeProxy{availability: models.ProxyAvailable, base: "http://192.168.4.1"}
	svc, _, h := newEndpointHarness(proxy)

	out := svc.Update(context.Background(), "10.1.1.5")

	if len(out.Notices) != 1 || out.Notices[0] != NoticeProxyNotUpdated {
		t.Fatalf("notices: %v", out.Notices)
	}
	if !hasEvent(h.events, models.EventProxySyncFailed) {
		t.Fatalf("PROXY_SYNC_FAILED event missing: %v", h.events.types())
	}
}

func TestEndpointService_Reset_RestoresDefault(t *testing.T) {
	proxy := &fakeProxy{availability: models.ProxyAvailable, pushOK: true}
	svc, resolver, _ := newEndpointHarness(proxy)

	svc.Update(context.Background(), "10.1.1.5")
	out := svc.Reset(context.Background())

	if out.Config.Override != "" || out.Config.Effective != "http://192.168.4.1" {
		t.Fatalf("config after reset: %+v", out.Config)
	}
	if resolver.EffectiveBase() != "http://192.168.4.1" {
		t.Fatalf("resolver after reset: %s", resolver.EffectiveBase())
	}
	if got := proxy.pushed[len(proxy.pushed)-1]; got != "" {
		t.Fatalf("reset must push an empty override, got %q", got)
	}
}

func TestEndpointService_UnparseableInputFallsBack(t *testing.T) {
	proxy := &fakeProxy{pushOK: true}
	svc, _, _ := newEndpointHarness(proxy)

	out := svc.Update(context.Background(), "ftp://not allowed")
	if out.Config.Override != "" || out.Config.Effective != "http://192.168.4.1" {
		t.Fatalf("config: %+v", out.Config)
	}
}

func TestEndpointService_CurrentAndRefresh(t *testing.T) {
	proxy := &fakeProxy{availability: models.ProxyAvailable, base: "http://192.168.1.9"}
	svc, _, _ := newEndpointHarness(proxy)

	st := svc.RefreshProxy(context.Background())
	if st.Availability != models.ProxyAvailable || st.Base != "http://192.168.1.9" {
		t.Fatalf("refresh: %+v", st)
	}
	if proxy.fetches != 1 {
		t.Fatalf("fetches: %d", proxy.fetches)
	}

	view := svc.Current()
	if view.Config.Effective != "http://192.168.4.1" || view.Proxy.Base != "http://192.168.1.9" {
		t.Fatalf("current: %+v", view)
	}
}
