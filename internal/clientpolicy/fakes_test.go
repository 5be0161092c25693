package clientpolicy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/clientpolicy-console/internal/domain"
)

var errBoom = errors.New("boom")

type fakeGateway struct {
	mu        sync.Mutex
	stored    domain.PolicyCollection
	listErr   error
	updateErr error
	updates   int
	lists     int
	// block если задан, UpdatePolicies ждет закрытия канала
	block chan struct{}
}

func newFakeGateway(initial ...domain.ClientPolicy) *fakeGateway {
	return &fakeGateway{stored: domain.PolicyCollection(initial).Clone()}
}

func (g *fakeGateway) ListPolicies(_ context.Context, _ string) (domain.PolicyCollection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lists++
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.stored.Clone(), nil
}

func (g *fakeGateway) UpdatePolicies(_ context.Context, _ string, policies domain.PolicyCollection) error {
	if g.block != nil {
		<-g.block
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates++
	if g.updateErr != nil {
		return g.updateErr
	}
	g.stored = policies.Clone()
	return nil
}

func (g *fakeGateway) snapshot() domain.PolicyCollection {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stored.Clone()
}

func (g *fakeGateway) updateCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.updates
}

type alert struct {
	Message  string
	Severity Severity
	Err      error
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []alert
}

func (a *fakeAlerter) AddAlert(message string, severity Severity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert{Message: message, Severity: severity})
}

func (a *fakeAlerter) AddError(messageKey string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert{Message: messageKey, Severity: SeverityDanger, Err: err})
}

func (a *fakeAlerter) all() []alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]alert(nil), a.alerts...)
}

type fakeNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *fakeNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *fakeNavigator) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type fakeAuditor struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (a *fakeAuditor) Record(o Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes = append(a.outcomes, o)
}

type harness struct {
	gw      *fakeGateway
	alerts  *fakeAlerter
	nav     *fakeNavigator
	auditor *fakeAuditor
	reg     *prometheus.Registry
	wf      *Workflow
}

func newHarness(gw *fakeGateway) *harness {
	h := &harness{
		gw:      gw,
		alerts:  &fakeAlerter{},
		nav:     &fakeNavigator{},
		auditor: &fakeAuditor{},
		reg:     prometheus.NewRegistry(),
	}
	h.wf = NewWorkflow("master", Deps{
		Gateway:   gw,
		Alerter:   h.alerts,
		Navigator: h.nav,
		Auditor:   h.auditor,
		Metrics:   NewMetrics(h.reg),
	})
	return h
}

// transitions значение счетчика переходов from -> to (0, если серии нет).
func (h *harness) transitions(t *testing.T, from, to domain.Phase) float64 {
	t.Helper()
	families, err := h.reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "client_policy_workflow_transitions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["from"] == string(from) && labels["to"] == string(to) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
