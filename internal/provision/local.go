package provision

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/utils/clock"

	"labforge/pkg/apis/lab/v1alpha1"
	"labforge/pkg/logging"
)

// DefaultEndpointTemplate renders the simulated lab URL when no template is
// configured.
const DefaultEndpointTemplate = "https://{{ .Name }}-{{ .Token }}.labs.example.com"

// LocalConfig configures the Local provisioner.
type LocalConfig struct {
	// Delay is how long each operation takes, simulating backend work.
	Delay time.Duration

	// EndpointTemplate is a text/template rendering the environment URL.
	// It receives Name, Template, RequestedBy, Token and Parameters and
	// may use the sprig function map. Empty selects
	// DefaultEndpointTemplate.
	EndpointTemplate string

	// Templates is the allow-list of lab templates this provisioner can
	// launch. Empty allows every template.
	Templates []string

	// MaxActive caps concurrently active environments. 0 means no cap.
	MaxActive int

	// Clock paces the simulated work. Defaults to the real clock.
	Clock clock.Clock
}

// endpointData is the rendering context for EndpointTemplate.
type endpointData struct {
	Name        string
	Template    string
	RequestedBy string
	Token       string
	Parameters  map[string]string
}

// Local simulates an environment backend in process. It tracks active
// environments by instance UID so quota and teardown behave like a real
// backend would.
type Local struct {
	cfg   LocalConfig
	tmpl  *template.Template
	clock clock.Clock

	mu     sync.Mutex
	active map[types.UID]string
}

// NewLocal creates a Local provisioner, parsing the endpoint template once.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if cfg.EndpointTemplate == "" {
		cfg.EndpointTemplate = DefaultEndpointTemplate
	}
	tmpl, err := template.New("endpoint").Funcs(sprig.TxtFuncMap()).Parse(cfg.EndpointTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse endpoint template: %w", err)
	}
	c := cfg.Clock
	if c == nil {
		c = clock.RealClock{}
	}
	return &Local{
		cfg:    cfg,
		tmpl:   tmpl,
		clock:  c,
		active: make(map[types.UID]string),
	}, nil
}

// Provision simulates creating the environment for inst.
func (l *Local) Provision(ctx context.Context, inst *v1alpha1.LabInstance) (*Result, error) {
	if !l.templateAllowed(inst.Spec.Template) {
		return nil, newError(OpProvision, inst.Name, ErrTemplateUnknown)
	}
	if err := l.reserve(inst.UID); err != nil {
		return nil, newError(OpProvision, inst.Name, err)
	}

	if err := l.work(ctx); err != nil {
		l.release(inst.UID)
		return nil, newError(OpProvision, inst.Name, err)
	}

	endpoint, err := l.renderEndpoint(inst)
	if err != nil {
		l.release(inst.UID)
		return nil, newError(OpProvision, inst.Name, err)
	}

	l.mu.Lock()
	l.active[inst.UID] = endpoint
	l.mu.Unlock()

	logging.Debug("Provisioner", "environment for %s up at %s", inst.Name, endpoint)
	return &Result{Endpoint: endpoint}, nil
}

// Teardown simulates destroying the environment for inst. Unknown
// environments tear down successfully.
func (l *Local) Teardown(ctx context.Context, inst *v1alpha1.LabInstance) error {
	if err := l.work(ctx); err != nil {
		return newError(OpTeardown, inst.Name, err)
	}

	l.mu.Lock()
	delete(l.active, inst.UID)
	l.mu.Unlock()

	logging.Debug("Provisioner", "environment for %s torn down", inst.Name)
	return nil
}

// Active returns the number of currently active environments, reservations
// included.
func (l *Local) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.active)
}

func (l *Local) templateAllowed(name string) bool {
	if len(l.cfg.Templates) == 0 {
		return true
	}
	for _, t := range l.cfg.Templates {
		if t == name {
			return true
		}
	}
	return false
}

// reserve claims a quota slot for uid before the simulated work starts, so
// concurrent provisions cannot overshoot MaxActive.
func (l *Local) reserve(uid types.UID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.active[uid]; exists {
		return nil
	}
	if l.cfg.MaxActive > 0 && len(l.active) >= l.cfg.MaxActive {
		return ErrQuota
	}
	l.active[uid] = ""
	return nil
}

func (l *Local) release(uid types.UID) {
	l.mu.Lock()
	delete(l.active, uid)
	l.mu.Unlock()
}

// work simulates backend latency, honoring cancellation.
func (l *Local) work(ctx context.Context) error {
	if l.cfg.Delay <= 0 {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		return nil
	}
	timer := l.clock.NewTimer(l.cfg.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ErrCancelled
	case <-timer.C():
		return nil
	}
}

func (l *Local) renderEndpoint(inst *v1alpha1.LabInstance) (string, error) {
	data := endpointData{
		Name:        inst.Name,
		Template:    inst.Spec.Template,
		RequestedBy: inst.Spec.RequestedBy,
		Token:       shortToken(),
		Parameters:  inst.Spec.Parameters,
	}
	var buf bytes.Buffer
	if err := l.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render endpoint: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// shortToken derives a small unique handle for endpoint hostnames.
func shortToken() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}
