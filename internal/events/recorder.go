package events

import (
	"context"
	"sync"

	"k8s.io/apimachinery/pkg/types"
	"k8s.io/utils/clock"

	"labforge/pkg/apis/lab/v1alpha1"
	"labforge/pkg/logging"
	pkgstrings "labforge/pkg/strings"
)

// DefaultCapacity bounds the in-memory event ring.
const DefaultCapacity = 512

// RecorderOptions configures a Recorder.
type RecorderOptions struct {
	// Capacity bounds the ring; the oldest events are dropped first.
	// Zero selects DefaultCapacity.
	Capacity int

	// Clock stamps event times. Defaults to the real clock.
	Clock clock.PassiveClock
}

// Recorder turns watcher deliveries into lifecycle events. It keeps the last
// observed phase per UID, so repeated deliveries of the same phase stay
// quiet and only transitions are recorded.
type Recorder struct {
	templates *MessageTemplateEngine
	clock     clock.PassiveClock
	capacity  int

	mu        sync.Mutex
	ring      []Event
	start     int
	total     int64
	lastPhase map[types.UID]v1alpha1.LabInstancePhase
}

// NewRecorder creates a Recorder ready to be registered as a watcher handler.
func NewRecorder(opts RecorderOptions) *Recorder {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := opts.Clock
	if c == nil {
		c = clock.RealClock{}
	}
	return &Recorder{
		templates: NewMessageTemplateEngine(),
		clock:     c,
		capacity:  capacity,
		lastPhase: make(map[types.UID]v1alpha1.LabInstancePhase),
	}
}

// HandleEvent is the watcher handler. It records an event whenever the
// observed phase differs from the last phase seen for the instance's UID.
func (r *Recorder) HandleEvent(ctx context.Context, inst *v1alpha1.LabInstance) error {
	phase := inst.EffectivePhase()
	reason := reasonFor(phase)

	r.mu.Lock()
	defer r.mu.Unlock()

	if last, seen := r.lastPhase[inst.UID]; seen && last == phase {
		return nil
	}
	if phase.Terminal() {
		// Terminal instances never transition again; dropping them keeps
		// the map from growing with retired UIDs.
		delete(r.lastPhase, inst.UID)
	} else {
		r.lastPhase[inst.UID] = phase
	}

	ev := Event{
		Type:            getEventType(reason),
		Reason:          reason,
		Name:            inst.Name,
		UID:             inst.UID,
		Phase:           phase,
		Message:         r.templates.Render(reason, dataFor(inst, phase)),
		ResourceVersion: inst.ResourceVersion,
		Time:            r.clock.Now(),
	}
	r.append(ev)

	logging.Debug("Events", "recorded %s event %s for instance %s", string(ev.Type), string(ev.Reason), ev.Name)
	return nil
}

// List returns up to limit events, oldest first. A non-positive limit
// returns everything still in the ring.
func (r *Recorder) List(limit int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.ring)
	if n == 0 {
		return nil
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Event, 0, limit)
	for i := n - limit; i < n; i++ {
		out = append(out, r.ring[(r.start+i)%n])
	}
	return out
}

// Total returns the number of events recorded since startup, including
// events the ring has already dropped.
func (r *Recorder) Total() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// SetTemplate overrides the message template for one event reason.
func (r *Recorder) SetTemplate(reason EventReason, template string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates.SetTemplate(reason, template)
}

func (r *Recorder) append(ev Event) {
	if len(r.ring) < r.capacity {
		r.ring = append(r.ring, ev)
	} else {
		r.ring[r.start] = ev
		r.start = (r.start + 1) % r.capacity
	}
	r.total++
}

// dataFor extracts the template data an event message needs from the
// observed instance. Status messages are flattened to a single line so a
// wrapped error chain cannot break the event log.
func dataFor(inst *v1alpha1.LabInstance, phase v1alpha1.LabInstancePhase) EventData {
	data := EventData{
		Name:        inst.Name,
		Template:    inst.Spec.Template,
		RequestedBy: inst.Spec.RequestedBy,
		Endpoint:    inst.Status.Endpoint,
	}
	switch phase {
	case v1alpha1.LabInstanceFailed:
		data.Error = pkgstrings.TruncateMessage(inst.Status.Message, 2*pkgstrings.DefaultMessageMaxLen)
	case v1alpha1.LabInstanceDeleting:
		data.Detail = pkgstrings.TruncateMessage(inst.Status.Message, 2*pkgstrings.DefaultMessageMaxLen)
	}
	return data
}
