package reconciler

import (
	"sync"
	"time"

	"labforge/pkg/apis/lab/v1alpha1"
	"labforge/pkg/logging"
)

// Metrics tracks what the periodic scans observed and corrected. All methods
// are safe for concurrent use.
type Metrics struct {
	mu sync.RWMutex

	scans                int64
	instancesExamined    int64
	corrections          int64
	provisioningTimeouts int64
	teardownTimeouts     int64
	expirations          int64
	requeues             int64
	retirements          int64
	skips                int64
	errors               int64
	lastScanAt           time.Time
	lastScanDuration     time.Duration
}

// MetricsSummary is a point-in-time view of the scan counters.
type MetricsSummary struct {
	Scans                int64         `json:"scans"`
	InstancesExamined    int64         `json:"instances_examined"`
	Corrections          int64         `json:"corrections"`
	ProvisioningTimeouts int64         `json:"provisioning_timeouts"`
	TeardownTimeouts     int64         `json:"teardown_timeouts"`
	Expirations          int64         `json:"expirations"`
	Requeues             int64         `json:"requeues"`
	Retirements          int64         `json:"retirements"`
	Skips                int64         `json:"skips"`
	Errors               int64         `json:"errors"`
	LastScanAt           time.Time     `json:"last_scan_at"`
	LastScanDuration     time.Duration `json:"last_scan_duration"`
}

// RecordScan records one completed full scan.
func (m *Metrics) RecordScan(examined, corrections int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
	m.instancesExamined += int64(examined)
	m.corrections += int64(corrections)
	m.lastScanAt = time.Now()
	m.lastScanDuration = duration

	logging.Debug("Reconciler", "scan examined %d instance(s), applied %d correction(s) in %v", examined, corrections, duration)
}

// RecordTimeout records a stuck instance moved to Failed.
func (m *Metrics) RecordTimeout(phase v1alpha1.LabInstancePhase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if phase == v1alpha1.LabInstanceDeleting {
		m.teardownTimeouts++
	} else {
		m.provisioningTimeouts++
	}
}

// RecordExpiry records a Ready instance moved to Deleting.
func (m *Metrics) RecordExpiry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expirations++
}

// RecordRequeue records a Pending instance touched for redelivery.
func (m *Metrics) RecordRequeue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requeues++
}

// RecordRetirement records a terminal instance removed from the store.
func (m *Metrics) RecordRetirement() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retirements++
}

// RecordSkip records a correction abandoned because a concurrent write won.
func (m *Metrics) RecordSkip() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skips++
}

// RecordError records a correction that failed for a reason other than a
// lost race.
func (m *Metrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors++
}

// Summary returns a copy of the current counters.
func (m *Metrics) Summary() MetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MetricsSummary{
		Scans:                m.scans,
		InstancesExamined:    m.instancesExamined,
		Corrections:          m.corrections,
		ProvisioningTimeouts: m.provisioningTimeouts,
		TeardownTimeouts:     m.teardownTimeouts,
		Expirations:          m.expirations,
		Requeues:             m.requeues,
		Retirements:          m.retirements,
		Skips:                m.skips,
		Errors:               m.errors,
		LastScanAt:           m.lastScanAt,
		LastScanDuration:     m.lastScanDuration,
	}
}
