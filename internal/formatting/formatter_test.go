package formatting

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"labforge/pkg/apis/lab/v1alpha1"
)

func sampleInstance(name string, phase v1alpha1.LabInstancePhase) *v1alpha1.LabInstance {
	inst := &v1alpha1.LabInstance{}
	inst.Name = name
	inst.CreationTimestamp = metav1.NewTime(time.Now().Add(-90 * time.Minute))
	inst.ResourceVersion = "7"
	inst.Spec = v1alpha1.LabInstanceSpec{
		Template:    "kubernetes-intro",
		RequestedBy: "jdoe",
		Duration:    metav1.Duration{Duration: 2 * time.Hour},
	}
	inst.Status.Phase = phase
	return inst
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected OutputFormat
		wantErr  bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseFormat(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat(%q) failed: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFactoryDispatch(t *testing.T) {
	factory := NewFactory()

	if _, ok := factory.CreateFormatter(Options{Format: FormatJSON}).(*JSONFormatter); !ok {
		t.Error("expected a JSONFormatter for the json format")
	}
	if _, ok := factory.CreateFormatter(Options{Format: FormatYAML}).(*YAMLFormatter); !ok {
		t.Error("expected a YAMLFormatter for the yaml format")
	}
	if _, ok := factory.CreateFormatter(Options{Format: FormatTable}).(*TableFormatter); !ok {
		t.Error("expected a TableFormatter for the table format")
	}
	if _, ok := factory.CreateFormatter(Options{}).(*TableFormatter); !ok {
		t.Error("expected the table formatter as the default")
	}
}

func TestTableListOutput(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(Options{Format: FormatTable, Output: &buf})

	ready := sampleInstance("alice-lab", v1alpha1.LabInstanceReady)
	ready.Status.Endpoint = "https://alice-lab-1a2b.labs.example.com"
	failed := sampleInstance("bob-lab", v1alpha1.LabInstanceFailed)
	failed.Status.Message = strings.Repeat("provisioning did not finish within the configured budget ", 3)

	if err := f.FormatInstanceList([]*v1alpha1.LabInstance{ready, failed}); err != nil {
		t.Fatalf("FormatInstanceList failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"NAME", "PHASE", "ENDPOINT", "alice-lab", "bob-lab", "Ready", "Failed", "https://alice-lab-1a2b.labs.example.com", "2 lab instance(s)"} {
		if !strings.Contains(output, want) {
			t.Errorf("table output should contain %q.\n%s", want, output)
		}
	}
	if !strings.Contains(output, "...") {
		t.Error("long message should be truncated with an ellipsis")
	}
}

func TestTableListQuietSuppressesSummary(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(Options{Format: FormatTable, Quiet: true, Output: &buf})

	if err := f.FormatInstanceList([]*v1alpha1.LabInstance{sampleInstance("a", v1alpha1.LabInstancePending)}); err != nil {
		t.Fatalf("FormatInstanceList failed: %v", err)
	}
	if strings.Contains(buf.String(), "lab instance(s)") {
		t.Error("quiet output should not include the summary line")
	}
}

func TestTableListEmpty(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(Options{Format: FormatTable, Output: &buf})

	if err := f.FormatInstanceList(nil); err != nil {
		t.Fatalf("FormatInstanceList failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No lab instances found") {
		t.Errorf("expected empty message, got %q", buf.String())
	}
}

func TestTableInstanceDetail(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(Options{Format: FormatTable, Output: &buf})

	inst := sampleInstance("alice-lab", v1alpha1.LabInstanceReady)
	readyAt := metav1.NewTime(time.Now().Add(-10 * time.Minute))
	inst.Status.ReadyAt = &readyAt
	inst.Status.Endpoint = "https://alice-lab.labs.example.com"
	v1alpha1.SetPhaseCondition(inst, v1alpha1.LabInstanceReady, v1alpha1.ReasonProvisioned, "endpoint up", readyAt)

	if err := f.FormatInstance(inst); err != nil {
		t.Fatalf("FormatInstance failed: %v", err)
	}
	output := buf.String()
	for _, want := range []string{"Name", "alice-lab", "kubernetes-intro", "Ready At", "Expires At", "CONDITION", "Provisioned"} {
		if !strings.Contains(output, want) {
			t.Errorf("detail output should contain %q.\n%s", want, output)
		}
	}
}

func TestJSONListEnvelope(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(Options{Format: FormatJSON, Output: &buf})

	if err := f.FormatInstanceList([]*v1alpha1.LabInstance{sampleInstance("alice-lab", v1alpha1.LabInstancePending)}); err != nil {
		t.Fatalf("FormatInstanceList failed: %v", err)
	}

	var list v1alpha1.LabInstanceList
	if err := json.Unmarshal(buf.Bytes(), &list); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if list.Kind != "LabInstanceList" {
		t.Errorf("expected LabInstanceList kind, got %q", list.Kind)
	}
	if len(list.Items) != 1 || list.Items[0].Name != "alice-lab" {
		t.Errorf("unexpected items: %+v", list.Items)
	}
}

func TestJSONQuietIsCompact(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(Options{Format: FormatJSON, Quiet: true, Output: &buf})

	if err := f.FormatInstance(sampleInstance("a", v1alpha1.LabInstancePending)); err != nil {
		t.Fatalf("FormatInstance failed: %v", err)
	}
	if got := strings.Count(strings.TrimSpace(buf.String()), "\n"); got != 0 {
		t.Errorf("quiet JSON should be a single line, found %d extra newline(s)", got)
	}
}

func TestYAMLInstanceIsAManifest(t *testing.T) {
	var buf bytes.Buffer
	f := NewYAMLFormatter(Options{Format: FormatYAML, Output: &buf})

	inst := sampleInstance("alice-lab", v1alpha1.LabInstanceReady)
	inst.APIVersion = v1alpha1.SchemeGroupVersion.String()
	inst.Kind = "LabInstance"
	if err := f.FormatInstance(inst); err != nil {
		t.Fatalf("FormatInstance failed: %v", err)
	}

	var parsed v1alpha1.LabInstance
	if err := yaml.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not parseable YAML: %v\n%s", err, buf.String())
	}
	if parsed.Name != "alice-lab" || parsed.Spec.Template != "kubernetes-intro" {
		t.Errorf("round trip lost fields: %+v", parsed)
	}
	if parsed.Status.Phase != v1alpha1.LabInstanceReady {
		t.Errorf("round trip lost status, got %q", parsed.Status.Phase)
	}
}
