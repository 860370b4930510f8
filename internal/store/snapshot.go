package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"

	"labforge/pkg/apis/lab/v1alpha1"
	"labforge/pkg/logging"
)

// snapshotter persists instances as one YAML file per instance under
// <dir>/labinstances. The file format matches what kubectl would show for
// the resource, so snapshots double as debuggable state dumps.
type snapshotter struct {
	dir string
}

func newSnapshotter(baseDir string) (*snapshotter, error) {
	dir := filepath.Join(baseDir, "labinstances")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return &snapshotter{dir: dir}, nil
}

func (sn *snapshotter) path(name string) string {
	return filepath.Join(sn.dir, name+".yaml")
}

func (sn *snapshotter) write(inst *v1alpha1.LabInstance) error {
	data, err := yaml.Marshal(inst)
	if err != nil {
		return fmt.Errorf("failed to marshal LabInstance %s: %w", inst.Name, err)
	}
	if err := os.WriteFile(sn.path(inst.Name), data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return nil
}

func (sn *snapshotter) remove(name string) error {
	if err := os.Remove(sn.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove snapshot file: %w", err)
	}
	return nil
}

// loadAll reads every snapshot in the directory. Individual files that fail
// to parse are logged and skipped so one corrupt snapshot cannot prevent
// startup.
func (sn *snapshotter) loadAll() []*v1alpha1.LabInstance {
	entries, err := os.ReadDir(sn.dir)
	if err != nil {
		logging.Warn("Store", "failed to read snapshot directory %s: %v", sn.dir, err)
		return nil
	}

	var out []*v1alpha1.LabInstance
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		filePath := filepath.Join(sn.dir, entry.Name())
		data, err := os.ReadFile(filePath)
		if err != nil {
			logging.Warn("Store", "failed to read snapshot %s: %v", filePath, err)
			continue
		}
		var inst v1alpha1.LabInstance
		if err := yaml.Unmarshal(data, &inst); err != nil {
			logging.Warn("Store", "skipping unparseable snapshot %s: %v", filePath, err)
			continue
		}
		if inst.Name == "" {
			inst.Name = strings.TrimSuffix(strings.TrimSuffix(entry.Name(), ".yaml"), ".yml")
		}
		out = append(out, &inst)
	}
	return out
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
