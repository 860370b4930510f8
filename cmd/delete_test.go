package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// setDeleteFlags swaps the delete command's flag variables for one test and
// restores the originals on cleanup.
func setDeleteFlags(t *testing.T, intakeDir string) {
	t.Helper()

	origIntakeDir := deleteIntakeDir
	origConfigPath := deleteConfigPath
	t.Cleanup(func() {
		deleteIntakeDir = origIntakeDir
		deleteConfigPath = origConfigPath
	})

	deleteIntakeDir = intakeDir
	deleteConfigPath = ""
}

func TestRunDeleteRemovesManifest(t *testing.T) {
	intakeDir := t.TempDir()
	setDeleteFlags(t, intakeDir)

	manifestPath := filepath.Join(intakeDir, "alice-lab.yaml")
	if err := os.WriteFile(manifestPath, []byte("name: alice-lab\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd, buf := captureCmd()
	if err := runDelete(cmd, []string{"alice-lab"}); err != nil {
		t.Fatalf("runDelete failed: %v", err)
	}

	if _, err := os.Stat(manifestPath); !os.IsNotExist(err) {
		t.Error("manifest should have been removed")
	}
	if !strings.Contains(buf.String(), "teardown requested") {
		t.Errorf("output should confirm the teardown request, got %q", buf.String())
	}
}

func TestRunDeleteHandlesYmlExtension(t *testing.T) {
	intakeDir := t.TempDir()
	setDeleteFlags(t, intakeDir)

	manifestPath := filepath.Join(intakeDir, "bob-lab.yml")
	if err := os.WriteFile(manifestPath, []byte("name: bob-lab\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd, _ := captureCmd()
	if err := runDelete(cmd, []string{"bob-lab"}); err != nil {
		t.Fatalf("runDelete failed: %v", err)
	}
	if _, err := os.Stat(manifestPath); !os.IsNotExist(err) {
		t.Error("manifest should have been removed")
	}
}

func TestRunDeleteMissingManifest(t *testing.T) {
	setDeleteFlags(t, t.TempDir())

	cmd, _ := captureCmd()
	err := runDelete(cmd, []string{"ghost"})
	if err == nil {
		t.Fatal("expected an error for a missing manifest")
	}
	if !apierrors.IsNotFound(err) {
		t.Errorf("expected a NotFound error, got %v", err)
	}
	if got := getExitCode(err); got != ExitCodeNotFound {
		t.Errorf("expected exit code %d, got %d", ExitCodeNotFound, got)
	}
}
