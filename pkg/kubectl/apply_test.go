package kubectl

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"strings"
	"testing"
)

// TestHelperProcess is not a real test; it stands in for kubectl
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Fprint(os.Stdout, "applied")
	if os.Getenv("HELPER_EXIT_CODE") == "1" {
		os.Exit(1)
	}
	os.Exit(0)
}

func fakeExec(t *testing.T, exitCode string, calls *[][]string) {
	t.Helper()
	orig := execCommand
	t.Cleanup(func() { execCommand = orig })

	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		*calls = append(*calls, append([]string{name}, args...))
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess", "--")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_EXIT_CODE="+exitCode)
		return cmd
	}
}

func TestApplyArgs(t *testing.T) {
	k := &Kubectl{Kubeconfig: "/tmp/kc", Context: "kind-argocd-dev"}
	got := k.ApplyArgs("argocd", "https://example.com/install.yaml")
	want := []string{
		"--kubeconfig", "/tmp/kc", "--context", "kind-argocd-dev",
		"apply", "-n", "argocd", "--server-side", "--force-conflicts",
		"-f", "https://example.com/install.yaml",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ApplyArgs() = %v, want %v", got, want)
	}
}

func TestPortForwardArgs(t *testing.T) {
	tests := []struct {
		name string
		k    *Kubectl
		want []string
	}{
		{
			name: "with context",
			k:    &Kubectl{Context: "kind-argocd-dev"},
			want: []string{"--context", "kind-argocd-dev", "port-forward", "svc/argocd-server", "-n", "argocd", "8080:443"},
		},
		{
			name: "bare",
			k:    &Kubectl{},
			want: []string{"port-forward", "svc/argocd-server", "-n", "argocd", "8080:443"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.k.PortForwardArgs("argocd", "argocd-server", 8080, 443)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PortForwardArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	var calls [][]string
	fakeExec(t, "0", &calls)

	var stdout bytes.Buffer
	k := &Kubectl{Context: "kind-argocd-dev", Stdout: &stdout, Stderr: &stdout}
	if err := k.Apply(context.Background(), "argocd", "install.yaml"); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(calls) != 1 || calls[0][0] != "kubectl" {
		t.Fatalf("unexpected calls: %v", calls)
	}
	if !strings.Contains(stdout.String(), "applied") {
		t.Errorf("stdout not forwarded: %q", stdout.String())
	}
}

func TestApplyFailure(t *testing.T) {
	var calls [][]string
	fakeExec(t, "1", &calls)

	k := &Kubectl{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	err := k.Apply(context.Background(), "argocd", "install.yaml")
	if err == nil {
		t.Fatal("Apply() expected error")
	}
	if !strings.Contains(err.Error(), "kubectl apply -f install.yaml failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestManifestInstaller(t *testing.T) {
	var calls [][]string
	fakeExec(t, "0", &calls)

	k := &Kubectl{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	inst := NewManifestInstaller(k, "argocd", "https://example.com/install.yaml")
	if err := inst.Install(context.Background()); err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if err := inst.Install(context.Background()); err != nil {
		t.Fatalf("second Install() error: %v", err)
	}
	if len(calls) != 2 {
		t.Errorf("expected 2 kubectl invocations, got %d", len(calls))
	}
	last := calls[1]
	if last[len(last)-1] != "https://example.com/install.yaml" {
		t.Errorf("unexpected args: %v", last)
	}
}
