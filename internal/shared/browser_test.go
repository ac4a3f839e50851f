package shared

import (
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	origRuntime, origStart := getRuntime, startCmd
	t.Cleanup(func() { getRuntime, startCmd = origRuntime, origStart })

	tc := []struct {
		goos    string
		wantBin string
		wantErr bool
	}{
		{goos: "darwin", wantBin: "open"},
		{goos: "linux", wantBin: "xdg-open"},
		{goos: "windows", wantBin: "rundll32"},
		{goos: "plan9", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			var started *exec.Cmd
			getRuntime = func() string { return tt.goos }
			startCmd = func(cmd *exec.Cmd) error {
				started = cmd
				return nil
			}

			err := OpenBrowser("http://127.0.0.1:3000/login")
			if tt.wantErr {
				if err == nil {
					t.Error("expected unsupported platform error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if started == nil {
				t.Fatal("expected a command to be started")
			}
			if !strings.HasSuffix(started.Path, tt.wantBin) && started.Args[0] != tt.wantBin {
				t.Errorf("expected %s, got %v", tt.wantBin, started.Args)
			}
			if last := started.Args[len(started.Args)-1]; last != "http://127.0.0.1:3000/login" {
				t.Errorf("expected url as last argument, got %s", last)
			}
		})
	}

	t.Run("start failure", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		startCmd = func(*exec.Cmd) error { return errors.New("boom") }

		err := OpenBrowser("http://example.com")
		if err == nil || !strings.Contains(err.Error(), "failed to open browser") {
			t.Errorf("expected wrapped start error, got %v", err)
		}
	})
}
