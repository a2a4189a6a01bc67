/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	wd := mustGetwd()
	cmd := exec.Command("go", "build", "-o", "deltabundle_test", ".")
	cmd.Dir = wd
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("failed to build test binary: " + err.Error() + "\n" + string(out))
	}
	code := m.Run()
	_ = os.Remove(filepath.Join(wd, "deltabundle_test"))
	os.Exit(code)
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return wd
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	binary := filepath.Join(mustGetwd(), "deltabundle_test")
	cmd := exec.Command(binary, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run CLI: %v", err)
		}
	}

	return stdout, stderr, exitCode
}

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "entry.js"), []byte(`
import { helper } from "./helper.js";
helper();
`), 0644); err != nil {
		t.Fatalf("writing entry.js: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "helper.js"), []byte(`
export function helper() { return 1; }
`), 0644); err != nil {
		t.Fatalf("writing helper.js: %v", err)
	}
	return dir
}

func TestBuildCommandReportsModuleCount(t *testing.T) {
	dir := writeProject(t)
	entry := filepath.Join(dir, "entry.js")

	stdout, stderr, code := runCLI(t, "build", entry, "--format", "json")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nstdout: %s", err, stdout)
	}

	modules, ok := result["modules"].(float64)
	if !ok || modules != 2 {
		t.Errorf("expected 2 modules in graph, got %v", result["modules"])
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCLI(t, "version")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if stdout == "" {
		t.Error("expected non-empty version output")
	}
}

func TestHelp(t *testing.T) {
	stdout, _, code := runCLI(t, "--help")
	if code != 0 {
		t.Fatalf("expected exit code 0 for help, got %d", code)
	}

	for _, s := range []string{"deltabundle", "build", "watch", "version"} {
		if !strings.Contains(stdout, s) {
			t.Errorf("expected %q in help output", s)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, code := runCLI(t, "unknown")
	if code == 0 {
		t.Error("expected non-zero exit code for unknown command")
	}
	if !strings.Contains(stderr, "unknown command") {
		t.Errorf("expected 'unknown command' error, got: %s", stderr)
	}
}

func TestBuildMissingEntry(t *testing.T) {
	_, stderr, code := runCLI(t, "build")
	if code == 0 {
		t.Error("expected non-zero exit code for missing entry argument")
	}
	if stderr == "" {
		t.Error("expected an error message for missing entry argument")
	}
}
