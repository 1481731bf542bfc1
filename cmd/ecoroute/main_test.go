package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"eco-route-planner/internal/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--config-dir", t.TempDir()))
	err := cmd.Execute()
	return out.String(), err
}

func TestOptimizeCommand(t *testing.T) {
	out, err := execute(t, "optimize", "A", "J", "--alpha", "1")
	if err != nil {
		t.Fatalf("optimize: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Routes A -> J") || !strings.Contains(out, "SCORE") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, models.RouteTypeEco) {
		t.Errorf("eco route missing:\n%s", out)
	}
}

func TestOptimizeCommandJSON(t *testing.T) {
	out, err := execute(t, "optimize", "D", "J", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var routes []models.RouteResult
	if err := json.Unmarshal([]byte(out), &routes); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(routes) < 2 {
		t.Errorf("got %d routes", len(routes))
	}
}

func TestOptimizeCommandSingle(t *testing.T) {
	out, err := execute(t, "optimize", "A", "J", "--single", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var routes []models.RouteResult
	if err := json.Unmarshal([]byte(out), &routes); err != nil {
		t.Fatal(err)
	}
	if len(routes) != 1 || routes[0].RouteType != models.RouteTypeOptimal {
		t.Errorf("routes = %+v", routes)
	}
}

func TestOptimizeCommandRejectsInput(t *testing.T) {
	if _, err := execute(t, "optimize", "A", "A"); err == nil {
		t.Error("same endpoints accepted")
	}
	if _, err := execute(t, "optimize", "A", "J", "--alpha", "9"); err == nil {
		t.Error("alpha out of range accepted")
	}
}

func TestLocationsCommand(t *testing.T) {
	out, err := execute(t, "locations")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Hinjawadi Ph 1") || strings.Count(out, "\n") != 11 {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := execute(t, "hash-password", "hunter22", "--cost", "4")
	if err != nil {
		t.Fatal(err)
	}
	hash := strings.TrimSpace(out)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter22")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
	if _, err := execute(t, "hash-password", "x", "--cost", "99"); err == nil {
		t.Error("invalid cost accepted")
	}
}
