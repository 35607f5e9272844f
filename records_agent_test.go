package main

import (
	"context"
	"strings"
	"testing"
)

func newTestRecordAgent(t *testing.T, descriptor string) (*RecordAgent, *EmployeeRepository) {
	t.Helper()
	repo := newTestRepo(t)
	agent := NewRecordAgent(&fakeGenerator{response: descriptor}, repo)
	return agent, repo
}

func TestParseRecordOperationFenced(t *testing.T) {
	raw := "```json\n{\"operation\": \"get\", \"employee_id\": \"EMP001\"}\n```"
	op, err := parseRecordOperation(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if op.Operation != "get" || op.EmployeeID != "EMP001" {
		t.Errorf("parsed %+v", op)
	}
}

func TestParseRecordOperationWithProse(t *testing.T) {
	raw := `Here is the operation you asked for: {"operation": "LIST"} hope that helps!`
	op, err := parseRecordOperation(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if op.Operation != "list" {
		t.Errorf("operation = %q", op.Operation)
	}
}

func TestParseRecordOperationGarbage(t *testing.T) {
	if _, err := parseRecordOperation("I have no idea"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseLimitField(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 5},
		{"null", 5},
		{"3", 3},
		{`"7"`, 7},
		{`" 2 "`, 2},
		{`"lots"`, 5},
		{"-1", 5},
	}
	for _, tc := range cases {
		if got := parseLimitField([]byte(tc.raw), 5); got != tc.want {
			t.Errorf("parseLimitField(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestRecordAgentGetNotFound(t *testing.T) {
	agent, _ := newTestRecordAgent(t, `{"operation": "get", "employee_id": "EMP404"}`)

	// Missing records are a conversational outcome, not an error.
	reply, err := agent.Respond(context.Background(), "show EMP404", "C1")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if !strings.Contains(reply, "not found") {
		t.Errorf("reply = %q", reply)
	}
}

func TestRecordAgentGetByNameFallback(t *testing.T) {
	agent, repo := newTestRecordAgent(t, `{"operation": "get", "employee_id": "Frank Ocean"}`)
	if _, err := repo.Create(context.Background(), Employee{
		ID:         "EMP007",
		Attributes: map[string]any{"Name": "Frank Ocean", "Department": "Music"},
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	reply, err := agent.Respond(context.Background(), "who is Frank Ocean?", "C1")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if !strings.Contains(reply, "Frank Ocean") || !strings.Contains(reply, "EMP007") {
		t.Errorf("reply = %q", reply)
	}
}

func TestRecordAgentUpdateRequiresIDAndData(t *testing.T) {
	agent, repo := newTestRecordAgent(t, `{"operation": "update", "employee_id": "", "data": {}}`)
	if _, err := repo.Create(context.Background(), Employee{ID: "EMP001"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	reply, err := agent.Respond(context.Background(), "update something", "C1")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if !strings.Contains(reply, "required") {
		t.Errorf("reply = %q", reply)
	}

	// The validation failure must not have touched the record.
	got, err := repo.Get(context.Background(), "EMP001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Attributes) != 0 {
		t.Errorf("record mutated by rejected update: %+v", got.Attributes)
	}
}

func TestRecordAgentUpdateHappyPath(t *testing.T) {
	agent, repo := newTestRecordAgent(t,
		`{"operation": "update", "employee_id": "EMP001", "data": {"Department": "Platform"}}`)
	if _, err := repo.Create(context.Background(), Employee{
		ID:         "EMP001",
		Attributes: map[string]any{"Name": "Grace"},
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	reply, err := agent.Respond(context.Background(), "move Grace to Platform", "C1")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if !strings.Contains(reply, "updated successfully") {
		t.Errorf("reply = %q", reply)
	}

	got, _ := repo.Get(context.Background(), "EMP001")
	if got.Attr("Department") != "Platform" {
		t.Errorf("Department = %q", got.Attr("Department"))
	}
}

func TestRecordAgentCreateDuplicate(t *testing.T) {
	agent, repo := newTestRecordAgent(t,
		`{"operation": "create", "data": {"Employee_ID": "EMP001", "Name": "Henry"}}`)
	if _, err := repo.Create(context.Background(), Employee{ID: "EMP001"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	reply, err := agent.Respond(context.Background(), "add Henry", "C1")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if !strings.Contains(reply, "already exists") {
		t.Errorf("reply = %q", reply)
	}
}

func TestRecordAgentList(t *testing.T) {
	agent, repo := newTestRecordAgent(t, `{"operation": "list"}`)
	for _, name := range []string{"Ivy", "Jack"} {
		if _, err := repo.Create(context.Background(), Employee{
			Attributes: map[string]any{"Name": name},
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	reply, err := agent.Respond(context.Background(), "list everyone", "C1")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if !strings.Contains(reply, "Ivy") || !strings.Contains(reply, "Jack") {
		t.Errorf("reply = %q", reply)
	}
	if !strings.Contains(reply, "Total: 2") {
		t.Errorf("missing total: %q", reply)
	}
}

func TestRecordAgentUnknownOperation(t *testing.T) {
	agent, _ := newTestRecordAgent(t, `{"operation": "explode"}`)

	reply, err := agent.Respond(context.Background(), "do something odd", "C1")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if !strings.Contains(reply, "explode") {
		t.Errorf("reply = %q", reply)
	}
}

func TestRecordAgentUnparseableDescriptor(t *testing.T) {
	agent, _ := newTestRecordAgent(t, "sorry, I can't do JSON today")

	reply, err := agent.Respond(context.Background(), "list employees", "C1")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if !strings.Contains(reply, "rephrase") {
		t.Errorf("reply = %q", reply)
	}
}
