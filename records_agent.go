package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
)

// RecordAgent handles record_lookup requests. It asks the generation
// capability to turn the query into a structured operation descriptor, then
// treats that descriptor as untrusted input: every operation validates its
// own required fields, and repository errors are translated into plain
// user-facing text so nothing typed leaks past the orchestrator.
type RecordAgent struct {
	gen  Generator
	repo *EmployeeRepository
}

func NewRecordAgent(gen Generator, repo *EmployeeRepository) *RecordAgent {
	return &RecordAgent{gen: gen, repo: repo}
}

func (a *RecordAgent) Name() string { return "RecordAgent" }

type recordOperation struct {
	Operation  string            `json:"operation"`
	EmployeeID string            `json:"employee_id"`
	Criteria   map[string]string `json:"criteria"`
	Data       map[string]any    `json:"data"`
	Limit      json.RawMessage   `json:"limit"`
}

const recordOperationSystemPrompt = `You are a record operation analyzer. Extract employee IDs, criteria, and limits carefully. Return only valid JSON without any markdown formatting or explanation.`

func buildRecordOperationPrompt(query string) string {
	return fmt.Sprintf(`Analyze this employee record request and determine what to do.

User Request: "%s"

Respond with a JSON object:
{"operation": "list|get|criteria|random|create|update|delete", "employee_id": "...", "criteria": {}, "data": {}, "limit": null}

- "list": list all employees (no parameters)
- "get": fetch one employee by ID or name (extract from phrases like "employee EMP123", "show me John's details")
- "criteria": find employees matching attribute filters (e.g. Department, Position)
- "random": fetch N random employees (extract the number; default 5)
- "create": create an employee (requires data)
- "update": update an employee (requires employee_id and data)
- "delete": delete an employee (requires employee_id)

Return ONLY the JSON object, no other text.`, query)
}

func (a *RecordAgent) Respond(ctx context.Context, query, conversationID string) (string, error) {
	log.Printf("record agent query=%.50q conversation=%s", query, conversationID)

	raw, err := a.gen.Generate(ctx, recordOperationSystemPrompt, buildRecordOperationPrompt(query))
	if err != nil {
		return "", fmt.Errorf("analyzing record request: %w", err)
	}

	op, err := parseRecordOperation(raw)
	if err != nil {
		log.Printf("record agent descriptor parse error: %v", err)
		return "I couldn't work out which record operation you meant. Please rephrase your request.", nil
	}

	switch op.Operation {
	case "list":
		return a.listAll(ctx)
	case "get", "retrieve":
		return a.getOne(ctx, op)
	case "criteria", "retrieve_criteria":
		return a.byCriteria(ctx, op)
	case "random", "retrieve_random":
		return a.random(ctx, op)
	case "create":
		return a.create(ctx, op)
	case "update":
		return a.update(ctx, op)
	case "delete":
		return a.delete(ctx, op)
	default:
		log.Printf("record agent unknown operation %q", op.Operation)
		return fmt.Sprintf("I don't support the operation %q. Try listing, fetching, creating, updating, or deleting employees.", op.Operation), nil
	}
}

// parseRecordOperation tolerates the fencing and chatter models wrap JSON in.
func parseRecordOperation(raw string) (recordOperation, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	// Extract the outermost object if the model added prose around it.
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}

	var op recordOperation
	if err := json.Unmarshal([]byte(raw), &op); err != nil {
		return recordOperation{}, fmt.Errorf("parsing operation descriptor: %w (response: %s)", err, raw)
	}
	op.Operation = strings.ToLower(strings.TrimSpace(op.Operation))
	op.EmployeeID = strings.TrimSpace(op.EmployeeID)
	return op, nil
}

// parseLimitField accepts a number, a numeric string, or null.
func parseLimitField(raw json.RawMessage, fallback int) int {
	if len(raw) == 0 || string(raw) == "null" {
		return fallback
	}
	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil && asInt > 0 {
		return asInt
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(asString)); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func (a *RecordAgent) listAll(ctx context.Context) (string, error) {
	employees, _, err := a.repo.Query(ctx, nil, 100, "")
	if err != nil {
		return "", fmt.Errorf("listing employees: %w", err)
	}
	if len(employees) == 0 {
		return "No employee records found.", nil
	}
	return formatEmployees(employees), nil
}

func (a *RecordAgent) getOne(ctx context.Context, op recordOperation) (string, error) {
	if op.EmployeeID == "" {
		return "An employee ID or name is required to fetch a record. Please specify one.", nil
	}

	e, err := a.repo.Get(ctx, op.EmployeeID)
	if errors.Is(err, ErrRecordNotFound) {
		// Fall back to a name lookup: "Who is John Doe?" carries no ID.
		e, err = a.repo.GetByName(ctx, op.EmployeeID)
	}
	if errors.Is(err, ErrRecordNotFound) {
		return fmt.Sprintf("Employee with ID or name %q was not found.", op.EmployeeID), nil
	}
	if err != nil {
		return "", err
	}
	return formatEmployeeDetail(e), nil
}

func (a *RecordAgent) byCriteria(ctx context.Context, op recordOperation) (string, error) {
	if len(op.Criteria) == 0 {
		return "No search criteria provided. Tell me which field and value to match, e.g. Department = Engineering.", nil
	}
	employees, _, err := a.repo.Query(ctx, op.Criteria, 100, "")
	if err != nil {
		return "", fmt.Errorf("querying employees: %w", err)
	}
	if len(employees) == 0 {
		return fmt.Sprintf("No employees found matching %s.", formatCriteria(op.Criteria)), nil
	}
	return formatEmployees(employees), nil
}

func (a *RecordAgent) random(ctx context.Context, op recordOperation) (string, error) {
	limit := parseLimitField(op.Limit, 5)
	employees, err := a.repo.Random(ctx, limit)
	if err != nil {
		return "", fmt.Errorf("sampling employees: %w", err)
	}
	if len(employees) == 0 {
		return "No employee records found.", nil
	}
	return formatEmployees(employees), nil
}

func (a *RecordAgent) create(ctx context.Context, op recordOperation) (string, error) {
	if len(op.Data) == 0 {
		return "No employee data provided for creation. Include at least a name.", nil
	}
	id, _ := op.Data["Employee_ID"].(string)
	if id == "" {
		id = op.EmployeeID
	}
	created, err := a.repo.Create(ctx, Employee{ID: id, Attributes: op.Data})
	if errors.Is(err, ErrRecordExists) {
		return fmt.Sprintf("An employee with ID %q already exists.", id), nil
	}
	if err != nil {
		return "", err
	}
	name := created.Attr("Name")
	if name == "" {
		name = created.ID
	}
	return fmt.Sprintf("Employee created successfully: %s (ID %s).", name, created.ID), nil
}

func (a *RecordAgent) update(ctx context.Context, op recordOperation) (string, error) {
	if op.EmployeeID == "" || len(op.Data) == 0 {
		return "An employee ID and the fields to change are both required for an update.", nil
	}
	_, err := a.repo.Update(ctx, op.EmployeeID, op.Data)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return fmt.Sprintf("Employee %q was not found, so there is nothing to update.", op.EmployeeID), nil
	case errors.Is(err, ErrConcurrentModification):
		return fmt.Sprintf("Employee %q was modified by someone else while I was updating it. Please retry the update.", op.EmployeeID), nil
	case err != nil:
		return "", err
	}
	return fmt.Sprintf("Employee %s updated successfully.", op.EmployeeID), nil
}

func (a *RecordAgent) delete(ctx context.Context, op recordOperation) (string, error) {
	if op.EmployeeID == "" {
		return "An employee ID is required for a delete.", nil
	}
	err := a.repo.Delete(ctx, op.EmployeeID)
	if errors.Is(err, ErrRecordNotFound) {
		return fmt.Sprintf("Employee %q was not found, so there is nothing to delete.", op.EmployeeID), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Employee %s deleted successfully.", op.EmployeeID), nil
}

// --- formatting ---

var wellKnownFields = []string{"Name", "Employee_ID", "Position", "Department", "Age", "Date_of_Joining", "Date_of_Birth"}

func formatEmployees(employees []Employee) string {
	var b strings.Builder
	b.WriteString("*Employee List*\n\n")
	for i, e := range employees {
		name := e.Attr("Name")
		if name == "" {
			name = e.ID
		}
		fmt.Fprintf(&b, "%d. *%s* (`%s`)\n", i+1, name, e.ID)
		if pos := e.Attr("Position"); pos != "" {
			fmt.Fprintf(&b, "   - Position: %s\n", pos)
		}
		if dept := e.Attr("Department"); dept != "" {
			fmt.Fprintf(&b, "   - Department: %s\n", dept)
		}
	}
	fmt.Fprintf(&b, "\nTotal: %d", len(employees))
	return b.String()
}

func formatEmployeeDetail(e Employee) string {
	name := e.Attr("Name")
	if name == "" {
		name = e.ID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Employee Details: %s*\n\n", name)
	fmt.Fprintf(&b, "- ID: `%s`\n", e.ID)
	shown := map[string]bool{}
	for _, field := range wellKnownFields {
		if field == "Employee_ID" {
			shown[field] = true
			continue
		}
		if v, ok := e.Attributes[field]; ok {
			fmt.Fprintf(&b, "- %s: %v\n", strings.ReplaceAll(field, "_", " "), v)
			shown[field] = true
		}
	}

	var rest []string
	for k := range e.Attributes {
		if !shown[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		fmt.Fprintf(&b, "- %s: %v\n", strings.ReplaceAll(k, "_", " "), e.Attributes[k])
	}
	return b.String()
}

func formatCriteria(criteria map[string]string) string {
	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, criteria[k]))
	}
	return strings.Join(parts, ", ")
}
