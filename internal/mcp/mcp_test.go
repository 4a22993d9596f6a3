package mcp

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/glancehq/glance/internal/db"
	"github.com/glancehq/glance/internal/gemini"
	"github.com/glancehq/glance/internal/session"
	"github.com/glancehq/glance/internal/store"
)

type fakeModel struct {
	text string
	err  error
}

func (f *fakeModel) Generate(ctx context.Context, input gemini.GenerateInput) (*gemini.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &gemini.Result{Text: f.text, Model: "gemini-2.5-flash", Version: "v1"}, nil
}

// testSetup creates handlers over a temporary database and a stub model.
func testSetup(t *testing.T) *Handlers {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	st := store.OpenDB(database, store.Options{Logger: log})
	t.Cleanup(func() { st.Close() })

	svc := session.NewService(st, &fakeModel{text: "the answer"}, log)
	return NewHandlers(st, svc)
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultJSON unmarshals a success result's text content.
func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("content is not TextContent")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	return payload
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()
	if !result.IsError {
		t.Errorf("expected error result, got success")
		return
	}
	payload := resultJSON(t, result)
	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}
	if errorObj["code"] != expectedCode {
		t.Errorf("expected code %q, got %v", expectedCode, errorObj["code"])
	}
}

func TestHandleAsk(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()

	result, err := h.HandleAsk(ctx, makeRequest(map[string]any{
		"prompt": "what is this?",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error result")
	}

	payload := resultJSON(t, result)
	if payload["response"] != "the answer" {
		t.Errorf("unexpected response: %v", payload["response"])
	}
	if payload["provider"] != "gemini/v1/gemini-2.5-flash" {
		t.Errorf("unexpected provider: %v", payload["provider"])
	}
	cap, ok := payload["capture"].(map[string]any)
	if !ok {
		t.Fatalf("no capture in payload: %v", payload)
	}
	if cap["status"] != "completed" {
		t.Errorf("expected completed capture, got %v", cap["status"])
	}
}

func TestHandleAskRequiresPrompt(t *testing.T) {
	h := testSetup(t)

	result, err := h.HandleAsk(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleAskRejectsBadDataURL(t *testing.T) {
	h := testSetup(t)

	result, err := h.HandleAsk(context.Background(), makeRequest(map[string]any{
		"prompt":              "p",
		"screenshot_data_url": "not a data url",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleGet(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()

	created, err := h.store.UpsertCapture(ctx, store.Changes{Prompt: store.String("hello")})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := h.HandleGet(ctx, makeRequest(map[string]any{"id": created.ID}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error result")
	}
	payload := resultJSON(t, result)
	if payload["prompt"] != "hello" {
		t.Errorf("unexpected capture: %v", payload)
	}
}

func TestHandleGetUnknown(t *testing.T) {
	h := testSetup(t)

	result, err := h.HandleGet(context.Background(), makeRequest(map[string]any{"id": "nope"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestHandleGetRequiresID(t *testing.T) {
	h := testSetup(t)

	result, err := h.HandleGet(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleList(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := h.store.UpsertCapture(ctx, store.Changes{}); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	result, err := h.HandleList(ctx, makeRequest(map[string]any{"limit": 2}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	payload := resultJSON(t, result)
	if payload["count"] != float64(2) {
		t.Errorf("expected count 2, got %v", payload["count"])
	}
}

func TestHandleUpdate(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()

	created, err := h.store.UpsertCapture(ctx, store.Changes{Prompt: store.String("keep")})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := h.HandleUpdate(ctx, makeRequest(map[string]any{
		"id":     created.ID,
		"status": "completed",
		"metadata": map[string]any{
			"source": "test",
		},
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error result")
	}
	payload := resultJSON(t, result)
	if payload["status"] != "completed" || payload["prompt"] != "keep" {
		t.Errorf("unexpected capture: %v", payload)
	}
}

func TestHandleUpdateRejectsBadStatus(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()

	created, err := h.store.UpsertCapture(ctx, store.Changes{})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := h.HandleUpdate(ctx, makeRequest(map[string]any{
		"id":     created.ID,
		"status": "archived",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleDelete(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()

	created, err := h.store.UpsertCapture(ctx, store.Changes{})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := h.HandleDelete(ctx, makeRequest(map[string]any{"id": created.ID}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error result")
	}

	rec, err := h.store.GetCapture(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetCapture failed: %v", err)
	}
	if rec != nil {
		t.Error("capture still present after delete")
	}
}

func TestHandlePurge(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := h.store.UpsertCapture(ctx, store.Changes{}); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	result, err := h.HandlePurge(ctx, makeRequest(map[string]any{"max_entries": 2}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	payload := resultJSON(t, result)
	if payload["removed"] != float64(3) {
		t.Errorf("expected 3 removed, got %v", payload["removed"])
	}
}

func TestHandleClear(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()

	if _, err := h.store.UpsertCapture(ctx, store.Changes{}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := h.HandleClear(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error result")
	}

	records, err := h.store.ListRecentCaptures(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecentCaptures failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty store, got %d records", len(records))
	}
}

func TestStoreUnavailableHandlers(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := NewHandlers(nil, session.NewService(nil, &fakeModel{text: "ok"}, log))
	ctx := context.Background()

	for name, call := range map[string]func() (*mcp.CallToolResult, error){
		"get":    func() (*mcp.CallToolResult, error) { return h.HandleGet(ctx, makeRequest(map[string]any{"id": "x"})) },
		"list":   func() (*mcp.CallToolResult, error) { return h.HandleList(ctx, makeRequest(nil)) },
		"delete": func() (*mcp.CallToolResult, error) { return h.HandleDelete(ctx, makeRequest(map[string]any{"id": "x"})) },
		"purge":  func() (*mcp.CallToolResult, error) { return h.HandlePurge(ctx, makeRequest(nil)) },
		"clear":  func() (*mcp.CallToolResult, error) { return h.HandleClear(ctx, makeRequest(nil)) },
	} {
		result, err := call()
		if err != nil {
			t.Fatalf("%s: handler returned error: %v", name, err)
		}
		assertErrorCode(t, result, "STORAGE_UNAVAILABLE")
	}

	// Ask still works without a store.
	result, err := h.HandleAsk(ctx, makeRequest(map[string]any{"prompt": "p"}))
	if err != nil {
		t.Fatalf("ask: handler returned error: %v", err)
	}
	if result.IsError {
		t.Errorf("ask should degrade without a store")
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"capture_get", "capsule_store"})
	if len(unknown) != 1 || unknown[0] != "capsule_store" {
		t.Errorf("unexpected unknown tools: %v", unknown)
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != len(toolRegistry) {
		t.Errorf("expected %d names, got %d", len(toolRegistry), len(names))
	}
}
