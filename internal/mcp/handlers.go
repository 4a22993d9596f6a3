package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/glancehq/glance/internal/capture"
	"github.com/glancehq/glance/internal/errors"
	"github.com/glancehq/glance/internal/session"
	"github.com/glancehq/glance/internal/store"
)

// Handlers holds dependencies for MCP tool handlers. The store may be nil
// when history storage could not be opened; tools that need it return
// STORAGE_UNAVAILABLE.
type Handlers struct {
	store   *store.Store
	session *session.Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st *store.Store, svc *session.Service) *Handlers {
	return &Handlers{store: st, session: svc}
}

// Request types for each tool

// AskRequest represents the arguments for capture_ask.
type AskRequest struct {
	ID                string             `json:"id,omitempty"`
	Prompt            string             `json:"prompt"`
	ScreenshotDataURL string             `json:"screenshot_data_url,omitempty"`
	Selection         *capture.Selection `json:"selection,omitempty"`
	Mode              string             `json:"mode,omitempty"`
	ThreadID          string             `json:"thread_id,omitempty"`
}

// GetRequest represents the arguments for capture_get.
type GetRequest struct {
	ID string `json:"id"`
}

// ListRequest represents the arguments for capture_list.
type ListRequest struct {
	Limit int `json:"limit,omitempty"`
}

// UpdateRequest represents the arguments for capture_update.
type UpdateRequest struct {
	ID       string         `json:"id"`
	Prompt   *string        `json:"prompt,omitempty"`
	Response *string        `json:"response,omitempty"`
	Status   *string        `json:"status,omitempty"`
	Error    *string        `json:"error,omitempty"`
	ThreadID *string        `json:"thread_id,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DeleteRequest represents the arguments for capture_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// PurgeRequest represents the arguments for capture_purge.
type PurgeRequest struct {
	MaxEntries *int     `json:"max_entries,omitempty"`
	MaxAgeDays *float64 `json:"max_age_days,omitempty"`
}

// Handler implementations

// HandleAsk handles the capture_ask tool call.
func (h *Handlers) HandleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AskRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var screenshot []byte
	if input.ScreenshotDataURL != "" {
		_, data, err := capture.DecodeDataURL(input.ScreenshotDataURL)
		if err != nil {
			return errorResult(err), nil
		}
		screenshot = data
	}

	result, err := h.session.Submit(ctx, session.SubmitInput{
		CaptureID:  input.ID,
		Prompt:     input.Prompt,
		Screenshot: screenshot,
		Selection:  input.Selection,
		Mode:       input.Mode,
		ThreadID:   input.ThreadID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"response": result.Response,
		"provider": result.Provider,
		"capture":  result.Capture,
	})
}

// HandleGet handles the capture_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if h.store == nil {
		return errorResult(errors.NewStorageUnavailable(nil)), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	record, err := h.store.GetCapture(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	if record == nil {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	return successResult(record)
}

// HandleList handles the capture_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if h.store == nil {
		return errorResult(errors.NewStorageUnavailable(nil)), nil
	}

	records, err := h.store.ListRecentCaptures(ctx, input.Limit)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"captures": records,
		"count":    len(records),
	})
}

// HandleUpdate handles the capture_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if h.store == nil {
		return errorResult(errors.NewStorageUnavailable(nil)), nil
	}

	changes := store.Changes{
		Prompt:   input.Prompt,
		Response: input.Response,
		Error:    input.Error,
		ThreadID: input.ThreadID,
		Metadata: input.Metadata,
	}
	if input.Status != nil {
		st := capture.Status(*input.Status)
		changes.Status = &st
	}

	record, err := h.store.UpdateCapture(ctx, input.ID, changes)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(record)
}

// HandleDelete handles the capture_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if h.store == nil {
		return errorResult(errors.NewStorageUnavailable(nil)), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	if err := h.store.DeleteCapture(ctx, input.ID); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": input.ID})
}

// HandlePurge handles the capture_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if h.store == nil {
		return errorResult(errors.NewStorageUnavailable(nil)), nil
	}

	var override *capture.RetentionPolicy
	if input.MaxEntries != nil || input.MaxAgeDays != nil {
		override = &capture.RetentionPolicy{
			MaxEntries: input.MaxEntries,
			MaxAgeDays: input.MaxAgeDays,
		}
	}

	removed, err := h.store.EnforceRetention(ctx, override)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"removed": removed})
}

// HandleClear handles the capture_clear tool call.
func (h *Handlers) HandleClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.store == nil {
		return errorResult(errors.NewStorageUnavailable(nil)), nil
	}

	if err := h.store.ClearAll(ctx); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"cleared": true})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if gErr, ok := err.(*errors.GlanceError); ok {
		errorObj := map[string]any{
			"code":    gErr.Code,
			"message": gErr.Message,
			"status":  gErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if gErr.Code != errors.ErrInternal && gErr.Details != nil {
			errorObj["details"] = gErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
