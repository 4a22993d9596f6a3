package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var askToolDef = mcp.NewTool("capture_ask",
	mcp.WithDescription("Ask the model about a screenshot. Crops the screenshot to the selection when one is given, records the capture in history, and returns the model's answer."),
	mcp.WithString("prompt",
		mcp.Required(),
		mcp.Description("Question to ask about the screenshot"),
	),
	mcp.WithString("screenshot_data_url",
		mcp.Description("Screenshot as a base64 data URL (PNG or JPEG)"),
	),
	mcp.WithString("id",
		mcp.Description("Existing draft capture id to continue; omit to create a new capture"),
	),
	mcp.WithObject("selection",
		mcp.Description("Viewport-space region to crop to: x, y, width, height, viewportWidth, viewportHeight, devicePixelRatio"),
	),
	mcp.WithString("mode",
		mcp.Description("Capture mode: region or tab"),
	),
	mcp.WithString("thread_id",
		mcp.Description("Conversation thread this capture belongs to"),
	),
)

var getToolDef = mcp.NewTool("capture_get",
	mcp.WithDescription("Fetch one capture by id, including its thumbnail."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Capture id"),
	),
)

var listToolDef = mcp.NewTool("capture_list",
	mcp.WithDescription("List captures sorted by most recently updated."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of captures to return; 0 or omitted means all"),
	),
)

var updateToolDef = mcp.NewTool("capture_update",
	mcp.WithDescription("Merge fields into an existing capture. Absent fields are left untouched; metadata is shallow-merged."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Capture id"),
	),
	mcp.WithString("prompt", mcp.Description("New prompt text")),
	mcp.WithString("response", mcp.Description("New response text")),
	mcp.WithString("status", mcp.Description("New status: draft, pending, completed, or error")),
	mcp.WithString("error", mcp.Description("Error text for failed captures")),
	mcp.WithString("thread_id", mcp.Description("Conversation thread id")),
	mcp.WithObject("metadata",
		mcp.Description("Metadata entries to merge into the capture"),
	),
)

var deleteToolDef = mcp.NewTool("capture_delete",
	mcp.WithDescription("Delete a capture, its thumbnail, and its attachment blobs. Unknown ids are a no-op."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Capture id"),
	),
)

var purgeToolDef = mcp.NewTool("capture_purge",
	mcp.WithDescription("Run a retention sweep. Without arguments the configured policy applies; arguments replace it for this sweep."),
	mcp.WithNumber("max_entries",
		mcp.Description("Keep at most this many captures"),
	),
	mcp.WithNumber("max_age_days",
		mcp.Description("Remove captures not updated within this many days"),
	),
)

var clearToolDef = mcp.NewTool("capture_clear",
	mcp.WithDescription("Delete every capture, thumbnail, and blob."),
)
