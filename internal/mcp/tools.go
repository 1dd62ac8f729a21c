package mcp

import "github.com/mark3labs/mcp-go/mcp"

var createToolDef = mcp.NewTool("record_create",
	mcp.WithDescription("Create a new memory record in the open state. Returns the generated id."),
	mcp.WithString("title", mcp.Required(),
		mcp.Description("Record headline. Must be non-empty.")),
	mcp.WithString("content",
		mcp.Description("Record body text. May be empty.")),
	mcp.WithArray("images",
		mcp.Description("Ordered image URIs; order is display order."),
		mcp.Items(map[string]any{"type": "string"})),
	mcp.WithString("music_url",
		mcp.Description("Optional audio attachment URL.")),
	mcp.WithString("music_title",
		mcp.Description("Optional audio attachment title.")),
)

var getToolDef = mcp.NewTool("record_get",
	mcp.WithDescription("Fetch a record by id. Sealed records are readable by id; destroyed records are NOT_FOUND."),
	mcp.WithString("id", mcp.Required(),
		mcp.Description("Record id (ULID).")),
)

var updateToolDef = mcp.NewTool("record_update",
	mcp.WithDescription("Update an open record. Fails with SEALED while the record is sealed. Omitted fields are left unchanged; an empty music_url clears the attachment."),
	mcp.WithString("id", mcp.Required(),
		mcp.Description("Record id (ULID).")),
	mcp.WithString("title",
		mcp.Description("New title. Must be non-empty if provided.")),
	mcp.WithString("content",
		mcp.Description("New body text.")),
	mcp.WithArray("images",
		mcp.Description("Replacement image URI list (full replacement, ordered)."),
		mcp.Items(map[string]any{"type": "string"})),
	mcp.WithString("music_url",
		mcp.Description("New audio attachment URL; empty string clears the attachment.")),
	mcp.WithString("music_title",
		mcp.Description("New audio attachment title.")),
)

var sealToolDef = mcp.NewTool("record_seal",
	mcp.WithDescription("Seal a record: read-only and hidden from default listings until seal_until, optionally destroyed at auto_destroy_at. Sealing is immediate."),
	mcp.WithString("id", mcp.Required(),
		mcp.Description("Record id (ULID).")),
	mcp.WithString("seal_until",
		mcp.Description("RFC 3339 timestamp at which the record unseals.")),
	mcp.WithString("auto_destroy_at",
		mcp.Description("RFC 3339 timestamp of irreversible deletion; must be strictly after seal_until when both are given.")),
)

var deleteToolDef = mcp.NewTool("record_delete",
	mcp.WithDescription("Delete a record immediately, sealed or not. Deleting an absent id fails with NOT_FOUND."),
	mcp.WithString("id", mcp.Required(),
		mcp.Description("Record id (ULID).")),
)

var listToolDef = mcp.NewTool("record_list",
	mcp.WithDescription("List records ordered by created_at descending. Sealed records are hidden unless include_sealed is set; destroyed records never appear."),
	mcp.WithBoolean("include_sealed",
		mcp.Description("Include sealed records in the listing.")),
	mcp.WithNumber("limit",
		mcp.Description("Page size (default 20, max 100).")),
	mcp.WithNumber("offset",
		mcp.Description("Pagination offset (default 0).")),
)

var sweepToolDef = mcp.NewTool("record_sweep",
	mcp.WithDescription("Destroy every record whose auto_destroy_at has passed. Returns the number destroyed."),
)

var exportToolDef = mcp.NewTool("record_export",
	mcp.WithDescription("Export all live records to a JSONL file. The snapshot round-trips every field, including seal timestamps."),
	mcp.WithString("path",
		mcp.Description("Destination .jsonl path; defaults to a timestamped file in ~/.keepsake/exports.")),
)

var importToolDef = mcp.NewTool("record_import",
	mcp.WithDescription("Import records from a JSONL export file."),
	mcp.WithString("path", mcp.Required(),
		mcp.Description("Source .jsonl path.")),
	mcp.WithString("mode",
		mcp.Description("Collision mode: error (default, all-or-nothing), replace, or skip.")),
)
