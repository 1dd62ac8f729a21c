package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hliu/keepsake/internal/config"
	"github.com/hliu/keepsake/internal/errors"
	"github.com/hliu/keepsake/internal/ops"
	"github.com/hliu/keepsake/internal/record"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool. Seal timestamps cross this boundary as
// RFC 3339 strings.

// CreateRequest represents the arguments for record_create.
type CreateRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content,omitempty"`
	Images     []string `json:"images,omitempty"`
	MusicURL   *string  `json:"music_url,omitempty"`
	MusicTitle *string  `json:"music_title,omitempty"`
}

// GetRequest represents the arguments for record_get.
type GetRequest struct {
	ID string `json:"id"`
}

// UpdateRequest represents the arguments for record_update.
type UpdateRequest struct {
	ID         string    `json:"id"`
	Title      *string   `json:"title,omitempty"`
	Content    *string   `json:"content,omitempty"`
	Images     *[]string `json:"images,omitempty"`
	MusicURL   *string   `json:"music_url,omitempty"`
	MusicTitle *string   `json:"music_title,omitempty"`
}

// SealRequest represents the arguments for record_seal.
type SealRequest struct {
	ID            string  `json:"id"`
	SealUntil     *string `json:"seal_until,omitempty"`
	AutoDestroyAt *string `json:"auto_destroy_at,omitempty"`
}

// DeleteRequest represents the arguments for record_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// ListRequest represents the arguments for record_list.
type ListRequest struct {
	IncludeSealed bool `json:"include_sealed,omitempty"`
	Limit         int  `json:"limit,omitempty"`
	Offset        int  `json:"offset,omitempty"`
}

// ExportRequest represents the arguments for record_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for record_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// Handler implementations

// HandleCreate handles the record_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	result, err := ops.Create(h.db, ops.CreateInput{
		Title:      input.Title,
		Content:    input.Content,
		Images:     input.Images,
		MusicURL:   input.MusicURL,
		MusicTitle: input.MusicTitle,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGet handles the record_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	result, err := ops.Get(h.db, ops.GetInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the record_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	result, err := ops.Update(h.db, ops.UpdateInput{
		ID:         input.ID,
		Title:      input.Title,
		Content:    input.Content,
		Images:     input.Images,
		MusicURL:   input.MusicURL,
		MusicTitle: input.MusicTitle,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSeal handles the record_seal tool call.
func (h *Handlers) HandleSeal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SealRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	cfg, err := parseSealConfig(input.SealUntil, input.AutoDestroyAt)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Seal(h.db, ops.SealInput{ID: input.ID, Config: cfg})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the record_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	result, err := ops.Delete(h.db, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the record_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	result, err := ops.List(h.db, ops.ListInput{
		IncludeSealed: input.IncludeSealed,
		Limit:         input.Limit,
		Offset:        input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSweep handles the record_sweep tool call.
func (h *Handlers) HandleSweep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Sweep(h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the record_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	result, err := ops.Export(h.db, h.cfg, ops.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the record_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	result, err := ops.Import(h.db, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// parseSealConfig converts boundary RFC 3339 strings to a SealConfig.
func parseSealConfig(sealUntil, autoDestroyAt *string) (record.SealConfig, error) {
	var cfg record.SealConfig

	if sealUntil != nil {
		ts, err := record.ParseTime(*sealUntil)
		if err != nil {
			return cfg, errors.NewValidation("seal_until must be an RFC 3339 timestamp")
		}
		cfg.SealUntil = &ts
	}
	if autoDestroyAt != nil {
		ts, err := record.ParseTime(*autoDestroyAt)
		if err != nil {
			return cfg, errors.NewValidation("auto_destroy_at must be an RFC 3339 timestamp")
		}
		cfg.AutoDestroyAt = &ts
	}
	return cfg, nil
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Internal error details are not exposed to avoid leaking paths or SQL.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if kErr, ok := err.(*errors.KeepsakeError); ok {
		errorObj := map[string]any{
			"code":    kErr.Code,
			"message": kErr.Message,
			"status":  kErr.Status,
		}
		if kErr.Code != errors.ErrInternal && kErr.Details != nil {
			errorObj["details"] = kErr.Details
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
