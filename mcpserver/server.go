// Package mcpserver exposes the review workflow as MCP tools, so an agent
// frontend can list, approve, edit and discard drafts on the operator's
// behalf.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aibisolutions/secretary/internal/biz/usecase"
)

// StatusProvider reports pipeline health for the status tool
type StatusProvider interface {
	Status(ctx context.Context) (activeChats int, pendingDrafts int, err error)
}

// SecretaryMCPServer provides MCP tools over the review workflow
type SecretaryMCPServer struct {
	server *mcp.Server
	review *usecase.ReviewUsecase
	status StatusProvider
}

// NewServer creates an MCP server bound to the given review workflow
func NewServer(review *usecase.ReviewUsecase, status StatusProvider) *SecretaryMCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "secretary-tools",
		Version: "v1.0.0",
	}, nil)

	s := &SecretaryMCPServer{
		server: server,
		review: review,
		status: status,
	}
	s.registerTools()
	return s
}

func (s *SecretaryMCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "secretary_list_drafts",
		Description: "List reply drafts waiting for operator review, with chat, confidence and candidate text.",
	}, s.handleListDrafts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "secretary_approve_draft",
		Description: "Approve the pending draft for a chat and send its text unchanged.",
	}, s.handleApproveDraft)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "secretary_edit_draft",
		Description: "Replace the pending draft's text for a chat and send the replacement.",
	}, s.handleEditDraft)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "secretary_discard_draft",
		Description: "Discard the pending draft for a chat without sending anything.",
	}, s.handleDiscardDraft)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "secretary_status",
		Description: "Report how many chats are being watched and how many drafts await review.",
	}, s.handleStatus)
}

// DraftInfo is one pending draft as shown to the agent
type DraftInfo struct {
	ChatID     string `json:"chat_id"`
	ChatTitle  string `json:"chat_title"`
	Text       string `json:"text"`
	Confidence int    `json:"confidence"`
	Status     string `json:"status"`
	LastError  string `json:"last_error,omitempty"`
}

// ListDraftsInput is empty - no input needed
type ListDraftsInput struct{}

// ListDraftsOutput contains the pending drafts
type ListDraftsOutput struct {
	Drafts []DraftInfo `json:"drafts"`
	Error  string      `json:"error,omitempty"`
}

func (s *SecretaryMCPServer) handleListDrafts(ctx context.Context, req *mcp.CallToolRequest, input ListDraftsInput) (*mcp.CallToolResult, ListDraftsOutput, error) {
	drafts, err := s.review.ListPending(ctx)
	if err != nil {
		return nil, ListDraftsOutput{Error: err.Error()}, nil
	}

	out := ListDraftsOutput{Drafts: make([]DraftInfo, 0, len(drafts))}
	for _, d := range drafts {
		out.Drafts = append(out.Drafts, DraftInfo{
			ChatID:     d.ChatID,
			ChatTitle:  d.ChatTitle,
			Text:       d.Text,
			Confidence: d.Confidence,
			Status:     string(d.Status),
			LastError:  d.LastError,
		})
	}
	return nil, out, nil
}

// ApproveDraftInput identifies the draft by its chat
type ApproveDraftInput struct {
	ChatID string `json:"chat_id" jsonschema:"description=The chat whose pending draft to approve"`
}

// ActionOutput is the result of one draft action
type ActionOutput struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

func (s *SecretaryMCPServer) handleApproveDraft(ctx context.Context, req *mcp.CallToolRequest, input ApproveDraftInput) (*mcp.CallToolResult, ActionOutput, error) {
	result := s.review.Approve(ctx, input.ChatID)
	return nil, ActionOutput{Success: result.OK, Status: result.Status}, nil
}

// EditDraftInput carries the replacement text
type EditDraftInput struct {
	ChatID string `json:"chat_id" jsonschema:"description=The chat whose pending draft to edit"`
	Text   string `json:"text" jsonschema:"description=The replacement reply text to send instead of the draft"`
}

func (s *SecretaryMCPServer) handleEditDraft(ctx context.Context, req *mcp.CallToolRequest, input EditDraftInput) (*mcp.CallToolResult, ActionOutput, error) {
	result := s.review.SubmitEdit(ctx, input.ChatID, input.Text)
	return nil, ActionOutput{Success: result.OK, Status: result.Status}, nil
}

// DiscardDraftInput identifies the draft by its chat
type DiscardDraftInput struct {
	ChatID string `json:"chat_id" jsonschema:"description=The chat whose pending draft to discard"`
}

func (s *SecretaryMCPServer) handleDiscardDraft(ctx context.Context, req *mcp.CallToolRequest, input DiscardDraftInput) (*mcp.CallToolResult, ActionOutput, error) {
	result := s.review.Discard(ctx, input.ChatID)
	return nil, ActionOutput{Success: result.OK, Status: result.Status}, nil
}

// StatusInput is empty - no input needed
type StatusInput struct{}

// StatusOutput summarizes the running pipeline
type StatusOutput struct {
	ActiveChats   int    `json:"active_chats"`
	PendingDrafts int    `json:"pending_drafts"`
	Error         string `json:"error,omitempty"`
}

func (s *SecretaryMCPServer) handleStatus(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	activeChats, pendingDrafts, err := s.status.Status(ctx)
	if err != nil {
		return nil, StatusOutput{Error: err.Error()}, nil
	}
	return nil, StatusOutput{ActiveChats: activeChats, PendingDrafts: pendingDrafts}, nil
}

// Run starts the MCP server with stdio transport
func (s *SecretaryMCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
