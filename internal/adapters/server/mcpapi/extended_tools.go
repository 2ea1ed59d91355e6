package mcpapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/hylla/workboard/internal/adapters/server/common"
	"github.com/hylla/workboard/internal/app"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// defaultAgentID attributes agent mutations that do not name themselves.
const defaultAgentID = "mcp"

// registerOrderTools registers get/save/delete work order tools.
func registerOrderTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"workboard.get_work_order",
			mcp.WithDescription("Return one work order by id."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Work order identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			order, err := board.GetWorkOrder(ctx, id)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(order)
			if err != nil {
				return nil, fmt.Errorf("encode get_work_order result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"workboard.save_work_order",
			mcp.WithDescription("Create a work order, or update one when id names an existing order. Overlapping orders on the same work center are rejected."),
			mcp.WithString("id", mcp.Description("Existing work order id; omit to create")),
			mcp.WithString("name", mcp.Description("Work order name (required on create)")),
			mcp.WithString("work_center_id", mcp.Description("Work center identifier (required on create)")),
			mcp.WithString("status", mcp.Description("Work order status"), mcp.Enum("open", "in-progress", "complete", "blocked")),
			mcp.WithString("start_date", mcp.Description("Inclusive start date as YYYY-MM-DD (required on create)")),
			mcp.WithString("end_date", mcp.Description("Inclusive end date as YYYY-MM-DD (required on create)")),
			mcp.WithString("description", mcp.Description("Optional description; an empty string clears it")),
			mcp.WithString("actor_id", mcp.Description("Agent name recorded in the activity log")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				ID           string  `json:"id"`
				Name         string  `json:"name"`
				WorkCenterID string  `json:"work_center_id"`
				Status       string  `json:"status"`
				StartDate    string  `json:"start_date"`
				EndDate      string  `json:"end_date"`
				Description  *string `json:"description"`
				ActorID      string  `json:"actor_id"`
			}
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			in := common.SaveWorkOrderRequest{
				ID:           args.ID,
				Name:         args.Name,
				WorkCenterID: args.WorkCenterID,
				Status:       args.Status,
				StartDate:    args.StartDate,
				EndDate:      args.EndDate,
				Description:  args.Description,
			}
			ctx = withAgentActor(ctx, args.ActorID)
			save := board.CreateWorkOrder
			if strings.TrimSpace(args.ID) != "" {
				if _, err := board.GetWorkOrder(ctx, args.ID); err == nil {
					save = board.UpdateWorkOrder
				}
			}
			order, err := save(ctx, in)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(order)
			if err != nil {
				return nil, fmt.Errorf("encode save_work_order result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"workboard.delete_work_order",
			mcp.WithDescription("Delete one work order by id."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Work order identifier")),
			mcp.WithString("actor_id", mcp.Description("Agent name recorded in the activity log")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			ctx = withAgentActor(ctx, req.GetString("actor_id", ""))
			if err := board.DeleteWorkOrder(ctx, id); err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"deleted": id})
			if err != nil {
				return nil, fmt.Errorf("encode delete_work_order result: %w", err)
			}
			return result, nil
		},
	)
}

// withAgentActor attributes one tool mutation to the calling agent.
func withAgentActor(ctx context.Context, actorID string) context.Context {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		actorID = defaultAgentID
	}
	return app.WithMutationActor(ctx, app.MutationActor{
		ActorID:   actorID,
		ActorType: app.ActorTypeAgent,
	})
}
