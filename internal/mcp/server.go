package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"boardsmcp/internal/domain/audit"
	"boardsmcp/internal/domain/workitem"
)

// WorkItemService defines the orchestration operations needed by MCP.
type WorkItemService interface {
	Create(ctx context.Context, draft workitem.Draft) (*workitem.Record, error)
	Update(ctx context.Context, req workitem.UpdateRequest) (*workitem.Record, error)
	Delete(ctx context.Context, id int) error
	Get(ctx context.Context, id int) (*workitem.Record, error)
	GetChildren(ctx context.Context, rec *workitem.Record) []*workitem.Record
	Link(ctx context.Context, epicID, taskID int) error
	CreateEpicWithTasks(ctx context.Context, req workitem.CompoundRequest) (*workitem.CompoundResult, error)
	RecentActivity(ctx context.Context, opts audit.ListOptions) ([]audit.Entry, error)
	Project() string
	SetProject(ctx context.Context, name string) (previous, current string, err error)
}

// Config contains server configuration.
type Config struct {
	Service WorkItemService
	Logger  *slog.Logger
}

// NewServer creates and configures an MCP server with all tools,
// resources, and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "boards-mcp",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Service)

	return server
}
