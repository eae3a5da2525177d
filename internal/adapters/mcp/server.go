// Package mcp exposes a running controller over the Model Context Protocol
// so agent tooling can inspect connected games, their registered actions,
// and recent context without touching the game-facing socket.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	neuroapi "github.com/CoolCat467/Neuro-API"
	"github.com/CoolCat467/Neuro-API/pkg/command"
	"github.com/CoolCat467/Neuro-API/pkg/ports"
)

// GameSummary is one connected game in list_games output.
type GameSummary struct {
	Game    string `json:"game" jsonschema_description:"Game title bound at startup"`
	Remote  string `json:"remote" jsonschema_description:"Peer address of the connection"`
	Actions int    `json:"actions" jsonschema_description:"Number of registered actions"`
	Pending int    `json:"pending_actions" jsonschema_description:"Action requests awaiting results"`
}

// ActionsResponse is the list_actions output.
type ActionsResponse struct {
	Game    string           `json:"game"`
	Actions []command.Action `json:"actions" jsonschema_description:"Registered actions, sorted by name"`
}

// ContextResponse is the recent_context output.
type ContextResponse struct {
	Game    string               `json:"game"`
	Entries []ports.ContextEntry `json:"entries" jsonschema_description:"Context entries, oldest first"`
}

// Server wraps a controller and exposes it as an MCP server.
type Server struct {
	controller *neuroapi.Controller
	mcpServer  *server.MCPServer
}

// NewServer builds the MCP surface over a running controller.
func NewServer(controller *neuroapi.Controller) *Server {
	s := &Server{
		controller: controller,
		mcpServer:  server.NewMCPServer("neuro-api", neuroapi.Version),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_games",
		mcp.WithDescription("List the games currently connected to the controller."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		games := make([]GameSummary, 0)
		for _, title := range s.controller.Games() {
			game, ok := s.controller.Game(title)
			if !ok {
				continue
			}
			games = append(games, GameSummary{
				Game:    title,
				Remote:  game.Remote(),
				Actions: len(game.Actions()),
				Pending: game.PendingActions(),
			})
		}
		jsonBytes, _ := json.Marshal(games)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	actionsTool := mcp.NewTool("list_actions",
		mcp.WithDescription("List the actions a connected game has registered."),
		mcp.WithString("game", mcp.Required(), mcp.Description("Game title as bound at startup")),
		mcp.WithOutputSchema[ActionsResponse](),
	)
	s.mcpServer.AddTool(actionsTool, mcp.NewStructuredToolHandler(s.handleListActions))

	contextTool := mcp.NewTool("recent_context",
		mcp.WithDescription("Fetch the most recent context entries journaled for a game."),
		mcp.WithString("game", mcp.Required(), mcp.Description("Game title as bound at startup")),
		mcp.WithNumber("count", mcp.Description("Maximum entries to return (default 50)")),
		mcp.WithOutputSchema[ContextResponse](),
	)
	s.mcpServer.AddTool(contextTool, mcp.NewStructuredToolHandler(s.handleRecentContext))
}

func (s *Server) handleListActions(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ActionsResponse, error) {
	title, _ := args["game"].(string)
	game, ok := s.controller.Game(title)
	if !ok {
		return ActionsResponse{}, fmt.Errorf("game %q is not connected", title)
	}
	return ActionsResponse{Game: title, Actions: game.Actions()}, nil
}

func (s *Server) handleRecentContext(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ContextResponse, error) {
	game, _ := args["game"].(string)
	count := 50
	if n, ok := args["count"].(float64); ok && n > 0 {
		count = int(n)
	}

	journal := s.controller.Journal()
	if journal == nil {
		return ContextResponse{}, fmt.Errorf("controller is running without a journal")
	}
	entries, err := journal.Recent(ctx, game, count)
	if err != nil {
		return ContextResponse{}, fmt.Errorf("read journal: %w", err)
	}
	return ContextResponse{Game: game, Entries: entries}, nil
}
