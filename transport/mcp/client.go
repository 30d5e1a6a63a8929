package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Sokoban",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Sokoban - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Push every box ($) onto a spot (.) to win. The player (@) walks on floor and
pushes a whole row of boxes at once, as long as an empty cell lies past the
last box. Walls (#) stop everything.

AVAILABLE TOOLS:
- game_state: Get current game state
- move: Single move (up/down/left/right) - requires intent explanation
- bulk_move: Multiple moves at once (stops when blocked or on victory)
- reset_game: Restore the level's initial layout
- move_history: View past moves
- create_session: Create new game session
- get_session: Get session details
- list_sessions: List all active sessions
- list_configs: List available levels
- game_instructions: Get the full rules and legend
- describe_cell: Get detailed info about one grid cell

NOTE: The 'intent' parameter on move/bulk_move tools serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session, optionally selecting a level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Level id from list_configs (optional, defaults to classic)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the player one cell, pushing any boxes in the way",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to move",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Execute up to %d moves in sequence. Stops at the first blocked move or on victory.", engine.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"up", "down", "left", "right"},
					},
					"description": "Array of moves",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the level to its initial layout. Move history is kept.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available levels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get game rules and the grid legend",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Get detailed information about one grid cell: its glyph, what occupies it, and whether the player can enter or push into it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "X coordinate (column) of the cell to describe (0-based)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Y coordinate (row) of the cell to describe (0-based)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeStdio serves the tools over stdin/stdout until the input closes.
func (c *Client) ServeStdio() error {
	return server.ServeStdio(c.mcpServer)
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configID := request.GetString("config_id", "")
	if configID == "" {
		configID = request.GetString("config_name", "")
	}

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		progress := ""
		if s.GameState != nil {
			progress = fmt.Sprintf(", Spots: %d/%d", s.GameState.BoxesOnSpots, s.GameState.TotalSpots)
			if s.GameState.Won {
				progress += ", solved"
			}
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Created: %s%s)\n",
			s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"), progress)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	// intent is only there for the caller's benefit
	body := map[string]interface{}{
		"direction": request.GetString("direction", ""),
		"reset":     request.GetBool("reset", false),
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	body := map[string]interface{}{
		"moves": request.GetStringSlice("moves", []string{}),
		"reset": request.GetBool("reset", false),
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	params := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		params.Set("page", fmt.Sprint(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order := request.GetString("order", ""); order != "" {
		params.Set("order", order)
	}
	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatHistory(&history)

	// The live state carries the moves since the last reset
	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/state"), nil, &state); err == nil {
		result += "\n" + formatCurrentSegment(&state)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, Boxes: %d, Spots: %d, Win: %s\n\n",
			config.Name, config.ConfigID, config.Description,
			config.Width, config.Height, config.Boxes, config.Spots, config.WinPolicy)
	}

	return mcp.NewToolResultText(b.String()), nil
}

const gameInstructions = `Sokoban - Complete Instructions

GAME OBJECTIVE:
Push boxes onto spots. With the default "coverage" rule the level is solved
once every spot holds a box. Levels using the "exact" rule also require every
box to sit on a spot.

GRID LEGEND:
• # - Wall (immovable, blocks the player and boxes)
• @ - Player
• + - Player standing on a spot
• $ - Box (movable)
• * - Box on a spot
• . - Empty spot (target)
• _ - Floor
• (blank) - Nothing: no tile here, still walkable inside the map

MOVEMENT RULES:
• Each move looks along the chosen direction, starting next to the player.
• Boxes in a straight line are collected into one push chain.
• The first cell that holds neither a box nor a wall ends the scan: the player
  and the whole chain shift one cell. Pushing any number of boxes is allowed.
• If the scan hits a wall first, nothing moves (blocked_immovable).
• If the scan runs off the edge of the map, nothing moves (blocked_boundary).
• Anything other than up/down/left/right is ignored (invalid_direction).
• The move counter only increases when something actually moved.

MOVEMENT COMMANDS:
- up, down, left, right - Single moves in cardinal directions
- bulk_move - Up to 50 moves; stops at the first blocked move or on victory
- reset - Optional flag on move/bulk_move to restart the level first

STRATEGY:
- Never push a box into a corner that is not a spot: it can never leave.
- A box against a wall can only slide along that wall.
- Use describe_cell when unsure what occupies a cell.
- Check possible_moves and the local 3x3 view after a blocked move.

SESSION MANAGEMENT:
- Multiple sessions can run simultaneously, each with its own level
- Each session has a unique 4-character ID
- reset_game restores the layout; move history stays cumulative

Good luck pushing!`

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	x := request.GetInt("x", -1)
	y := request.GetInt("y", -1)

	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if y < 0 || y >= len(state.Grid) || x < 0 || x >= len(state.Grid[y]) {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are out of bounds. Grid is %dx%d (x 0-%d, y 0-%d)",
			x, y, state.Width, state.Height, state.Width-1, state.Height-1)), nil
	}

	glyph := state.Grid[y][x]

	var occupants []string
	for _, e := range state.Entities {
		if e.X == x && e.Y == y {
			occupants = append(occupants, fmt.Sprintf("%s #%d (z=%d)", e.Kind, e.ID, e.Z))
		}
	}
	if len(occupants) == 0 {
		occupants = append(occupants, "none")
	}

	result := fmt.Sprintf(`Cell at position (%d, %d):
━━━━━━━━━━━━━━━━━━━━━━━━
Character: %q
Type: %s
Entities: %s
Description: %s`,
		x, y,
		string(glyph),
		engine.DescribeGlyph(glyph),
		strings.Join(occupants, ", "),
		describeGlyphRules(glyph))

	return mcp.NewToolResultText(result), nil
}

func describeGlyphRules(g byte) string {
	switch g {
	case engine.GlyphWall:
		return "Wall - IMPASSABLE. Nothing can be pushed into or through it."
	case engine.GlyphBox:
		return "Box - push it by walking into it, provided an empty cell lies beyond the box row."
	case engine.GlyphBoxOnSpot:
		return "Box already on a spot. Pushing it off uncovers the spot again."
	case engine.GlyphSpot:
		return "Empty spot - push a box here."
	case engine.GlyphPlayer, engine.GlyphPlayerOnSpot:
		return "This is where the player currently is."
	case engine.GlyphFloor:
		return "Floor - free to walk on."
	}
	return "Nothing here. The player can still walk in while inside the map."
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	fmt.Fprintf(&result, "Position: (%d,%d) | Spots: %d/%d | Moves: %d | Inputs: %d\n\n",
		state.PlayerPos.X, state.PlayerPos.Y,
		state.BoxesOnSpots, state.TotalSpots, state.MovesCount, state.TotalMoves)

	if view := localView(state); len(view) == 3 {
		result.WriteString("Local 3x3:\n")
		for _, row := range view {
			result.WriteString(row + "\n")
		}
		result.WriteString("\n")
	}
	if len(state.PossibleMoves) > 0 {
		fmt.Fprintf(&result, "Possible moves: %s\n\n", strings.Join(state.PossibleMoves, ","))
	}

	for _, row := range state.Grid {
		result.WriteString(row)
		result.WriteString("\n")
	}

	if state.Won {
		result.WriteString("\n🎉 VICTORY!")
	}

	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

// localView prefers the server-computed window and derives one from the grid
// otherwise.
func localView(state *engine.GameState) []string {
	if len(state.LocalView3x3) == 3 {
		return state.LocalView3x3
	}
	if len(state.Grid) == 0 {
		return nil
	}
	view := make([]string, 0, 3)
	for dy := -1; dy <= 1; dy++ {
		row := make([]byte, 0, 3)
		for dx := -1; dx <= 1; dx++ {
			row = append(row, glyphAt(state, state.PlayerPos.X+dx, state.PlayerPos.Y+dy))
		}
		view = append(view, string(row))
	}
	return view
}

func glyphAt(state *engine.GameState, x, y int) byte {
	if y < 0 || y >= len(state.Grid) || x < 0 || x >= len(state.Grid[y]) {
		return engine.GlyphNothing
	}
	return state.Grid[y][x]
}

func formatStep(s *service.StepInfo) string {
	status := "✗"
	if s.Success {
		status = "✓"
	}
	line := fmt.Sprintf("%s (%d,%d)→(%d,%d) pushed=%d moves=%d %s",
		s.Dir, s.From.X, s.From.Y, s.To.X, s.To.Y, s.Pushed, s.MovesCount, status)
	if s.Victory {
		line += " 🎉"
	}
	return line
}

func formatAttempt(a *service.AttemptInfo) string {
	line := fmt.Sprintf("Blocked: attempted (%d,%d) %s", a.X, a.Y, a.Reason)
	if a.CellType != "" {
		line += fmt.Sprintf(" cell=%s", a.CellType)
	}
	if a.Glyph != "" {
		line += fmt.Sprintf(" glyph=%q", a.Glyph)
	}
	if a.Pushing > 0 {
		line += fmt.Sprintf(" while pushing %d box(es)", a.Pushing)
	}
	return line
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Move successful\n")
	} else {
		b.WriteString("✗ Move failed\n")
	}
	if result.Message != "" {
		b.WriteString(result.Message + "\n")
	}

	if result.Step != nil {
		b.WriteString("Step: " + formatStep(result.Step) + "\n")
	}

	if result.AttemptedTo != nil {
		b.WriteString(formatAttempt(result.AttemptedTo) + "\n")
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	configName := ""
	width, height := 0, 0
	if result.GameState != nil {
		configName = result.GameState.ConfigName
		width, height = result.GameState.Width, result.GameState.Height
	}
	fmt.Fprintf(&b, "Session: %s • Config: %s • Grid: %dx%d\n", sessionID, configName, width, height)

	fmt.Fprintf(&b, "Executed %d/%d moves, pushed %d box(es)\n",
		result.MovesExecuted, result.RequestedMoves, result.BoxesPushed)
	if result.Truncated {
		fmt.Fprintf(&b, "Input truncated to %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		stop := result.StoppedReason
		if result.StopReasonCode != "" {
			stop = fmt.Sprintf("%s (%s)", stop, result.StopReasonCode)
		}
		if result.StoppedOnMove > 0 {
			stop += fmt.Sprintf(" on move %d", result.StoppedOnMove)
		}
		b.WriteString("Stopped: " + stop + "\n")
	}

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for i := range result.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, formatStep(&result.Steps[i]))
		}
	}

	if result.AttemptedTo != nil {
		b.WriteString("\n" + formatAttempt(result.AttemptedTo) + "\n")
	}

	if len(result.PossibleMoves) > 0 {
		b.WriteString("\nPossible moves: " + strings.Join(result.PossibleMoves, ",") + "\n")
	}
	if len(result.LocalView3x3) == 3 {
		b.WriteString("Local 3x3:\n")
		for _, row := range result.LocalView3x3 {
			b.WriteString(row + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistoryEntry(num int, move engine.MoveHistoryEntry) string {
	status := "✓"
	if !move.Success {
		status = "✗"
	}
	line := fmt.Sprintf("%d. %s %s (%d,%d)→(%d,%d)", num, move.Action, status,
		move.FromPosition.X, move.FromPosition.Y, move.ToPosition.X, move.ToPosition.Y)
	if move.Pushed > 0 {
		line += fmt.Sprintf(" pushed=%d", move.Pushed)
	}
	if !move.Success && move.Reason != "" {
		line += " " + move.Reason
	}
	return line + fmt.Sprintf(" [Moves: %d]\n", move.MovesCount)
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d) - Total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		b.WriteString(formatHistoryEntry(move.MoveNumber, move))
	}

	return b.String()
}

func formatCurrentSegment(state *engine.GameState) string {
	if state == nil {
		return "Current Segment: unavailable"
	}
	header := fmt.Sprintf("Current Move Segment - Moves: %d\n\n", state.CurrentMovesCount)
	if len(state.CurrentMoves) == 0 {
		return header + "(no moves in current segment)"
	}
	var b strings.Builder
	b.WriteString(header)
	for i, move := range state.CurrentMoves {
		b.WriteString(formatHistoryEntry(i+1, move))
	}
	return b.String()
}
