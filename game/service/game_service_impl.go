package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wricardo/sokoban/game/engine"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a level display name
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	configID := sess.ConfigID
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      enrich(sess.Engine, sess.Engine.GetState()),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.LevelConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			return nil, s.configError(configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	// Let the session manager generate the 4-character ID
	session, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.sessionInfo(session), nil
}

// configError lists the available levels when configName is unknown
func (s *gameServiceImpl) configError(configName string, err error) error {
	if !errors.Is(err, ErrConfigNotFound) {
		return fmt.Errorf("failed to load config %s: %w", configName, err)
	}

	availableConfigs, listErr := s.configs.ListConfigs()
	if listErr == nil && len(availableConfigs) > 0 {
		var configIDs []string
		for _, cfg := range availableConfigs {
			configIDs = append(configIDs, cfg.ConfigID)
		}
		return fmt.Errorf("config '%s' not found. Available configs: %v: %w", configName, configIDs, ErrConfigNotFound)
	}
	return fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configName, ErrConfigNotFound)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.Touch(sessionID)
	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.Touch(sessionID)

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}

	prevPos := sess.Engine.GetPlayerPosition()
	wasWon := sess.Engine.IsWon()
	out := sess.Engine.Step(direction)
	state := enrich(sess.Engine, sess.Engine.GetState())

	result := &MoveResult{
		Success:   out.Committed,
		GameState: state,
		Message:   state.Message,
		Events:    append(events, stepEvents(out, prevPos, wasWon, state)...),
	}

	if out.Committed {
		step := stepInfo(1, prevPos, out, state)
		result.Step = &step
	} else {
		result.AttemptedTo = attemptInfo(out, prevPos, state)
	}

	// Auto-save session after move
	if err := s.sessions.Checkpoint(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after move: %v", sessionID, err)
	}

	return result, nil
}

// BulkMove executes moves in sequence, stopping at the first blocked move or
// when the level is solved
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.Touch(sessionID)

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, resetEvent())
	}

	start := sess.Engine.GetState()
	result.StartPos = start.PlayerPos
	result.StartMovesCount = start.MovesCount

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	for i, move := range moves {
		prevPos := sess.Engine.GetPlayerPosition()
		wasWon := sess.Engine.IsWon()
		out := sess.Engine.Step(move)
		state := sess.Engine.GetState()
		result.Events = append(result.Events, stepEvents(out, prevPos, wasWon, state)...)

		if !out.Committed {
			result.Success = false
			result.StoppedOnMove = i + 1
			result.StopReasonCode = string(out.Reason)
			result.StoppedReason = fmt.Sprintf("move %d blocked: %s (%s)", i+1, move, out.Reason)
			result.AttemptedTo = attemptInfo(out, prevPos, state)
			break
		}

		result.MovesExecuted++
		result.BoxesPushed += out.Pushed()
		result.Steps = append(result.Steps, stepInfo(i+1, prevPos, out, state))

		if state.Won {
			if i < len(moves)-1 {
				result.StoppedOnMove = i + 1
				result.StoppedReason = fmt.Sprintf("level solved on move %d", i+1)
			}
			result.StopReasonCode = StopVictory
			break
		}
	}

	end := enrich(sess.Engine, sess.Engine.GetState())
	result.GameState = end
	result.EndPos = end.PlayerPos
	result.EndMovesCount = end.MovesCount
	result.Won = end.Won
	result.Message = end.Message
	result.PossibleMoves = end.PossibleMoves
	result.LocalView3x3 = end.LocalView3x3

	// Auto-save session after bulk moves
	if err := s.sessions.Checkpoint(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after bulk moves: %v", sessionID, err)
	}

	return result, nil
}

// Reset resets a game session to its initial layout
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.Touch(sessionID)
	state := enrich(sess.Engine, sess.Engine.Reset())

	// Auto-save session after reset
	if err := s.sessions.Checkpoint(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after reset: %v", sessionID, err)
	}

	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.Touch(sessionID)
	return enrich(sess.Engine, sess.Engine.GetState()), nil
}

// GetRenderables returns the z-ordered render items of a session
func (s *gameServiceImpl) GetRenderables(ctx context.Context, sessionID string) ([]engine.RenderItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	return sess.Engine.Renderables(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	return paginate(sess.Engine.GetMoveHistory(), opts), nil
}

// paginate slices history into one page. Defaults: page 1, limit 20 (max
// 100), newest first.
func paginate(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := min((opts.Page-1)*opts.Limit, total)
	end := min(start+opts.Limit, total)

	moves := make([]engine.MoveHistoryEntry, 0, end-start)
	if opts.Order == "desc" {
		for i := total - 1 - start; i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// ListConfigs returns available level configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific level configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.LevelConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a level configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.LevelConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// enrich adds decision aids to a state snapshot
func enrich(eng *engine.GameEngine, state *engine.GameState) *engine.GameState {
	state.PossibleMoves = eng.GetPossibleMoves()
	return state
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      EventReset,
		Message:   "Level reset to initial layout",
		Timestamp: time.Now(),
	}
}

// stepEvents describes one resolver outcome
func stepEvents(out engine.MoveOutcome, prevPos engine.Position, wasWon bool, state *engine.GameState) []GameEvent {
	now := time.Now()
	if !out.Committed {
		return []GameEvent{{
			Type:      EventBlocked,
			Message:   fmt.Sprintf("Move %s blocked: %s", out.Direction, out.Reason),
			Timestamp: now,
			Position:  prevPos,
		}}
	}

	newPos := state.PlayerPos
	events := []GameEvent{{
		Type:      EventMove,
		Message:   fmt.Sprintf("Moved %s to (%d,%d)", out.Direction, newPos.X, newPos.Y),
		Timestamp: now,
		Position:  newPos,
	}}
	if pushed := out.Pushed(); pushed > 0 {
		events = append(events, GameEvent{
			Type:      EventPush,
			Message:   fmt.Sprintf("Pushed %d box(es) %s, %d/%d spots covered", pushed, out.Direction, state.BoxesOnSpots, state.TotalSpots),
			Timestamp: now,
			Position:  newPos,
		})
	}

	switch {
	case state.Won && !wasWon:
		events = append(events, GameEvent{
			Type:      EventVictory,
			Message:   fmt.Sprintf("Level solved in %d moves!", state.MovesCount),
			Timestamp: now,
		})
	case !state.Won && wasWon:
		events = append(events, GameEvent{
			Type:      EventUnsolved,
			Message:   "A box left its spot, level no longer solved",
			Timestamp: now,
		})
	}
	return events
}

func stepInfo(idx int, from engine.Position, out engine.MoveOutcome, state *engine.GameState) StepInfo {
	return StepInfo{
		Idx:        idx,
		Dir:        string(out.Direction),
		From:       from,
		To:         state.PlayerPos,
		Pushed:     out.Pushed(),
		MovesCount: state.MovesCount,
		Success:    true,
		Victory:    state.Won,
	}
}

// attemptInfo describes what stopped a move. Invalid directions have no
// target cell and report the player's own cell.
func attemptInfo(out engine.MoveOutcome, from engine.Position, state *engine.GameState) *AttemptInfo {
	info := &AttemptInfo{X: from.X, Y: from.Y, Reason: string(out.Reason)}
	if out.BlockedAt == nil {
		info.CellType = "none"
		return info
	}

	info.X, info.Y = out.BlockedAt.X, out.BlockedAt.Y
	info.Pushing = max(engine.ManhattanDistance(from, *out.BlockedAt)-1, 0)
	if info.Y < 0 || info.Y >= len(state.Grid) || info.X < 0 || info.X >= len(state.Grid[info.Y]) {
		info.CellType = "boundary"
		return info
	}
	glyph := state.Grid[info.Y][info.X]
	info.Glyph = string(glyph)
	info.CellType = engine.DescribeGlyph(glyph)
	return info
}
