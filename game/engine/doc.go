// Package engine provides the core game logic for the Sokoban push server.
//
// The engine package implements the game mechanics including:
//   - Level loading from whitespace-separated token maps
//   - The push resolver that moves the player and any row of boxes ahead of it
//   - Win detection over box and spot positions
//   - Game state snapshots, history and level configuration
//
// Core Types:
//
// WorldState holds one level: an ecs store with Position and Renderable
// storages, the tag masks, the map bounds and the GamePlay and InputQueue
// resources. Resolve and Evaluate are the two passes of one tick.
// GameEngine wraps a WorldState behind the Engine interface, serializes
// ticks and keeps move history.
//
// Usage:
//
//	config, err := engine.LoadLevelConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Push right
//	outcome := gameEngine.Step("right")
//	state := gameEngine.GetState()
//
// Level Format:
//
// Rows are newline-separated, tokens within a row whitespace-separated:
//
//	N  nothing
//	.  floor
//	W  wall on floor
//	P  player on floor
//	B  box on floor
//	S  box spot on floor
//
// Every level needs exactly one player.
//
// Game Rules:
//
// Each tick consumes at most one queued direction. The resolver walks from
// the player's cell in that direction collecting boxes until it finds an
// empty cell, then shifts the player and every collected box one cell. A wall
// or the map edge anywhere on that walk cancels the move. The level is won
// while every spot holds a box.
package engine
