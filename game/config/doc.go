// Package config provides level configuration management for the Sokoban
// push server.
//
// The config package handles:
//   - Loading levels from JSON and YAML files
//   - Validation through engine.ValidateLevelConfig
//   - Default level selection
//   - Level discovery, listing and saving
//   - Reloading the cache when level files change on disk
//
// Level Format:
//
// Levels live in the configs directory as .json, .yaml or .yml files. Each
// level defines its name, description, the map rows, the win policy
// (coverage or exact), the input order (fifo or lifo), optional sprite
// overrides and player messages.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load a specific level, extension optional
//	level, err := manager.LoadConfig("tiny")
//
//	// Get the default level (classic, then the first valid file, then
//	// the built-in level)
//	defaultLevel := manager.GetDefault()
//
//	// Reload on change
//	watcher, err := config.NewWatcher(manager)
//	defer watcher.Close()
package config
