// Package config loads level configurations for the grid games.
//
// Configurations are engine.GameConfig values stored as JSON files in a
// config directory, one file per level, named by config id:
//
//	configs/
//	  scale-blocks.json
//	  frog.json
//
// Every game kind also has built-in levels (engine.BuiltinConfigs). A file
// with the same id replaces the built-in one, so a deployment can tune a
// level without rebuilding.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//	frog, err := manager.LoadConfig("frog")
//	configs, err := manager.ListConfigs()
//
// Loaded files are validated with engine.ValidateGameConfig. Invalid files
// are reported as ErrInvalidConfig and skipped by ListConfigs.
package config
