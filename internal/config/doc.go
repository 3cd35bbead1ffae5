// Package config loads arcane's settings.
//
// Settings come from three layers, each overriding the one below:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← ARCANE_HISTORY_MAX_ENTRIES=200
//	├─────────────────────────────┤
//	│  2. Config File             │  ← arcane.toml or arcane.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Default()
//	└─────────────────────────────┘
//
// Every setting is registered with a type and bounds. Integer settings
// carry an explicit minimum and maximum, choice settings a fixed list of
// names. Values are converted and checked as they are applied, so a Config
// obtained from Load or Decode is always valid. Unknown keys are rejected.
//
// # Basic Usage
//
//	cfg, err := config.Load("arcane.toml")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.ApplyEnv("ARCANE_"); err != nil {
//	    return err
//	}
//	opts, err := cfg.EngineOptions()
//	if err != nil {
//	    return err
//	}
//	e, err := engine.New(opts...)
//
// # File Format
//
//	[engine]
//	backend = "rope"          # piecetable | rope
//	tab_width = 4             # 1..16
//
//	[history]
//	max_entries = 1000        # 1..100000
//	coalesce_window = "1s"    # 0..1m, plain numbers are milliseconds
//	max_coalesce = 50         # 0..10000
//	break_on_word = false
//
//	[limits]
//	max_document_bytes = 1073741824
//	max_cursors = 10000
//	max_changes = 4096
//
//	[logging]
//	level = "info"            # debug | info | warn | error
//
//	[search]
//	mode = "literal"          # literal | regex | glob
//	case_sensitive = false
//	context_lines = 2
//	max_results = 1000
package config
