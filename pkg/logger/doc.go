// Package logger provides the structured logging interface used across
// paperharvest.
//
// It wraps zerolog with a small interface so components can take a Logger in
// their constructors and tests can substitute NewTestLogger or NewNopLogger:
//
//	log, err := logger.New(&cfg.Logging)
//	if err != nil {
//	    return err
//	}
//	log.WithField("unit", "2024-03-09").Info("Unit fetched")
//	log.InfoWithFields("Harvest finished", map[string]interface{}{
//	    "fetched": 2,
//	    "skipped": 1,
//	})
//
// Console output is colored unless logging.no_color is set; logging.format
// "json" emits raw JSON lines. When logging.file is set every line is also
// appended to that file as JSON.
package logger
