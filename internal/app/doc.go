// Package app is the composition root for dram.
//
// # Overview
//
// Every command goes through the same setup: read the config file, apply flag
// and environment overrides, validate, then build the logger, the metrics
// registry and the instrumented recommendation client. What happens next
// depends on the command.
//
//	┌──────────────┐
//	│   setup()    │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()          TOML or YAML file, defaults if missing
//	       ├─────> Config.With()          flag and DRAM_* overrides
//	       ├─────> logger.New()           zap: log_file when browsing, else stderr
//	       ├─────> metrics.New()          private prometheus registry
//	       └─────> recommend.NewClient()  wrapped by NewInstrumented
//
//	Browse                      Search / Recommend
//	  ├─> metrics.Listen()        ├─> catalog.Load() with progress bar
//	  │   (when metrics_addr)     ├─> state.Controller
//	  └─> ui.Run()                └─> print to Stdout
//	      loads the catalog
//	      off the event loop
//
// # Browse
//
// Browse hands the UI a catalog loader rather than a loaded catalog so the
// window appears immediately. The optional metrics listener serves /metrics
// and /healthz; /healthz reports ready once the catalog has loaded.
//
// # Non-interactive commands
//
// Search prints the catalog entries matching a query along with their catalog
// indexes. Recommend takes an index or an exact name plus an optional max
// price and prints the service's answer in the order it was returned. Both
// drive the same state.Controller the UI uses, so selection and ceiling
// handling are identical.
//
// # Errors
//
// Configuration, logger and catalog failures are returned to the caller. In
// the browser a catalog failure is shown in the window instead, and a failed
// recommendation keeps the previous results on screen.
package app
