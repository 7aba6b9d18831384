// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

/*
Package supervisor runs the server's long-lived goroutines under a suture
supervision tree.

The tree has two layers below the root:

	telemon (root)
	├── data-layer
	│   ├── session-cleanup
	│   ├── lockout-cleanup
	│   └── authz-cache
	└── api-layer
	    ├── http-server
	    └── ratelimit-cleanup

A service that returns an error or panics is restarted with backoff by its
layer supervisor; failures in the data layer do not stop the HTTP server.
Supervisor events are logged through sutureslog, bridged to zerolog by
logging.NewSlogLogger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}
	tree.AddDataService(services.NewSessionCleanupService(db, time.Hour))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
