// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

/*
Package supervisor runs the long-lived services under a suture v4 tree.

	RootSupervisor ("authzgate")
	├── PolicySupervisor ("policy-layer")
	│   └── PolicyLoaderService (edge mode; runs once, never restarted)
	└── APISupervisor ("api-layer")
	    ├── HTTPServerService "gateway-http" or "edge-http"
	    └── HTTPServerService "admin-http" (when an admin port is set)

Supervisor events are logged through sutureslog into the zerolog-backed
slog handler from internal/logging.

Usage:

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddPolicyService(services.NewPolicyLoaderService(holder, load))
	tree.AddAPIService(services.NewHTTPServerService("edge-http", server, 15*time.Second))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}
*/
package supervisor
