// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

/*
Package supervisor runs LocalDB's long-lived services under suture v4.

# Tree

	RootSupervisor ("localdb")
	├── StorageSupervisor ("storage-layer")
	│   └── GCService (badger backend only)
	├── PipelineSupervisor ("pipeline-layer")
	│   ├── LifecycleService "eventlog-writer"
	│   ├── LifecycleService "outbox-sms"
	│   └── LifecycleService "outbox-email"
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A service that returns an error is restarted with backoff once the layer
exceeds FailureThreshold. Failures decay at FailureDecay per second.

# Logging

Supervisor events go through sutureslog. Pass logging.NewSlogLogger() so
restarts and panics land in the same zerolog stream as everything else:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{})

# Shutdown

Cancel the context given to Serve. Each service gets ShutdownTimeout to
return; stragglers are listed by UnstoppedServiceReport.

See package services for the wrappers.
*/
package supervisor
