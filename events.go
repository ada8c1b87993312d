package stepkit

// Event types emitted while a suite runs.
const (
	EventTypeConfigLoaded = "com.stepkit.config.loaded"

	EventTypeScenarioStarted  = "com.stepkit.scenario.started"
	EventTypeScenarioFinished = "com.stepkit.scenario.finished"

	EventTypeContextWired = "com.stepkit.context.wired"
	EventTypeWiringFailed = "com.stepkit.wiring.failed"

	EventTypeEntityCreated = "com.stepkit.entity.created"
	EventTypeEntityDeleted = "com.stepkit.entity.deleted"
	EventTypeLedgerCleaned = "com.stepkit.ledger.cleaned"

	EventTypeStepFailed      = "com.stepkit.step.failed"
	EventTypeArtifactWritten = "com.stepkit.artifact.written"
)
