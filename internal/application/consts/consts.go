package consts

// Pipeline step identifiers written to the generation log.
const (
	StepGenerationStarted  = "GENERATION_STARTED"
	StepResumeCheck        = "RESUME_CHECK"
	StepWorkspaceCleared   = "WORKSPACE_CLEARED"
	StepStrategyBriefing   = "STRATEGY_BRIEFING"
	StepTemplateSelected   = "TEMPLATE_SELECTED"
	StepTemplateCopied     = "TEMPLATE_COPIED"
	StepTemplateCustomized = "TEMPLATE_CUSTOMIZED"
	StepAIEnrichment       = "AI_ENRICHMENT"
	StepAIGeneration       = "AI_GENERATION"
	StepFilesWritten       = "FILES_WRITTEN"
	StepDeploy             = "DEPLOY"
	StepGenerationComplete = "GENERATION_COMPLETE"
	StepGenerationFailed   = "GENERATION_FAILED"
)

// Stage names reported by the stage-inspection query.
type Stage string

const (
	StageNotStarted Stage = "not_started"
	StageInProgress Stage = "in_progress"
	StageGenerated  Stage = "generated"
	StageDelivered  Stage = "delivered"
)

// AI task types resolved through the task-routing table.
const (
	TaskStrategy = "strategy"
	TaskCoding   = "coding"
	TaskCopy     = "copywriting"
)
