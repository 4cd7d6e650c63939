package application

import (
	"github.com/viniciussvasques/crm-innexar/internal/application/commands"
	"github.com/viniciussvasques/crm-innexar/internal/application/query"
)

type Collection struct {
	Payment          *commands.Payment
	SubmitOnboarding *commands.SubmitOnboarding
	StartGeneration  *commands.StartGeneration
	GetOrder         *query.GetOrder
	GetLogs          *query.GetLogs
	CheckStage       *query.CheckStage
}
