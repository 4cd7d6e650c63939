package config

import (
	"strconv"

	"github.com/viniciussvasques/crm-innexar/pkg/env"
)

// GeneratorConfig drives the site generation pipeline.
type GeneratorConfig struct {
	// WorkspaceRoot holds one directory per order.
	WorkspaceRoot string
	// MinWorkspaceFiles is the threshold below which a resumed workspace is
	// considered broken and rebuilt from scratch.
	MinWorkspaceFiles int
	// PreviewDomain serves sites that have no hosting deployment yet.
	PreviewDomain string
}

func NewGeneratorConfig() GeneratorConfig {
	minFiles, err := strconv.Atoi(env.GetEnv("MIN_WORKSPACE_FILES", "5"))
	if err != nil {
		minFiles = 5
	}
	return GeneratorConfig{
		WorkspaceRoot:     env.GetEnv("WORKSPACE_ROOT", "generated_sites"),
		MinWorkspaceFiles: minFiles,
		PreviewDomain:     env.GetEnv("PREVIEW_DOMAIN", "preview.innexar.com"),
	}
}
