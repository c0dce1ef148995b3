package prompts

import "embed"

//go:embed SYSTEM.md examples.yaml
var FS embed.FS
