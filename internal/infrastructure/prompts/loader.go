package prompts

import (
	_ "embed"
)

//go:embed system.txt
var SystemInstruction string

//go:embed initial.txt
var InitialPrompt string

//go:embed revision.txt
var RevisionPrompt string
