package ports

import "context"

// DiameterRequest asks for the vessel diameters of a rest/agonist pair.
type DiameterRequest struct {
	Message        string
	RestDefault    *float64
	AgonistDefault *float64
}

// DiameterAnswer is the prompt's reply. SkipAll asks the caller to stop
// prompting and use velocities for every remaining pair.
type DiameterAnswer struct {
	Rest    *float64
	Agonist *float64
	SkipAll bool
}

// DiameterPrompter collects missing vessel diameters from a user. It blocks
// until answered.
type DiameterPrompter interface {
	PromptDiameters(ctx context.Context, req DiameterRequest) (DiameterAnswer, error)
}

// OverwriteConfirmer approves replacing an existing output file.
type OverwriteConfirmer interface {
	ConfirmOverwrite(path string) bool
}
