package probe

import "context"

// StepMode selects how a step's config is exercised.
type StepMode int

const (
	StepRequest StepMode = iota
	StepTunnel
)

type Step struct {
	Mode   StepMode
	Config Config
}

// Sequence runs steps one after another. It never runs steps concurrently.
type Sequence struct {
	Runner *Runner
	Steps  []Step
	// StopOn lists kinds that end the sequence. Nil means transport failures
	// and a missing credential.
	StopOn []Kind
}

func NewSequence(r *Runner, steps ...Step) *Sequence {
	return &Sequence{Runner: r, Steps: steps}
}

// Run returns one result per executed step, in order.
func (s *Sequence) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(s.Steps))
	for _, st := range s.Steps {
		var res Result
		switch st.Mode {
		case StepTunnel:
			res = s.Runner.Tunnel(ctx, st.Config)
		default:
			res = s.Runner.Run(ctx, st.Config)
		}
		results = append(results, res)
		if s.stops(res.Kind) {
			break
		}
	}
	return results
}

func (s *Sequence) stops(k Kind) bool {
	if s.StopOn == nil {
		return k.Transport() || k == KindMissingCredential
	}
	for _, stop := range s.StopOn {
		if stop == k {
			return true
		}
	}
	return false
}
