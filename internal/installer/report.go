package installer

// Stage identifies which part of the run produced an outcome.
type Stage string

const (
	StageIndexes Stage = "apt-update"
	StageApt     Stage = "apt"
	StagePip     Stage = "pip"
	StageFetch   Stage = "fetch"
	StageDeps    Stage = "deps"
	StageLink    Stage = "link"
	StageCaps    Stage = "caps"
)

// Status is the result of a single attempted item.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Outcome records what happened to one item of one stage.
type Outcome struct {
	Stage  Stage
	Name   string
	Status Status
	Detail string
}

// Report collects outcomes in the order they happened.
type Report struct {
	Outcomes []Outcome
}

func (r *Report) add(stage Stage, name string, status Status, detail string) {
	r.Outcomes = append(r.Outcomes, Outcome{Stage: stage, Name: name, Status: status, Detail: detail})
}

// Lookup returns the outcome recorded for name in stage, if any.
func (r *Report) Lookup(stage Stage, name string) (Outcome, bool) {
	if r == nil {
		return Outcome{}, false
	}
	for i := len(r.Outcomes) - 1; i >= 0; i-- {
		o := r.Outcomes[i]
		if o.Stage == stage && o.Name == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// Failed returns every failed outcome.
func (r *Report) Failed() []Outcome {
	if r == nil {
		return nil
	}
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}
