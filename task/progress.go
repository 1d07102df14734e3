package task

// Decrement is the count-task step: it wraps an exhausted counter back to max.
func Decrement(current, max int) int {
	if current == 0 {
		return max
	}
	return current - 1
}

// Progress is one character's checklist state.
type Progress struct {
	Done map[string]bool `json:"done,omitempty"`
	Left map[string]int  `json:"left,omitempty"`
}

// NewProgress returns a fresh checklist: binary tasks unchecked, counters full.
func NewProgress(c *Catalog) Progress {
	p := Progress{Done: make(map[string]bool), Left: make(map[string]int)}
	for _, d := range c.Defs() {
		p.reset(d)
	}
	return p
}

func (p *Progress) ensure() {
	if p.Done == nil {
		p.Done = make(map[string]bool)
	}
	if p.Left == nil {
		p.Left = make(map[string]int)
	}
}

func (p *Progress) reset(d Def) {
	p.ensure()
	switch d.Kind {
	case Binary:
		p.Done[d.Key] = false
	case Count:
		p.Left[d.Key] = d.Max
	}
}

// Remaining reports the uses left on a count task. Keys missing from older
// records count as full and stored values are clamped to [0, Max].
func (p Progress) Remaining(d Def) int {
	v, ok := p.Left[d.Key]
	if !ok || v > d.Max {
		return d.Max
	}
	if v < 0 {
		return 0
	}
	return v
}

// IsDone reports whether the task needs no more work until the next reset.
func (p Progress) IsDone(d Def) bool {
	if d.Kind == Count {
		return p.Remaining(d) == 0
	}
	return p.Done[d.Key]
}

// apply performs one click on d: a binary task toggles, a count task decrements.
func (p *Progress) apply(d Def) {
	p.ensure()
	if d.Kind == Count {
		p.Left[d.Key] = Decrement(p.Remaining(d), d.Max)
		return
	}
	p.Done[d.Key] = !p.Done[d.Key]
}

// copyTask mirrors src's value for d into p.
func (p *Progress) copyTask(d Def, src Progress) {
	p.ensure()
	if d.Kind == Count {
		p.Left[d.Key] = src.Remaining(d)
		return
	}
	p.Done[d.Key] = src.Done[d.Key]
}

// Unfinished lists the tasks still open, in catalog order.
func (p Progress) Unfinished(c *Catalog) []Def {
	var out []Def
	for _, d := range c.Defs() {
		if !p.IsDone(d) {
			out = append(out, d)
		}
	}
	return out
}
