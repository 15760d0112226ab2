package palette

// Intent is an input-agnostic instruction for the palette.
type Intent interface {
	intent()
}

type (
	OpenIntent     struct{}
	CloseIntent    struct{}
	ToggleIntent   struct{}
	MoveUpIntent   struct{}
	MoveDownIntent struct{}
	// HighlightIntent re-points the highlight without events.
	HighlightIntent struct{ Index int }
	// ChangeIntent replaces the query.
	ChangeIntent struct{ Text string }
	// SelectIntent selects Index when HasIndex is set, else the
	// highlighted result.
	SelectIntent struct {
		Index    int
		HasIndex bool
	}
)

func (OpenIntent) intent()      {}
func (CloseIntent) intent()     {}
func (ToggleIntent) intent()    {}
func (MoveUpIntent) intent()    {}
func (MoveDownIntent) intent()  {}
func (HighlightIntent) intent() {}
func (ChangeIntent) intent()    {}
func (SelectIntent) intent()    {}

// SelectAt returns a SelectIntent for row i.
func SelectAt(i int) SelectIntent {
	return SelectIntent{Index: i, HasIndex: true}
}

// Outcome reports what Dispatch did.
type Outcome struct {
	// Handled is false when the intent was ignored or rejected.
	Handled bool
	// Execution is set when the intent started an action.
	Execution *Execution
}

// Dispatch routes in to the matching method.
func (p *Palette) Dispatch(in Intent) Outcome {
	switch in := in.(type) {
	case OpenIntent:
		return Outcome{Handled: p.Open()}
	case CloseIntent:
		return Outcome{Handled: p.Close()}
	case ToggleIntent:
		return Outcome{Handled: p.Toggle()}
	case MoveUpIntent:
		return Outcome{Handled: p.MoveUp()}
	case MoveDownIntent:
		return Outcome{Handled: p.MoveDown()}
	case HighlightIntent:
		return Outcome{Handled: p.Highlight(in.Index)}
	case ChangeIntent:
		return Outcome{Handled: p.Change(in.Text)}
	case SelectIntent:
		var exec *Execution
		if in.HasIndex {
			exec = p.SelectAt(in.Index)
		} else {
			exec = p.Select()
		}
		return Outcome{Handled: exec != nil, Execution: exec}
	default:
		return Outcome{}
	}
}
