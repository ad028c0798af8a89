package logg

// Structured field keys shared by every layer.
const (
	Layer      = "layer"
	Operation  = "op"
	URL        = "url"
	Selector   = "selector"
	Query      = "query"
	CycleID    = "cycle_id"
	State      = "state"
	Provenance = "provenance"
	Mode       = "mode"
	Model      = "model"
	Chars      = "chars"
)
