package extract

// Info carries the static descriptors shared by concrete engines. Engines
// embed it to satisfy the descriptor half of Engine.
type Info struct {
	EngineName     string
	EnginePriority int
	EngineVersion  string
}

// Name implements Engine.
func (i Info) Name() string { return i.EngineName }

// Priority implements Engine.
func (i Info) Priority() int { return i.EnginePriority }

// Version implements Engine.
func (i Info) Version() string { return i.EngineVersion }
