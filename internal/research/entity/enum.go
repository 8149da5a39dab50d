package entity

// SessionStatus is the lifecycle state of a research session. The values are
// part of the public API and mirror the pipeline stage that last ran.
type SessionStatus string

const (
	StatusPending            SessionStatus = "pending"
	StatusResearcherRunning  SessionStatus = "researcher_running"
	StatusResearcherComplete SessionStatus = "researcher_complete"
	StatusWriterRunning      SessionStatus = "writer_running"
	StatusWriterComplete     SessionStatus = "writer_complete"
	StatusEditorRunning      SessionStatus = "editor_running"
	StatusComplete           SessionStatus = "complete"
	StatusFailed             SessionStatus = "failed"
)

// Terminal reports whether no further progress will happen.
func (s SessionStatus) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Running reports whether a pipeline node currently owns the session.
func (s SessionStatus) Running() bool {
	return !s.Terminal() && s != StatusPending
}

// Agent names the pipeline node that last touched a session.
type Agent string

const (
	AgentResearcher Agent = "researcher"
	AgentWriter     Agent = "writer"
	AgentEditor     Agent = "editor"
)

// Title is the display name used in messages ("Researcher").
func (a Agent) Title() string {
	switch a {
	case AgentResearcher:
		return "Researcher"
	case AgentWriter:
		return "Writer"
	case AgentEditor:
		return "Editor"
	default:
		return string(a)
	}
}

// Depth controls how much material the researcher gathers.
type Depth string

const (
	DepthQuick  Depth = "quick"
	DepthMedium Depth = "medium"
	DepthDeep   Depth = "deep"
)

// Valid reports whether d is a known depth.
func (d Depth) Valid() bool {
	switch d {
	case DepthQuick, DepthMedium, DepthDeep:
		return true
	default:
		return false
	}
}

// SearchLimit is the number of search results requested for d.
func (d Depth) SearchLimit() int {
	switch d {
	case DepthQuick:
		return 4
	case DepthDeep:
		return 12
	default:
		return 8
	}
}

// ScrapeLimit is the number of top results scraped for d.
func (d Depth) ScrapeLimit() int {
	switch d {
	case DepthQuick:
		return 3
	case DepthDeep:
		return 8
	default:
		return 5
	}
}
