package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Operation succeeded
	SymbolFail     = "✗" // Operation failed
	SymbolLoaded   = "●" // Key loaded in the agent
	SymbolUnloaded = "○" // Key on disk only
	SymbolUnknown  = "?" // Agent unreachable, state unknown
	SymbolWarning  = "!" // Scan warning
)
