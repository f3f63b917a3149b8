package exitcodes

// Exit codes for guilaunch. A failed hand-off exits with the application's
// own status instead of one of these.
const (
	Success        = 0 // Application ran, or the operator interrupted the launcher
	Failure        = 1 // Unclassified error
	NoInterpreter  = 2 // No usable Python interpreter on the search path
	EnvCreate      = 3 // Virtual environment could not be created
	ToolkitInstall = 4 // GUI toolkit could not be installed
	InvalidConfig  = 5 // Configuration file invalid or unreadable
)
