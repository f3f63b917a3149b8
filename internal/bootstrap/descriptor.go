package bootstrap

// Descriptor is the environment as the launcher found and left it. It is
// recomputed on every run and never stored.
type Descriptor struct {
	BaseInterpreter string `json:"base_interpreter" yaml:"base_interpreter"`
	PythonVersion   string `json:"python_version" yaml:"python_version"`
	// Interpreter is the one used for toolkit checks, installs and the hand-off
	Interpreter string `json:"interpreter" yaml:"interpreter"`

	// VenvDirExists can be true while VenvExisted is false: a directory
	// without an interpreter gets completed by "python -m venv".
	VenvEnabled   bool   `json:"venv_enabled" yaml:"venv_enabled"`
	VenvDir       string `json:"venv_dir,omitempty" yaml:"venv_dir,omitempty"`
	VenvDirExists bool   `json:"venv_dir_exists" yaml:"venv_dir_exists"`
	VenvExisted   bool   `json:"venv_existed" yaml:"venv_existed"`
	VenvCreated   bool   `json:"venv_created" yaml:"venv_created"`
	VenvActive    bool   `json:"venv_active" yaml:"venv_active"`

	Toolkit          string `json:"toolkit" yaml:"toolkit"`
	ToolkitPresent   bool   `json:"toolkit_present" yaml:"toolkit_present"`
	ToolkitInstalled bool   `json:"toolkit_installed" yaml:"toolkit_installed"`

	Manifests []string `json:"manifests" yaml:"manifests"`

	Entry    string `json:"entry" yaml:"entry"`
	ExitCode int    `json:"exit_code" yaml:"exit_code"`
}
