package host

import "path/filepath"

// Module tracks what a loaded engine module registered, so unloading can
// remove exactly that.
type Module struct {
	// Name is the artifact file name, e.g. hadan_d.mll.
	Name string
	// Path is the cleaned path the module was loaded from.
	Path string
	// Commands lists command names registered by this module.
	Commands []string
}

func newModule(path string) *Module {
	return &Module{
		Name: filepath.Base(path),
		Path: path,
	}
}

// AddCommand tracks a command registered by this module.
func (m *Module) AddCommand(name string) {
	m.Commands = append(m.Commands, name)
}
