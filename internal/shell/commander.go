package shell

import (
	"os/exec"
)

type Commander interface {
	LookPath(name string) (string, error)
	Start(name string, args ...string) error
}

type ExecCommander struct{}

func (e *ExecCommander) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Start launches name detached from the terminal and reaps it in the
// background.
func (e *ExecCommander) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
