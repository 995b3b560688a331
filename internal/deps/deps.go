package deps

import (
	"fmt"
	"runtime"

	"github.com/nicobailon/homegrid/internal/shell"
)

type Dependency struct {
	Name       string
	Command    string
	Args       []string
	InstallCmd map[string]string
}

type MissingDep struct {
	Dependency
}

func (m MissingDep) Error() string {
	return fmt.Sprintf("no video player found (%s)", InstallHint(m))
}

// players are tried in order when the configured player is missing.
var players = []Dependency{
	{
		Name:    "mpv",
		Command: "mpv",
		Args:    []string{"--really-quiet", "--force-window=immediate"},
		InstallCmd: map[string]string{
			"darwin": "brew install mpv",
			"linux":  "sudo apt install mpv",
		},
	},
	{
		Name:    "vlc",
		Command: "vlc",
		Args:    []string{"--quiet"},
		InstallCmd: map[string]string{
			"darwin": "brew install --cask vlc",
			"linux":  "sudo apt install vlc",
		},
	},
	{
		Name:    "xdg-open",
		Command: "xdg-open",
		InstallCmd: map[string]string{
			"linux": "sudo apt install xdg-utils",
		},
	},
	{
		Name:    "open",
		Command: "open",
	},
}

// Player picks the configured player if it is installed, otherwise the
// first known player on PATH.
func Player(c shell.Commander, preferred string) (Dependency, error) {
	if preferred != "" {
		if _, err := c.LookPath(preferred); err == nil {
			for _, p := range players {
				if p.Command == preferred {
					return p, nil
				}
			}
			return Dependency{Name: preferred, Command: preferred}, nil
		}
	}
	for _, p := range players {
		if _, err := c.LookPath(p.Command); err == nil {
			return p, nil
		}
	}
	return Dependency{}, MissingDep{players[0]}
}

func InstallHint(dep MissingDep) string {
	goos := runtime.GOOS
	if cmd, ok := dep.InstallCmd[goos]; ok {
		return cmd
	}
	return "install " + dep.Name + " via your package manager"
}

// Play opens url with dep.
func Play(c shell.Commander, dep Dependency, url string) error {
	args := append(append([]string{}, dep.Args...), url)
	if err := c.Start(dep.Command, args...); err != nil {
		return fmt.Errorf("start %s: %w", dep.Name, err)
	}
	return nil
}
