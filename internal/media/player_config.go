package media

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

//go:embed players.toml
var playersTOML []byte

// PlayerDefinition describes how an audio player is invoked.
type PlayerDefinition struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	AudioArgs   []string `toml:"audio_args,omitempty"`
}

type PlayersConfig struct {
	Players map[string]PlayerDefinition `toml:"players"`
}

// PlayerRegistry holds the built-in player definitions merged with the
// user's overrides from ~/.config/inreader/players.toml.
type PlayerRegistry struct {
	players map[string]PlayerDefinition
}

func NewPlayerRegistry() (*PlayerRegistry, error) {
	var cfg PlayersConfig
	if err := toml.Unmarshal(playersTOML, &cfg); err != nil {
		return nil, fmt.Errorf("parsing players.toml: %w", err)
	}

	r := &PlayerRegistry{players: cfg.Players}
	r.loadUserConfig()
	return r, nil
}

func (r *PlayerRegistry) loadUserConfig() {
	paths := []string{
		"~/.config/inreader/players.toml",
		"./players.toml",
	}

	for _, path := range paths {
		if len(path) >= 2 && path[:2] == "~/" {
			home, err := os.UserHomeDir()
			if err != nil {
				continue
			}
			path = filepath.Join(home, path[2:])
		}

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var userCfg PlayersConfig
		if err := toml.Unmarshal(data, &userCfg); err != nil {
			continue
		}
		for name, def := range userCfg.Players {
			r.players[name] = def
		}
	}
}

// Command builds the invocation for one player and target. Unknown players
// get the target as their only argument.
func (r *PlayerRegistry) Command(playerName, target string) (*exec.Cmd, error) {
	player, exists := r.players[playerName]
	if !exists {
		return exec.Command(playerName, target), nil
	}

	supported := len(player.Platforms) == 0
	for _, p := range player.Platforms {
		if p == runtime.GOOS {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("%s not supported on %s", playerName, runtime.GOOS)
	}

	args := append([]string{}, player.AudioArgs...)
	args = append(args, target)
	return exec.Command(playerName, args...), nil
}

// IsAvailable reports whether a player binary is on PATH.
func (r *PlayerRegistry) IsAvailable(playerName string) bool {
	_, err := exec.LookPath(playerName)
	return err == nil
}

// FindAvailable returns the first installed player from the candidates.
func (r *PlayerRegistry) FindAvailable(candidates []string) string {
	for _, c := range candidates {
		if r.IsAvailable(c) {
			return c
		}
	}
	return ""
}

// Known reports whether a player has a built-in or user definition.
func (r *PlayerRegistry) Known(playerName string) bool {
	_, ok := r.players[playerName]
	return ok
}
