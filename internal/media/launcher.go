// Package media launches external programs for the listen workflow: an
// audio player for synthesized entry audio and the platform opener for
// entry links.
package media

import (
	"fmt"
	"os/exec"
	"runtime"
)

var audioCandidates = map[string][]string{
	"darwin":  {"mpv", "afplay", "vlc", "ffplay"},
	"linux":   {"mpv", "mpg123", "vlc", "ffplay"},
	"windows": {"vlc", "ffplay"},
}

type Launcher struct {
	audioPlayer string
	opener      string
	registry    *PlayerRegistry
}

func NewLauncher() *Launcher {
	registry, err := NewPlayerRegistry()
	if err != nil {
		registry = &PlayerRegistry{players: make(map[string]PlayerDefinition)}
	}

	l := &Launcher{
		registry: registry,
		opener:   defaultOpener(),
	}
	l.audioPlayer = registry.FindAvailable(audioCandidates[runtime.GOOS])
	return l
}

// SetAudioPlayer overrides the detected player.
func (l *Launcher) SetAudioPlayer(player string) {
	l.audioPlayer = player
}

// PlayAudio starts playback of a local audio file or stream URL, detached
// from the calling process.
func (l *Launcher) PlayAudio(target string) error {
	if l.audioPlayer == "" {
		return fmt.Errorf("no audio player found")
	}

	cmd, err := l.registry.Command(l.audioPlayer, target)
	if err != nil {
		cmd = exec.Command(l.audioPlayer, target)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.audioPlayer, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

// OpenLink hands a URL to the platform's default opener.
func (l *Launcher) OpenLink(url string) error {
	if l.opener == "" {
		return fmt.Errorf("no opener found for %s", runtime.GOOS)
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command(l.opener, "/c", "start", "", url)
	} else {
		cmd = exec.Command(l.opener, url)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func defaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "cmd"
	default:
		return ""
	}
}
