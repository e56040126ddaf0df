package audio

import (
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// ciVars are environment variables set by common CI systems.
var ciVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"TRAVIS",
	"CIRCLECI",
	"BUILDKITE",
	"DRONE",
	"TEAMCITY_VERSION",
}

// MockEnv forces the mock backend in auto mode when set to "true".
const MockEnv = "SOUNDQ_MOCK_AUDIO"

// IsCI reports whether we run in CI or mock audio was requested.
func IsCI() bool {
	for _, v := range ciVars {
		if val := os.Getenv(v); val != "" && val != "false" {
			log.Debug("CI environment detected", "variable", v)
			return true
		}
	}
	if os.Getenv(MockEnv) == "true" {
		log.Debug("Mock audio requested via environment", "variable", MockEnv)
		return true
	}
	return false
}

// HasAudioDevice makes a best effort guess at whether an output device
// exists. Only Linux is probed; other systems are assumed to have one.
func HasAudioDevice() bool {
	if runtime.GOOS != "linux" {
		return true
	}

	if entries, err := os.ReadDir("/dev/snd"); err == nil {
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), "pcm") {
				return true
			}
		}
	}

	if content, err := os.ReadFile("/proc/asound/cards"); err == nil &&
		len(content) > 0 && !strings.Contains(string(content), "no soundcards") {
		return true
	}

	if _, err := exec.LookPath("pactl"); err == nil {
		if out, err := exec.Command("pactl", "list", "short", "sinks").Output(); err == nil && len(out) > 0 {
			return true
		}
	}

	log.Debug("No Linux audio devices found")
	return false
}
