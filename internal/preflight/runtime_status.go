package preflight

import (
	"strings"

	"predigt/internal/config"
)

// CheckCompleteness reports which integrations still carry placeholder values.
func CheckCompleteness(cfg *config.Config) Result {
	const name = "Configuration"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	state := cfg.Completeness()
	if state.Fully() {
		return Result{Name: name, Passed: true, Detail: "Complete"}
	}
	var missing []string
	if !state.YouTubeAPI {
		missing = append(missing, "youtube.api_key")
	}
	if !state.Channel {
		missing = append(missing, "youtube.channel_id")
	}
	if !state.Remote {
		missing = append(missing, "remote.host")
	}
	return Result{Name: name, Detail: "Missing " + strings.Join(missing, ", ")}
}
