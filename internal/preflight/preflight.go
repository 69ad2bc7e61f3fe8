package preflight

import (
	"context"
	"fmt"

	"predigt/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes the readiness checks for cfg. store may be nil when the
// remote could not be opened; the remote check then fails.
func RunAll(ctx context.Context, cfg *config.Config, store Pinger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
	}

	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Command}
		if !status.Available {
			result.Detail = status.Detail
			if status.Optional {
				result.Passed = true
				result.Detail = fmt.Sprintf("optional, %s", status.Detail)
			}
		}
		results = append(results, result)
	}

	results = append(results, CheckCompleteness(cfg))
	if cfg.Completeness().Remote {
		results = append(results, CheckRemote(ctx, store))
	}
	if cfg.Publisher.WebsiteURL != "" {
		results = append(results, CheckWebsite(ctx, cfg.Publisher.WebsiteURL))
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
