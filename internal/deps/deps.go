package deps

// Status reports the availability of a dependency.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CheckToolchain reports toolchain availability for status output.
func CheckToolchain(toolsDir, ytdlpBinary string) []Status {
	entries := []struct {
		name, command, dir, description string
		optional                        bool
	}{
		{"FFmpeg", "ffmpeg", toolsDir, "Audio extraction and compression", false},
		{"FFprobe", "ffprobe", toolsDir, "Validates compressed output", true},
		{"yt-dlp", ytdlpBinary, "", "Livestream download", false},
	}
	results := make([]Status, 0, len(entries))
	for _, entry := range entries {
		status := Status{
			Name:        entry.name,
			Command:     entry.command,
			Description: entry.description,
			Optional:    entry.optional,
		}
		if resolved, err := ResolveTool(entry.dir, entry.command); err != nil {
			status.Detail = err.Error()
		} else {
			status.Command = resolved
			status.Available = true
		}
		results = append(results, status)
	}
	return results
}
