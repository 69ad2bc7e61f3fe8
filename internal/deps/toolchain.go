package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Toolchain names the executables the audio pipeline invokes.
type Toolchain struct {
	FFmpeg  string
	FFprobe string
	Ytdlp   string
}

// ResolveTool locates name inside toolsDir first and falls back to PATH.
// The bundled directory wins so an installer-managed ffmpeg is preferred over
// whatever the system provides.
func ResolveTool(toolsDir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("tool name is empty")
	}
	if strings.ContainsRune(name, os.PathSeparator) {
		return exec.LookPath(name)
	}
	if dir := strings.TrimSpace(toolsDir); dir != "" {
		for _, candidate := range []string{
			filepath.Join(dir, executableName(name)),
			filepath.Join(dir, "bin", executableName(name)),
		} {
			if isExecutable(candidate) {
				return candidate, nil
			}
		}
	}
	resolved, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in %q or PATH", name, toolsDir)
	}
	return resolved, nil
}

// ResolveToolchain resolves ffmpeg, ffprobe and yt-dlp. ffprobe is optional and
// left empty when it cannot be found.
func ResolveToolchain(toolsDir, ytdlpBinary string) (Toolchain, error) {
	var tc Toolchain
	ffmpeg, err := ResolveTool(toolsDir, "ffmpeg")
	if err != nil {
		return tc, err
	}
	tc.FFmpeg = ffmpeg
	if ffprobe, err := ResolveTool(toolsDir, "ffprobe"); err == nil {
		tc.FFprobe = ffprobe
	}
	if strings.TrimSpace(ytdlpBinary) == "" {
		ytdlpBinary = "yt-dlp"
	}
	ytdlp, err := ResolveTool("", ytdlpBinary)
	if err != nil {
		return tc, err
	}
	tc.Ytdlp = ytdlp
	return tc, nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0o111 != 0
}

func executableName(base string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(base, ".exe") {
		return base + ".exe"
	}
	return base
}
