// Package download implements the download stage: it resolves a source
// identifier to a URL, checks that ffmpeg and yt-dlp are resolvable, and
// fetches the best available audio into the run's scratch directory as a
// single transcoded file.
//
// The yt-dlp invocation goes through github.com/lrstanley/go-ytdlp; tests
// substitute the Fetcher.
package download
