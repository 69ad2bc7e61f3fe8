// Package youtube lists a channel's livestreams through the YouTube Data API
// v3 so an operator can pick the source of the next sermon. Video lengths are
// ISO-8601 durations decoded with github.com/sosodev/duration.
package youtube
