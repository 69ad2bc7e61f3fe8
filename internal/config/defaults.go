package config

const (
	defaultConfigPath         = "~/.config/predigt/config.toml"
	defaultStagingDir         = "~/.local/share/predigt/staging"
	defaultOutputDir          = "~/.local/share/predigt/ready"
	defaultLogDir             = "~/.local/share/predigt/logs"
	defaultToolsDir           = "~/.local/share/predigt/ffmpeg"
	defaultAPIBind            = "127.0.0.1:8000"
	defaultYouTubeBaseURL     = "https://www.googleapis.com/youtube/v3"
	defaultYouTubeTimeout     = 15
	defaultRemoteKind         = RemoteKindFTP
	defaultRemoteTimeout      = 30
	defaultThresholdDB        = -12
	defaultRatio              = 2
	defaultAttackMs           = 200
	defaultReleaseMs          = 1000
	defaultBitrate            = "128k"
	defaultYtdlpBinary        = "yt-dlp"
	defaultDownloadFormat     = "bestaudio/best"
	defaultAudioFormat        = "mp3"
	defaultAudioQuality       = "192K"
	defaultPublisherSlug      = "tpk"
	defaultPublisherName      = "Treffpunkt Leben Karlsruhe"
	defaultPublisherCopyright = "Treffpunkt Leben Karlsruhe - alle Rechte vorbehalten"
	defaultPublisherAlbum     = "Predigten aus Treffpunkt Leben Karlsruhe"
	defaultPublisherGenre     = "Predigt Online"
	defaultNotifyTimeout      = 10
	defaultProgress           = ProgressCoarse
	defaultStaleScratchHours  = 24
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogMaxSizeMB       = 1
	defaultLogMaxBackups      = 5
	defaultLogMaxAgeDays      = 60

	placeholderAPIKey     = "YOUR_API_KEY_HERE"
	placeholderChannelID  = "YOUR_YOUTUBE_CHANNEL_ID_HERE"
	placeholderRemoteHost = "ftp.example.com"
)

// Remote store kinds.
const (
	RemoteKindFTP = "ftp"
	RemoteKindS3  = "s3"
)

// Progress granularity values.
const (
	ProgressCoarse   = "coarse"
	ProgressDetailed = "detailed"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
			ToolsDir:   defaultToolsDir,
			APIBind:    defaultAPIBind,
		},
		YouTube: YouTube{
			BaseURL:        defaultYouTubeBaseURL,
			TimeoutSeconds: defaultYouTubeTimeout,
		},
		Remote: Remote{
			Kind:           defaultRemoteKind,
			TimeoutSeconds: defaultRemoteTimeout,
		},
		Compressor: Compressor{
			ThresholdDB: defaultThresholdDB,
			Ratio:       defaultRatio,
			AttackMs:    defaultAttackMs,
			ReleaseMs:   defaultReleaseMs,
			Bitrate:     defaultBitrate,
		},
		Download: Download{
			YtdlpBinary:  defaultYtdlpBinary,
			Format:       defaultDownloadFormat,
			AudioFormat:  defaultAudioFormat,
			AudioQuality: defaultAudioQuality,
		},
		Publisher: Publisher{
			Slug:      defaultPublisherSlug,
			Name:      defaultPublisherName,
			Copyright: defaultPublisherCopyright,
			Album:     defaultPublisherAlbum,
			Genre:     defaultPublisherGenre,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Published:      true,
			Errors:         true,
		},
		Pipeline: Pipeline{
			Progress:          defaultProgress,
			StaleScratchHours: defaultStaleScratchHours,
			HistoryEnabled:    true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
