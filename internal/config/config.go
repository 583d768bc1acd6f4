package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Qdrant        QdrantConfig        `mapstructure:"qdrant"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Media         MediaConfig         `mapstructure:"media"`
	Audio         AudioConfig         `mapstructure:"audio"`
	Frames        FramesConfig        `mapstructure:"frames"`
	Search        SearchConfig        `mapstructure:"search"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Caption       CaptionConfig       `mapstructure:"caption"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite or postgres
	Path            string        `mapstructure:"path"`   // sqlite file path
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type QdrantConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
	UseTLS bool   `mapstructure:"use_tls"`

	// Collection names for the three embedding indices. Indices are global
	// across videos; queries narrow by video_id payload filter.
	FrameVisualCollection  string `mapstructure:"frame_visual_collection"`
	FrameCaptionCollection string `mapstructure:"frame_caption_collection"`
	AudioTextCollection    string `mapstructure:"audio_text_collection"`
}

type StorageConfig struct {
	Type      string `mapstructure:"type"` // r2, s3, minio, s3compatible; auto-detected when empty
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

type MediaConfig struct {
	// SharedDir is the root all source videos must live under; extracted
	// clips are written to ClipOutputSubdir beneath it and returned paths
	// are relative to SharedDir.
	SharedDir       string `mapstructure:"shared_dir"`
	ClipOutputSubdir string `mapstructure:"clip_output_subdir"`
	MaxVideoSizeBytes int64 `mapstructure:"max_video_size_bytes"`
	FFmpegPath      string `mapstructure:"ffmpeg_path"`
	FFprobePath     string `mapstructure:"ffprobe_path"`
}

type AudioConfig struct {
	ChunkDurationSec    float64 `mapstructure:"chunk_duration_sec"`
	OverlapSec          float64 `mapstructure:"overlap_sec"`
	MinChunkDurationSec float64 `mapstructure:"min_chunk_duration_sec"`
}

type FramesConfig struct {
	NumFrames    int     `mapstructure:"num_frames"`
	ResizeWidth  int     `mapstructure:"resize_width"`
	ResizeHeight int     `mapstructure:"resize_height"`
	DeltaSeconds float64 `mapstructure:"delta_seconds"`
}

type SearchConfig struct {
	SpeechTopK   int `mapstructure:"speech_top_k"`
	CaptionTopK  int `mapstructure:"caption_top_k"`
	ImageTopK    int `mapstructure:"image_top_k"`
	QuestionTopK int `mapstructure:"question_top_k"`
}

type TranscriptionConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

type CaptionConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Prompt   string `mapstructure:"prompt"`
}

type EmbeddingConfig struct {
	Provider        string `mapstructure:"provider"`
	TextModel       string `mapstructure:"text_model"`
	ImageModel      string `mapstructure:"image_model"`
	APIKey          string `mapstructure:"api_key"`
	TextDimensions  int    `mapstructure:"text_dimensions"`
	ImageDimensions int    `mapstructure:"image_dimensions"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/clipseek.db")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.frame_visual_collection", "frame_visual")
	v.SetDefault("qdrant.frame_caption_collection", "frame_captions")
	v.SetDefault("qdrant.audio_text_collection", "audio_transcripts")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "clipseek")
	v.SetDefault("media.shared_dir", "./shared_media")
	v.SetDefault("media.clip_output_subdir", "videos/ai_responses")
	v.SetDefault("media.max_video_size_bytes", int64(5)*1024*1024*1024)
	v.SetDefault("media.ffmpeg_path", "ffmpeg")
	v.SetDefault("media.ffprobe_path", "ffprobe")
	v.SetDefault("audio.chunk_duration_sec", 10.0)
	v.SetDefault("audio.overlap_sec", 2.0)
	v.SetDefault("audio.min_chunk_duration_sec", 1.0)
	v.SetDefault("frames.num_frames", 30)
	v.SetDefault("frames.resize_width", 1024)
	v.SetDefault("frames.resize_height", 768)
	v.SetDefault("frames.delta_seconds", 5.0)
	v.SetDefault("search.speech_top_k", 1)
	v.SetDefault("search.caption_top_k", 1)
	v.SetDefault("search.image_top_k", 1)
	v.SetDefault("search.question_top_k", 3)
	v.SetDefault("transcription.provider", "groq")
	v.SetDefault("transcription.model", "whisper-large-v3")
	v.SetDefault("transcription.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("caption.provider", "openai")
	v.SetDefault("caption.model", "gpt-4o-mini")
	v.SetDefault("caption.base_url", "https://api.openai.com/v1")
	v.SetDefault("caption.prompt", "Describe the image briefly.")
	v.SetDefault("embedding.provider", "jina")
	v.SetDefault("embedding.text_model", "jina-embeddings-v3")
	v.SetDefault("embedding.image_model", "jina-clip-v2")
	v.SetDefault("embedding.text_dimensions", 1024)
	v.SetDefault("embedding.image_dimensions", 1024)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("qdrant.host", "QDRANT_HOST")
	v.BindEnv("qdrant.port", "QDRANT_PORT")
	v.BindEnv("qdrant.api_key", "QDRANT_API_KEY")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("media.shared_dir", "SHARED_MEDIA_DIR")
	v.BindEnv("transcription.api_key", "GROQ_API_KEY")
	v.BindEnv("caption.api_key", "OPENAI_API_KEY")
	v.BindEnv("caption.base_url", "OPENAI_BASE_URL")
	v.BindEnv("embedding.api_key", "JINA_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
