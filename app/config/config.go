package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const (
	defaultOpener        = "湯川先輩，お疲れ様です!!😄"
	defaultScriptedReply = "次の週末にオンライン飲み会をやろうと思うんですが、先輩もどうですか！？"
	defaultClosingNotice = "対話終了です．エクスポートした「messages.html」ファイルを，フォームからアップロードしてください．"
	defaultFinishPrefix  = "_FINISHED_:"
)

type Config struct {
	Log      Log      `yaml:"log"`
	Telegram Telegram `yaml:"telegram"`
	Dialogue Dialogue `yaml:"dialogue"`
	Engine   Engine   `yaml:"engine"`
	Web      Web      `yaml:"web"`
}

type Telegram struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789" validate:"required"`
}

type Dialogue struct {
	// Number of turns after which a session is finalized
	Length int `yaml:"length" example:"15" validate:"required,min=1"`
	// First utterance of every session, sent by the bot on /start
	Opener string `yaml:"opener"`
	// Fixed reply to the first user utterance, sent before any model context exists
	ScriptedReply string `yaml:"scripted_reply"`
	// Message sent after the finish marker once a session is finalized
	ClosingNotice string `yaml:"closing_notice"`
	// Prefix of the finish marker message carrying the export identifier
	FinishMarkerPrefix string `yaml:"finish_marker_prefix"`
}

type Engine struct {
	// Base URL of the reply engine service
	BaseURL string `yaml:"base_url" example:"http://localhost:5001" validate:"required"`
	// Per-call timeout for reply generation
	Timeout time.Duration `yaml:"timeout" example:"30s"`
	// Ask the engine to return its internal ranking candidates (logged at debug)
	ShowCandidates bool `yaml:"show_candidates" example:"false"`
}

type Web struct {
	// Listen address of the HTTP transport
	Addr string `yaml:"addr" example:":8080"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token used for error reporting, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	result.ApplyDefaults()

	if err = result.Validate(); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Config) ApplyDefaults() {
	if c.Dialogue.Opener == "" {
		c.Dialogue.Opener = defaultOpener
	}
	if c.Dialogue.ScriptedReply == "" {
		c.Dialogue.ScriptedReply = defaultScriptedReply
	}
	if c.Dialogue.ClosingNotice == "" {
		c.Dialogue.ClosingNotice = defaultClosingNotice
	}
	if c.Dialogue.FinishMarkerPrefix == "" {
		c.Dialogue.FinishMarkerPrefix = defaultFinishPrefix
	}
	if c.Engine.Timeout == 0 {
		c.Engine.Timeout = 30 * time.Second
	}
	if c.Web.Addr == "" {
		c.Web.Addr = ":8080"
	}
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return oops.Errorf("failed to validate config: %w", err)
	}

	return nil
}
