// Package config loads the controller settings: built-in defaults, then an
// optional YAML file, then VART_ environment overrides.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/pkg/errors"
	yamlv2 "gopkg.in/yaml.v2"

	"github.com/vart-team/vart/go-controller/pkg/pca9685"
	"github.com/vart-team/vart/go-controller/pkg/vart"
)

const EnvPrefix = "VART_"

// Pins names the GPIO lines, as known to the host's pin registry.
type Pins struct {
	LeftEncoderA  string `koanf:"left_encoder_a" yaml:"left_encoder_a"`
	LeftEncoderB  string `koanf:"left_encoder_b" yaml:"left_encoder_b"`
	LeftDriverA   string `koanf:"left_driver_a" yaml:"left_driver_a"`
	LeftDriverB   string `koanf:"left_driver_b" yaml:"left_driver_b"`
	RightEncoderA string `koanf:"right_encoder_a" yaml:"right_encoder_a"`
	RightEncoderB string `koanf:"right_encoder_b" yaml:"right_encoder_b"`
	RightDriverA  string `koanf:"right_driver_a" yaml:"right_driver_a"`
	RightDriverB  string `koanf:"right_driver_b" yaml:"right_driver_b"`
}

type Motor struct {
	PWMFrequencyHz int `koanf:"pwm_frequency_hz" yaml:"pwm_frequency_hz"`
}

type ToolServo struct {
	I2CBus string                `koanf:"i2c_bus" yaml:"i2c_bus"`
	Addr   int                   `koanf:"addr" yaml:"addr"`
	Servo  pca9685.ServoSettings `koanf:"servo" yaml:"servo"`
}

// Simulation replaces the motors and encoders with a first order model.
type Simulation struct {
	Enabled             bool    `koanf:"enabled" yaml:"enabled"`
	MaxTicksPerSecond   float64 `koanf:"max_ticks_per_second" yaml:"max_ticks_per_second"`
	TimeConstantSeconds float64 `koanf:"time_constant_seconds" yaml:"time_constant_seconds"`
}

type Screen struct {
	Device         string  `koanf:"device" yaml:"device"`
	RefreshSeconds float64 `koanf:"refresh_seconds" yaml:"refresh_seconds"`
}

type Joystick struct {
	// Empty disables the joystick.
	Device string `koanf:"device" yaml:"device"`
	// Distance moved by one d-pad press, in mm.
	JogMM float64 `koanf:"jog_mm" yaml:"jog_mm"`
}

type Sound struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	Start   string `koanf:"start" yaml:"start"`
	Finish  string `koanf:"finish" yaml:"finish"`
	Abort   string `koanf:"abort" yaml:"abort"`
	Error   string `koanf:"error" yaml:"error"`
}

type Serial struct {
	// Empty disables the serial program listener.
	Port     string `koanf:"port" yaml:"port"`
	BaudRate int    `koanf:"baud_rate" yaml:"baud_rate"`
	// Upper bound on the reconnect back-off, in seconds.
	MaxRetrySeconds float64 `koanf:"max_retry_seconds" yaml:"max_retry_seconds"`
}

type API struct {
	// Empty disables the HTTP API.
	Listen string `koanf:"listen" yaml:"listen"`
	// Largest accepted program upload, in bytes.
	MaxProgramBytes int64 `koanf:"max_program_bytes" yaml:"max_program_bytes"`
}

type Log struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

type Settings struct {
	Vart       vart.Settings `koanf:"vart" yaml:"vart"`
	Pins       Pins          `koanf:"pins" yaml:"pins"`
	Motor      Motor         `koanf:"motor" yaml:"motor"`
	ToolServo  ToolServo     `koanf:"tool_servo" yaml:"tool_servo"`
	Simulation Simulation    `koanf:"simulation" yaml:"simulation"`
	Screen     Screen        `koanf:"screen" yaml:"screen"`
	Sound      Sound         `koanf:"sound" yaml:"sound"`
	Joystick   Joystick      `koanf:"joystick" yaml:"joystick"`
	Serial     Serial        `koanf:"serial" yaml:"serial"`
	API        API           `koanf:"api" yaml:"api"`
	Log        Log           `koanf:"log" yaml:"log"`
}

func Default() Settings {
	return Settings{
		Vart: vart.DefaultSettings(),
		Pins: Pins{
			LeftEncoderA:  "GPIO14",
			LeftEncoderB:  "GPIO13",
			LeftDriverA:   "GPIO33",
			LeftDriverB:   "GPIO25",
			RightEncoderA: "GPIO17",
			RightEncoderB: "GPIO16",
			RightDriverA:  "GPIO26",
			RightDriverB:  "GPIO27",
		},
		Motor: Motor{PWMFrequencyHz: 30000},
		ToolServo: ToolServo{
			I2CBus: "/dev/i2c-1",
			Addr:   pca9685.DefaultAddr,
			Servo: pca9685.ServoSettings{
				Port:           4,
				MinPulseMicros: 544,
				MaxPulseMicros: 2400,
				MaxAngle:       180,
			},
		},
		Simulation: Simulation{
			MaxTicksPerSecond:   8000,
			TimeConstantSeconds: 0.02,
		},
		Screen: Screen{
			Device:         "/dev/fb1",
			RefreshSeconds: 0.5,
		},
		Sound: Sound{
			Start:  "/sounds/start.wav",
			Finish: "/sounds/finish.wav",
			Abort:  "/sounds/abort.wav",
			Error:  "/sounds/error.wav",
		},
		Joystick: Joystick{
			Device: "/dev/input/js0",
			JogMM:  10,
		},
		Serial: Serial{
			BaudRate:        115200,
			MaxRetrySeconds: 30,
		},
		API: API{
			Listen:          ":8080",
			MaxProgramBytes: 1 << 20,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load layers the YAML file at path (if not empty) and the environment on
// top of the defaults and validates the result. Environment keys drop the
// VART_ prefix and use a double underscore between levels, so
// VART_LOG__LEVEL=debug sets log.level.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(structs.Provider(&defaults, "koanf"), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load %s", path)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment")
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
}

// Marshal renders the settings as YAML.
func (s *Settings) Marshal() ([]byte, error) {
	return yamlv2.Marshal(s)
}

// WriteInUse records the effective settings next to the file they were
// loaded from, as <name>-in-use.yaml, and returns the path written.
func (s *Settings) WriteInUse(path string) (string, error) {
	out := "vart-in-use.yaml"
	if path != "" {
		ext := filepath.Ext(path)
		out = strings.TrimSuffix(path, ext) + "-in-use.yaml"
	}
	b, err := s.Marshal()
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal settings")
	}
	if err := os.WriteFile(out, b, 0666); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", out)
	}
	return out, nil
}
