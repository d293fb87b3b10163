package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vart-team/vart/go-controller/pkg/vart"
)

func TestDefaultsMatchFirmware(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	v := s.Vart
	if v.Servomotor.ReadyMaxAbsError != 30 || v.Servomotor.Position.Kp != 10 || v.Servomotor.Position.Kd != 0.2 {
		t.Errorf("Servo defaults wrong: %+v", v.Servomotor)
	}
	if v.Area.DefaultSize.X != 500 || v.Area.DefaultSize.Y != 700 || v.Area.MaxSize.X != 4000 {
		t.Errorf("Area defaults wrong: %+v", v.Area)
	}
	if v.Planner.DefaultMode != vart.ModeAccel || v.Planner.SpeedRange.Max != 150 || v.Planner.AccelRange.Min != 25 {
		t.Errorf("Planner defaults wrong: %+v", v.Planner)
	}
	if v.MarkerTool.Positions.Left != 40 || v.MarkerTool.AngleRange.Max != 150 {
		t.Errorf("Marker defaults wrong: %+v", v.MarkerTool)
	}
	if s.Pins.LeftEncoderA != "GPIO14" {
		t.Errorf("Pin defaults wrong: %+v", s.Pins)
	}
}

func TestFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vart.yaml")
	err := os.WriteFile(path, []byte(`
vart:
  planner:
    default_speed: 80
    default_mode: 1
  area:
    default_area_size:
      x: 900
log:
  level: debug
`), 0666)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("VART_API__LISTEN", "127.0.0.1:9999")
	t.Setenv("VART_SIMULATION__ENABLED", "true")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Vart.Planner.DefaultSpeed != 80 || s.Vart.Planner.DefaultMode != vart.ModeSpeed {
		t.Errorf("File override not applied: %+v", s.Vart.Planner)
	}
	if s.Vart.Area.DefaultSize.X != 900 || s.Vart.Area.DefaultSize.Y != 700 {
		t.Errorf("Partial override should keep other defaults: %+v", s.Vart.Area.DefaultSize)
	}
	if s.Log.Level != "debug" {
		t.Errorf("Log level = %q", s.Log.Level)
	}
	if s.API.Listen != "127.0.0.1:9999" || !s.Simulation.Enabled {
		t.Errorf("Env overrides not applied: %+v %+v", s.API, s.Simulation)
	}

	out, err := s.WriteInUse(path)
	if err != nil {
		t.Fatalf("WriteInUse failed: %v", err)
	}
	if out != filepath.Join(dir, "vart-in-use.yaml") {
		t.Errorf("In-use file = %s", out)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "default_speed: 80") {
		t.Errorf("In-use file missing override:\n%s", b)
	}
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(s *Settings){
		"zero ticks":      func(s *Settings) { s.Vart.Pulley.TicksInMM = 0 },
		"zero min area":   func(s *Settings) { s.Vart.Area.MinSize.X = 0 },
		"inverted speed":  func(s *Settings) { s.Vart.Planner.SpeedRange.Min = 200 },
		"bad mode":        func(s *Settings) { s.Vart.Planner.DefaultMode = 9 },
		"marker outside":  func(s *Settings) { s.Vart.MarkerTool.Positions.Right = 170 },
		"zero period":     func(s *Settings) { s.Vart.Servomotor.UpdatePeriodSeconds = 0 },
		"no move timeout": func(s *Settings) { s.Vart.Planner.MaxMoveSeconds = 0 },
		"zero jog":        func(s *Settings) { s.Joystick.JogMM = 0 },
	} {
		s := Default()
		mutate(&s)
		if err := s.Validate(); err == nil {
			t.Errorf("%s: expected a validation error", name)
		}
	}

	s := Default()
	if err := s.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestEnvKey(t *testing.T) {
	if got := envKey("VART_VART__PLANNER__DEFAULT_SPEED"); got != "vart.planner.default_speed" {
		t.Errorf("envKey = %q", got)
	}
}
