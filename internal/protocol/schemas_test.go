package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"multisim.dev/internal/protocol"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// roundTrip turns a Go message into the generic form the validator expects.
func roundTrip(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestSchemas_ValidateSamples(t *testing.T) {
	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	validate(compile(t, "hello.schema.json"), roundTrip(t, protocol.HelloMsg{
		Type: protocol.TypeHello, ProtocolVersion: protocol.Version, Robot: 0, ClientName: "bot1",
	}))

	validate(compile(t, "welcome.schema.json"), roundTrip(t, protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       "S1",
		Robot:           1,
		Color:           "green",
		WorldParams: protocol.WorldParams{
			Seed: 1, TickRateHz: 200, NumRobots: 3, SensorEveryTicks: 40, PathEveryTicks: 100,
			ArenaWidth: 5, ArenaHeight: 6,
		},
	}))

	cmd := compile(t, "cmd.schema.json")
	validate(cmd, roundTrip(t, protocol.CmdMsg{
		Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, Twist: &protocol.Twist{VX: 0.1, Omega: 0.5},
	}))
	validate(cmd, roundTrip(t, protocol.CmdMsg{
		Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, Robot: 2, Wheels: &protocol.WheelCmd{Left: 100, Right: -100},
	}))

	validate(compile(t, "sensor.schema.json"), roundTrip(t, protocol.SensorMsg{
		Type: protocol.TypeSensor, ProtocolVersion: protocol.Version, Tick: 41, Stamp: 0.205,
		Encoders: protocol.Encoders{Left: -12, Right: 40},
		Scan:     &protocol.Scan{AngleIncrement: 0.0174, RangeMin: 0.12, RangeMax: 3.5, Ranges: []float64{0, 1.25, 3.1}},
	}))

	validate(compile(t, "error.schema.json"), roundTrip(t, protocol.NewError(protocol.ErrBadRobot, "robot 7 out of range")))
}

func TestSchemas_RejectAmbiguousCmd(t *testing.T) {
	s := compile(t, "cmd.schema.json")
	var v any
	_ = json.Unmarshal([]byte(`{"type":"CMD","protocol_version":"1.0","robot":0}`), &v)
	if err := s.Validate(v); err == nil {
		t.Fatalf("expected CMD without twist or wheels to be rejected")
	}
	_ = json.Unmarshal([]byte(`{"type":"CMD","protocol_version":"1.0","robot":0,"twist":{"omega":0,"vx":0,"vy":0.5}}`), &v)
	if err := s.Validate(v); err == nil {
		t.Fatalf("expected lateral twist to be rejected")
	}
}
