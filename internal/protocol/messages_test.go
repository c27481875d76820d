package protocol

import "testing"

func TestCmdMsgValidate(t *testing.T) {
	cases := []struct {
		name string
		msg  CmdMsg
		ok   bool
	}{
		{"twist", CmdMsg{Twist: &Twist{VX: 0.1}}, true},
		{"wheels", CmdMsg{Wheels: &WheelCmd{Left: 10, Right: 10}}, true},
		{"neither", CmdMsg{}, false},
		{"both", CmdMsg{Twist: &Twist{}, Wheels: &WheelCmd{}}, false},
		{"lateral", CmdMsg{Twist: &Twist{VY: 0.2}}, false},
	}
	for _, c := range cases {
		err := c.msg.Validate()
		if (err == nil) != c.ok {
			t.Fatalf("%s: err=%v ok=%v", c.name, err, c.ok)
		}
	}
}

func TestDecodeBase(t *testing.T) {
	b, err := DecodeBase([]byte(`{"type":"CMD","protocol_version":"1.0","robot":0}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Type != TypeCmd || b.ProtocolVersion != Version {
		t.Fatalf("base=%+v", b)
	}
	if _, err := DecodeBase([]byte(`{`)); err == nil {
		t.Fatalf("expected error for truncated json")
	}
}
