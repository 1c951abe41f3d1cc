package rpc

import (
	"errors"
	"testing"
)

type Echo struct{}

func (e *Echo) Upper(request string, reply *string) error {
	out := []byte(request)
	for i, c := range out {
		if c >= 'a' && c <= 'z' {
			out[i] = c - 'a' + 'A'
		}
	}
	*reply = string(out)
	return nil
}

func (e *Echo) Fail(request string, reply *string) error {
	return errors.New("refused: " + request)
}

func TestServerAndClient(t *testing.T) {
	server := NewTcpServer(&Echo{}, "127.0.0.1:0", "EchoServer")
	if err := server.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer server.Stop()

	client := NewTcpClient(server.Address(), "EchoClient")
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	var reply string
	if err := client.Call("Echo.Upper", "frame 007", &reply); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if reply != "FRAME 007" {
		t.Errorf("reply = %q, want FRAME 007", reply)
	}
	if err := client.Call("Echo.Fail", "x", &reply); err == nil {
		t.Error("expected the remote error to come back")
	}

	if err := client.Disconnect(); err != nil {
		t.Errorf("Disconnect: %v", err)
	}
	if err := client.Disconnect(); err == nil {
		t.Error("second Disconnect should fail")
	}
}

func TestCallWithoutConnect(t *testing.T) {
	client := NewTcpClient("127.0.0.1:1", "Idle")
	var reply string
	if err := client.Call("Echo.Upper", "x", &reply); err == nil {
		t.Error("expected an error calling before Connect")
	}
}

func TestStopTwice(t *testing.T) {
	server := NewTcpServer(&Echo{}, "127.0.0.1:0", "EchoServer")
	if err := server.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := server.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if err := server.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}
