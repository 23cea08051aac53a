package bme280

import (
	"bytes"
	"strings"
	"testing"
)

// scriptedPort replays canned bridge responses.
type scriptedPort struct {
	in     bytes.Buffer
	out    bytes.Buffer
	closed bool
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	if p.in.Len() == 0 {
		return 0, nil // go.bug.st/serial reports a read timeout this way
	}
	return p.in.Read(b)
}

func (p *scriptedPort) Write(b []byte) (int, error) { return p.out.Write(b) }
func (p *scriptedPort) Close() error                { p.closed = true; return nil }

func response(status, wn byte, r []byte) []byte {
	f := []byte{frameResponse, status, wn, byte(len(r))}
	f = append(f, r...)
	return append(f, checksum(f))
}

func TestSerialBridgeTx(t *testing.T) {
	p := &scriptedPort{}
	p.in.Write(response(0, 1, []byte{0x60}))
	b := NewSerialBridge(p, "ttyUSB0")

	r := make([]byte, 1)
	if err := b.Tx(0x76, []byte{0xD0}, r); err != nil {
		t.Fatal(err)
	}
	if r[0] != 0x60 {
		t.Fatalf("read %#x, want 0x60", r[0])
	}
	want := []byte{0xA5, 0x76, 0x01, 0x01, 0xD0, 0x03}
	if !bytes.Equal(p.out.Bytes(), want) {
		t.Fatalf("request % x, want % x", p.out.Bytes(), want)
	}
	if b.String() != "serial:ttyUSB0" {
		t.Fatalf("String() = %q", b.String())
	}
	if err := b.Close(); err != nil || !p.closed {
		t.Fatalf("Close: %v, closed=%v", err, p.closed)
	}
}

func TestSerialBridgeErrors(t *testing.T) {
	corrupt := response(0, 1, []byte{0x60})
	corrupt[len(corrupt)-1] ^= 0x01

	for _, tc := range []struct {
		name  string
		reply []byte
		want  string
	}{
		{"short read", response(0, 1, nil), "short transfer"},
		{"short write", response(0, 0, []byte{0x60}), "short transfer"},
		{"nack", response(0x01, 0, nil), "not acknowledged"},
		{"checksum", corrupt, "checksum mismatch"},
		{"bad start", []byte{0x00, 0x00, 0x00, 0x00, 0x00}, "unexpected frame start"},
		{"timeout", nil, "timed out"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := &scriptedPort{}
			p.in.Write(tc.reply)
			b := NewSerialBridge(p, "test")
			err := b.Tx(0x76, []byte{0xD0}, make([]byte, 1))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestSerialBridgeRejectsBadRequests(t *testing.T) {
	b := NewSerialBridge(&scriptedPort{}, "test")
	if err := b.Tx(0x80, nil, nil); err == nil {
		t.Error("10 bit address accepted")
	}
	if err := b.Tx(0x76, make([]byte, 256), nil); err == nil {
		t.Error("256 byte write accepted")
	}
	if err := b.SetSpeed(0); err == nil {
		t.Error("SetSpeed succeeded")
	}
}

// bridgeDevice emulates the bridge firmware with a BME280 behind it.
type bridgeDevice struct {
	regs  [256]byte
	reply bytes.Buffer
}

func newBridgeDevice() *bridgeDevice {
	d := &bridgeDevice{}
	d.regs[regChipID] = chipID
	copy(d.regs[regCalib1:], testCalib1)
	copy(d.regs[regCalib2:], testCalib2)
	copy(d.regs[regData:], testBurst)
	return d
}

func (d *bridgeDevice) Write(req []byte) (int, error) {
	wlen, rlen := int(req[2]), int(req[3])
	w := req[4 : 4+wlen]
	switch {
	case wlen == 2:
		d.regs[w[0]] = w[1]
		d.reply.Write(response(0, 2, nil))
	default:
		r := make([]byte, rlen)
		copy(r, d.regs[w[0]:])
		d.reply.Write(response(0, byte(wlen), r))
	}
	return len(req), nil
}

func (d *bridgeDevice) Read(b []byte) (int, error) {
	if d.reply.Len() == 0 {
		return 0, nil
	}
	return d.reply.Read(b)
}

func (d *bridgeDevice) Close() error { return nil }

func TestDevOverSerialBridge(t *testing.T) {
	bd := newBridgeDevice()
	opts, _ := testOpts()

	d, err := NewI2C(NewSerialBridge(bd, "bridge"), opts)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if err := d.Refresh(); err != nil {
		t.Fatal(err)
	}
	checkSample(t, d.Sample())
	if bd.regs[regCtrlHum] != ctrlHum || bd.regs[regConfig] != configNoFilter {
		t.Fatalf("ctrl_hum=%#x config=%#x", bd.regs[regCtrlHum], bd.regs[regConfig])
	}
}
