package portaudio

import (
	"testing"

	pa "github.com/gordonklaus/portaudio"
)

func TestSameDevice(t *testing.T) {
	wasapi := &pa.HostApiInfo{Name: "Windows WASAPI"}
	mme := &pa.HostApiInfo{Name: "MME"}

	a := &pa.DeviceInfo{Name: "Speakers", HostApi: wasapi}
	b := &pa.DeviceInfo{Name: "Speakers", HostApi: wasapi}
	c := &pa.DeviceInfo{Name: "Speakers", HostApi: mme}

	if !sameDevice(a, a) || !sameDevice(a, b) {
		t.Fatal("expected equal devices to match")
	}
	if sameDevice(a, c) {
		t.Fatal("different host APIs must not match")
	}
	if sameDevice(a, nil) || sameDevice(nil, nil) {
		t.Fatal("nil devices must not match")
	}
}
