package serial

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	if cfg.Device != "/dev/ttyUSB0" || cfg.Baud != 115200 || cfg.ReadTimeout != 0 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestOpenRejectsMissingDevice(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("Expected error for nil config")
	}
	if _, err := Open(&Config{Baud: 115200}); err == nil {
		t.Error("Expected error for empty device")
	}
}
