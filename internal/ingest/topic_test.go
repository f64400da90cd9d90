package ingest

import "testing"

func TestParseTopic(t *testing.T) {
	tests := []struct {
		name       string
		topic      string
		wantDevice string
		wantEnd    string
		wantOK     bool
	}{
		{"status topic", "petfeeder/devices/ABC123/status", "ABC123", "status", true},
		{"consumption topic", "petfeeder/devices/ABC123/petfoodconsumption", "ABC123", "petfoodconsumption", true},
		{"deep endpoint keeps last segment", "petfeeder/devices/ABC123/nested/status", "ABC123", "status", true},
		{"too few segments", "petfeeder/devices/ABC123", "", "", false},
		{"wrong branch", "petfeeder/groups/ABC123/status", "", "", false},
		{"empty device id", "petfeeder/devices//status", "", "", false},
		{"empty topic", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device, endpoint, ok := parseTopic(tt.topic)
			if ok != tt.wantOK {
				t.Fatalf("parseTopic(%q) ok = %v, want %v", tt.topic, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if device != tt.wantDevice {
				t.Errorf("device = %q, want %q", device, tt.wantDevice)
			}
			if endpoint != tt.wantEnd {
				t.Errorf("endpoint = %q, want %q", endpoint, tt.wantEnd)
			}
		})
	}
}
