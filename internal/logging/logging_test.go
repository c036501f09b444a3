package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/apex/log"
)

func TestSetup(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()

	var buf bytes.Buffer
	if err := setup(&buf, "debug", "json"); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if Logger.Level != log.DebugLevel {
		t.Errorf("Expected debug level, got %v", Logger.Level)
	}

	Logger.WithField("pcap", "run.pcap").Debug("opened")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["message"] != "opened" {
		t.Errorf("Unexpected message field: %v", entry["message"])
	}
	fields, ok := entry["fields"].(map[string]interface{})
	if !ok || fields["pcap"] != "run.pcap" {
		t.Errorf("Expected pcap field in %v", entry)
	}
}

func TestSetupRejectsUnknownValues(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()

	var buf bytes.Buffer
	if err := setup(&buf, "loud", ""); err == nil {
		t.Error("Expected an error for an unknown level")
	}
	if err := setup(&buf, "", "xml"); err == nil {
		t.Error("Expected an error for an unknown format")
	}
}
