package slack

import (
	"testing"

	slackapi "github.com/slack-go/slack"

	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
)

// These tests verify block construction. Actual Slack API calls are not made.

func testNotification() outbound.AnalysisNotification {
	return outbound.AnalysisNotification{
		AnalysisID:        "analysis-001",
		AnomalyID:         "anomaly-001",
		MetricName:        "error_rate",
		AnomalyType:       "stability",
		Severity:          "critical",
		RootCause:         "System instability triggered by recent changes",
		Confidence:        0.75,
		WhatHappened:      "The error rate jumped to 45.0%.",
		TopRecommendation: "Review recent deployments and rollback if necessary",
	}
}

func TestBuildAnalysisBlocks(t *testing.T) {
	blocks := buildAnalysisBlocks(testNotification())
	if len(blocks) == 0 {
		t.Fatal("expected analysis blocks to be non-empty")
	}

	header, ok := blocks[0].(*slackapi.HeaderBlock)
	if !ok {
		t.Fatalf("expected first block to be a header, got %T", blocks[0])
	}
	if header.Text.Text != ":red_circle: Anomaly Analysis: error_rate" {
		t.Errorf("unexpected header %q", header.Text.Text)
	}
}

func TestBuildAnalysisBlocksMigrationContext(t *testing.T) {
	notification := testNotification()

	without := len(buildAnalysisBlocks(notification))
	notification.MigrationDetected = true
	with := len(buildAnalysisBlocks(notification))

	if with != without+1 {
		t.Errorf("expected one extra block for migration context, got %d vs %d", with, without)
	}
}

func TestBuildAnalysisBlocksOmitsEmptySections(t *testing.T) {
	notification := testNotification()
	notification.WhatHappened = ""
	notification.TopRecommendation = ""

	blocks := buildAnalysisBlocks(notification)
	full := buildAnalysisBlocks(testNotification())
	if len(blocks) != len(full)-2 {
		t.Errorf("expected empty sections to be omitted, got %d vs %d blocks", len(blocks), len(full))
	}
}

func TestSeverityEmoji(t *testing.T) {
	cases := map[string]string{
		"critical": ":red_circle:",
		"HIGH":     ":large_orange_circle:",
		"medium":   ":large_yellow_circle:",
		"low":      ":large_green_circle:",
		"unknown":  ":white_circle:",
	}
	for severity, want := range cases {
		if got := severityEmoji(severity); got != want {
			t.Errorf("severityEmoji(%q) = %q, want %q", severity, got, want)
		}
	}
}
