package slack

import (
	"context"
	"fmt"
	"strings"

	slackapi "github.com/slack-go/slack"

	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
)

// Config holds Slack notifier configuration.
type Config struct {
	BotToken string
	Channel  string
}

// Notifier implements outbound.Notifier via the Slack API.
type Notifier struct {
	client *slackapi.Client
	config Config
}

// NewNotifier creates a new Slack Notifier.
func NewNotifier(cfg Config) *Notifier {
	return &Notifier{
		client: slackapi.New(cfg.BotToken),
		config: cfg,
	}
}

var _ outbound.Notifier = (*Notifier)(nil)

// NotifyAnalysis posts a rich Block Kit card summarizing the analysis.
func (n *Notifier) NotifyAnalysis(ctx context.Context, notification outbound.AnalysisNotification) error {
	blocks := buildAnalysisBlocks(notification)

	_, _, err := n.client.PostMessageContext(ctx, n.config.Channel,
		slackapi.MsgOptionBlocks(blocks...),
		slackapi.MsgOptionText(fmt.Sprintf("[%s] Anomaly analysis: %s",
			strings.ToUpper(notification.Severity), notification.MetricName), false),
	)
	if err != nil {
		return fmt.Errorf("slack NotifyAnalysis: %w", err)
	}
	return nil
}

// HealthCheck verifies the bot token against the Slack API.
func (n *Notifier) HealthCheck(ctx context.Context) error {
	if _, err := n.client.AuthTestContext(ctx); err != nil {
		return fmt.Errorf("slack auth test: %w", err)
	}
	return nil
}

func buildAnalysisBlocks(notification outbound.AnalysisNotification) []slackapi.Block {
	header := slackapi.NewHeaderBlock(slackapi.NewTextBlockObject(
		slackapi.PlainTextType,
		fmt.Sprintf("%s Anomaly Analysis: %s", severityEmoji(notification.Severity), notification.MetricName),
		true, false,
	))

	fields := []*slackapi.TextBlockObject{
		slackapi.NewTextBlockObject(slackapi.MarkdownType,
			fmt.Sprintf("*Severity:*\n%s", notification.Severity), false, false),
		slackapi.NewTextBlockObject(slackapi.MarkdownType,
			fmt.Sprintf("*Type:*\n%s", notification.AnomalyType), false, false),
		slackapi.NewTextBlockObject(slackapi.MarkdownType,
			fmt.Sprintf("*Confidence:*\n%.0f%%", notification.Confidence*100), false, false),
		slackapi.NewTextBlockObject(slackapi.MarkdownType,
			fmt.Sprintf("*Analysis ID:*\n%s", notification.AnalysisID), false, false),
	}

	blocks := []slackapi.Block{
		header,
		slackapi.NewSectionBlock(nil, fields, nil),
		slackapi.NewSectionBlock(slackapi.NewTextBlockObject(slackapi.MarkdownType,
			fmt.Sprintf("*Root Cause:*\n%s", notification.RootCause), false, false), nil, nil),
	}

	if notification.WhatHappened != "" {
		blocks = append(blocks, slackapi.NewSectionBlock(slackapi.NewTextBlockObject(
			slackapi.MarkdownType,
			fmt.Sprintf("*What Happened:*\n%s", notification.WhatHappened), false, false), nil, nil))
	}
	if notification.TopRecommendation != "" {
		blocks = append(blocks, slackapi.NewSectionBlock(slackapi.NewTextBlockObject(
			slackapi.MarkdownType,
			fmt.Sprintf("*Top Recommendation:*\n%s", notification.TopRecommendation), false, false), nil, nil))
	}
	if notification.MigrationDetected {
		blocks = append(blocks, slackapi.NewContextBlock("",
			slackapi.NewTextBlockObject(slackapi.MarkdownType,
				":arrows_counterclockwise: Recent migration activity identified as a likely cause", false, false),
		))
	}

	blocks = append(blocks, slackapi.NewContextBlock("",
		slackapi.NewTextBlockObject(slackapi.MarkdownType,
			fmt.Sprintf("Anomaly `%s`", notification.AnomalyID), false, false),
	))
	return blocks
}

// severityEmoji maps severity to an emoji.
func severityEmoji(severity string) string {
	switch strings.ToLower(severity) {
	case "critical":
		return ":red_circle:"
	case "high":
		return ":large_orange_circle:"
	case "medium":
		return ":large_yellow_circle:"
	case "low":
		return ":large_green_circle:"
	default:
		return ":white_circle:"
	}
}
