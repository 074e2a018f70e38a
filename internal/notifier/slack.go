package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// maxDigestJobs caps the job sections in one message; Slack allows 50 blocks.
const maxDigestJobs = 15

// SlackNotifier posts a run digest to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	sleep      func(time.Duration)
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts to the given webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		sleep:      time.Sleep,
		logger:     logger,
	}
}

// Notify sends one Block Kit message listing the accepted jobs, highest
// priority first as given.
func (s *SlackNotifier) Notify(jobs []model.AnnotatedJob) error {
	if len(jobs) == 0 {
		return nil
	}
	if err := s.send(buildDigest(jobs)); err != nil {
		return err
	}
	s.logger.Info("slack digest sent", "jobs", len(jobs))
	return nil
}

func (s *SlackNotifier) send(payload slackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(body)
	if err != nil {
		return err
	}
	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter)
		s.sleep(retryAfter)

		status, _, err = s.post(body)
		if err != nil {
			return fmt.Errorf("retry: %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		return nil
	}
	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	return nil
}

func (s *SlackNotifier) post(body []byte) (int, time.Duration, error) {
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	wait := model.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	if wait <= 0 {
		wait = time.Second
	}
	return resp.StatusCode, wait, nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type      string         `json:"type"`
	Text      *slackText     `json:"text,omitempty"`
	Fields    []slackText    `json:"fields,omitempty"`
	Elements  []slackElement `json:"elements,omitempty"`
	Accessory *slackElement  `json:"accessory,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string     `json:"type"`
	Text  *slackText `json:"text,omitempty"`
	URL   string     `json:"url,omitempty"`
	Style string     `json:"style,omitempty"`
}

// SampleDigest builds n placeholder jobs, cycling through the priorities,
// for checking a notifier end to end.
func SampleDigest(n int) []model.AnnotatedJob {
	priorities := []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow}
	now := time.Now()
	jobs := make([]model.AnnotatedJob, 0, n)
	for i := range n {
		lpa := float64(30 - 5*(i%3))
		jobs = append(jobs, model.AnnotatedJob{
			Job: model.Job{
				RawJob: model.RawJob{
					Title:    fmt.Sprintf("Test Notification #%d: Integration Verified", i+1),
					Company:  "jobscout",
					Location: "Everywhere",
					URL:      fmt.Sprintf("https://example.com/jobscout/test/%d", i+1),
					Portal:   "test",
				},
				PostedAt: now,
				FoundAt:  now,
			},
			Verdict:  model.Verdict{Accepted: true, Reason: "Entry-level role", SalaryLPA: &lpa},
			Key:      fmt.Sprintf("test-%03d", i+1),
			Salary:   fmt.Sprintf("%.0f LPA", lpa),
			Priority: priorities[i%len(priorities)],
		})
	}
	return jobs
}

var priorityEmoji = map[model.Priority]string{
	model.PriorityHigh:   "🔥",
	model.PriorityMedium: "⭐",
	model.PriorityLow:    "•",
}

func buildDigest(jobs []model.AnnotatedJob) slackPayload {
	title := fmt.Sprintf("%d new job", len(jobs))
	if len(jobs) != 1 {
		title += "s"
	}

	blocks := []slackBlock{{
		Type: "header",
		Text: &slackText{Type: "plain_text", Text: "🚀 " + title},
	}}

	shown := jobs
	if len(shown) > maxDigestJobs {
		shown = shown[:maxDigestJobs]
	}
	for _, j := range shown {
		blocks = append(blocks, jobSection(j))
	}
	if rest := len(jobs) - len(shown); rest > 0 {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("_…and %d more in the job store_", rest)},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Text: title, Blocks: blocks}
}

func jobSection(j model.AnnotatedJob) slackBlock {
	salary := j.Salary
	if salary == "" {
		salary = "not stated"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s* at %s\n", priorityEmoji[j.Priority], j.Title, j.Company)
	fmt.Fprintf(&b, "%s · %s · %s", orDash(j.Location), salary, j.Portal)
	if !j.PostedAt.IsZero() {
		fmt.Fprintf(&b, " · posted %s", j.PostedAt.Format("Jan 2 15:04"))
	}

	block := slackBlock{
		Type: "section",
		Text: &slackText{Type: "mrkdwn", Text: b.String()},
	}
	if j.URL != "" {
		block.Accessory = &slackElement{
			Type:  "button",
			Text:  &slackText{Type: "plain_text", Text: "Apply"},
			URL:   j.URL,
			Style: "primary",
		}
	}
	return block
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
