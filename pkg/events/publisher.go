/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package events publishes inventory cycle events to NATS JetStream as
// CloudEvents.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/netinventory/pkg/logger"
	"github.com/carverauto/netinventory/pkg/models"
)

const (
	DefaultStream  = "INVENTORY_EVENTS"
	DefaultSubject = "events.inventory.cycle"

	cycleCompletedType = "com.carverauto.netinventory.cycle.completed"
	eventSource        = "netinventory/poller"
)

var ErrMissingURL = errors.New("nats url is required")

// CloudEvent is a CloudEvents 1.0 envelope.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// Config selects the NATS endpoint and stream.
type Config struct {
	URL       string `json:"url"`
	Stream    string `json:"stream"`
	Subject   string `json:"subject"`
	Domain    string `json:"domain,omitempty"`
	CredsFile string `json:"creds_file,omitempty"`
	CAFile    string `json:"ca_file,omitempty"`
	CertFile  string `json:"cert_file,omitempty"`
	KeyFile   string `json:"key_file,omitempty"`
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Stream == "" {
		out.Stream = DefaultStream
	}

	if out.Subject == "" {
		out.Subject = DefaultSubject
	}

	return out
}

// publisher is the subset of jetstream.JetStream used to publish.
type publisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// EventPublisher publishes cycle events to one subject.
type EventPublisher struct {
	js      publisher
	subject string
	logger  logger.Logger
}

// NewEventPublisher wraps a JetStream handle.
func NewEventPublisher(js publisher, subject string, log logger.Logger) *EventPublisher {
	if subject == "" {
		subject = DefaultSubject
	}

	return &EventPublisher{js: js, subject: subject, logger: log}
}

// PublishCycleCompleted publishes the report of a finished cycle.
func (p *EventPublisher) PublishCycleCompleted(ctx context.Context, report *models.CycleReport) error {
	ended := report.EndedAt

	event := CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            cycleCompletedType,
		DataContentType: "application/json",
		Subject:         p.subject,
		Time:            &ended,
		Data:            report,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal cycle event: %w", err)
	}

	ack, err := p.js.Publish(ctx, p.subject, payload, jetstream.WithMsgID(report.CycleID))
	if err != nil {
		return fmt.Errorf("failed to publish cycle event: %w", err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("cycle_id", report.CycleID).
		Str("subject", p.subject).
		Uint64("seq", ack.Sequence).
		Msg("Published cycle event")

	return nil
}

// Connect dials NATS, makes sure the stream captures the subject and returns
// a publisher bound to it. The caller owns the returned connection.
func Connect(ctx context.Context, cfg *Config, log logger.Logger) (*EventPublisher, *nats.Conn, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, nil, ErrMissingURL
	}

	c := cfg.withDefaults()

	nc, err := nats.Connect(c.URL, connectOptions(&c, log)...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	var js jetstream.JetStream

	if c.Domain != "" {
		js, err = jetstream.NewWithDomain(nc, c.Domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := ensureStream(ctx, js, c.Stream, c.Subject); err != nil {
		nc.Close()
		return nil, nil, err
	}

	return NewEventPublisher(js, c.Subject, log), nc, nil
}

func connectOptions(c *Config, log logger.Logger) []nats.Option {
	opts := []nats.Option{
		nats.Name("netinventory"),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	if c.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(c.CredsFile))
	}

	if c.CAFile != "" {
		opts = append(opts, nats.RootCAs(c.CAFile))
	}

	if c.CertFile != "" && c.KeyFile != "" {
		opts = append(opts, nats.ClientCert(c.CertFile, c.KeyFile))
	}

	return opts
}

// ensureStream creates the stream when missing and adds subject to an
// existing stream that does not capture it yet.
func ensureStream(ctx context.Context, js jetstream.JetStream, name, subject string) error {
	stream, err := js.Stream(ctx, name)
	if err != nil {
		if !isStreamMissingErr(err) {
			return fmt.Errorf("failed to get stream %s: %w", name, err)
		}

		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     name,
			Subjects: []string{subject},
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", name, err)
		}

		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stream %s: %w", name, err)
	}

	subjects := ensureSubjectList(append([]string(nil), info.Config.Subjects...), subject)
	if len(subjects) == len(info.Config.Subjects) {
		return nil
	}

	cfg := info.Config
	cfg.Subjects = subjects

	if _, err := js.UpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to add subject to stream %s: %w", name, err)
	}

	return nil
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrNoResponders)
}

// ensureSubjectList appends subject unless a pattern already matches it.
func ensureSubjectList(subjects []string, subject string) []string {
	for _, pattern := range subjects {
		if matchesSubject(pattern, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject applies NATS wildcard rules: '*' matches one token and '>'
// matches the remainder.
func matchesSubject(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, tok := range pt {
		if tok == ">" {
			return len(st) > i
		}

		if i >= len(st) {
			return false
		}

		if tok != "*" && tok != st[i] {
			return false
		}
	}

	return len(pt) == len(st)
}
