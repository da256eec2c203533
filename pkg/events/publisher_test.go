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

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/netinventory/pkg/logger"
	"github.com/carverauto/netinventory/pkg/models"
)

var errTestFixture = errors.New("fixture error")

type fakeJetStream struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeJetStream) Publish(_ context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.subject = subject
	f.data = data

	return &jetstream.PubAck{Stream: DefaultStream, Sequence: 7}, nil
}

func TestPublishCycleCompleted(t *testing.T) {
	js := &fakeJetStream{}
	p := NewEventPublisher(js, "", logger.NewTestLogger())

	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	report := &models.CycleReport{
		CycleID:   "c0ffee",
		StartedAt: started,
		EndedAt:   started.Add(90 * time.Second),
		Devices:   3,
		Domains:   []*models.DomainReport{{Domain: "lldp", Devices: 3, Succeeded: 2, Failed: 1}},
	}

	require.NoError(t, p.PublishCycleCompleted(context.Background(), report))
	assert.Equal(t, DefaultSubject, js.subject)

	var event struct {
		SpecVersion string             `json:"specversion"`
		Type        string             `json:"type"`
		Source      string             `json:"source"`
		Time        time.Time          `json:"time"`
		Data        models.CycleReport `json:"data"`
	}

	require.NoError(t, json.Unmarshal(js.data, &event))
	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, cycleCompletedType, event.Type)
	assert.Equal(t, eventSource, event.Source)
	assert.True(t, event.Time.Equal(report.EndedAt))
	assert.Equal(t, "c0ffee", event.Data.CycleID)
	require.Len(t, event.Data.Domains, 1)
	assert.Equal(t, 1, event.Data.Domains[0].Failed)
}

func TestPublishCycleCompletedError(t *testing.T) {
	p := NewEventPublisher(&fakeJetStream{err: errTestFixture}, "events.custom", logger.NewTestLogger())

	err := p.PublishCycleCompleted(context.Background(), &models.CycleReport{CycleID: "x"})
	require.ErrorIs(t, err, errTestFixture)
}

func TestConnectRequiresURL(t *testing.T) {
	_, _, err := Connect(context.Background(), &Config{}, logger.NewTestLogger())
	require.ErrorIs(t, err, ErrMissingURL)

	_, _, err = Connect(context.Background(), nil, logger.NewTestLogger())
	require.ErrorIs(t, err, ErrMissingURL)
}

func TestConfigDefaults(t *testing.T) {
	c := (&Config{URL: "nats://localhost:4222"}).withDefaults()
	assert.Equal(t, DefaultStream, c.Stream)
	assert.Equal(t, DefaultSubject, c.Subject)

	c = (&Config{Stream: "S", Subject: "a.b"}).withDefaults()
	assert.Equal(t, "S", c.Stream)
	assert.Equal(t, "a.b", c.Subject)
}

func TestEnsureSubjectList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subjects []string
		subject  string
		want     []string
	}{
		{
			name:    "adds subject when list empty",
			subject: "events.inventory.cycle",
			want:    []string{"events.inventory.cycle"},
		},
		{
			name:     "keeps list when wildcard matches",
			subjects: []string{"events.inventory.*"},
			subject:  "events.inventory.cycle",
			want:     []string{"events.inventory.*"},
		},
		{
			name:     "keeps list when greater wildcard matches",
			subjects: []string{"events.>"},
			subject:  "events.inventory.cycle",
			want:     []string{"events.>"},
		},
		{
			name:     "appends when unmatched",
			subjects: []string{"logs.syslog.*"},
			subject:  "events.inventory.cycle",
			want:     []string{"logs.syslog.*", "events.inventory.cycle"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ensureSubjectList(append([]string(nil), tc.subjects...), tc.subject))
		})
	}
}

func TestMatchesSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pattern  string
		subject  string
		expected bool
	}{
		{"exact match", "events.inventory.cycle", "events.inventory.cycle", true},
		{"single wildcard", "events.*.cycle", "events.inventory.cycle", true},
		{"greater wildcard", "events.>", "events.inventory.cycle", true},
		{"greater wildcard needs a token", "events.inventory.cycle.>", "events.inventory.cycle", false},
		{"no match length", "events.*", "events.inventory.cycle", false},
		{"no match tokens", "logs.syslog.*", "events.inventory.cycle", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, matchesSubject(tc.pattern, tc.subject))
		})
	}
}

func TestIsStreamMissingErr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"jetstream no stream response", jetstream.ErrNoStreamResponse, true},
		{"jetstream stream not found", jetstream.ErrStreamNotFound, true},
		{"nats no stream response", nats.ErrNoStreamResponse, true},
		{"nats stream not found", nats.ErrStreamNotFound, true},
		{"nats no responders", nats.ErrNoResponders, true},
		{"other error", errTestFixture, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, isStreamMissingErr(tc.err))
		})
	}
}
