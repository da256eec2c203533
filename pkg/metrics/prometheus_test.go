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

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	var m dto.Metric
	require.NoError(t, c.Write(&m))

	return m.GetCounter().GetValue()
}

func TestObserveDevicePoll(t *testing.T) {
	failures := DevicePollsTotal.WithLabelValues("routing", ResultFailure)
	successes := DevicePollsTotal.WithLabelValues("routing", ResultSuccess)

	beforeFail := counterValue(t, failures)
	beforeOK := counterValue(t, successes)

	ObserveDevicePoll("routing", errors.New("boom"), 10*time.Millisecond)
	ObserveDevicePoll("routing", nil, 10*time.Millisecond)

	assert.InDelta(t, beforeFail+1, counterValue(t, failures), 0.001)
	assert.InDelta(t, beforeOK+1, counterValue(t, successes), 0.001)
}
