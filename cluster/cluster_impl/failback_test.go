/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cluster_impl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

func TestFailbackInvoker_SucceedsOnFirstAttempt(t *testing.T) {
	a := newFakeInvoker("10.0.0.1", protocol.NewRPCResult("ok"))
	dir := newFakeDirectory(newTestURL(), a)

	f := NewFailbackInvoker(dir)
	result := f.Invoke(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))

	require.False(t, result.HasException())
	assert.Equal(t, "ok", result.Result())
}

func TestFailbackInvoker_FailureReturnsEmptySuccessImmediately(t *testing.T) {
	a := newFakeInvoker("10.0.0.1", protocol.NewRPCResultWithError(protocol.NewException(protocol.NETWORK, "boom", nil)))
	dir := newFakeDirectory(newTestURL(), a)

	f := NewFailbackInvoker(dir)
	result := f.Invoke(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))

	assert.False(t, result.HasException(), "failback must return success to the caller immediately, deferring retry to the background worker")
}

// retryOnce is exercised directly (white-box, same package) since the
// background worker's real retry cadence is a 5s ticker this test suite
// has no business waiting on.
func TestFailbackInvoker_RetryOnceSucceedsAgainstSurvivingCandidate(t *testing.T) {
	a := newFakeInvoker("10.0.0.1", protocol.NewRPCResultWithError(protocol.NewException(protocol.NETWORK, "boom", nil)))
	b := newFakeInvoker("10.0.0.2", protocol.NewRPCResult("ok"))
	dir := newFakeDirectory(newTestURL(), b)

	f := NewFailbackInvoker(dir)
	done := f.retryOnce(protocol.NewRPCInvocation("sayHi", nil, nil), []protocol.Invoker{a, b})

	assert.True(t, done)
}

func TestFailbackInvoker_RetryOnceKeepsRetryingOnRepeatedFailure(t *testing.T) {
	a := newFakeInvoker("10.0.0.1", protocol.NewRPCResultWithError(protocol.NewException(protocol.NETWORK, "boom", nil)))
	dir := newFakeDirectory(newTestURL(), a)

	f := NewFailbackInvoker(dir)
	done := f.retryOnce(protocol.NewRPCInvocation("sayHi", nil, nil), []protocol.Invoker{a})

	assert.False(t, done, "a still-failing retry must remain queued")
}

func TestFailbackInvoker_RetryOnceGivesUpWhenNoCandidatesRemain(t *testing.T) {
	dir := newFakeDirectory(newTestURL())
	f := NewFailbackInvoker(dir)
	done := f.retryOnce(protocol.NewRPCInvocation("sayHi", nil, nil), nil)

	assert.True(t, done, "retrying against an empty candidate set is pointless and must stop")
}
