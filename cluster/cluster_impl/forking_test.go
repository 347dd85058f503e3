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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// delayedInvoker sleeps before returning its scripted result, so tests can
// assert which of several concurrent branches wins.
type delayedInvoker struct {
	*fakeInvoker
	delay time.Duration
}

func newDelayedInvoker(addr string, delay time.Duration, result protocol.Result) *delayedInvoker {
	return &delayedInvoker{fakeInvoker: newFakeInvoker(addr, result), delay: delay}
}

func (d *delayedInvoker) Invoke(ctx context.Context, invocation protocol.Invocation) protocol.Result {
	time.Sleep(d.delay)
	return d.fakeInvoker.Invoke(ctx, invocation)
}

func TestForkingInvoker_FirstSuccessWins(t *testing.T) {
	slow := newDelayedInvoker("10.0.0.1", 50*time.Millisecond, protocol.NewRPCResult("slow"))
	fast := newDelayedInvoker("10.0.0.2", 5*time.Millisecond, protocol.NewRPCResult("fast"))
	url := newTestURL(common.WithParamsValue("forks", "2"), common.WithParamsValue("timeout", "500"))
	dir := newFakeDirectory(url, slow, fast)

	f := NewForkingInvoker(dir)
	result := f.Invoke(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))

	require.False(t, result.HasException())
	assert.Equal(t, "fast", result.Result())
}

func TestForkingInvoker_AllFailAggregatesClusterError(t *testing.T) {
	a := newFakeInvoker("10.0.0.1", protocol.NewRPCResultWithError(protocol.NewException(protocol.NETWORK, "a failed", nil)))
	b := newFakeInvoker("10.0.0.2", protocol.NewRPCResultWithError(protocol.NewException(protocol.NETWORK, "b failed", nil)))
	url := newTestURL(common.WithParamsValue("forks", "2"), common.WithParamsValue("timeout", "500"))
	dir := newFakeDirectory(url, a, b)

	f := NewForkingInvoker(dir)
	result := f.Invoke(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))

	require.True(t, result.HasException())
	var clusterErr *ClusterError
	require.ErrorAs(t, result.Error(), &clusterErr)
	assert.Len(t, clusterErr.Tried, 2)
}

func TestForkingInvoker_TimesOutWhenNoResultArrives(t *testing.T) {
	slow := newDelayedInvoker("10.0.0.1", 200*time.Millisecond, protocol.NewRPCResult("too-late"))
	url := newTestURL(common.WithParamsValue("forks", "1"), common.WithParamsValue("timeout", "20"))
	dir := newFakeDirectory(url, slow)

	f := NewForkingInvoker(dir)
	result := f.Invoke(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))

	require.True(t, result.HasException())
	assert.Equal(t, protocol.TIMEOUT, protocol.ExceptionCodeOf(result.Error()))
}

func TestForkingInvoker_ForksLessThanCandidatesSelectsSubset(t *testing.T) {
	a := newFakeInvoker("10.0.0.1", protocol.NewRPCResult("a"))
	b := newFakeInvoker("10.0.0.2", protocol.NewRPCResult("b"))
	c := newFakeInvoker("10.0.0.3", protocol.NewRPCResult("c"))
	url := newTestURL(common.WithParamsValue("forks", "2"), common.WithParamsValue("timeout", "500"))
	dir := newFakeDirectory(url, a, b, c)

	f := NewForkingInvoker(dir)
	selected := f.selectForkTargets(protocol.NewRPCInvocation("sayHi", nil, nil), []protocol.Invoker{a, b, c}, 2)

	assert.Len(t, selected, 2)
}
