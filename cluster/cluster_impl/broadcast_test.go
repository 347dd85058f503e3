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

func TestBroadcastInvoker_InvokesEveryCandidate(t *testing.T) {
	a := newFakeInvoker("10.0.0.1", protocol.NewRPCResult("a"))
	b := newFakeInvoker("10.0.0.2", protocol.NewRPCResult("b"))
	c := newFakeInvoker("10.0.0.3", protocol.NewRPCResult("c"))
	dir := newFakeDirectory(newTestURL(), a, b, c)

	f := NewBroadcastInvoker(dir)
	result := f.Invoke(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))

	require.False(t, result.HasException())
	assert.Equal(t, 1, a.callCount())
	assert.Equal(t, 1, b.callCount())
	assert.Equal(t, 1, c.callCount())
}

func TestBroadcastInvoker_OneFailureAggregatesErrorButStillCallsTheRest(t *testing.T) {
	a := newFakeInvoker("10.0.0.1", protocol.NewRPCResult("a"))
	b := newFakeInvoker("10.0.0.2", protocol.NewRPCResultWithError(protocol.NewException(protocol.NETWORK, "boom", nil)))
	c := newFakeInvoker("10.0.0.3", protocol.NewRPCResult("c"))
	dir := newFakeDirectory(newTestURL(), a, b, c)

	f := NewBroadcastInvoker(dir)
	result := f.Invoke(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))

	require.True(t, result.HasException())
	assert.Equal(t, 1, a.callCount())
	assert.Equal(t, 1, b.callCount())
	assert.Equal(t, 1, c.callCount(), "a mid-list failure must not stop broadcast from reaching the remaining candidates")

	var clusterErr *ClusterError
	require.ErrorAs(t, result.Error(), &clusterErr)
	assert.Len(t, clusterErr.Tried, 1)
}

func TestBroadcastInvoker_NoProviderWhenDirectoryEmpty(t *testing.T) {
	dir := newFakeDirectory(newTestURL())
	f := NewBroadcastInvoker(dir)
	result := f.Invoke(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))

	require.True(t, result.HasException())
	assert.Equal(t, protocol.NOPROVIDER, protocol.ExceptionCodeOf(result.Error()))
}
