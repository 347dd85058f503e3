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

func TestFailfastInvoker_SucceedsOnFirstAttempt(t *testing.T) {
	a := newFakeInvoker("10.0.0.1", protocol.NewRPCResult("ok"))
	dir := newFakeDirectory(newTestURL(), a)

	f := NewFailfastInvoker(dir)
	result := f.Invoke(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))

	require.False(t, result.HasException())
	assert.Equal(t, 1, a.callCount())
}

func TestFailfastInvoker_PropagatesFailureWithoutRetry(t *testing.T) {
	a := newFakeInvoker("10.0.0.1", protocol.NewRPCResultWithError(protocol.NewException(protocol.NETWORK, "boom", nil)))
	dir := newFakeDirectory(newTestURL(), a)

	f := NewFailfastInvoker(dir)
	result := f.Invoke(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))

	require.True(t, result.HasException())
	assert.Equal(t, 1, a.callCount(), "failfast must not retry after a single failed attempt")
}

func TestFailfastInvoker_NoProviderWhenDirectoryEmpty(t *testing.T) {
	dir := newFakeDirectory(newTestURL())
	f := NewFailfastInvoker(dir)
	result := f.Invoke(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))

	require.True(t, result.HasException())
	assert.Equal(t, protocol.NOPROVIDER, protocol.ExceptionCodeOf(result.Error()))
}
