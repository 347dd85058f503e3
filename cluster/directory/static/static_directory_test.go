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

package static

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

type stubInvoker struct{ url *common.URL }

func (s *stubInvoker) GetURL() *common.URL                                            { return s.url }
func (s *stubInvoker) IsAvailable() bool                                               { return true }
func (s *stubInvoker) Destroy()                                                        {}
func (s *stubInvoker) Invoke(_ context.Context, _ protocol.Invocation) protocol.Result { return nil }

func newStubInvoker(addr string) *stubInvoker {
	return &stubInvoker{url: common.NewURLWithOptions(common.WithIp(addr), common.WithPort("20880"))}
}

func TestStaticDirectory_ListReturnsConfiguredInvokers(t *testing.T) {
	a, b := newStubInvoker("10.0.0.1"), newStubInvoker("10.0.0.2")
	dir := NewDirectory(common.NewURLWithOptions(common.WithInterface("com.example.Greeter")), []protocol.Invoker{a, b})

	out, err := dir.List(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))
	require.NoError(t, err)
	assert.ElementsMatch(t, []protocol.Invoker{a, b}, out)
}

func TestStaticDirectory_ListReturnsFreshSliceNotAliasingInternalState(t *testing.T) {
	a := newStubInvoker("10.0.0.1")
	dir := NewDirectory(common.NewURLWithOptions(common.WithInterface("com.example.Greeter")), []protocol.Invoker{a})

	out, err := dir.List(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))
	require.NoError(t, err)
	out[0] = newStubInvoker("10.0.0.9")

	again, err := dir.List(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))
	require.NoError(t, err)
	assert.Same(t, a, again[0], "mutating a prior List result must not affect later calls")
}

func TestStaticDirectory_SetInvokersReplacesCandidateSet(t *testing.T) {
	a, b := newStubInvoker("10.0.0.1"), newStubInvoker("10.0.0.2")
	dir := NewDirectory(common.NewURLWithOptions(common.WithInterface("com.example.Greeter")), []protocol.Invoker{a})

	dir.SetInvokers([]protocol.Invoker{b})

	out, err := dir.List(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, []protocol.Invoker{b}, out)
}

func TestStaticDirectory_ListAfterDestroyIsEmptyNotError(t *testing.T) {
	a := newStubInvoker("10.0.0.1")
	dir := NewDirectory(common.NewURLWithOptions(common.WithInterface("com.example.Greeter")), []protocol.Invoker{a})

	dir.Destroy()

	out, err := dir.List(context.Background(), protocol.NewRPCInvocation("sayHi", nil, nil))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.False(t, dir.IsAvailable())
}
