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

package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

type stubInvoker struct{ url *common.URL }

func (s *stubInvoker) GetURL() *common.URL { return s.url }
func (s *stubInvoker) IsAvailable() bool   { return true }
func (s *stubInvoker) Destroy()            {}
func (s *stubInvoker) Invoke(_ context.Context, _ protocol.Invocation) protocol.Result {
	return nil
}

func TestRouter_DefaultRouteExcludesMockEndpoints(t *testing.T) {
	r := New(common.NewURLWithOptions())
	normal := &stubInvoker{url: common.NewURLWithOptions(common.WithProtocol("dubbo"))}
	mocked := &stubInvoker{url: common.NewURLWithOptions(common.WithProtocol("mock"))}

	inv := protocol.NewRPCInvocation("sayHello", nil, nil)
	out, err := r.Route([]protocol.Invoker{normal, mocked}, nil, inv)
	require.NoError(t, err)
	assert.Equal(t, []protocol.Invoker{normal}, out)
}

func TestRouter_NeedMockAttachmentSelectsOnlyMockEndpoints(t *testing.T) {
	r := New(common.NewURLWithOptions())
	normal := &stubInvoker{url: common.NewURLWithOptions(common.WithProtocol("dubbo"))}
	mocked := &stubInvoker{url: common.NewURLWithOptions(common.WithProtocol("mock"))}

	inv := protocol.NewRPCInvocation("sayHello", nil, map[string]string{
		protocol.NeedMockAttachmentKey: "true",
	})
	out, err := r.Route([]protocol.Invoker{normal, mocked}, nil, inv)
	require.NoError(t, err)
	assert.Equal(t, []protocol.Invoker{mocked}, out)
}

func TestRouter_IsTerminalAndAlwaysRuntime(t *testing.T) {
	r := New(common.NewURLWithOptions())
	assert.Equal(t, MaxPriority, r.Priority())
	assert.True(t, r.IsRuntime())
}
