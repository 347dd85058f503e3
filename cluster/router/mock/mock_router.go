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

// Package mock provides the terminal mock-selection router: it never
// filters by address or parameter, only by whether the caller's
// Invocation asked for a mock reply. It is always appended to a
// Directory's chain, at the lowest priority, so every other router runs
// first.
package mock

import (
	"strings"

	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// MaxPriority is the terminal slot in a router chain; nothing should ever
// register after it.
const MaxPriority = int64(1 << 62)

// Router splits invokers into the mock and non-mock subsets and returns
// whichever one the Invocation asked for via NeedMockAttachmentKey.
type Router struct {
	url *common.URL
}

// New builds the terminal mock router bound to url (normally the
// consumer's reference URL, used only for its string form in chain
// ordering; the router itself carries no other config).
func New(url *common.URL) *Router {
	return &Router{url: url}
}

func (r *Router) Route(invokers []protocol.Invoker, _ *common.URL, invocation protocol.Invocation) ([]protocol.Invoker, error) {
	return selectByMock(invokers, needsMock(invocation)), nil
}

func needsMock(invocation protocol.Invocation) bool {
	return strings.EqualFold(invocation.Attachments()[protocol.NeedMockAttachmentKey], "true")
}

func selectByMock(invokers []protocol.Invoker, wantMock bool) []protocol.Invoker {
	out := make([]protocol.Invoker, 0, len(invokers))
	for _, inv := range invokers {
		isMock := strings.HasPrefix(inv.GetURL().Protocol, "mock")
		if isMock == wantMock {
			out = append(out, inv)
		}
	}
	return out
}

func (r *Router) Priority() int64    { return MaxPriority }
func (r *Router) URL() *common.URL   { return r.url }
func (r *Router) IsRuntime() bool    { return true }
