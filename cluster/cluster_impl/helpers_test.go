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
	"sync"
	"sync/atomic"

	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// fakeInvoker is a scriptable protocol.Invoker for deterministic tests: each
// call pops the next configured result (or repeats the last one once the
// script is exhausted).
type fakeInvoker struct {
	url       *common.URL
	results   []protocol.Result
	calls     int32
	available int32
}

func newFakeInvoker(addr string, results ...protocol.Result) *fakeInvoker {
	return &fakeInvoker{
		url:       common.NewURLWithOptions(common.WithProtocol("fake"), common.WithIp(addr), common.WithPort("0")),
		results:   results,
		available: 1,
	}
}

func (f *fakeInvoker) GetURL() *common.URL { return f.url }
func (f *fakeInvoker) IsAvailable() bool   { return atomic.LoadInt32(&f.available) == 1 }
func (f *fakeInvoker) Destroy()            { atomic.StoreInt32(&f.available, 0) }

func (f *fakeInvoker) Invoke(_ context.Context, _ protocol.Invocation) protocol.Result {
	i := int(atomic.AddInt32(&f.calls, 1)) - 1
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i]
}

func (f *fakeInvoker) callCount() int { return int(atomic.LoadInt32(&f.calls)) }

// fakeDirectory returns a fixed invoker list (or err) on every List call.
type fakeDirectory struct {
	url      *common.URL
	mu       sync.Mutex
	invokers []protocol.Invoker
	listErr  error
}

func newFakeDirectory(url *common.URL, invokers ...protocol.Invoker) *fakeDirectory {
	return &fakeDirectory{url: url, invokers: invokers}
}

func (d *fakeDirectory) List(_ context.Context, _ protocol.Invocation) ([]protocol.Invoker, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listErr != nil {
		return nil, d.listErr
	}
	out := make([]protocol.Invoker, len(d.invokers))
	copy(out, d.invokers)
	return out, nil
}

func (d *fakeDirectory) setInvokers(invokers []protocol.Invoker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.invokers = invokers
}

func (d *fakeDirectory) GetURL() *common.URL { return d.url }
func (d *fakeDirectory) IsAvailable() bool   { return true }
func (d *fakeDirectory) Destroy()            {}

var _ cluster.Directory = (*fakeDirectory)(nil)

// firstLoadBalance always selects candidates[0]; registered once under a
// collision-free name so doSelect's behavior is deterministic in tests.
type firstLoadBalance struct{}

func (firstLoadBalance) Select(invokers []protocol.Invoker, _ *common.URL, _ protocol.Invocation) (protocol.Invoker, error) {
	return invokers[0], nil
}

const testLoadBalanceName = "cluster-impl-test-first"

func init() {
	cluster.LoadBalances.RegisterDefault(testLoadBalanceName, firstLoadBalance{})
}

func newTestURL(opts ...common.Option) *common.URL {
	all := append([]common.Option{
		common.WithProtocol("fake"),
		common.WithPath("com.example.Greeter"),
		common.WithInterface("com.example.Greeter"),
		common.WithParamsValue("loadbalance", testLoadBalanceName),
	}, opts...)
	return common.NewURLWithOptions(all...)
}
