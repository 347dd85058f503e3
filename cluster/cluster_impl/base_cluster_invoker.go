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

	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/cluster/loadbalance"
	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/common/constant"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// doInvoker is implemented by each fault-tolerance strategy's doInvoke.
// baseClusterInvoker.Invoke runs the shared template and hands off to this
// method.
type doInvoker interface {
	doInvoke(ctx context.Context, invocation protocol.Invocation, invokers []protocol.Invoker) protocol.Result
}

// baseClusterInvoker supplies every fault-tolerance strategy's shared
// machinery: directory access, load-balance resolution, and the
// select/reselect/sticky helper.
type baseClusterInvoker struct {
	dir cluster.Directory
	url *common.URL

	stickyMu sync.Mutex
	sticky   map[string]protocol.Invoker // method -> cached endpoint
}

func newBaseClusterInvoker(dir cluster.Directory) baseClusterInvoker {
	return baseClusterInvoker{dir: dir, url: dir.GetURL(), sticky: make(map[string]protocol.Invoker)}
}

func (b *baseClusterInvoker) GetURL() *common.URL { return b.url }
func (b *baseClusterInvoker) IsAvailable() bool    { return b.dir.IsAvailable() }
func (b *baseClusterInvoker) Destroy()             { b.dir.Destroy() }

// invokeTemplate runs the shared invoke path: list the directory, resolve
// a load balancer, and dispatch to self (the embedding strategy)'s
// doInvoke.
func (b *baseClusterInvoker) invokeTemplate(ctx context.Context, invocation protocol.Invocation, self doInvoker) protocol.Result {
	invokers, err := b.dir.List(ctx, invocation)
	if err != nil {
		return protocol.NewRPCResultWithError(protocol.NewException(protocol.CONFIG, "directory list failed", err))
	}
	if len(invokers) == 0 {
		return protocol.NewRPCResultWithError(protocol.NewException(protocol.NOPROVIDER, "no provider available for "+invocation.MethodName(), nil))
	}
	return self.doInvoke(ctx, invocation, invokers)
}

func (b *baseClusterInvoker) loadBalanceFor(invocation protocol.Invocation) cluster.LoadBalance {
	name := b.url.GetMethodParam(invocation.MethodName(), constant.LoadbalanceKey, constant.DefaultLoadbalance)
	lb, err := cluster.LoadBalances.Get(name)
	if err != nil {
		lb, _ = cluster.LoadBalances.GetDefault()
	}
	return lb
}

// doSelect runs the shared selection path: sticky cache check, then
// lb.Select with tried/availability-aware reselect and the (index+1)%N
// fallback.
func (b *baseClusterInvoker) doSelect(lb cluster.LoadBalance, invocation protocol.Invocation, candidates []protocol.Invoker, tried []protocol.Invoker) (protocol.Invoker, error) {
	if len(candidates) == 0 {
		return nil, protocol.NewException(protocol.NOPROVIDER, "no candidates to select from", nil)
	}

	sticky := b.url.GetMethodParamBool(invocation.MethodName(), constant.StickyKey, false)
	availableCheck := b.url.GetParamBool(constant.ClusterAvailableCheckKey, constant.DefaultClusterAvailableCheck)

	if sticky {
		if cached := b.getSticky(invocation.MethodName()); cached != nil {
			if !containsInvoker(candidates, cached) {
				b.setSticky(invocation.MethodName(), nil)
			} else if !containsInvoker(tried, cached) {
				if !availableCheck || cached.IsAvailable() {
					return cached, nil
				}
			}
		}
	}

	picked, err := b.rawSelect(lb, invocation, candidates, tried, availableCheck)
	if err != nil {
		return nil, err
	}
	if sticky {
		b.setSticky(invocation.MethodName(), picked)
	}
	return picked, nil
}

func (b *baseClusterInvoker) rawSelect(lb cluster.LoadBalance, invocation protocol.Invocation, candidates []protocol.Invoker, tried []protocol.Invoker, availableCheck bool) (protocol.Invoker, error) {
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	pick, err := lb.Select(candidates, b.url, invocation)
	if err != nil {
		return nil, err
	}

	if containsInvoker(tried, pick) || (availableCheck && !pick.IsAvailable()) {
		if alt := reselect(lb, b.url, invocation, candidates, tried, availableCheck); alt != nil {
			return alt, nil
		}
		idx := indexOfInvoker(candidates, pick)
		return candidates[(idx+1)%len(candidates)], nil
	}
	return pick, nil
}

// reselect first tries candidates not in tried and available, then falls
// back to tried entries that have since become available.
func reselect(lb cluster.LoadBalance, url *common.URL, invocation protocol.Invocation, candidates []protocol.Invoker, tried []protocol.Invoker, availableCheck bool) protocol.Invoker {
	fresh := make([]protocol.Invoker, 0, len(candidates))
	for _, inv := range candidates {
		if containsInvoker(tried, inv) {
			continue
		}
		if availableCheck && !inv.IsAvailable() {
			continue
		}
		fresh = append(fresh, inv)
	}
	if len(fresh) > 0 {
		if pick, err := lb.Select(fresh, url, invocation); err == nil {
			return pick
		}
	}

	revived := make([]protocol.Invoker, 0, len(tried))
	for _, inv := range tried {
		if !availableCheck || inv.IsAvailable() {
			revived = append(revived, inv)
		}
	}
	if len(revived) > 0 {
		if pick, err := lb.Select(revived, url, invocation); err == nil {
			return pick
		}
	}
	return nil
}

func (b *baseClusterInvoker) getSticky(method string) protocol.Invoker {
	b.stickyMu.Lock()
	defer b.stickyMu.Unlock()
	return b.sticky[method]
}

func (b *baseClusterInvoker) setSticky(method string, inv protocol.Invoker) {
	b.stickyMu.Lock()
	defer b.stickyMu.Unlock()
	if inv == nil {
		delete(b.sticky, method)
		return
	}
	b.sticky[method] = inv
}

func containsInvoker(list []protocol.Invoker, target protocol.Invoker) bool {
	return indexOfInvoker(list, target) >= 0
}

func indexOfInvoker(list []protocol.Invoker, target protocol.Invoker) int {
	for i, inv := range list {
		if inv == target {
			return i
		}
	}
	return -1
}

// activeGuard marks an endpoint as in-flight for the duration of a call so
// leastactive.LoadBalance can read accurate counts regardless of which
// LoadBalance the caller actually configured.
func activeGuard(invoker protocol.Invoker) func() {
	c := loadbalance.CounterFor(invoker.GetURL().Identity())
	c.Begin()
	return c.End
}
