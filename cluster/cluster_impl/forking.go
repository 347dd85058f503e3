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
	"time"

	"go.uber.org/atomic"

	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/common/constant"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// forkingPoolSize bounds the shared worker pool backing every
// ForkingInvoker process-wide, via a fixed-size semaphore-guarded channel.
const forkingPoolSize = 256

var forkingPool = make(chan struct{}, forkingPoolSize)

// ForkingInvoker selects up to "forks" distinct endpoints and invokes them
// concurrently, returning whichever result (success or the final failure)
// arrives first within "timeout".
type ForkingInvoker struct {
	baseClusterInvoker
}

func NewForkingInvoker(dir cluster.Directory) *ForkingInvoker {
	return &ForkingInvoker{baseClusterInvoker: newBaseClusterInvoker(dir)}
}

func (f *ForkingInvoker) Invoke(ctx context.Context, invocation protocol.Invocation) protocol.Result {
	return f.invokeTemplate(ctx, invocation, f)
}

func (f *ForkingInvoker) doInvoke(ctx context.Context, invocation protocol.Invocation, invokers []protocol.Invoker) protocol.Result {
	forks := f.url.GetMethodParamInt(invocation.MethodName(), constant.ForksKey, mustParseInt(constant.DefaultForks))
	timeoutMs := f.url.GetMethodParamInt(invocation.MethodName(), constant.TimeoutKey, mustParseInt(constant.DefaultTimeout))

	selected := f.selectForkTargets(invocation, invokers, forks)
	if len(selected) == 0 {
		return protocol.NewRPCResultWithError(protocol.NewException(protocol.NOPROVIDER, "forking cluster: no endpoint selected", nil))
	}

	// Completion channel is sized to len(selected) so every task, even
	// one arriving after the caller's deadline fires, can deliver
	// without blocking.
	done := make(chan protocol.Result, len(selected))
	var failures atomic.Int64
	total := int64(len(selected))

	for _, endpoint := range selected {
		endpoint := endpoint
		forkingPool <- struct{}{}
		go func() {
			defer func() { <-forkingPool }()
			guard := activeGuard(endpoint)
			result := endpoint.Invoke(ctx, invocation)
			guard()

			if result.HasException() {
				if failures.Inc() >= total {
					done <- result
				}
				return
			}
			done <- result
		}()
	}

	timer := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
	defer timer.Stop()

	select {
	case result := <-done:
		if result.HasException() {
			return protocol.NewRPCResultWithError(newClusterError(selected, result.Error()))
		}
		return result
	case <-timer.C:
		return protocol.NewRPCResultWithError(protocol.NewException(protocol.TIMEOUT, "forking cluster: timed out waiting for any result", nil))
	}
}

// selectForkTargets picks the endpoints to fan out to: if forks<=0 or
// forks>=len(candidates), use every candidate; otherwise
// pick forks distinct endpoints one at a time, adding each to tried so
// the next selection differs.
func (f *ForkingInvoker) selectForkTargets(invocation protocol.Invocation, candidates []protocol.Invoker, forks int64) []protocol.Invoker {
	if forks <= 0 || forks >= int64(len(candidates)) {
		out := make([]protocol.Invoker, len(candidates))
		copy(out, candidates)
		return out
	}

	lb := f.loadBalanceFor(invocation)
	var tried []protocol.Invoker
	for int64(len(tried)) < forks {
		endpoint, err := f.doSelect(lb, invocation, candidates, tried)
		if err != nil {
			break
		}
		tried = append(tried, endpoint)
	}
	return tried
}

func init() {
	cluster.Clusters.Register(constant.ClusterKeyForking, forkingCluster{})
}

type forkingCluster struct{}

func (forkingCluster) Join(dir cluster.Directory) protocol.Invoker { return NewForkingInvoker(dir) }
