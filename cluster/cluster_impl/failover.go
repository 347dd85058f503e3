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

	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/common/constant"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// FailoverInvoker retries on a fresh directory listing up to retries+1
// total attempts, skipping endpoints already tried. A BIZ exception
// returns immediately without retry: business errors are never retried.
type FailoverInvoker struct {
	baseClusterInvoker
}

// NewFailoverInvoker binds dir as a fail-over ClusterInvoker.
func NewFailoverInvoker(dir cluster.Directory) *FailoverInvoker {
	return &FailoverInvoker{baseClusterInvoker: newBaseClusterInvoker(dir)}
}

func (f *FailoverInvoker) Invoke(ctx context.Context, invocation protocol.Invocation) protocol.Result {
	return f.invokeTemplate(ctx, invocation, f)
}

func (f *FailoverInvoker) doInvoke(ctx context.Context, invocation protocol.Invocation, invokers []protocol.Invoker) protocol.Result {
	retries := f.url.GetMethodParamInt(invocation.MethodName(), constant.RetriesKey, mustParseInt(constant.DefaultRetries))
	attempts := retries + 1

	lb := f.loadBalanceFor(invocation)
	candidates := invokers
	var tried []protocol.Invoker
	var lastErr error

	for i := int64(0); i < attempts; i++ {
		if i > 0 {
			relisted, err := f.dir.List(ctx, invocation)
			if err == nil && len(relisted) > 0 {
				candidates = relisted
			}
		}
		endpoint, err := f.doSelect(lb, invocation, candidates, tried)
		if err != nil {
			lastErr = err
			continue
		}

		done := activeGuard(endpoint)
		result := endpoint.Invoke(ctx, invocation)
		done()

		if !result.HasException() {
			return result
		}
		if protocol.IsBiz(result.Error()) {
			return result
		}
		lastErr = result.Error()
		tried = append(tried, endpoint)
	}

	return protocol.NewRPCResultWithError(newClusterError(tried, lastErr))
}

func init() {
	cluster.Clusters.RegisterDefault(constant.ClusterKeyFailover, failoverCluster{})
}

type failoverCluster struct{}

func (failoverCluster) Join(dir cluster.Directory) protocol.Invoker { return NewFailoverInvoker(dir) }
