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

	"github.com/dubbogo/gost/log/logger"

	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/common/constant"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// BroadcastInvoker invokes every candidate endpoint sequentially, returning
// the last Result obtained; if any call along the way failed, the final
// return is an aggregated exception instead.
type BroadcastInvoker struct {
	baseClusterInvoker
}

func NewBroadcastInvoker(dir cluster.Directory) *BroadcastInvoker {
	return &BroadcastInvoker{baseClusterInvoker: newBaseClusterInvoker(dir)}
}

func (b *BroadcastInvoker) Invoke(ctx context.Context, invocation protocol.Invocation) protocol.Result {
	return b.invokeTemplate(ctx, invocation, b)
}

func (b *BroadcastInvoker) doInvoke(ctx context.Context, invocation protocol.Invocation, invokers []protocol.Invoker) protocol.Result {
	var lastResult protocol.Result
	var tried []protocol.Invoker
	var lastErr error

	for _, endpoint := range invokers {
		done := activeGuard(endpoint)
		result := endpoint.Invoke(ctx, invocation)
		done()

		lastResult = result
		if result.HasException() {
			logger.Warnf("broadcast cluster: call to %s failed, continuing: %v", endpoint.GetURL().Address(), result.Error())
			tried = append(tried, endpoint)
			lastErr = result.Error()
		}
	}

	if lastErr != nil {
		return protocol.NewRPCResultWithError(newClusterError(tried, lastErr))
	}
	return lastResult
}

func init() {
	cluster.Clusters.Register(constant.ClusterKeyBroadcast, broadcastCluster{})
}

type broadcastCluster struct{}

func (broadcastCluster) Join(dir cluster.Directory) protocol.Invoker {
	return NewBroadcastInvoker(dir)
}
