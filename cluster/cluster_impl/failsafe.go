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

// FailsafeInvoker makes one attempt; any failure is logged and swallowed,
// returning an empty successful Result instead. Useful for best-effort
// calls like metric reporting.
type FailsafeInvoker struct {
	baseClusterInvoker
}

func NewFailsafeInvoker(dir cluster.Directory) *FailsafeInvoker {
	return &FailsafeInvoker{baseClusterInvoker: newBaseClusterInvoker(dir)}
}

func (f *FailsafeInvoker) Invoke(ctx context.Context, invocation protocol.Invocation) protocol.Result {
	return f.invokeTemplate(ctx, invocation, f)
}

func (f *FailsafeInvoker) doInvoke(ctx context.Context, invocation protocol.Invocation, invokers []protocol.Invoker) protocol.Result {
	lb := f.loadBalanceFor(invocation)
	endpoint, err := f.doSelect(lb, invocation, invokers, nil)
	if err != nil {
		logger.Warnf("failsafe cluster: selection failed for method %s: %v", invocation.MethodName(), err)
		return protocol.NewRPCResult(nil)
	}

	done := activeGuard(endpoint)
	result := endpoint.Invoke(ctx, invocation)
	done()

	if result.HasException() {
		logger.Warnf("failsafe cluster: call to %s failed, swallowing: %v", endpoint.GetURL().Address(), result.Error())
		return protocol.NewRPCResult(nil)
	}
	return result
}

func init() {
	cluster.Clusters.Register(constant.ClusterKeyFailsafe, failsafeCluster{})
}

type failsafeCluster struct{}

func (failsafeCluster) Join(dir cluster.Directory) protocol.Invoker { return NewFailsafeInvoker(dir) }
