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

// FailfastInvoker makes exactly one attempt and propagates whatever
// happens, success or failure.
type FailfastInvoker struct {
	baseClusterInvoker
}

func NewFailfastInvoker(dir cluster.Directory) *FailfastInvoker {
	return &FailfastInvoker{baseClusterInvoker: newBaseClusterInvoker(dir)}
}

func (f *FailfastInvoker) Invoke(ctx context.Context, invocation protocol.Invocation) protocol.Result {
	return f.invokeTemplate(ctx, invocation, f)
}

func (f *FailfastInvoker) doInvoke(ctx context.Context, invocation protocol.Invocation, invokers []protocol.Invoker) protocol.Result {
	lb := f.loadBalanceFor(invocation)
	endpoint, err := f.doSelect(lb, invocation, invokers, nil)
	if err != nil {
		return protocol.NewRPCResultWithError(err)
	}
	done := activeGuard(endpoint)
	defer done()
	return endpoint.Invoke(ctx, invocation)
}

func init() {
	cluster.Clusters.Register(constant.ClusterKeyFailfast, failfastCluster{})
}

type failfastCluster struct{}

func (failfastCluster) Join(dir cluster.Directory) protocol.Invoker { return NewFailfastInvoker(dir) }
