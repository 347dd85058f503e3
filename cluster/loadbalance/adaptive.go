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

package loadbalance

import (
	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/common/constant"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// adaptive is the LoadBalance installed as this interface's adaptive
// extension. Resolution happens at Select time rather than at factory
// construction, since the choice of balancer can be overridden per method
// and the only URL available when the factory runs is the interface-level
// one. The lookup checks the method-scoped key first, falling back to the
// global key.
type adaptive struct{}

func (adaptive) Select(invokers []protocol.Invoker, url *common.URL, invocation protocol.Invocation) (protocol.Invoker, error) {
	name := url.GetMethodParam(invocation.MethodName(), constant.LoadbalanceKey, constant.DefaultLoadbalance)
	lb, err := cluster.LoadBalances.Get(name)
	if err != nil {
		lb, err = cluster.LoadBalances.GetDefault()
		if err != nil {
			return nil, err
		}
	}
	return lb.Select(invokers, url, invocation)
}

func init() {
	cluster.LoadBalances.SetAdaptive("true", func(_ interface{ GetParam(key, d string) string }) cluster.LoadBalance {
		return adaptive{}
	})
}
