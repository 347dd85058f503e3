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
	"math/rand"

	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/common/constant"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// Random picks an invoker with probability proportional to its effective
// weight. When every invoker carries the same weight this degenerates to a
// uniform pick.
type Random struct{}

func (Random) Select(invokers []protocol.Invoker, _ *common.URL, invocation protocol.Invocation) (protocol.Invoker, error) {
	n := len(invokers)
	if n == 0 {
		return nil, errNoInvokers
	}
	if n == 1 {
		return invokers[0], nil
	}

	weights := make([]int64, n)
	var total int64
	sameWeight := true
	for i, inv := range invokers {
		w := effectiveWeight(inv, invocation)
		weights[i] = w
		total += w
		if i > 0 && w != weights[0] {
			sameWeight = false
		}
	}

	if total <= 0 || !anyPositive(weights) {
		return invokers[rand.Intn(n)], nil
	}
	if sameWeight {
		return invokers[rand.Intn(n)], nil
	}

	offset := rand.Int63n(total)
	for i, w := range weights {
		offset -= w
		if offset < 0 {
			return invokers[i], nil
		}
	}
	return invokers[n-1], nil
}

func anyPositive(weights []int64) bool {
	for _, w := range weights {
		if w > 0 {
			return true
		}
	}
	return false
}

func init() {
	cluster.LoadBalances.RegisterDefault(constant.LoadBalanceKeyRandom, Random{})
}
