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
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/common/constant"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// recyclePeriod is how long a node's state may sit unused before it becomes
// eligible for lazy recycling.
const recyclePeriod = time.Duration(constant.RecyclePeriod) * time.Millisecond

// wrrNode is one endpoint's persistent smooth-weighted-round-robin state.
type wrrNode struct {
	weight        int64
	currentWeight atomic.Int64
	lastUpdate    atomic.Int64 // unix nano, for lazy recycling
}

// RoundRobin implements smooth weighted round-robin: each Select call adds
// every candidate's effective weight to its running currentWeight, then
// picks and de-weights the largest, same as nginx's smooth WRR. State is
// keyed per (service,method) and per endpoint identity, so unrelated calls
// never share weight state; a single mutex guards all of it, so Select
// calls for different (service,method) keys still serialize on that lock.
type RoundRobin struct {
	mu    sync.Mutex
	state map[string]map[string]*wrrNode // key: service#method -> endpoint identity -> node
}

// NewRoundRobin builds an empty RoundRobin balancer. Exported so
// cluster_impl or tests can hold a private instance instead of sharing the
// package-registered singleton.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{state: make(map[string]map[string]*wrrNode)}
}

func (rr *RoundRobin) Select(invokers []protocol.Invoker, url *common.URL, invocation protocol.Invocation) (protocol.Invoker, error) {
	n := len(invokers)
	if n == 0 {
		return nil, errNoInvokers
	}
	if n == 1 {
		return invokers[0], nil
	}

	key := url.ServiceKey() + "." + invocation.MethodName()
	now := time.Now()

	rr.mu.Lock()
	nodes, ok := rr.state[key]
	if !ok {
		nodes = make(map[string]*wrrNode)
		rr.state[key] = nodes
	}

	var (
		totalWeight int64
		best        *wrrNode
		bestInvoker protocol.Invoker
	)
	seen := make(map[string]struct{}, n)
	for _, inv := range invokers {
		id := inv.GetURL().Identity()
		seen[id] = struct{}{}
		w := effectiveWeight(inv, invocation)
		node, ok := nodes[id]
		if !ok {
			node = &wrrNode{weight: w}
			nodes[id] = node
		} else {
			node.weight = w
		}
		node.lastUpdate.Store(now.UnixNano())

		cur := node.currentWeight.Add(w)
		totalWeight += w
		if best == nil || cur > best.currentWeight.Load() {
			best = node
			bestInvoker = inv
		}
	}
	if best != nil {
		best.currentWeight.Sub(totalWeight)
	}
	recycleStaleLocked(nodes, seen, now)
	rr.mu.Unlock()

	if bestInvoker == nil {
		return invokers[0], nil
	}
	return bestInvoker, nil
}

// recycleStaleLocked drops any node not present in this round's candidate
// set once it has been idle past recyclePeriod, so a Directory shrinking
// permanently (not just for one temporarily-filtered call) doesn't leak
// state forever. Caller must hold rr.mu.
func recycleStaleLocked(nodes map[string]*wrrNode, seen map[string]struct{}, now time.Time) {
	for id, node := range nodes {
		if _, ok := seen[id]; ok {
			continue
		}
		if now.Sub(time.Unix(0, node.lastUpdate.Load())) > recyclePeriod {
			delete(nodes, id)
		}
	}
}

func init() {
	cluster.LoadBalances.Register(constant.LoadBalanceKeyRoundRobin, NewRoundRobin())
}
