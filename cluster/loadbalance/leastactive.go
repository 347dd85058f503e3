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
	"sync"

	"go.uber.org/atomic"

	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/common/constant"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// ActiveCounter tracks one endpoint's in-flight call count. Concrete
// Invoker wrappers (or the base cluster invoker) increment it before
// dispatch and decrement it after, independent of which LoadBalance is in
// use; LeastActive just reads it.
type ActiveCounter struct {
	n atomic.Int64
}

func (c *ActiveCounter) Begin() { c.n.Inc() }
func (c *ActiveCounter) End()   { c.n.Dec() }
func (c *ActiveCounter) Get() int64 {
	return c.n.Load()
}

var (
	countersMu sync.Mutex
	counters   = make(map[string]*ActiveCounter)
)

// CounterFor returns the shared ActiveCounter for an endpoint identity,
// creating it on first use. Exported so cluster_impl can mark
// begin/end-of-call around every dispatch.
func CounterFor(identity string) *ActiveCounter {
	countersMu.Lock()
	defer countersMu.Unlock()
	c, ok := counters[identity]
	if !ok {
		c = &ActiveCounter{}
		counters[identity] = c
	}
	return c
}

// LeastActive picks the invoker with the fewest in-flight calls, breaking
// ties by effective weight (weighted random among the tied set).
type LeastActive struct{}

func (LeastActive) Select(invokers []protocol.Invoker, _ *common.URL, invocation protocol.Invocation) (protocol.Invoker, error) {
	n := len(invokers)
	if n == 0 {
		return nil, errNoInvokers
	}
	if n == 1 {
		return invokers[0], nil
	}

	leastActive := int64(-1)
	var tied []protocol.Invoker
	var tiedWeights []int64
	var totalWeight int64
	sameWeight := true

	for _, inv := range invokers {
		active := CounterFor(inv.GetURL().Identity()).Get()
		w := effectiveWeight(inv, invocation)
		switch {
		case leastActive == -1 || active < leastActive:
			leastActive = active
			tied = []protocol.Invoker{inv}
			tiedWeights = []int64{w}
			totalWeight = w
			sameWeight = true
		case active == leastActive:
			if len(tiedWeights) > 0 && w != tiedWeights[0] {
				sameWeight = false
			}
			tied = append(tied, inv)
			tiedWeights = append(tiedWeights, w)
			totalWeight += w
		}
	}

	if len(tied) == 1 {
		return tied[0], nil
	}
	if totalWeight <= 0 || sameWeight {
		return tied[rand.Intn(len(tied))], nil
	}
	offset := rand.Int63n(totalWeight)
	for i, w := range tiedWeights {
		offset -= w
		if offset < 0 {
			return tied[i], nil
		}
	}
	return tied[len(tied)-1], nil
}

func init() {
	cluster.LoadBalances.Register(constant.LoadBalanceKeyLeastActive, LeastActive{})
}
