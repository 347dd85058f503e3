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
	"fmt"
	"sort"
	"strconv"

	lru "github.com/hashicorp/golang-lru"
	"github.com/spaolacci/murmur3"

	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/common/constant"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// ringCacheSize bounds how many distinct (service,method) rings a single
// ConsistentHash balancer instance keeps built at once. A process proxying
// many services would otherwise grow this cache without limit.
const ringCacheSize = 256

// hashRing is one (service,method)'s virtual-node ring, rebuilt whenever
// the candidate invoker set it was built from changes (detected by a
// cheap fingerprint of the identities involved, not by reference equality;
// a Directory snapshot is a fresh slice every call).
type hashRing struct {
	fingerprint string
	keys        []uint32
	nodes       map[uint32]protocol.Invoker
}

// ConsistentHash routes every call with the same hashed argument(s) to the
// same invoker as long as the candidate set is stable, minimizing
// redistribution when a single node joins or leaves.
// Built rings are kept in a bounded LRU so a process serving many services
// doesn't accumulate one ring per (service,method) forever.
type ConsistentHash struct {
	rings *lru.Cache
}

// NewConsistentHash builds an empty ConsistentHash balancer.
func NewConsistentHash() *ConsistentHash {
	cache, err := lru.New(ringCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which ringCacheSize
		// never is.
		panic(err)
	}
	return &ConsistentHash{rings: cache}
}

func (ch *ConsistentHash) Select(invokers []protocol.Invoker, url *common.URL, invocation protocol.Invocation) (protocol.Invoker, error) {
	n := len(invokers)
	if n == 0 {
		return nil, errNoInvokers
	}
	if n == 1 {
		return invokers[0], nil
	}

	key := url.ServiceKey() + "." + invocation.MethodName()
	fp := fingerprint(invokers)
	nodeCount := url.GetMethodParamInt(invocation.MethodName(), constant.HashNodesKey, constant.DefaultHashNodes)

	var ring *hashRing
	if cached, ok := ch.rings.Get(key); ok {
		ring = cached.(*hashRing)
	}
	if ring == nil || ring.fingerprint != fp {
		ring = buildRing(invokers, fp, nodeCount)
		ch.rings.Add(key, ring)
	}

	argKey := hashArguments(invocation)
	return ring.pick(argKey), nil
}

func fingerprint(invokers []protocol.Invoker) string {
	ids := make([]string, len(invokers))
	for i, inv := range invokers {
		ids[i] = inv.GetURL().Identity()
	}
	sort.Strings(ids)
	h := murmur3.New32()
	for _, id := range ids {
		_, _ = h.Write([]byte(id))
	}
	return strconv.FormatUint(uint64(h.Sum32()), 16)
}

func buildRing(invokers []protocol.Invoker, fp string, nodeCount int64) *hashRing {
	ring := &hashRing{fingerprint: fp, nodes: make(map[uint32]protocol.Invoker)}
	for _, inv := range invokers {
		id := inv.GetURL().Identity()
		for i := int64(0); i < nodeCount; i++ {
			h := murmur3.Sum32([]byte(fmt.Sprintf("%s-%d", id, i)))
			ring.nodes[h] = inv
			ring.keys = append(ring.keys, h)
		}
	}
	sort.Slice(ring.keys, func(i, j int) bool { return ring.keys[i] < ring.keys[j] })
	return ring
}

func (r *hashRing) pick(argKey uint32) protocol.Invoker {
	i := sort.Search(len(r.keys), func(i int) bool { return r.keys[i] >= argKey })
	if i == len(r.keys) {
		i = 0
	}
	return r.nodes[r.keys[i]]
}

// hashArguments hashes the invocation's first argument, the conventional
// consistent-hash key; the choice of argument is not configurable. The
// argument is hashed through its fmt.Sprint representation, and a call
// with no arguments hashes its method name instead.
func hashArguments(invocation protocol.Invocation) uint32 {
	args := invocation.Arguments()
	if len(args) == 0 {
		return murmur3.Sum32([]byte(invocation.MethodName()))
	}
	return murmur3.Sum32([]byte(fmt.Sprint(args[0])))
}

func init() {
	cluster.LoadBalances.Register(constant.LoadBalanceKeyConsistentHash, NewConsistentHash())
}
