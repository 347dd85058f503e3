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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

func TestConsistentHash_SameArgumentAlwaysPicksSameEndpoint(t *testing.T) {
	ch := NewConsistentHash()
	invokers := []protocol.Invoker{
		newWeightedInvoker("10.0.0.1", 1),
		newWeightedInvoker("10.0.0.2", 1),
		newWeightedInvoker("10.0.0.3", 1),
	}
	url := common.NewURLWithOptions(common.WithInterface("com.example.Greeter"))
	inv := protocol.NewRPCInvocation("sayHi", []interface{}{"user-42"}, nil)

	first, err := ch.Select(invokers, url, inv)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := ch.Select(invokers, url, inv)
		require.NoError(t, err)
		assert.Same(t, first, again)
	}
}

func TestConsistentHash_DifferentArgumentsCanLandOnDifferentEndpoints(t *testing.T) {
	ch := NewConsistentHash()
	invokers := []protocol.Invoker{
		newWeightedInvoker("10.0.0.1", 1),
		newWeightedInvoker("10.0.0.2", 1),
		newWeightedInvoker("10.0.0.3", 1),
		newWeightedInvoker("10.0.0.4", 1),
	}
	url := common.NewURLWithOptions(common.WithInterface("com.example.Greeter"))

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		inv := protocol.NewRPCInvocation("sayHi", []interface{}{i}, nil)
		picked, err := ch.Select(invokers, url, inv)
		require.NoError(t, err)
		seen[picked.GetURL().Address()] = true
	}
	assert.Greater(t, len(seen), 1, "varying the hashed argument should spread load across more than one endpoint")
}

func TestConsistentHash_RingRebuildsWhenCandidateSetChanges(t *testing.T) {
	ch := NewConsistentHash()
	a := newWeightedInvoker("10.0.0.1", 1)
	b := newWeightedInvoker("10.0.0.2", 1)
	url := common.NewURLWithOptions(common.WithInterface("com.example.Greeter"))
	inv := protocol.NewRPCInvocation("sayHi", []interface{}{"user-42"}, nil)

	_, err := ch.Select([]protocol.Invoker{a, b}, url, inv)
	require.NoError(t, err)

	c := newWeightedInvoker("10.0.0.3", 1)
	picked, err := ch.Select([]protocol.Invoker{a, b, c}, url, inv)
	require.NoError(t, err)
	assert.Contains(t, []protocol.Invoker{a, b, c}, picked)
}

func TestConsistentHash_SingleInvokerShortCircuits(t *testing.T) {
	ch := NewConsistentHash()
	only := newWeightedInvoker("10.0.0.1", 1)
	picked, err := ch.Select([]protocol.Invoker{only}, only.url, protocol.NewRPCInvocation("sayHi", nil, nil))
	require.NoError(t, err)
	assert.Same(t, only, picked)
}

func TestConsistentHash_EmptyInvokersIsError(t *testing.T) {
	ch := NewConsistentHash()
	_, err := ch.Select(nil, common.NewURLWithOptions(), protocol.NewRPCInvocation("sayHi", nil, nil))
	assert.Error(t, err)
}
