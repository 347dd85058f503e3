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

// Package loadbalance holds the final single-endpoint selection strategies:
// random (weighted), round-robin (smooth weighted), least-active, and
// consistent-hash. Each registers itself into cluster.LoadBalances at
// init().
package loadbalance

import (
	"time"

	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/common/constant"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// effectiveWeight computes an endpoint's weight for url/invocation,
// de-rating it during its warm-up window so a freshly started provider
// ramps up gradually instead of taking a full share of traffic
// immediately.
func effectiveWeight(invoker protocol.Invoker, invocation protocol.Invocation) int64 {
	url := invoker.GetURL()
	weight := url.GetMethodParamInt(invocation.MethodName(), constant.WeightKey, constant.DefaultWeight)
	if weight <= 0 {
		return 0
	}
	ts := url.GetParamInt(constant.RemoteTimestampKey, 0)
	if ts <= 0 {
		ts = url.GetParamInt(constant.TimestampKey, 0)
	}
	if ts <= 0 {
		return weight
	}
	uptime := time.Now().UnixMilli() - ts
	warmup := url.GetMethodParamInt(invocation.MethodName(), constant.WarmupKey, constant.DefaultWarmup)
	if uptime > 0 && uptime < warmup {
		return warmedUp(uptime, warmup, weight)
	}
	return weight
}

// warmedUp scales weight down proportionally to how far uptime is into the
// warmup window: at uptime==0 it returns (at least) 1, at uptime>=warmup it
// returns weight.
func warmedUp(uptime, warmup, weight int64) int64 {
	w := int64(float64(uptime) / (float64(warmup) / float64(weight)))
	if w < 1 {
		return 1
	}
	if w > weight {
		return weight
	}
	return w
}
