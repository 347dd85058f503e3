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

// Package router holds the Router chain ordering helper and the concrete
// router kinds (condition, mock) in subpackages.
package router

import (
	"sort"

	"github.com/dubbo-cluster/rpc-cluster/cluster"
)

// SortByPriority orders routers ascending by (Priority, URL.String()).
// The second key exists so two routers sharing a priority never compare
// equal and flap between runs.
func SortByPriority(routers []cluster.Router) {
	sort.SliceStable(routers, func(i, j int) bool {
		pi, pj := routers[i].Priority(), routers[j].Priority()
		if pi != pj {
			return pi < pj
		}
		return routers[i].URL().String() < routers[j].URL().String()
	})
}
