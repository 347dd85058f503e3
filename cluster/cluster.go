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

// Package cluster declares the dispatch-side abstractions: Directory (the
// live endpoint list), Router (a filter/reorder stage over that list),
// LoadBalance (final single-endpoint pick), and Cluster (binds a Directory
// to one fault-tolerance strategy, producing a single Invoker façade).
// Concrete strategies live in sibling packages (directory, router,
// loadbalance, cluster_impl) and register themselves here via the
// extension registries at init() time.
package cluster

import (
	"context"

	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/common/extension"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// Directory lists the currently available Invokers for an Invocation. A
// Directory may be backed by a static slice or a live registry
// subscription; List always returns a defensive snapshot so callers never
// observe a slice being mutated under them.
type Directory interface {
	List(ctx context.Context, invocation protocol.Invocation) ([]protocol.Invoker, error)
	GetURL() *common.URL
	IsAvailable() bool
	Destroy()
}

// Router filters and/or reorders a candidate Invoker list for one
// Invocation. Priority determines evaluation order within a Chain (lower
// runs first); Route must not mutate the slice it is given.
type Router interface {
	Route(invokers []protocol.Invoker, url *common.URL, invocation protocol.Invocation) ([]protocol.Invoker, error)
	Priority() int64
	URL() *common.URL
}

// RouterFactory builds a Router from a rule URL; registered per router
// kind (e.g. "condition") so a Chain can be assembled from configuration.
type RouterFactory interface {
	NewRouter(url *common.URL) (Router, error)
}

// LoadBalance picks exactly one Invoker out of a non-empty candidate list.
// Implementations must be safe for concurrent use across goroutines
// dispatching different Invocations.
type LoadBalance interface {
	Select(invokers []protocol.Invoker, url *common.URL, invocation protocol.Invocation) (protocol.Invoker, error)
}

// Cluster binds a Directory to one fault-tolerance policy, returning a
// single Invoker that fans requests out to the Directory's members
// according to that policy.
type Cluster interface {
	Join(dir Directory) protocol.Invoker
}

// Registries. One extension.Registry[T] instance per capability, built at
// package init() rather than discovered via reflection.
var (
	Clusters       = extension.NewRegistry[Cluster]("Cluster")
	LoadBalances   = extension.NewRegistry[LoadBalance]("LoadBalance")
	RouterFactories = extension.NewRegistry[RouterFactory]("RouterFactory")
)
