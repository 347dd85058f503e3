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

// Package directory holds Directory implementations: a static, fixed-list
// directory for tests and embedded use, and a registry-backed directory
// that tracks notifications from a service-discovery source.
package directory

import (
	"sort"
	"strings"
	"sync"

	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/cluster/router"
	"github.com/dubbo-cluster/rpc-cluster/cluster/router/mock"
	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// BaseDirectory supplies the bookkeeping every Directory needs: its
// defining URL, a destroyed flag, and an ordered router chain applied by
// embedders after they compute their raw candidate list. Routers marked
// "runtime" are re-evaluated on every List call; the rest are evaluated
// once per membership snapshot and cached.
type BaseDirectory struct {
	url *common.URL

	mu        sync.RWMutex
	destroyed bool
	routers   []cluster.Router // full chain, priority order; kept for inspection/tests
	nonRT     []cluster.Router // routers subset, not flagged runtime
	rtRouters []cluster.Router // routers subset, flagged runtime

	// nonRuntimeFingerprint/nonRuntimeResult cache the result of running
	// the non-runtime routers against the last-seen raw membership, keyed
	// by a fingerprint of that membership. Route recomputes the cache only
	// when the fingerprint changes (new discovery snapshot) or the router
	// chain itself changes (SetRouters/AddRouters).
	nonRuntimeFingerprint string
	nonRuntimeResult      []protocol.Invoker
}

// NewBaseDirectory builds a BaseDirectory bound to url. The terminal
// mock-selection router is installed immediately; every Directory carries
// it regardless of what other routers get configured later, and it always
// sorts last.
func NewBaseDirectory(url *common.URL) *BaseDirectory {
	d := &BaseDirectory{url: url}
	d.SetRouters([]cluster.Router{mock.New(url)})
	return d
}

func (d *BaseDirectory) GetURL() *common.URL { return d.url }

func (d *BaseDirectory) IsAvailable() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.destroyed
}

func (d *BaseDirectory) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed = true
}

// SetRouters installs the router chain, split once into runtime and
// non-runtime groups ordered by Priority ascending.
func (d *BaseDirectory) SetRouters(routers []cluster.Router) {
	sorted := make([]cluster.Router, len(routers))
	copy(sorted, routers)
	router.SortByPriority(sorted)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.routers = sorted
	d.rtRouters = d.rtRouters[:0]
	d.nonRT = d.nonRT[:0]
	for _, r := range sorted {
		if rr, ok := r.(interface{ IsRuntime() bool }); ok && rr.IsRuntime() {
			d.rtRouters = append(d.rtRouters, r)
		} else {
			d.nonRT = append(d.nonRT, r)
		}
	}
	// Router chain changed: the cached non-runtime result is stale
	// regardless of whether membership itself moved.
	d.nonRuntimeFingerprint = ""
	d.nonRuntimeResult = nil
}

// AddRouters merges extra routers (e.g. condition rules loaded from
// configuration) into the existing chain and re-sorts it. The terminal
// mock router's MaxPriority keeps it last regardless of what's added.
func (d *BaseDirectory) AddRouters(extra []cluster.Router) {
	d.mu.RLock()
	merged := append(append([]cluster.Router{}, d.routers...), extra...)
	d.mu.RUnlock()
	d.SetRouters(merged)
}

// Route runs raw membership through the router chain: non-runtime routers
// run once per distinct membership snapshot (cached by fingerprint,
// recomputed on change), and runtime routers run on top of that cached
// base on every call. Concrete Directory implementations should call this
// from List instead of re-running the whole chain per call.
func (d *BaseDirectory) Route(raw []protocol.Invoker, invocation protocol.Invocation) ([]protocol.Invoker, error) {
	fp := fingerprint(raw)

	d.mu.Lock()
	if fp != d.nonRuntimeFingerprint {
		base, err := applyRouters(d.nonRT, raw, d.url, invocation)
		if err != nil {
			d.mu.Unlock()
			return nil, err
		}
		d.nonRuntimeFingerprint = fp
		d.nonRuntimeResult = base
	}
	cached := d.nonRuntimeResult
	routers := d.rtRouters
	d.mu.Unlock()

	return applyRouters(routers, cached, d.url, invocation)
}

// fingerprint identifies a membership snapshot by its endpoint identities.
// The identities are sorted before joining, so the same membership in a
// different order (e.g. a snapshot built from map iteration) yields the
// same fingerprint, while add/remove/replace churn changes it.
func fingerprint(invokers []protocol.Invoker) string {
	if len(invokers) == 0 {
		return ""
	}
	ids := make([]string, len(invokers))
	for i, inv := range invokers {
		ids[i] = inv.GetURL().Identity()
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// applyRouters runs invokers through each router in order, threading the
// output of one into the input of the next. A router that returns an error
// short-circuits the chain; its error propagates to the caller.
func applyRouters(routers []cluster.Router, invokers []protocol.Invoker, url *common.URL, invocation protocol.Invocation) ([]protocol.Invoker, error) {
	cur := invokers
	for _, r := range routers {
		next, err := r.Route(cur, url, invocation)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
