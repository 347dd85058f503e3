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

package protocol

import (
	"context"
	"sync"

	"github.com/dubbo-cluster/rpc-cluster/common"
)

// Invoker is the abstract handle to a remote service instance: Invoke,
// IsAvailable, Destroy, and a descriptive URL (address + parameters).
// Within one dispatch an Invoker reference is stable; IsAvailable may
// flip at any time; Destroy is idempotent.
type Invoker interface {
	GetURL() *common.URL
	IsAvailable() bool
	Destroy()
	Invoke(ctx context.Context, invocation Invocation) Result
}

// BaseInvoker supplies the bookkeeping every concrete Invoker needs: its URL
// and an idempotent destroyed flag. Embed it and implement Invoke.
type BaseInvoker struct {
	url       *common.URL
	destroyed bool
	once      sync.Once
	mu        sync.RWMutex
}

// NewBaseInvoker builds a BaseInvoker bound to url.
func NewBaseInvoker(url *common.URL) *BaseInvoker {
	return &BaseInvoker{url: url}
}

func (bi *BaseInvoker) GetURL() *common.URL { return bi.url }

// IsAvailable reports true as long as Destroy has not been called; concrete
// invokers with a live connection should check that connection too.
func (bi *BaseInvoker) IsAvailable() bool {
	bi.mu.RLock()
	defer bi.mu.RUnlock()
	return !bi.destroyed
}

// Destroy is idempotent: only the first call has any effect.
func (bi *BaseInvoker) Destroy() {
	bi.once.Do(func() {
		bi.mu.Lock()
		defer bi.mu.Unlock()
		bi.destroyed = true
	})
}
