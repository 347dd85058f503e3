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

package cluster_impl

import (
	"context"
	"sync"
	"time"

	"github.com/dubbogo/gost/log/logger"

	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/common/constant"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// failbackRetryInterval is how often the background worker drains the
// retry queue.
const failbackRetryInterval = 5 * time.Second

// failbackQueueCapacity bounds the retry queue so a persistently failing
// downstream can't grow it without limit; once that many retries are
// pending, the oldest is dropped to make room, matching a best-effort
// strategy's "don't block the caller, don't leak memory either" contract.
// A retry handed off while the worker's intake channel (same capacity) is
// full is dropped instead.
const failbackQueueCapacity = 1000

type failbackTask struct {
	invoker    *FailbackInvoker
	invocation protocol.Invocation
	candidates []protocol.Invoker
}

// failbackWorker is the single process-wide background goroutine that
// retries every FailbackInvoker's queued calls. It is started lazily on
// first use and never stopped during normal operation.
var failbackWorker = struct {
	once  sync.Once
	queue chan failbackTask
}{}

func ensureFailbackWorker() {
	failbackWorker.once.Do(func() {
		failbackWorker.queue = make(chan failbackTask, failbackQueueCapacity)
		go runFailbackWorker()
	})
}

func runFailbackWorker() {
	ticker := time.NewTicker(failbackRetryInterval)
	defer ticker.Stop()
	pending := make([]failbackTask, 0)

	for {
		select {
		case t := <-failbackWorker.queue:
			if len(pending) >= failbackQueueCapacity {
				logger.Warnf("failback cluster: retry queue full, dropping oldest retry for method %s", pending[0].invocation.MethodName())
				pending = pending[1:]
			}
			pending = append(pending, t)
		case <-ticker.C:
			remaining := pending[:0]
			for _, t := range pending {
				if !t.invoker.retryOnce(t.invocation, t.candidates) {
					remaining = append(remaining, t)
				}
			}
			pending = remaining
		}
	}
}

func enqueueFailback(t failbackTask) {
	ensureFailbackWorker()
	select {
	case failbackWorker.queue <- t:
	default:
		logger.Warnf("failback cluster: retry queue full, dropping retry for method %s", t.invocation.MethodName())
	}
}

// FailbackInvoker makes one attempt; on failure it enqueues the call for
// background retry and immediately returns an empty successful Result to
// the original caller.
type FailbackInvoker struct {
	baseClusterInvoker
}

func NewFailbackInvoker(dir cluster.Directory) *FailbackInvoker {
	return &FailbackInvoker{baseClusterInvoker: newBaseClusterInvoker(dir)}
}

func (f *FailbackInvoker) Invoke(ctx context.Context, invocation protocol.Invocation) protocol.Result {
	return f.invokeTemplate(ctx, invocation, f)
}

func (f *FailbackInvoker) doInvoke(ctx context.Context, invocation protocol.Invocation, invokers []protocol.Invoker) protocol.Result {
	lb := f.loadBalanceFor(invocation)
	endpoint, err := f.doSelect(lb, invocation, invokers, nil)
	if err != nil {
		enqueueFailback(failbackTask{invoker: f, invocation: invocation, candidates: invokers})
		return protocol.NewRPCResult(nil)
	}

	done := activeGuard(endpoint)
	result := endpoint.Invoke(ctx, invocation)
	done()

	if result.HasException() {
		logger.Warnf("failback cluster: call to %s failed, scheduling retry: %v", endpoint.GetURL().Address(), result.Error())
		enqueueFailback(failbackTask{invoker: f, invocation: invocation, candidates: invokers})
		return protocol.NewRPCResult(nil)
	}
	return result
}

// retryOnce is run from the background worker; it returns true once the
// call has succeeded (or no candidate is left at all, in which case
// further retry is pointless) and false to keep it queued. A fresh,
// non-empty directory listing replaces the candidates captured with the
// original call; an empty listing keeps those original candidates.
func (f *FailbackInvoker) retryOnce(invocation protocol.Invocation, candidates []protocol.Invoker) bool {
	invokers, err := f.dir.List(context.Background(), invocation)
	if err == nil && len(invokers) > 0 {
		candidates = invokers
	}
	if len(candidates) == 0 {
		return true
	}

	lb := f.loadBalanceFor(invocation)
	endpoint, err := f.doSelect(lb, invocation, candidates, nil)
	if err != nil {
		return false
	}
	done := activeGuard(endpoint)
	result := endpoint.Invoke(context.Background(), invocation)
	done()
	return !result.HasException()
}

func init() {
	cluster.Clusters.Register(constant.ClusterKeyFailback, failbackCluster{})
}

type failbackCluster struct{}

func (failbackCluster) Join(dir cluster.Directory) protocol.Invoker { return NewFailbackInvoker(dir) }
