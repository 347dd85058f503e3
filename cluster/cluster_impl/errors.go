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

// Package cluster_impl holds the fault-tolerance ClusterInvoker strategies:
// failover, failfast, failsafe, failback, forking, and broadcast. Each is a
// thin doInvoke layered on baseClusterInvoker's shared select/reselect/
// sticky bookkeeping.
package cluster_impl

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// ClusterError aggregates every endpoint tried during a failed dispatch
// and the last error seen.
type ClusterError struct {
	Tried   []protocol.Invoker
	LastErr error
}

func (e *ClusterError) Error() string {
	addrs := make([]string, 0, len(e.Tried))
	for _, inv := range e.Tried {
		addrs = append(addrs, inv.GetURL().Address())
	}
	return fmt.Sprintf("cluster invocation failed after trying %s: %v", strings.Join(addrs, ", "), e.LastErr)
}

func (e *ClusterError) Unwrap() error { return e.LastErr }

func newClusterError(tried []protocol.Invoker, lastErr error) *ClusterError {
	return &ClusterError{Tried: append([]protocol.Invoker{}, tried...), LastErr: lastErr}
}

// wrapf is a thin alias over github.com/pkg/errors.Wrapf, kept so every
// file in this package reaches for the same wrapping convention.
func wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}
