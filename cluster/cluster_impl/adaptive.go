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
	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/common/constant"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// adaptiveCluster defers strategy selection to Join time, reading the
// directory's own URL rather than whatever URL was visible when the
// adaptive factory ran (a Cluster has no per-invocation URL the way
// LoadBalance does).
type adaptiveCluster struct{}

func (adaptiveCluster) Join(dir cluster.Directory) protocol.Invoker {
	name := dir.GetURL().GetParam(constant.ClusterKey, constant.DefaultCluster)
	c, err := cluster.Clusters.Get(name)
	if err != nil {
		c, err = cluster.Clusters.GetDefault()
		if err != nil {
			return newFailoverForUnknownCluster(dir)
		}
	}
	return c.Join(dir)
}

// newFailoverForUnknownCluster is the last-resort fallback when neither
// the requested cluster name nor any default is registered: fail-over is
// always present (registered as the package default), so this only
// triggers if the caller imported nothing from cluster_impl at all.
func newFailoverForUnknownCluster(dir cluster.Directory) protocol.Invoker {
	return NewFailoverInvoker(dir)
}

func init() {
	cluster.Clusters.SetAdaptive("true", func(_ interface{ GetParam(key, d string) string }) cluster.Cluster {
		return adaptiveCluster{}
	})
}
